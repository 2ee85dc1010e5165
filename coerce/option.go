package coerce

// Option configures string-to-enum conversion.
type Option func(config) config

type config struct {
	fold bool
}

// CaseInsensitive matches enum member names without regard to case.
func CaseInsensitive() Option {
	return func(c config) config {
		c.fold = true

		return c
	}
}

func makeConfig(opts ...Option) config {
	var c config
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}
