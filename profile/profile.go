package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler configures a profiling session.
type Profiler struct {
	// Mode names one of [Modes]. An empty mode disables profiling.
	Mode string
	// Path is the directory profiles are written to. Empty selects a
	// temporary directory.
	Path string
	// Addr, if set, is the address of an HTTP server exposing the
	// net/http/pprof handlers for the duration of the session.
	Addr string
	// Quiet suppresses the profiler's own log messages.
	Quiet bool
}

// Option modifies a [Profiler].
type Option func(Profiler) Profiler

// Make returns a Profiler configured with opts.
func Make(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		p = opt(p)
	}

	return p
}

// WithMode returns an option setting a profiler's mode.
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath returns an option setting a profiler's output directory.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithAddr returns an option setting the address of the pprof HTTP server.
func WithAddr(addr string) Option {
	return func(p Profiler) Profiler {
		p.Addr = addr

		return p
	}
}

// WithQuiet returns an option setting a profiler's quiet flag.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

// Start begins profiling and returns a [Stopper] ending it.
//
// Without the pprof build tag, or with an empty or unknown Mode, Start
// returns a no-op. Both Start and Stop are always safely callable.
func (p Profiler) Start() (Stopper, error) {
	if p.Mode == "" {
		return ignore{}, nil
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
