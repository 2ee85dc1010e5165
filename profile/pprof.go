//go:build pprof

package profile

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/pkg/profile"

	_ "net/http/pprof" // register HTTP handlers
)

// Enabled reports whether the binary was built with the pprof tag.
const Enabled = true

// ErrUnknownMode is returned by [Profiler.Start] for a mode not in [Modes].
var ErrUnknownMode = errors.New("unknown profiling mode")

var mode = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"clock":     profile.ClockProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"heap":      profile.MemProfileHeap,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes yields the supported profiling modes in sorted order.
func Modes() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(mode)))
}

type session struct {
	prof interface{ Stop() }
	srv  *http.Server
}

func (s session) Stop() {
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_ = s.srv.Shutdown(ctx)
	}

	s.prof.Stop()
}

func start(p Profiler) (Stopper, error) {
	fn, ok := mode[p.Mode]
	if !ok {
		return ignore{}, fmt.Errorf("%w: %s", ErrUnknownMode, p.Mode)
	}

	opts := []func(*profile.Profile){fn, profile.NoShutdownHook}
	if p.Path != "" {
		opts = append(opts, profile.ProfilePath(p.Path))
	}

	if p.Quiet {
		opts = append(opts, profile.Quiet)
	}

	var s session

	if p.Addr != "" {
		ln, err := net.Listen("tcp", p.Addr)
		if err != nil {
			return ignore{}, fmt.Errorf("pprof listen: %w", err)
		}

		s.srv = &http.Server{Handler: http.DefaultServeMux, ReadHeaderTimeout: 5 * time.Second}

		go func() { _ = s.srv.Serve(ln) }()
	}

	s.prof = profile.Start(opts...)

	return s, nil
}
