package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/prex/log"
	"github.com/ardnew/prex/profile"
)

// pprofConfig holds the profiling flags. Profiling requires a binary built
// with the pprof tag.
type pprofConfig struct {
	Mode string `default:""             help:"Enable profiling (${pprofModeEnum})" placeholder:"MODE" short:"p"`
	Dir  string `default:"${pprofDir}"  help:"Profile output directory"            type:"path"`
	Addr string `default:""             help:"Serve net/http/pprof on this address" placeholder:"HOST:PORT"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(slices.Collect(profile.Modes()), ","),
		"pprofDir":      filepath.Join(cacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Profiling (pprof)"}
}

// start starts profiling if a mode is set and returns the function ending it.
func (f pprofConfig) start(ctx context.Context) (func(), error) {
	if f.Mode == "" {
		return func() {}, nil
	}

	if !profile.Enabled {
		log.WarnContext(ctx, "profiling requested but not built with pprof tag",
			slog.String("mode", f.Mode),
		)

		return func() {}, nil
	}

	attrs := []slog.Attr{
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
		slog.String("addr", f.Addr),
	}

	stopper, err := profile.Make(
		profile.WithMode(f.Mode),
		profile.WithPath(f.Dir),
		profile.WithAddr(f.Addr),
		profile.WithQuiet(true),
	).Start()
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "pprof start", attrs...)

	return func() {
		stopper.Stop()
		log.DebugContext(ctx, "pprof stop", attrs...)
	}, nil
}
