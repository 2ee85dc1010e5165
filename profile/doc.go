// Package profile provides optional runtime profiling for the prex command.
//
// Profiling integrates [github.com/pkg/profile] and is compiled in only with
// the "pprof" build tag ([Tag]). Without it [Modes] is empty and
// [Profiler.Start] returns a no-op, so callers need no build tags of their
// own:
//
//	stop, err := profile.Make(
//		profile.WithMode("cpu"),
//		profile.WithPath(dir),
//	).Start()
//	if err != nil {
//		return err
//	}
//	defer stop.Stop()
//
// Profiles are written to the directory given by [WithPath] with names
// matching the mode (cpu.pprof, mem.pprof, and so on). The prex command
// defaults it to the pprof directory under the user cache directory.
//
// [WithAddr] additionally serves the [net/http/pprof] handlers while the
// session runs:
//
//	go build -tags pprof .
//	prex --pprof-mode heap --pprof-addr localhost:6060 repl
//	go tool pprof http://localhost:6060/debug/pprof/heap
//
// Block and mutex profiling can add significant overhead; trace profiling
// is only suited to short runs.
package profile
