// Command moreover translates steno strokes from a Gemini PR
// compatible machine into keyboard output.
//
// Usage:
//
//	moreover [flags]
//
// Flags:
//
//	-config     Path to the TOML config file (default: user config dir)
//	-verbosity  Log level 0-5 (default: 3)
//	-version    Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/notewio/moreover/app"
	"github.com/notewio/moreover/config"
	"github.com/notewio/moreover/engine"
	"github.com/notewio/moreover/format"
	"github.com/notewio/moreover/log"
	"github.com/notewio/moreover/machine"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	configPath, verbosity, exit, code := parseFlags(args)
	if exit {
		return code
	}

	log.SetDefault(log.New(verbosityToLevel(verbosity)))
	l := log.Default()

	l.Info("moreover starting", "version", version, "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		l.Error("failed to load config", "error", err)
		return 1
	}

	eng := engine.New()
	for _, path := range cfg.Dictionaries {
		if err := eng.AddDictionary(path); err != nil {
			l.Error("failed to load dictionary", "path", path, "error", err)
			return 1
		}
		l.Info("dictionary loaded", "path", path)
	}

	port, err := openPort(cfg.Machine)
	if err != nil {
		l.Error("failed to open machine", "path", cfg.Machine, "error", err)
		return 1
	}
	dial := func() (machine.Port, error) { return openPort(cfg.Machine) }
	mach := machine.New(port, dial, cfg.KeymapArray())

	sup := app.New(eng, mach, &stdoutInjector{log: l.Module("injector")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		l.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	l.Info("ready")
	if err := sup.Run(ctx); err != nil {
		l.Error("supervisor stopped with an error", "error", err)
		return 1
	}

	l.Info("shutdown complete")
	return 0
}

// openPort opens the configured device path as a machine.Port. No
// serial-configuration library (baud rate, parity) is available in the
// dependency set this project draws from, so the path is opened as a
// plain file; on a real device the OS driver is expected to already be
// configured for the Gemini PR line discipline.
func openPort(path string) (machine.Port, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}

func verbosityToLevel(v int) slog.Level {
	switch {
	case v <= 1:
		return slog.LevelError
	case v == 2:
		return slog.LevelWarn
	case v == 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// parseFlags parses CLI arguments. Returns the resolved config path,
// the verbosity level, whether the caller should exit immediately, and
// the exit code.
func parseFlags(args []string) (configPath string, verbosity int, exit bool, code int) {
	defaultConfig := defaultConfigPath()

	fs := flag.NewFlagSet("moreover", flag.ContinueOnError)
	cfgFlag := fs.String("config", defaultConfig, "path to the TOML config file")
	verbosityFlag := fs.Int("verbosity", 3, "log level 0-5 (0-1=error, 2=warn, 3=info, 4-5=debug)")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return "", 0, true, 2
	}

	if *showVersion {
		fmt.Printf("moreover %s (commit %s)\n", version, commit)
		return "", 0, true, 0
	}

	return *cfgFlag, *verbosityFlag, false, 0
}

// defaultConfigPath returns the platform-specific default config file
// path, falling back to a relative path if it cannot be determined.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "moreover.toml"
	}
	return filepath.Join(dir, "moreover", "moreover.toml")
}

// stdoutInjector is a minimal app.Injector implementation: it writes
// Text actions to stdout and logs everything else. No cross-platform
// OS keyboard-injection library appears anywhere in this project's
// dependency set, so real key injection is out of scope (see
// DESIGN.md); this stand-in keeps the CLI runnable end to end.
type stdoutInjector struct {
	log *log.Logger
}

func (i *stdoutInjector) Delete(n int) error {
	for j := 0; j < n; j++ {
		fmt.Fprint(os.Stdout, "\b \b")
	}
	return nil
}

func (i *stdoutInjector) Send(a format.Action) error {
	switch a.Kind {
	case format.ActionText:
		fmt.Fprint(os.Stdout, a.Text)
	default:
		i.log.Debug("key action", "kind", a.Kind, "key", a.Key)
	}
	return nil
}
