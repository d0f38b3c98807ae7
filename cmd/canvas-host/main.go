// Command canvas-host runs a canvas guest in the terminal. With a TTY
// it opens an interactive session that forwards key and mouse input to
// the guest and repaints at the configured cadence; otherwise it
// renders one frame to stdout and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/frontierhq/canvas-host/canvas"
	"github.com/frontierhq/canvas-host/engine"
	"github.com/frontierhq/canvas-host/internal/guestwasm"
	"github.com/frontierhq/canvas-host/render"
	"github.com/frontierhq/canvas-host/runtime"
)

var (
	wasmFile   = flag.String("wasm", "", "Path to guest wasm file (empty runs the built-in demo)")
	configPath = flag.String("config", "", "Path to TOML config file")
	watchFlag  = flag.Bool("watch", false, "Reload the guest when its file changes")
	once       = flag.Bool("once", false, "Render a single frame to stdout and exit")
	fps        = flag.Int("fps", 0, "Frame cadence in frames per second")
	logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile    = flag.String("log-file", "", "Write host logs to this file")
)

func main() {
	flag.Parse()

	cfg, err := resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	interactive := !*once && term.IsTerminal(int(os.Stdout.Fd()))

	logger, err := buildLogger(cfg, interactive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	engine.SetLogger(logger.Named("engine"))

	if interactive {
		err = runInteractive(cfg, logger)
	} else {
		err = runOnce(cfg, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig layers defaults, the config file, and explicit flags.
func resolveConfig() (appConfig, error) {
	cfg := defaultAppConfig()

	if *configPath != "" {
		var err error
		cfg, err = loadAppConfig(*configPath, cfg)
		if err != nil {
			return appConfig{}, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "wasm":
			cfg.WasmPath = *wasmFile
		case "watch":
			cfg.Watch = *watchFlag
		case "fps":
			cfg.FPS = *fps
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		}
	})

	return cfg, cfg.validate()
}

// buildLogger builds the host logger. Interactive mode never writes to
// stderr: the alternate screen owns the terminal, so logs go to the
// configured file or nowhere.
func buildLogger(cfg appConfig, interactive bool) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}

	outputs := []string{"stderr"}
	if cfg.LogFile != "" {
		outputs = []string{cfg.LogFile}
	} else if interactive {
		return zap.NewNop(), nil
	}

	zcfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "console",
		EncoderConfig:     zap.NewDevelopmentEncoderConfig(),
		OutputPaths:       outputs,
		ErrorOutputPaths:  outputs,
		DisableCaller:     true,
		DisableStacktrace: true,
	}
	return zcfg.Build()
}

func guestSource(cfg appConfig) runtime.Source {
	if cfg.WasmPath == "" {
		return runtime.BytesSource{Label: "demo.wasm", Data: guestwasm.DemoGuest()}
	}
	return runtime.PathSource{Path: cfg.WasmPath}
}

// runOnce drives one init plus one frame and prints the result. Suits
// pipelines and smoke tests where no TTY is attached.
func runOnce(cfg appConfig, logger *zap.Logger) error {
	ctx := context.Background()

	rt, err := runtime.New(ctx, guestSource(cfg), &runtime.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	width, height := cfg.Width, cfg.Height
	if width <= 0 || height <= 0 {
		width, height = 80, 24
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width, height = w, h
		}
	}

	size := canvas.LogicalSize{Width: float32(width), Height: float32(height), ScaleFactor: 1}
	if _, err := rt.CallInit(ctx, size); err != nil {
		return err
	}
	res, err := rt.CallFrame(ctx, 0)
	if err != nil {
		return err
	}

	r := render.NewRenderer(width, height)
	r.Render(res.Frame)
	for _, line := range r.Lines() {
		fmt.Println(line)
	}

	// Stdout carries only the rendered frame; diagnostics go to stderr.
	if res.Frame.ClearColor != nil {
		c := *res.Frame.ClearColor
		fmt.Fprintf(os.Stderr, "clear (%.2f, %.2f, %.2f, %.2f)\n", c.R, c.G, c.B, c.A)
	}
	for _, cmd := range res.Frame.Commands {
		fmt.Fprintln(os.Stderr, cmd)
	}
	for _, line := range rt.RecentLogs() {
		fmt.Fprintln(os.Stderr, line)
	}
	return nil
}
