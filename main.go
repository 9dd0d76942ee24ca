package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"glyphcaster/internal/app"
	"glyphcaster/internal/config"
	"glyphcaster/internal/logging"
	"glyphcaster/internal/sink"
	"glyphcaster/internal/sink/window"
)

func main() {
	configPath := flag.String("config", "config.yaml", "configuration file (.yaml or .toml)")
	mode := flag.String("mode", "terminal", "display mode: terminal or window")
	streamAddr := flag.String("stream", "", "serve frames to websocket viewers on this address")
	flag.Parse()

	ensureRuntimeCWD(*configPath)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *streamAddr != "" {
		cfg.Stream.Addr = *streamAddr
	}

	closer, err := logging.Configure(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, *mode); err != nil {
		logging.Log.WithError(err).Error("exiting")
		fmt.Fprintln(os.Stderr, err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, mode string) error {
	a, err := app.Load(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Stream.Addr != "" {
		stream := sink.NewStream()
		a.SetStream(stream)
		go func() {
			if err := stream.ListenAndServe(ctx, cfg.Stream.Addr, cfg.Stream.Path); err != nil {
				logging.Log.WithError(err).Error("stream server failed")
			}
		}()
	}

	switch mode {
	case "terminal":
		term, err := sink.NewTerminal()
		if err != nil {
			return err
		}
		if err := term.Init(); err != nil {
			return err
		}
		defer term.Close()
		return a.Run(ctx, term)

	case "window":
		win, err := window.New(cfg.Display)
		if err != nil {
			return err
		}
		errc := make(chan error, 1)
		go func() {
			errc <- a.Run(ctx, win)
			win.Close()
		}()
		// ebiten must own the main goroutine.
		if err := win.Run(); err != nil {
			return err
		}
		stop()
		return <-errc
	}
	return fmt.Errorf("unknown mode %q", mode)
}

// ensureRuntimeCWD moves to the executable's directory when the config
// file is not reachable from the working directory.
func ensureRuntimeCWD(configPath string) {
	if _, err := os.Stat(configPath); err == nil {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		return
	}
	_ = os.Chdir(filepath.Dir(exe))
}
