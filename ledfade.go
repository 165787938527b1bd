package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"lautenbacher.net/ledfade/animation"
	"lautenbacher.net/ledfade/config"
	"lautenbacher.net/ledfade/logging"
	"lautenbacher.net/ledfade/platform"
	"lautenbacher.net/ledfade/system"
)

func main() {
	cfile := flag.String("config", config.CONFILE, "Config file to read")
	realp := flag.Bool("real", false, "Set to true if program runs on the real hardware")
	flag.Parse()

	conf, err := config.ReadConfig(*cfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	conf.RealHW = *realp

	logCfg := conf.Logging.TUI
	if conf.RealHW {
		logCfg = conf.Logging.HW
	}
	// The TUI owns the terminal, its log output is held back until
	// the log pane exists.
	if err := logging.Init(!conf.RealHW, logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logging: %v\n", err)
		os.Exit(2)
	}

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM)

	var plat platform.Platform
	if conf.RealHW {
		plat = platform.NewRaspberryPiPlatform(conf)
	} else {
		plat = platform.NewTUIPlatform(conf, ossignal)
	}

	code, restart := run(conf, system.NewProbe(), os.Stdout, plat, ossignal)
	signal.Stop(ossignal)

	if restart {
		restarter := system.NewRestarter(os.Stdout)
		restarter.Exec = func() error {
			logging.Close()
			return system.Reexec()
		}
		if err := restarter.Countdown(conf.Animation.RestartDelay); err != nil {
			fmt.Fprintf(os.Stderr, "Restart failed: %v\n", err)
			code = 1
		}
	}

	if err := logging.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close logging: %v\n", err)
	}
	os.Exit(code)
}

// run prints the diagnostics banner and drives the animation on plat
// until it completes or a signal arrives. It returns the exit code and
// whether the program should restart, which is only the case after a
// bounded animation ran to the end.
func run(conf *config.Config, probe *system.Probe, out io.Writer, plat platform.Platform, ossignal <-chan os.Signal) (int, bool) {
	if err := system.PrintBanner(out, probe); err != nil {
		slog.Error("Failed to read board diagnostics", "error", err)
		return 1, false
	}

	mode, err := conf.Animation.AnimationMode()
	if err != nil {
		slog.Error("Invalid animation mode", "error", err)
		return 2, false
	}
	driver, err := animation.NewDriver(conf.Animation.InitialState(), conf.Animation.Bounds(), mode, plat, conf.Animation.StepInterval)
	if err != nil {
		slog.Error("Failed to create animation driver", "error", err)
		return 2, false
	}

	slog.Info("Configure LED platform", "real", conf.RealHW)
	if err := plat.Start(); err != nil {
		slog.Error("Failed to start platform", "error", err)
		return 1, false
	}

	select {
	case <-plat.Ready():
	case sig := <-ossignal:
		slog.Info("Received signal before platform was ready", "signal", sig)
		plat.Stop()
		return 0, false
	}

	stop := make(chan struct{})
	results := make(chan animation.Result, 1)
	go func() {
		results <- driver.Run(stop)
	}()

	var res animation.Result
	restart := false
	select {
	case res = <-results:
		restart = res.Completed
		// A signal that raced the last frame still cancels the restart.
		select {
		case sig := <-ossignal:
			slog.Info("Received signal, skipping restart", "signal", sig)
			restart = false
		default:
		}
	case sig := <-ossignal:
		slog.Info("Received signal, shutting down", "signal", sig)
		close(stop)
		// Never restart after a signal, even if the run completed
		// in the meantime.
		res = <-results
	}

	plat.Stop()
	slog.Info("LED platform stopped", "frames", res.Frames, "completed", res.Completed, "restart", restart)
	return 0, restart
}
