//go:build linux

package system

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Restarter counts down and then restarts the program.
type Restarter struct {
	Out   io.Writer
	Sleep func(time.Duration)
	Exec  func() error
}

func NewRestarter(out io.Writer) *Restarter {
	return &Restarter{
		Out:   out,
		Sleep: time.Sleep,
		Exec:  Reexec,
	}
}

// Countdown prints the seconds left from seconds down to 0, one line
// per second, and then calls Exec. It only returns if Exec fails.
func (r *Restarter) Countdown(seconds int) error {
	for i := seconds; i >= 0; i-- {
		fmt.Fprintf(r.Out, "Restarting in %d seconds...\n", i)
		r.Sleep(time.Second)
	}
	fmt.Fprintf(r.Out, "Restarting now.\n")
	// Terminals and pipes can't be synced and report EINVAL.
	if f, ok := r.Out.(interface{ Sync() error }); ok {
		if err := f.Sync(); err != nil && !errors.Is(err, unix.EINVAL) {
			slog.Error("Failed to flush restart countdown", "error", err)
		}
	}
	return r.Exec()
}

// Reexec replaces the running process with a fresh copy of the same
// executable, same arguments and environment.
func Reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("can't find own executable: %w", err)
	}
	if err := unix.Exec(exe, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", exe, err)
	}
	return nil
}
