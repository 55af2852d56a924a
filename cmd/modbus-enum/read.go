package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keirendev/modbus-enum/internal/engine"
	"github.com/keirendev/modbus-enum/internal/report"
	"github.com/keirendev/modbus-enum/internal/session"
)

// readFlags extends the shared target flags with an inclusive address
// range: reading 100 to 102 is 3 values.
type readFlags struct {
	targetFlags
	start      int
	end        int
	intervalMs int
}

func addReadFlags(cmd *cobra.Command, rf *readFlags) {
	addTargetFlags(cmd, &rf.targetFlags)
	cmd.Flags().IntVar(&rf.start, "start", 0, "first address to read (inclusive)")
	cmd.Flags().IntVar(&rf.end, "end", 0, "last address to read (inclusive)")
	cmd.Flags().IntVar(&rf.intervalMs, "interval", 0, "repeat the read every N milliseconds until interrupted")
	cobra.CheckErr(cmd.MarkFlagRequired("start"))
	cobra.CheckErr(cmd.MarkFlagRequired("end"))
}

// span converts the inclusive range to (start, count) and rejects
// impossible geometry before any socket activity.
func (rf readFlags) span() (uint16, uint16, error) {
	if rf.start < 0 || rf.start > 0xFFFF {
		return 0, 0, fmt.Errorf("start address %d out of range 0-65535", rf.start)
	}
	if rf.end < rf.start {
		return 0, 0, fmt.Errorf("end address %d is before start address %d", rf.end, rf.start)
	}
	if rf.end > 0xFFFF {
		return 0, 0, fmt.Errorf("end address %d out of range 0-65535", rf.end)
	}
	return uint16(rf.start), uint16(rf.end - rf.start + 1), nil
}

func newReadCoilsCmd() *cobra.Command {
	var rf readFlags

	cmd := &cobra.Command{
		Use:   "read-coils",
		Short: "Read a range of coils",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(rf, cmd.Flags().Changed, readCoilsOnce)
		},
	}
	addReadFlags(cmd, &rf)
	return cmd
}

func newReadRegistersCmd() *cobra.Command {
	var rf readFlags

	cmd := &cobra.Command{
		Use:   "read-registers",
		Short: "Read a range of holding registers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(rf, cmd.Flags().Changed, readRegistersOnce)
		},
	}
	addReadFlags(cmd, &rf)
	return cmd
}

// readPass performs one read over an already-open engine.
type readPass func(e *engine.Engine, start, count uint16) error

func readCoilsOnce(e *engine.Engine, start, count uint16) error {
	readings, err := e.ReadCoils(start, count)
	if err != nil {
		return err
	}
	return report.Coils(os.Stdout, readings)
}

func readRegistersOnce(e *engine.Engine, start, count uint16) error {
	readings, err := e.ReadHoldingRegisters(start, count)
	if err != nil {
		return err
	}
	return report.Registers(os.Stdout, readings)
}

// runRead resolves the target and runs the pass once, or on a ticker
// when --interval is set. Every pass opens a fresh session; a session is
// never reused across passes.
func runRead(rf readFlags, changed func(string) bool, pass readPass) error {
	start, count, err := rf.span()
	if err != nil {
		return err
	}

	t, err := resolve(rf.targetFlags, changed)
	if err != nil {
		return err
	}
	log := newLogger(rf.verbose)

	if rf.intervalMs <= 0 {
		return readOnce(t, log, start, count, pass)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(time.Duration(rf.intervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := readOnce(t, log, start, count, pass); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readOnce(t target, log zerolog.Logger, start, count uint16, pass readPass) error {
	eng, s, err := dialEngine(t, log)
	if err != nil {
		return err
	}
	defer closeSession(s, log)

	return pass(eng, start, count)
}

func closeSession(s *session.Session, log zerolog.Logger) {
	if err := s.Close(); err != nil {
		log.Warn().Err(err).Msg("closing session")
	}
}
