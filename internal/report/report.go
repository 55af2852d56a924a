// Package report renders typed engine results as the line-oriented text
// the tool prints. Pure formatting: no logic, no state, no I/O beyond
// the supplied writer.
package report

import (
	"fmt"
	"io"

	"github.com/keirendev/modbus-enum/internal/engine"
)

// Coils writes one line per coil reading, address-prefixed.
func Coils(w io.Writer, readings []engine.CoilReading) error {
	for _, r := range readings {
		if _, err := fmt.Fprintf(w, "  Coil[%d]: %s\n", r.Address, onOff(r.Value)); err != nil {
			return err
		}
	}
	return nil
}

// Registers writes one line per register reading, address-prefixed.
func Registers(w io.Writer, readings []engine.RegisterReading) error {
	for _, r := range readings {
		if _, err := fmt.Fprintf(w, "  Register[%d]: %d\n", r.Address, r.Value); err != nil {
			return err
		}
	}
	return nil
}

// CoilWrite writes the verification summary of a coil write.
func CoilWrite(w io.Writer, o engine.CoilWriteOutcome) error {
	if o.Matched {
		_, err := fmt.Fprintf(w, "[SUCCESS] Coil %d was changed from %s to %s.\n",
			o.Address, onOff(o.Original), onOff(o.Confirmed))
		return err
	}
	_, err := fmt.Fprintf(w, "[FAILURE] Verification failed! Wrote %s, but read back %s.\n",
		onOff(o.Written), onOff(o.Confirmed))
	return err
}

// RegisterWrite writes the verification summary of a register write.
func RegisterWrite(w io.Writer, o engine.RegisterWriteOutcome) error {
	if o.Matched {
		_, err := fmt.Fprintf(w, "[SUCCESS] Register %d was changed from %d to %d.\n",
			o.Address, o.Original, o.Confirmed)
		return err
	}
	_, err := fmt.Fprintf(w, "[FAILURE] Verification failed! Wrote %d, but read back %d.\n",
		o.Written, o.Confirmed)
	return err
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
