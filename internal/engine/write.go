package engine

import "github.com/keirendev/modbus-enum/internal/frame"

// Writes are always verified: read the current state first, then write,
// then read back and compare. Each step failure aborts the workflow with
// an error naming the step, and no retries happen here; retry policy
// belongs to the caller.

// WriteCoil writes value to the coil at addr with verification. The
// returned outcome is complete even when Matched is false.
func (e *Engine) WriteCoil(addr uint16, value bool) (CoilWriteOutcome, error) {
	outcome := CoilWriteOutcome{Address: addr, Written: value}

	// Step 1: read the original state. Failing here means no write is
	// ever attempted.
	original, err := e.readCoil(addr)
	if err != nil {
		return outcome, &VerifyError{Step: StepReadOriginal, Err: err}
	}
	outcome.Original = original

	// Step 2: write the new state.
	coilValue := uint16(0x0000)
	if value {
		coilValue = 0xFF00
	}
	req := frame.NewWriteCoilRequest(e.tr.NextTransactionID(), e.unitID, addr, value)
	resp, err := e.execute(req)
	if err != nil {
		return outcome, &WriteError{Err: err}
	}
	if err := verifyEcho(resp, addr, coilValue); err != nil {
		return outcome, &WriteError{Err: err}
	}

	// Step 3: read back. The write already went out, so a failure here
	// leaves the device's final state unknown to the caller.
	confirmed, err := e.readCoil(addr)
	if err != nil {
		return outcome, &VerifyError{Step: StepReadBack, Err: err}
	}
	outcome.Confirmed = confirmed
	outcome.Matched = confirmed == value

	e.log.Debug().
		Uint16("addr", addr).
		Bool("original", original).
		Bool("written", value).
		Bool("confirmed", confirmed).
		Bool("matched", outcome.Matched).
		Msg("write coil done")
	return outcome, nil
}

// WriteRegister writes value to the holding register at addr with
// verification, following the same three-step workflow as WriteCoil.
func (e *Engine) WriteRegister(addr, value uint16) (RegisterWriteOutcome, error) {
	outcome := RegisterWriteOutcome{Address: addr, Written: value}

	original, err := e.readRegister(addr)
	if err != nil {
		return outcome, &VerifyError{Step: StepReadOriginal, Err: err}
	}
	outcome.Original = original

	req := frame.NewWriteRegisterRequest(e.tr.NextTransactionID(), e.unitID, addr, value)
	resp, err := e.execute(req)
	if err != nil {
		return outcome, &WriteError{Err: err}
	}
	if err := verifyEcho(resp, addr, value); err != nil {
		return outcome, &WriteError{Err: err}
	}

	confirmed, err := e.readRegister(addr)
	if err != nil {
		return outcome, &VerifyError{Step: StepReadBack, Err: err}
	}
	outcome.Confirmed = confirmed
	outcome.Matched = confirmed == value

	e.log.Debug().
		Uint16("addr", addr).
		Uint16("original", original).
		Uint16("written", value).
		Uint16("confirmed", confirmed).
		Bool("matched", outcome.Matched).
		Msg("write register done")
	return outcome, nil
}
