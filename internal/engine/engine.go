// Package engine sequences frame codec and transport round trips into
// the four high-level Modbus operations, including the three-step
// read-modify-verify workflow for single writes.
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keirendev/modbus-enum/internal/frame"
)

// Transport abstracts one serial request/response channel. Satisfied by
// *session.Session; tests substitute fakes. The engine never closes the
// transport, the caller owns its lifecycle.
type Transport interface {
	RoundTrip(req []byte) ([]byte, error)
	NextTransactionID() uint16
}

// CoilReading is one coil state at its absolute address.
type CoilReading struct {
	Address uint16
	Value   bool
}

// RegisterReading is one holding register value at its absolute address.
type RegisterReading struct {
	Address uint16
	Value   uint16
}

// CoilWriteOutcome is the full result of a write-verify cycle on a coil.
// Matched=false is a reportable outcome, not an error: the device may
// have independently changed state or silently rejected the value.
type CoilWriteOutcome struct {
	Address   uint16
	Original  bool
	Written   bool
	Confirmed bool
	Matched   bool
}

// RegisterWriteOutcome is the register counterpart of CoilWriteOutcome.
type RegisterWriteOutcome struct {
	Address   uint16
	Original  uint16
	Written   uint16
	Confirmed uint16
	Matched   bool
}

// Engine runs operations against one unit behind one transport.
type Engine struct {
	tr     Transport
	unitID uint8
	log    zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger for per-operation debug traces.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New returns an Engine bound to a transport and a unit id. The unit id
// is always caller-specified; there is no default.
func New(tr Transport, unitID uint8, opts ...Option) *Engine {
	e := &Engine{
		tr:     tr,
		unitID: unitID,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReadCoils reads count coil states starting at start. The result holds
// exactly count readings in ascending address order.
func (e *Engine) ReadCoils(start, count uint16) ([]CoilReading, error) {
	if count < 1 || count > frame.MaxReadCoils {
		return nil, &RangeError{Op: "read coils", Count: count, Max: frame.MaxReadCoils}
	}

	resp, err := e.roundTrip(frame.FcReadCoils, start, count)
	if err != nil {
		return nil, err
	}

	states, err := resp.CoilStates(count)
	if err != nil {
		return nil, err
	}

	readings := make([]CoilReading, count)
	for i, v := range states {
		readings[i] = CoilReading{Address: start + uint16(i), Value: v}
	}
	e.log.Debug().Uint16("start", start).Uint16("count", count).Msg("read coils ok")
	return readings, nil
}

// ReadHoldingRegisters reads count holding registers starting at start.
func (e *Engine) ReadHoldingRegisters(start, count uint16) ([]RegisterReading, error) {
	if count < 1 || count > frame.MaxReadRegisters {
		return nil, &RangeError{Op: "read holding registers", Count: count, Max: frame.MaxReadRegisters}
	}

	resp, err := e.roundTrip(frame.FcReadHoldingRegisters, start, count)
	if err != nil {
		return nil, err
	}

	values, err := resp.RegisterValues(count)
	if err != nil {
		return nil, err
	}

	readings := make([]RegisterReading, count)
	for i, v := range values {
		readings[i] = RegisterReading{Address: start + uint16(i), Value: v}
	}
	e.log.Debug().Uint16("start", start).Uint16("count", count).Msg("read holding registers ok")
	return readings, nil
}

// roundTrip encodes a read request, runs it across the transport and
// returns the matched response.
func (e *Engine) roundTrip(fc frame.FunctionCode, start, count uint16) (frame.Response, error) {
	req, err := frame.NewReadRequest(e.tr.NextTransactionID(), e.unitID, fc, start, count)
	if err != nil {
		return frame.Response{}, err
	}
	return e.execute(req)
}

// execute runs an already-built request and validates the response
// against it.
func (e *Engine) execute(req frame.Request) (frame.Response, error) {
	raw, err := e.tr.RoundTrip(req.Bytes())
	if err != nil {
		return frame.Response{}, err
	}

	resp, err := frame.DecodeResponse(raw)
	if err != nil {
		return frame.Response{}, err
	}
	if err := frame.Match(req, resp); err != nil {
		return frame.Response{}, err
	}
	return resp, nil
}

// readCoil reads a single coil state.
func (e *Engine) readCoil(addr uint16) (bool, error) {
	readings, err := e.ReadCoils(addr, 1)
	if err != nil {
		return false, err
	}
	return readings[0].Value, nil
}

// readRegister reads a single holding register.
func (e *Engine) readRegister(addr uint16) (uint16, error) {
	readings, err := e.ReadHoldingRegisters(addr, 1)
	if err != nil {
		return 0, err
	}
	return readings[0].Value, nil
}

// verifyEcho checks the address/value echo of a single-write response.
func verifyEcho(resp frame.Response, wantAddr, wantValue uint16) error {
	addr, value, err := resp.EchoedAddressValue()
	if err != nil {
		return err
	}
	if addr != wantAddr || value != wantValue {
		return fmt.Errorf("%w: write echoed addr=%d value=0x%04X, expected addr=%d value=0x%04X",
			frame.ErrMalformedFrame, addr, value, wantAddr, wantValue)
	}
	return nil
}
