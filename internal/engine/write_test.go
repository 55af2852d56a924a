package engine

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/keirendev/modbus-enum/internal/frame"
)

// failAfter wraps a handler and fails call number n (1-based) with err,
// delegating everything else.
func failAfter(handler func(frame.Response) (frame.Response, error), n int, err error) func(frame.Response) (frame.Response, error) {
	calls := 0
	return func(req frame.Response) (frame.Response, error) {
		calls++
		if calls == n {
			return frame.Response{}, err
		}
		return handler(req)
	}
}

func countWrites(requests []frame.Response) int {
	writes := 0
	for _, req := range requests {
		if req.Function == frame.FcWriteSingleCoil || req.Function == frame.FcWriteSingleRegister {
			writes++
		}
	}
	return writes
}

func TestWriteCoilVerified(t *testing.T) {
	coils := map[uint16]bool{15: false}
	tr := &fakeTransport{handle: deviceHandler(coils, nil)}
	e := New(tr, 1)

	outcome, err := e.WriteCoil(15, true)
	if err != nil {
		t.Fatalf("WriteCoil: %v", err)
	}

	want := CoilWriteOutcome{Address: 15, Original: false, Written: true, Confirmed: true, Matched: true}
	if outcome != want {
		t.Fatalf("outcome = %+v, want %+v", outcome, want)
	}
	if !coils[15] {
		t.Fatal("device coil not flipped")
	}

	// Read original, write, read back: exactly three round trips.
	wantFns := []frame.FunctionCode{frame.FcReadCoils, frame.FcWriteSingleCoil, frame.FcReadCoils}
	if len(tr.requests) != len(wantFns) {
		t.Fatalf("%d round trips, want %d", len(tr.requests), len(wantFns))
	}
	for i, fn := range wantFns {
		if tr.requests[i].Function != fn {
			t.Errorf("request %d function = %v, want %v", i, tr.requests[i].Function, fn)
		}
	}
}

func TestWriteRegisterVerified(t *testing.T) {
	registers := map[uint16]uint16{7: 111}
	tr := &fakeTransport{handle: deviceHandler(nil, registers)}
	e := New(tr, 1)

	outcome, err := e.WriteRegister(7, 999)
	if err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}

	want := RegisterWriteOutcome{Address: 7, Original: 111, Written: 999, Confirmed: 999, Matched: true}
	if outcome != want {
		t.Fatalf("outcome = %+v, want %+v", outcome, want)
	}
	if registers[7] != 999 {
		t.Fatalf("device register = %d, want 999", registers[7])
	}
}

func TestWriteCoilMismatchIsNotAnError(t *testing.T) {
	// A device that echoes the write correctly but never changes state.
	coils := map[uint16]bool{15: false}
	stubborn := func(req frame.Response) (frame.Response, error) {
		if req.Function == frame.FcWriteSingleCoil {
			return frame.Response{
				TransactionID: req.TransactionID,
				UnitID:        req.UnitID,
				Function:      req.Function,
				Data:          req.Data,
			}, nil
		}
		return deviceHandler(coils, nil)(req)
	}
	tr := &fakeTransport{handle: stubborn}
	e := New(tr, 1)

	outcome, err := e.WriteCoil(15, true)
	if err != nil {
		t.Fatalf("mismatch must not be an error, got %v", err)
	}
	if outcome.Matched {
		t.Fatal("Matched = true, want false")
	}
	if outcome.Confirmed {
		t.Fatal("Confirmed = true, want false")
	}
}

func TestWriteRegisterMismatchIsNotAnError(t *testing.T) {
	registers := map[uint16]uint16{7: 111}
	clamping := func(req frame.Response) (frame.Response, error) {
		if req.Function == frame.FcWriteSingleRegister {
			// Echo the request but store a clamped value.
			registers[binary.BigEndian.Uint16(req.Data[0:2])] = 500
			return frame.Response{
				TransactionID: req.TransactionID,
				UnitID:        req.UnitID,
				Function:      req.Function,
				Data:          req.Data,
			}, nil
		}
		return deviceHandler(nil, registers)(req)
	}
	tr := &fakeTransport{handle: clamping}
	e := New(tr, 1)

	outcome, err := e.WriteRegister(7, 999)
	if err != nil {
		t.Fatalf("mismatch must not be an error, got %v", err)
	}
	if outcome.Matched {
		t.Fatal("Matched = true, want false")
	}
	if outcome.Confirmed != 500 {
		t.Fatalf("Confirmed = %d, want 500", outcome.Confirmed)
	}
}

func TestWriteCoilAbortsWhenOriginalReadFails(t *testing.T) {
	wire := errors.New("wire broke")
	tr := &fakeTransport{handle: failAfter(deviceHandler(map[uint16]bool{}, nil), 1, wire)}
	e := New(tr, 1)

	_, err := e.WriteCoil(15, true)
	var verifyErr *VerifyError
	if !errors.As(err, &verifyErr) {
		t.Fatalf("err = %v, want *VerifyError", err)
	}
	if verifyErr.Step != StepReadOriginal {
		t.Fatalf("step = %q, want %q", verifyErr.Step, StepReadOriginal)
	}
	if !errors.Is(err, wire) {
		t.Fatalf("err = %v, want wrapped %v", err, wire)
	}

	// The write must never have gone out.
	if n := countWrites(tr.requests); n != 0 {
		t.Fatalf("%d writes sent, want 0", n)
	}
}

func TestWriteCoilFailedWriteStep(t *testing.T) {
	wire := errors.New("wire broke")
	tr := &fakeTransport{handle: failAfter(deviceHandler(map[uint16]bool{15: false}, nil), 2, wire)}
	e := New(tr, 1)

	_, err := e.WriteCoil(15, true)
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("err = %v, want *WriteError", err)
	}
	if !errors.Is(err, wire) {
		t.Fatalf("err = %v, want wrapped %v", err, wire)
	}
}

func TestWriteRegisterDeviceRejectsWrite(t *testing.T) {
	registers := map[uint16]uint16{7: 111}
	rejecting := func(req frame.Response) (frame.Response, error) {
		if req.Function == frame.FcWriteSingleRegister {
			return frame.Response{
				TransactionID: req.TransactionID,
				UnitID:        req.UnitID,
				Function:      req.Function | 0x80,
				Data:          []byte{byte(frame.ExceptionIllegalDataValue)},
			}, nil
		}
		return deviceHandler(nil, registers)(req)
	}
	tr := &fakeTransport{handle: rejecting}
	e := New(tr, 1)

	_, err := e.WriteRegister(7, 999)
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("err = %v, want *WriteError", err)
	}
	var devErr *frame.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("err = %v, want wrapped *frame.DeviceError", err)
	}
	if devErr.Exception != frame.ExceptionIllegalDataValue {
		t.Errorf("exception = %v, want Illegal_Data_Value", devErr.Exception)
	}
}

func TestWriteCoilBadEchoIsWriteError(t *testing.T) {
	coils := map[uint16]bool{15: false}
	mangling := func(req frame.Response) (frame.Response, error) {
		resp, err := deviceHandler(coils, nil)(req)
		if err == nil && req.Function == frame.FcWriteSingleCoil {
			echo := append([]byte(nil), resp.Data...)
			echo[1]++ // wrong address in the echo
			resp.Data = echo
		}
		return resp, err
	}
	tr := &fakeTransport{handle: mangling}
	e := New(tr, 1)

	_, err := e.WriteCoil(15, true)
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("err = %v, want *WriteError", err)
	}
	if !errors.Is(err, frame.ErrMalformedFrame) {
		t.Fatalf("err = %v, want wrapped ErrMalformedFrame", err)
	}
}

func TestWriteRegisterFailedReadBack(t *testing.T) {
	wire := errors.New("wire broke")
	tr := &fakeTransport{handle: failAfter(deviceHandler(nil, map[uint16]uint16{7: 111}), 3, wire)}
	e := New(tr, 1)

	outcome, err := e.WriteRegister(7, 999)
	var verifyErr *VerifyError
	if !errors.As(err, &verifyErr) {
		t.Fatalf("err = %v, want *VerifyError", err)
	}
	if verifyErr.Step != StepReadBack {
		t.Fatalf("step = %q, want %q", verifyErr.Step, StepReadBack)
	}
	// The original was captured before the failure.
	if outcome.Original != 111 {
		t.Fatalf("Original = %d, want 111", outcome.Original)
	}
}
