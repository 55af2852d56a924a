package frame

import (
	"encoding/binary"
	"fmt"
)

// DecodeResponse parses a complete MBAP frame. The embedded length field
// must account for exactly the bytes present after it; any disagreement
// fails as a malformed frame.
func DecodeResponse(data []byte) (Response, error) {
	if len(data) < MBAPHeaderSize+1 {
		return Response{}, fmt.Errorf("%w: %d bytes, need at least %d",
			ErrMalformedFrame, len(data), MBAPHeaderSize+1)
	}
	if len(data) > MaxADUSize {
		return Response{}, fmt.Errorf("%w: %d bytes exceeds maximum frame size", ErrMalformedFrame, len(data))
	}

	protocolID := binary.BigEndian.Uint16(data[2:4])
	if protocolID != 0x0000 {
		return Response{}, fmt.Errorf("%w: protocol id 0x%04X", ErrMalformedFrame, protocolID)
	}

	// The length field counts unit id + function code + payload.
	length := int(binary.BigEndian.Uint16(data[4:6]))
	if length != len(data)-6 {
		return Response{}, fmt.Errorf("%w: length field %d, frame carries %d bytes after it",
			ErrMalformedFrame, length, len(data)-6)
	}

	return Response{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		UnitID:        data[6],
		Function:      FunctionCode(data[7]),
		Data:          data[8:],
	}, nil
}

// Match checks that a response answers the given request: same
// transaction id, same unit id and same function code modulo the
// exception bit. An exception response yields a typed *DeviceError; any
// other disagreement is a malformed frame.
func Match(req Request, resp Response) error {
	if resp.TransactionID != req.TransactionID {
		return fmt.Errorf("%w: transaction id 0x%04X, expected 0x%04X",
			ErrMalformedFrame, resp.TransactionID, req.TransactionID)
	}
	if resp.UnitID != req.UnitID {
		return fmt.Errorf("%w: unit id %d, expected %d", ErrMalformedFrame, resp.UnitID, req.UnitID)
	}
	if resp.Function&0x7F != FunctionCode(uint8(req.Function)&0x7F) {
		return fmt.Errorf("%w: function 0x%02X answers 0x%02X",
			ErrMalformedFrame, uint8(resp.Function), uint8(req.Function))
	}
	if resp.IsException() {
		if len(resp.Data) != 1 {
			return fmt.Errorf("%w: exception response with %d payload bytes", ErrMalformedFrame, len(resp.Data))
		}
		return &DeviceError{Function: req.Function, Exception: resp.ExceptionCode()}
	}
	return nil
}

// CoilStates unpacks a read-coils response payload into exactly count
// states, LSB-first within each byte. Pad bits beyond count are discarded.
func (r Response) CoilStates(count uint16) ([]bool, error) {
	data, err := r.byteCountPayload()
	if err != nil {
		return nil, err
	}
	if len(data)*8 < int(count) {
		return nil, fmt.Errorf("%w: %d coil bytes cannot cover %d coils", ErrMalformedFrame, len(data), count)
	}

	states := make([]bool, count)
	for i := range states {
		states[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return states, nil
}

// RegisterValues unpacks a read-holding-registers response payload into
// exactly count big-endian 16-bit values.
func (r Response) RegisterValues(count uint16) ([]uint16, error) {
	data, err := r.byteCountPayload()
	if err != nil {
		return nil, err
	}
	if len(data) != 2*int(count) {
		return nil, fmt.Errorf("%w: %d register bytes, expected %d", ErrMalformedFrame, len(data), 2*count)
	}

	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[2*i : 2*i+2])
	}
	return values, nil
}

// EchoedAddressValue returns the address and value echoed by a single
// write response (FC 0x05 and 0x06 echo the request verbatim).
func (r Response) EchoedAddressValue() (addr, value uint16, err error) {
	if len(r.Data) != 4 {
		return 0, 0, fmt.Errorf("%w: write echo carries %d bytes, expected 4", ErrMalformedFrame, len(r.Data))
	}
	return binary.BigEndian.Uint16(r.Data[0:2]), binary.BigEndian.Uint16(r.Data[2:4]), nil
}

// byteCountPayload strips the leading byte-count field of a read response
// and checks it against the bytes actually present.
func (r Response) byteCountPayload() ([]byte, error) {
	if len(r.Data) < 1 {
		return nil, fmt.Errorf("%w: empty read response payload", ErrMalformedFrame)
	}
	byteCount := int(r.Data[0])
	if len(r.Data)-1 != byteCount {
		return nil, fmt.Errorf("%w: byte count %d, payload carries %d bytes",
			ErrMalformedFrame, byteCount, len(r.Data)-1)
	}
	return r.Data[1:], nil
}
