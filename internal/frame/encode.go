package frame

import (
	"encoding/binary"
	"fmt"
)

// NewReadRequest builds a request for FC 0x01 or 0x03: start address and
// quantity, both big-endian. The quantity must be within the per-request
// ceiling the protocol imposes and the addressed range must not run past
// 0xFFFF.
func NewReadRequest(txID uint16, unitID uint8, fc FunctionCode, startAddr, count uint16) (Request, error) {
	var max uint16
	switch fc {
	case FcReadCoils:
		max = MaxReadCoils
	case FcReadHoldingRegisters:
		max = MaxReadRegisters
	default:
		return Request{}, fmt.Errorf("%w: %s is not a supported read function", ErrInvalidArgument, fc)
	}

	if count == 0 {
		return Request{}, fmt.Errorf("%w: read count is 0", ErrInvalidArgument)
	}
	if count > max {
		return Request{}, fmt.Errorf("%w: read count %d exceeds %d", ErrInvalidArgument, count, max)
	}
	if uint32(startAddr)+uint32(count)-1 > 0xFFFF {
		return Request{}, fmt.Errorf("%w: end address past 0xFFFF", ErrInvalidArgument)
	}

	return Request{
		TransactionID: txID,
		UnitID:        unitID,
		Function:      fc,
		Data:          encodeAddrValue(startAddr, count),
	}, nil
}

// NewWriteCoilRequest builds a request for FC 0x05. The coil state is
// encoded as 0xFF00 (ON) or 0x0000 (OFF).
func NewWriteCoilRequest(txID uint16, unitID uint8, addr uint16, on bool) Request {
	value := coilOff
	if on {
		value = coilOn
	}
	return Request{
		TransactionID: txID,
		UnitID:        unitID,
		Function:      FcWriteSingleCoil,
		Data:          encodeAddrValue(addr, value),
	}
}

// NewWriteRegisterRequest builds a request for FC 0x06.
func NewWriteRegisterRequest(txID uint16, unitID uint8, addr, value uint16) Request {
	return Request{
		TransactionID: txID,
		UnitID:        unitID,
		Function:      FcWriteSingleRegister,
		Data:          encodeAddrValue(addr, value),
	}
}

func encodeAddrValue(addr, value uint16) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], addr)
	binary.BigEndian.PutUint16(buf[2:4], value)
	return buf
}
