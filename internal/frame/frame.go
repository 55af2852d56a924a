// Package frame encodes and decodes Modbus TCP (MBAP) frames for the
// function codes this tool speaks: Read Coils (0x01), Read Holding
// Registers (0x03), Write Single Coil (0x05) and Write Single Register
// (0x06). All multi-byte fields are big-endian per the protocol.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FunctionCode identifies a Modbus operation.
type FunctionCode uint8

const (
	FcReadCoils            FunctionCode = 0x01
	FcReadHoldingRegisters FunctionCode = 0x03
	FcWriteSingleCoil      FunctionCode = 0x05
	FcWriteSingleRegister  FunctionCode = 0x06
)

// String returns a human-readable name for the function code.
func (fc FunctionCode) String() string {
	switch fc {
	case FcReadCoils:
		return "Read_Coils"
	case FcReadHoldingRegisters:
		return "Read_Holding_Registers"
	case FcWriteSingleCoil:
		return "Write_Single_Coil"
	case FcWriteSingleRegister:
		return "Write_Single_Register"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(fc))
	}
}

// ExceptionCode is a device-reported rejection reason.
type ExceptionCode uint8

const (
	ExceptionIllegalFunction    ExceptionCode = 0x01
	ExceptionIllegalDataAddress ExceptionCode = 0x02
	ExceptionIllegalDataValue   ExceptionCode = 0x03
	ExceptionSlaveDeviceFailure ExceptionCode = 0x04
	ExceptionAcknowledge        ExceptionCode = 0x05
	ExceptionSlaveDeviceBusy    ExceptionCode = 0x06
	ExceptionMemoryParityError  ExceptionCode = 0x08
	ExceptionGatewayPathUnavail ExceptionCode = 0x0A
	ExceptionGatewayTargetFail  ExceptionCode = 0x0B
)

// String returns a human-readable name for the exception code.
func (e ExceptionCode) String() string {
	switch e {
	case ExceptionIllegalFunction:
		return "Illegal_Function"
	case ExceptionIllegalDataAddress:
		return "Illegal_Data_Address"
	case ExceptionIllegalDataValue:
		return "Illegal_Data_Value"
	case ExceptionSlaveDeviceFailure:
		return "Slave_Device_Failure"
	case ExceptionAcknowledge:
		return "Acknowledge"
	case ExceptionSlaveDeviceBusy:
		return "Slave_Device_Busy"
	case ExceptionMemoryParityError:
		return "Memory_Parity_Error"
	case ExceptionGatewayPathUnavail:
		return "Gateway_Path_Unavailable"
	case ExceptionGatewayTargetFail:
		return "Gateway_Target_Failed"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(e))
	}
}

const (
	// MBAPHeaderSize is the fixed MBAP header size: transaction id (2),
	// protocol id (2), length (2), unit id (1).
	MBAPHeaderSize = 7

	// MaxPDUSize is the protocol's maximum PDU size.
	MaxPDUSize = 253

	// MaxADUSize is the maximum Modbus TCP frame size.
	MaxADUSize = MBAPHeaderSize + MaxPDUSize

	// MaxReadCoils is the per-request quantity ceiling for FC 0x01.
	MaxReadCoils = 2000

	// MaxReadRegisters is the per-request quantity ceiling for FC 0x03.
	MaxReadRegisters = 125

	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

var (
	// ErrInvalidArgument classifies caller-supplied parameters that
	// violate protocol limits, detected before any network I/O.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedFrame classifies responses whose framing disagrees with
	// itself or with the request they answer.
	ErrMalformedFrame = errors.New("malformed frame")
)

// DeviceError is an explicit rejection from the device: the response
// carried the request's function code with the high bit set and a single
// exception code byte. It is distinct from transport failures so callers
// can report the device's reason instead of "connection failed".
type DeviceError struct {
	Function  FunctionCode
	Exception ExceptionCode
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device exception: fc=%s code=%s", e.Function, e.Exception)
}

// Request is an outgoing Modbus TCP request.
type Request struct {
	TransactionID uint16
	UnitID        uint8
	Function      FunctionCode
	Data          []byte
}

// Response is a decoded Modbus TCP response.
type Response struct {
	TransactionID uint16
	UnitID        uint8
	Function      FunctionCode
	Data          []byte
}

// IsException reports whether the response function code has the
// exception bit set.
func (r Response) IsException() bool {
	return r.Function&0x80 != 0
}

// ExceptionCode returns the exception code of an exception response, or 0.
func (r Response) ExceptionCode() ExceptionCode {
	if r.IsException() && len(r.Data) > 0 {
		return ExceptionCode(r.Data[0])
	}
	return 0
}

// Bytes assembles the request into an MBAP frame.
func (r Request) Bytes() []byte {
	return assemble(r.TransactionID, r.UnitID, r.Function, r.Data)
}

// Bytes assembles the response into an MBAP frame. Used by tests and
// fixture servers to construct synthetic responses.
func (r Response) Bytes() []byte {
	return assemble(r.TransactionID, r.UnitID, r.Function, r.Data)
}

// assemble builds MBAP header + PDU. The MBAP length field counts the
// unit id, the function code and the payload.
func assemble(txID uint16, unitID uint8, fc FunctionCode, data []byte) []byte {
	buf := make([]byte, MBAPHeaderSize, MBAPHeaderSize+1+len(data))
	binary.BigEndian.PutUint16(buf[0:2], txID)
	binary.BigEndian.PutUint16(buf[2:4], 0x0000)
	binary.BigEndian.PutUint16(buf[4:6], uint16(2+len(data)))
	buf[6] = unitID
	buf = append(buf, byte(fc))
	buf = append(buf, data...)
	return buf
}
