package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewReadRequestBytes(t *testing.T) {
	req, err := NewReadRequest(0x0042, 1, FcReadHoldingRegisters, 100, 3)
	if err != nil {
		t.Fatalf("NewReadRequest: %v", err)
	}

	want := []byte{
		0x00, 0x42, // transaction id
		0x00, 0x00, // protocol id
		0x00, 0x06, // length: unit id + fc + 4 payload bytes
		0x01,       // unit id
		0x03,       // function code
		0x00, 0x64, // start address 100
		0x00, 0x03, // count 3
	}
	if got := req.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("frame = % X, want % X", got, want)
	}
}

func TestNewReadRequestCoils(t *testing.T) {
	req, err := NewReadRequest(0x9218, 0x33, FcReadCoils, 0x0013, 0x0025)
	if err != nil {
		t.Fatalf("NewReadRequest: %v", err)
	}

	want := []byte{
		0x92, 0x18,
		0x00, 0x00,
		0x00, 0x06,
		0x33,
		0x01,
		0x00, 0x13,
		0x00, 0x25,
	}
	if got := req.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("frame = % X, want % X", got, want)
	}
}

func TestNewReadRequestRejectsBadGeometry(t *testing.T) {
	cases := []struct {
		name  string
		fc    FunctionCode
		start uint16
		count uint16
	}{
		{"zero count", FcReadCoils, 0, 0},
		{"coil count over 2000", FcReadCoils, 0, 2001},
		{"register count over 125", FcReadHoldingRegisters, 0, 126},
		{"end address overflow", FcReadHoldingRegisters, 0xFFFE, 3},
		{"write code as read", FcWriteSingleCoil, 0, 1},
	}

	for _, tc := range cases {
		_, err := NewReadRequest(1, 1, tc.fc, tc.start, tc.count)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", tc.name, err)
		}
	}
}

func TestNewReadRequestAcceptsMaxCounts(t *testing.T) {
	if _, err := NewReadRequest(1, 1, FcReadCoils, 0, 2000); err != nil {
		t.Errorf("2000 coils: %v", err)
	}
	if _, err := NewReadRequest(1, 1, FcReadHoldingRegisters, 0, 125); err != nil {
		t.Errorf("125 registers: %v", err)
	}
}

func TestNewWriteCoilRequestBytes(t *testing.T) {
	on := NewWriteCoilRequest(0x0001, 0x11, 15, true)
	wantOn := []byte{
		0x00, 0x01,
		0x00, 0x00,
		0x00, 0x06,
		0x11,
		0x05,
		0x00, 0x0F,
		0xFF, 0x00, // ON
	}
	if got := on.Bytes(); !bytes.Equal(got, wantOn) {
		t.Fatalf("ON frame = % X, want % X", got, wantOn)
	}

	off := NewWriteCoilRequest(0x0002, 0x11, 15, false)
	b := off.Bytes()
	if b[10] != 0x00 || b[11] != 0x00 {
		t.Fatalf("OFF value = % X, want 00 00", b[10:12])
	}
}

func TestNewWriteRegisterRequestBytes(t *testing.T) {
	req := NewWriteRegisterRequest(0x0007, 2, 7, 0xABCD)
	want := []byte{
		0x00, 0x07,
		0x00, 0x00,
		0x00, 0x06,
		0x02,
		0x06,
		0x00, 0x07,
		0xAB, 0xCD,
	}
	if got := req.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("frame = % X, want % X", got, want)
	}
}
