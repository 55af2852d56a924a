// Package session owns a single TCP connection to a Modbus server and
// runs strictly serial request/response round trips over it.
package session

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/keirendev/modbus-enum/internal/frame"
)

const (
	// DefaultConnectTimeout bounds the TCP dial.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultResponseTimeout bounds one full round trip: write the
	// request, read the complete response frame.
	DefaultResponseTimeout = 2 * time.Second
)

// ErrSessionFailed is returned once a round trip has failed: the frame
// boundary on the wire can no longer be trusted, so the session refuses
// further use until closed.
var ErrSessionFailed = errors.New("session failed, open a new one")

// ConnError reports that the socket could not be opened or broke.
type ConnError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("connection %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// TimeoutError reports that no complete response frame arrived within the
// response window.
type TimeoutError struct {
	Addr string
	Err  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for response from %s: %v", e.Addr, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Session is one TCP connection with at most one request in flight.
// It is meant for single-threaded, serial use.
type Session struct {
	conn            net.Conn
	addr            string
	connectTimeout  time.Duration
	responseTimeout time.Duration
	log             zerolog.Logger
	txnID           uint16
	failed          bool
	closed          bool
}

// Option configures a Session at dial time.
type Option func(*Session)

// WithConnectTimeout overrides the dial timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithResponseTimeout overrides the per-round-trip timeout.
func WithResponseTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.responseTimeout = d
		}
	}
}

// WithLogger attaches a logger used for frame-level debug traces.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// Dial opens a TCP connection to addr (host:port).
func Dial(addr string, opts ...Option) (*Session, error) {
	s := &Session{
		addr:            addr,
		connectTimeout:  DefaultConnectTimeout,
		responseTimeout: DefaultResponseTimeout,
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	conn, err := net.DialTimeout("tcp", addr, s.connectTimeout)
	if err != nil {
		return nil, &ConnError{Op: "dial", Addr: addr, Err: err}
	}
	s.conn = conn

	// Randomize the starting transaction id (best effort) so sessions
	// against the same server do not all count from zero.
	var b [2]byte
	if _, err := rand.Read(b[:]); err == nil {
		s.txnID = binary.BigEndian.Uint16(b[:])
	}

	s.log.Debug().Str("addr", addr).Msg("session opened")
	return s, nil
}

// NextTransactionID returns the next transaction id, wrapping at 0xFFFF.
// Requests are strictly serial, so uniqueness against the last sent id is
// all the correlation the session needs.
func (s *Session) NextTransactionID() uint16 {
	s.txnID++
	return s.txnID
}

// RoundTrip writes one request frame and reads exactly one response
// frame: the 7-byte MBAP header first, then the remainder the header's
// length field declares. No partial-frame state survives across calls.
func (s *Session) RoundTrip(req []byte) ([]byte, error) {
	if s.closed || s.failed {
		return nil, &ConnError{Op: "roundtrip", Addr: s.addr, Err: ErrSessionFailed}
	}

	if err := s.conn.SetDeadline(time.Now().Add(s.responseTimeout)); err != nil {
		s.failed = true
		return nil, &ConnError{Op: "deadline", Addr: s.addr, Err: err}
	}

	s.log.Debug().Hex("frame", req).Msg("send")

	if _, err := s.conn.Write(req); err != nil {
		s.failed = true
		return nil, s.classify("write", err)
	}

	header := make([]byte, frame.MBAPHeaderSize)
	if _, err := io.ReadFull(s.conn, header); err != nil {
		s.failed = true
		return nil, s.classify("read header", err)
	}

	// The length field counts the unit id (already read as part of the
	// header) plus the PDU.
	remaining := int(binary.BigEndian.Uint16(header[4:6])) - 1
	if remaining < 1 || frame.MBAPHeaderSize+remaining > frame.MaxADUSize {
		s.failed = true
		return nil, fmt.Errorf("%w: declared length %d", frame.ErrMalformedFrame, remaining+1)
	}

	buf := make([]byte, frame.MBAPHeaderSize+remaining)
	copy(buf, header)
	if _, err := io.ReadFull(s.conn, buf[frame.MBAPHeaderSize:]); err != nil {
		s.failed = true
		return nil, s.classify("read frame", err)
	}

	s.log.Debug().Hex("frame", buf).Msg("recv")
	return buf, nil
}

// Close releases the socket. It is idempotent and safe on a session whose
// connection already broke.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Debug().Str("addr", s.addr).Msg("session closed")
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// classify maps a socket error to the timeout/connection taxonomy.
func (s *Session) classify(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Addr: s.addr, Err: err}
	}
	return &ConnError{Op: op, Addr: s.addr, Err: err}
}
