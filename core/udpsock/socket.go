package udpsock

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// handle is an open OS socket. A Socket holds nil when closed.
type handle struct {
	fd   int
	port uint16 // local port actually bound
}

// Socket is a non-blocking IPv4 UDP socket. It is either closed or open,
// bound to a local port and configured non-blocking; there is no other state.
//
// Send and Receive never wait. A Socket is meant to have one owner issuing one
// operation at a time; operations are serialized internally only so that Close
// (for example from Subsystem.Shutdown) is safe to call from another goroutine.
type Socket struct {
	sys *Subsystem

	mutex sync.Mutex
	h     *handle
}

// Open binds the socket to port on all local interfaces and switches it to
// non-blocking mode. Port 0 is passed through to the OS.
// It returns false if any step fails, leaving the socket closed.
// Calling Open on an open socket is a programming error and panics.
func (s *Socket) Open(port uint16) bool {
	return s.OpenErr(port) == nil
}

// OpenErr is like Open but reports why opening failed.
func (s *Socket) OpenErr(port uint16) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.h != nil {
		panic("udpsock: Open called on an open socket")
	}
	log := s.sys.config.Logger
	if !s.sys.Initialized() {
		log.Error("failed to open socket", zap.Uint16("port", port), zap.Error(ErrNotInitialized))
		return ErrNotInitialized
	}
	h, err := openHandle(port, s.sys.config.Control)
	if err != nil {
		var opErr *OpError
		if errors.As(err, &opErr) {
			log.Error("failed to open socket",
				zap.Uint16("port", port),
				zap.String("step", opErr.Op),
				zap.Error(opErr.Err))
		}
		return err
	}
	s.h = h
	if !s.sys.track(s) {
		s.release()
		log.Error("failed to open socket", zap.Uint16("port", port), zap.Error(ErrNotInitialized))
		return ErrNotInitialized
	}
	if tc := s.sys.config.TrafficCounter; tc != nil {
		tc.IncSocket(h.port)
	}
	log.Debug("socket opened", zap.Uint16("port", h.port))
	return nil
}

// openHandle runs the open sequence. Every failure after the descriptor
// is allocated closes it again.
func openHandle(port uint16, control func(fd int) error) (*handle, error) {
	fd, err := sysSocket()
	if err != nil {
		return nil, &OpError{Op: opSocket, Port: port, Err: err}
	}
	fail := func(op string, err error) (*handle, error) {
		_ = sysClose(fd)
		return nil, &OpError{Op: op, Port: port, Err: err}
	}
	if control != nil {
		if err := control(fd); err != nil {
			return fail(opControl, err)
		}
	}
	if err := sysBind(fd, port); err != nil {
		return fail(opBind, err)
	}
	if err := sysSetNonblock(fd); err != nil {
		return fail(opNonblock, err)
	}
	local, err := localPortFunc(fd)
	if err != nil {
		return fail(opLocalAddr, err)
	}
	return &handle{fd: fd, port: local}, nil
}

// replaced in tests
var localPortFunc = sysLocalPort

// Close releases the socket. Closing a closed socket does nothing.
func (s *Socket) Close() {
	s.mutex.Lock()
	h := s.h
	if h == nil {
		s.mutex.Unlock()
		return
	}
	s.release()
	s.mutex.Unlock()

	s.sys.untrack(s)
	if tc := s.sys.config.TrafficCounter; tc != nil {
		tc.DecSocket(h.port)
	}
	s.sys.config.Logger.Debug("socket closed", zap.Uint16("port", h.port))
}

// release closes the handle. The caller must hold the mutex.
func (s *Socket) release() {
	if err := sysClose(s.h.fd); err != nil {
		s.sys.config.Logger.Warn("failed to close socket", zap.Uint16("port", s.h.port), zap.Error(err))
	}
	s.h = nil
}

// IsOpen reports whether the socket holds an OS handle.
func (s *Socket) IsOpen() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.h != nil
}

// LocalPort returns the port the socket is bound to, or 0 if it is closed.
// For a socket opened on port 0 this is the port chosen by the OS.
func (s *Socket) LocalPort() uint16 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.h == nil {
		return 0
	}
	return s.h.port
}

// Send transmits data as a single datagram to dst.
// It returns true only if the whole datagram was accepted by the transport.
// On a closed socket it returns false without doing anything.
func (s *Socket) Send(dst Address, data []byte) bool {
	return s.SendTo(dst, data) == nil
}

// SendTo is like Send but reports why sending failed.
func (s *Socket) SendTo(dst Address, data []byte) error {
	if len(data) == 0 {
		panic("udpsock: Send with empty data")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.h == nil {
		return ErrClosed
	}
	n, err := sysSendTo(s.h.fd, data, dst)
	if err != nil {
		if isWouldBlock(err) {
			return ErrWouldBlock
		}
		return fmt.Errorf("udpsock: send to %s: %w", dst, err)
	}
	if n != len(data) {
		return ErrShortWrite
	}
	if tc := s.sys.config.TrafficCounter; tc != nil {
		tc.Tx(s.h.port, n)
	}
	return nil
}

// Receive polls for one pending datagram and copies up to len(buf) bytes of it
// into buf. It returns the number of bytes received and the sender.
// It returns 0 if the socket is closed, nothing is pending, the transport reported
// an error, or the datagram was empty; use ReceiveFrom to tell these apart.
func (s *Socket) Receive(buf []byte) (int, Address) {
	n, from, err := s.ReceiveFrom(buf)
	if err != nil || n <= 0 {
		return 0, Address{}
	}
	return n, from
}

// ReceiveFrom is like Receive but reports ErrClosed, ErrWouldBlock when nothing
// is pending, or the transport error. An empty datagram yields 0 and a nil error.
func (s *Socket) ReceiveFrom(buf []byte) (int, Address, error) {
	if len(buf) == 0 {
		panic("udpsock: Receive with empty buffer")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.h == nil {
		return 0, Address{}, ErrClosed
	}
	n, from, err := sysRecvFrom(s.h.fd, buf)
	if err != nil {
		if isWouldBlock(err) {
			return 0, Address{}, ErrWouldBlock
		}
		return 0, Address{}, fmt.Errorf("udpsock: receive: %w", err)
	}
	if tc := s.sys.config.TrafficCounter; tc != nil {
		tc.Rx(s.h.port, n)
	}
	return n, from, nil
}
