package udpsock

import (
	"sync"

	"go.uber.org/zap"
)

// TrafficCounter receives per-socket traffic statistics, keyed by local port.
// Implementations must be safe for concurrent use.
type TrafficCounter interface {
	Tx(port uint16, n int)
	Rx(port uint16, n int)
	IncSocket(port uint16)
	DecSocket(port uint16)
}

type Config struct {
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// TrafficCounter is optional.
	TrafficCounter TrafficCounter
	// Control, if set, is called with the raw descriptor of every new socket
	// after it is created and before it is bound. Returning an error aborts the open.
	Control func(fd int) error

	filled bool // whether the fields have been verified and filled
}

func (c *Config) fill() {
	if c.filled {
		return
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	c.filled = true
}

// Subsystem is the process-scoped owner of the platform socket layer.
// Init must succeed before any socket created from it can be opened,
// and Shutdown releases every socket that is still open.
type Subsystem struct {
	config *Config

	mutex       sync.Mutex
	initialized bool
	sockets     map[*Socket]struct{}
}

func NewSubsystem(config *Config) *Subsystem {
	if config == nil {
		config = &Config{}
	}
	config.fill()
	return &Subsystem{
		config:  config,
		sockets: make(map[*Socket]struct{}),
	}
}

// Init prepares the platform socket layer. It is idempotent.
func (s *Subsystem) Init() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.initialized {
		return nil
	}
	if err := sysInit(); err != nil {
		s.config.Logger.Error("failed to initialize socket subsystem", zap.Error(err))
		return err
	}
	s.initialized = true
	return nil
}

// Shutdown closes all sockets still open and tears down the platform socket layer.
// It is idempotent, and Init may be called again afterwards.
func (s *Subsystem) Shutdown() {
	s.mutex.Lock()
	if !s.initialized {
		s.mutex.Unlock()
		return
	}
	s.initialized = false
	open := make([]*Socket, 0, len(s.sockets))
	for sock := range s.sockets {
		open = append(open, sock)
	}
	s.mutex.Unlock()

	// Close removes each socket from the map, so it must run unlocked.
	for _, sock := range open {
		sock.Close()
	}
	sysShutdown()
}

func (s *Subsystem) Initialized() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.initialized
}

// NewSocket returns a closed socket bound to this subsystem.
func (s *Subsystem) NewSocket() *Socket {
	return &Socket{sys: s}
}

// Listen creates a socket and opens it on port.
func (s *Subsystem) Listen(port uint16) (*Socket, error) {
	sock := s.NewSocket()
	if err := sock.OpenErr(port); err != nil {
		return nil, err
	}
	return sock, nil
}

// MustListen is like Listen but panics if the socket cannot be opened.
func (s *Subsystem) MustListen(port uint16) *Socket {
	sock, err := s.Listen(port)
	if err != nil {
		panic(err)
	}
	return sock
}

// track registers an opened socket. It fails if the subsystem
// was shut down while the socket was being opened.
func (s *Subsystem) track(sock *Socket) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.initialized {
		return false
	}
	s.sockets[sock] = struct{}{}
	return true
}

func (s *Subsystem) untrack(sock *Socket) {
	s.mutex.Lock()
	delete(s.sockets, sock)
	s.mutex.Unlock()
}

func (s *Subsystem) openSockets() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.sockets)
}
