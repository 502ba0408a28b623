package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apernet/udpsock/app/internal/peers"
	"github.com/apernet/udpsock/core/udpsock"
)

var echoCmd = &cobra.Command{
	Use:    "echo",
	Short:  "Echo server mode",
	Long:   "Open a socket on a local port and send every datagram received back to its sender.",
	PreRun: bindPortFlag,
	Run:    runEcho,
}

func init() {
	echoCmd.Flags().Uint16P("port", "p", 0, "local port to listen on (0 picks one)")
	rootCmd.AddCommand(echoCmd)
}

func runEcho(cmd *cobra.Command, args []string) {
	logger.Info("echo server mode")

	config, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to read config", zap.Error(err))
	}
	bufSize, err := config.bufferSize()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	interval, err := config.pollInterval()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	tableSize, err := config.peerTableSize()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	var reg *prometheus.Registry
	if config.Metrics.Listen != "" {
		reg = prometheus.NewRegistry()
		stop := runMetricsServer(config.Metrics.Listen, reg)
		defer stop()
	}
	sys, err := config.subsystem(logger, reg)
	if err != nil {
		logger.Fatal("failed to initialize socket subsystem", zap.Error(err))
	}
	defer sys.Shutdown()

	sock := sys.NewSocket()
	if err := sock.OpenErr(config.Port); err != nil {
		logger.Fatal("failed to open socket", zap.Uint16("port", config.Port), zap.Error(err))
	}
	defer sock.Close()

	table, err := peers.NewTable(tableSize, func(addr udpsock.Address, stats peers.Stats) {
		logger.Debug("peer evicted",
			zap.Stringer("addr", addr),
			zap.Uint64("datagrams", stats.Datagrams),
			zap.Uint64("bytes", stats.Bytes))
	})
	if err != nil {
		logger.Fatal("failed to create peer table", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("echo server up and running", zap.Uint16("port", sock.LocalPort()))
	srv := &echoServer{
		Socket:       sock,
		BufferSize:   bufSize,
		PollInterval: interval,
		Peers:        table,
		EventLogger:  &echoLogger{},
	}
	if err := srv.Serve(ctx); err != nil {
		logger.Error("echo server stopped", zap.Error(err))
		return
	}
	logger.Info("echo server stopped")
}

type echoEventLogger interface {
	NewPeer(addr udpsock.Address)
	Echo(addr udpsock.Address, n int, err error)
	ReceiveError(err error)
}

type echoServer struct {
	Socket       *udpsock.Socket
	BufferSize   int
	PollInterval time.Duration
	Peers        *peers.Table // optional
	EventLogger  echoEventLogger
}

// Serve polls the socket until ctx is done, echoing every datagram back.
// It returns nil when ctx is done, and an error if the socket gets closed.
func (s *echoServer) Serve(ctx context.Context) error {
	buf := make([]byte, s.BufferSize)
	for ctx.Err() == nil {
		n, from, err := s.Socket.ReceiveFrom(buf)
		if err != nil {
			if errors.Is(err, udpsock.ErrWouldBlock) {
				_ = udpsock.Sleep(ctx, s.PollInterval)
				continue
			}
			if errors.Is(err, udpsock.ErrClosed) {
				return err
			}
			if s.EventLogger != nil {
				s.EventLogger.ReceiveError(err)
			}
			_ = udpsock.Sleep(ctx, s.PollInterval)
			continue
		}
		if n == 0 {
			// Nothing to echo for an empty datagram
			continue
		}
		if s.Peers != nil {
			if _, isNew := s.Peers.Observe(from, n, time.Now()); isNew && s.EventLogger != nil {
				s.EventLogger.NewPeer(from)
			}
		}
		err = s.Socket.SendTo(from, buf[:n])
		if s.EventLogger != nil {
			s.EventLogger.Echo(from, n, err)
		}
	}
	return nil
}

type echoLogger struct{}

func (l *echoLogger) NewPeer(addr udpsock.Address) {
	logger.Info("new peer", zap.Stringer("addr", addr))
}

func (l *echoLogger) Echo(addr udpsock.Address, n int, err error) {
	if err != nil {
		logger.Warn("failed to echo datagram", zap.Stringer("addr", addr), zap.Int("size", n), zap.Error(err))
	} else {
		logger.Debug("datagram echoed", zap.Stringer("addr", addr), zap.Int("size", n))
	}
}

func (l *echoLogger) ReceiveError(err error) {
	logger.Warn("failed to receive datagram", zap.Error(err))
}
