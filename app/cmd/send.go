package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apernet/udpsock/core/udpsock"
)

var errNoReply = errors.New("no reply")

var sendCmd = &cobra.Command{
	Use:    "send address payload",
	Short:  "Send mode",
	Long:   "Send a single datagram to a remote address and wait for a reply. Can be used against an echo server as a simple connectivity test.",
	Args:   cobra.ExactArgs(2),
	PreRun: bindPortFlag,
	Run:    runSend,
}

var sendNoReply bool

func init() {
	sendCmd.Flags().Uint16P("port", "p", 0, "local port to send from (0 picks one)")
	sendCmd.Flags().BoolVar(&sendNoReply, "no-reply", false, "do not wait for a reply")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) {
	logger.Info("send mode")

	dst, err := resolveAddress(args[0])
	if err != nil {
		logger.Fatal("failed to resolve address", zap.String("addr", args[0]), zap.Error(err))
	}
	payload := []byte(args[1])
	if len(payload) == 0 {
		logger.Fatal("payload must not be empty")
	}

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

	// Metrics are only served in echo mode.
	sys, err := config.subsystem(logger, nil)
	if err != nil {
		logger.Fatal("failed to initialize socket subsystem", zap.Error(err))
	}
	defer sys.Shutdown()

	sock := sys.NewSocket()
	if err := sock.OpenErr(config.Port); err != nil {
		logger.Fatal("failed to open socket", zap.Uint16("port", config.Port), zap.Error(err))
	}
	defer sock.Close()

	timeout := config.replyTimeout()
	if sendNoReply {
		timeout = 0
	}
	start := time.Now()
	reply, from, err := sendAndWait(sock, dst, payload, bufSize, timeout, interval)
	if err != nil {
		logger.Error("send failed", zap.Stringer("addr", dst), zap.Error(err), zap.Duration("time", time.Since(start)))
		return
	}
	if sendNoReply {
		logger.Info("datagram sent", zap.Stringer("addr", dst), zap.Int("size", len(payload)))
		return
	}
	logger.Info("reply received",
		zap.Stringer("from", from),
		zap.Int("size", len(reply)),
		zap.Duration("time", time.Since(start)))
	fmt.Println(string(reply))
}

// sendAndWait sends payload to dst, then polls for a reply until timeout.
// With a zero timeout it returns right after sending.
func sendAndWait(sock *udpsock.Socket, dst udpsock.Address, payload []byte, bufSize int,
	timeout, interval time.Duration,
) ([]byte, udpsock.Address, error) {
	if err := sock.SendTo(dst, payload); err != nil {
		return nil, udpsock.Address{}, err
	}
	if timeout <= 0 {
		return nil, udpsock.Address{}, nil
	}
	buf := make([]byte, bufSize)
	deadline := time.Now().Add(timeout)
	for {
		if n, from := sock.Receive(buf); n > 0 {
			return buf[:n], from, nil
		}
		if !time.Now().Before(deadline) {
			return nil, udpsock.Address{}, errNoReply
		}
		udpsock.SleepFor(uint64(interval.Milliseconds()))
	}
}
