//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cmd

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/apernet/udpsock/app/internal/peers"
	"github.com/apernet/udpsock/core/udpsock"
)

type recordingEchoLogger struct {
	mutex    sync.Mutex
	newPeers []udpsock.Address
	echoed   int
}

func (l *recordingEchoLogger) NewPeer(addr udpsock.Address) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.newPeers = append(l.newPeers, addr)
}

func (l *recordingEchoLogger) Echo(addr udpsock.Address, n int, err error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err == nil {
		l.echoed++
	}
}

func (l *recordingEchoLogger) ReceiveError(err error) {}

func TestEchoServer(t *testing.T) {
	sys := udpsock.NewSubsystem(&udpsock.Config{Logger: zaptest.NewLogger(t)})
	require.NoError(t, sys.Init())
	defer sys.Shutdown()

	server := sys.MustListen(0)
	table, err := peers.NewTable(16, nil)
	require.NoError(t, err)
	el := &recordingEchoLogger{}
	srv := &echoServer{
		Socket:       server,
		BufferSize:   2048,
		PollInterval: time.Millisecond,
		Peers:        table,
		EventLogger:  el,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	dst := udpsock.AddressFromOctets(127, 0, 0, 1, server.LocalPort())
	client := sys.MustListen(0)
	for i := 0; i < 10; i++ {
		data := make([]byte, 1024)
		_, _ = rand.Read(data)
		reply, from, err := sendAndWait(client, dst, data, 2048, 2*time.Second, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, data, reply, "datagram %d", i)
		assert.Equal(t, dst, from)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("echo server did not stop")
	}

	el.mutex.Lock()
	defer el.mutex.Unlock()
	assert.Equal(t, 10, el.echoed)
	assert.Equal(t, []udpsock.Address{udpsock.AddressFromOctets(127, 0, 0, 1, client.LocalPort())}, el.newPeers)
	stats, ok := table.Get(el.newPeers[0])
	assert.True(t, ok)
	assert.Equal(t, uint64(10), stats.Datagrams)
	assert.Equal(t, uint64(10240), stats.Bytes)
}

func TestEchoServerSocketClosed(t *testing.T) {
	sys := udpsock.NewSubsystem(&udpsock.Config{Logger: zaptest.NewLogger(t)})
	require.NoError(t, sys.Init())
	defer sys.Shutdown()

	srv := &echoServer{
		Socket:       sys.NewSocket(),
		BufferSize:   64,
		PollInterval: time.Millisecond,
	}
	assert.ErrorIs(t, srv.Serve(context.Background()), udpsock.ErrClosed)
}

func TestSendAndWaitNoReply(t *testing.T) {
	sys := udpsock.NewSubsystem(&udpsock.Config{Logger: zaptest.NewLogger(t)})
	require.NoError(t, sys.Init())
	defer sys.Shutdown()

	// A bound socket that never answers
	sink := sys.MustListen(0)
	client := sys.MustListen(0)
	dst := udpsock.AddressFromOctets(127, 0, 0, 1, sink.LocalPort())

	_, _, err := sendAndWait(client, dst, []byte("ping"), 64, 50*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, err, errNoReply)

	reply, _, err := sendAndWait(client, dst, []byte("ping"), 64, 0, 5*time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, reply)

	buf := make([]byte, 64)
	n, from, err := sink.ReceiveFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	assert.Equal(t, client.LocalPort(), from.Port())
}
