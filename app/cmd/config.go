package cmd

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/apernet/udpsock/app/internal/sockopts"
	"github.com/apernet/udpsock/core/udpsock"
)

const (
	defaultBufferSize    = 65536
	maxBufferSize        = 1 << 20
	defaultPollInterval  = 10 * time.Millisecond
	defaultPeerTableSize = 1024
	defaultReplyTimeout  = 2 * time.Second
)

type appConfig struct {
	Port          uint16                 `mapstructure:"port"`
	BufferSize    string                 `mapstructure:"bufferSize"`
	PollInterval  time.Duration          `mapstructure:"pollInterval"`
	PeerTableSize int                    `mapstructure:"peerTableSize"`
	ReplyTimeout  time.Duration          `mapstructure:"replyTimeout"`
	SocketOptions appConfigSocketOptions `mapstructure:"socketOptions"`
	Metrics       appConfigMetrics       `mapstructure:"metrics"`
}

type appConfigSocketOptions struct {
	ReuseAddr           bool    `mapstructure:"reuseAddr"`
	ReceiveBuffer       string  `mapstructure:"receiveBuffer"`
	SendBuffer          string  `mapstructure:"sendBuffer"`
	BindInterface       *string `mapstructure:"bindInterface"`
	FirewallMark        *uint32 `mapstructure:"fwmark"`
	FdControlUnixSocket *string `mapstructure:"fdControlUnixSocket"`
}

type appConfigMetrics struct {
	Listen string `mapstructure:"listen"`
}

// configKeys lists every appConfig key so it can be set from the environment
// (UDPSOCK_BUFFERSIZE, UDPSOCK_SOCKETOPTIONS_REUSEADDR, ...).
// AutomaticEnv alone only covers keys viper already knows about.
var configKeys = []string{
	"port",
	"bufferSize",
	"pollInterval",
	"peerTableSize",
	"replyTimeout",
	"socketOptions.reuseAddr",
	"socketOptions.receiveBuffer",
	"socketOptions.sendBuffer",
	"socketOptions.bindInterface",
	"socketOptions.fwmark",
	"socketOptions.fdControlUnixSocket",
	"metrics.listen",
}

func bindConfigEnv() {
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}
}

// loadConfig reads the config file if there is one. A missing default
// config file is not an error; every field has a default.
func loadConfig() (*appConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	var config appConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *appConfig) bufferSize() (int, error) {
	if c.BufferSize == "" {
		return defaultBufferSize, nil
	}
	n, err := parseSize(c.BufferSize)
	if err != nil {
		return 0, configError{Field: "bufferSize", Err: err}
	}
	if n <= 0 || n > maxBufferSize {
		return 0, configError{Field: "bufferSize", Err: errors.New("must be between 1 byte and 1MiB")}
	}
	return n, nil
}

func (c *appConfig) pollInterval() (time.Duration, error) {
	if c.PollInterval == 0 {
		return defaultPollInterval, nil
	}
	if c.PollInterval < time.Millisecond {
		return 0, configError{Field: "pollInterval", Err: errors.New("must be at least 1ms")}
	}
	return c.PollInterval, nil
}

func (c *appConfig) peerTableSize() (int, error) {
	if c.PeerTableSize == 0 {
		return defaultPeerTableSize, nil
	}
	if c.PeerTableSize < 0 {
		return 0, configError{Field: "peerTableSize", Err: errors.New("must be positive")}
	}
	return c.PeerTableSize, nil
}

func (c *appConfig) replyTimeout() time.Duration {
	if c.ReplyTimeout == 0 {
		return defaultReplyTimeout
	}
	return c.ReplyTimeout
}

func (c *appConfig) socketOptions() (*sockopts.SocketOptions, error) {
	o := &sockopts.SocketOptions{
		ReuseAddr:           c.SocketOptions.ReuseAddr,
		BindInterface:       c.SocketOptions.BindInterface,
		FirewallMark:        c.SocketOptions.FirewallMark,
		FdControlUnixSocket: c.SocketOptions.FdControlUnixSocket,
	}
	if c.SocketOptions.ReceiveBuffer != "" {
		n, err := parseSize(c.SocketOptions.ReceiveBuffer)
		if err != nil {
			return nil, configError{Field: "socketOptions.receiveBuffer", Err: err}
		}
		o.ReceiveBuffer = &n
	}
	if c.SocketOptions.SendBuffer != "" {
		n, err := parseSize(c.SocketOptions.SendBuffer)
		if err != nil {
			return nil, configError{Field: "socketOptions.sendBuffer", Err: err}
		}
		o.SendBuffer = &n
	}
	if err := o.CheckSupported(); err != nil {
		return nil, configError{Field: "socketOptions", Err: err}
	}
	return o, nil
}

// subsystem builds an initialized socket subsystem from the config.
// If metrics are enabled, reg must be non-nil.
func (c *appConfig) subsystem(l *zap.Logger, reg *prometheus.Registry) (*udpsock.Subsystem, error) {
	so, err := c.socketOptions()
	if err != nil {
		return nil, err
	}
	config := &udpsock.Config{
		Logger:  l,
		Control: so.Control(),
	}
	if reg != nil {
		config.TrafficCounter = newPrometheusTrafficCounter(reg)
	}
	sys := udpsock.NewSubsystem(config)
	if err := sys.Init(); err != nil {
		return nil, err
	}
	return sys, nil
}
