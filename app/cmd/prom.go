package cmd

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/apernet/udpsock/core/udpsock"
)

type prometheusTrafficCounter struct {
	txBytesVec       *prometheus.CounterVec
	rxBytesVec       *prometheus.CounterVec
	txDatagramsVec   *prometheus.CounterVec
	rxDatagramsVec   *prometheus.CounterVec
	openSocketsGauge *prometheus.GaugeVec

	mutex      sync.Mutex
	counterMap map[uint16]counters
}

type counters struct {
	TxBytes     prometheus.Counter
	RxBytes     prometheus.Counter
	TxDatagrams prometheus.Counter
	RxDatagrams prometheus.Counter
	OpenSockets prometheus.Gauge
}

func newPrometheusTrafficCounter(reg *prometheus.Registry) udpsock.TrafficCounter {
	c := &prometheusTrafficCounter{
		txBytesVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "udpsock_tx_bytes_total",
		}, []string{"port"}),
		rxBytesVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "udpsock_rx_bytes_total",
		}, []string{"port"}),
		txDatagramsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "udpsock_tx_datagrams_total",
		}, []string{"port"}),
		rxDatagramsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "udpsock_rx_datagrams_total",
		}, []string{"port"}),
		openSocketsGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "udpsock_open_sockets",
		}, []string{"port"}),
		counterMap: make(map[uint16]counters),
	}
	reg.MustRegister(c.txBytesVec, c.rxBytesVec, c.txDatagramsVec, c.rxDatagramsVec, c.openSocketsGauge)
	return c
}

func (c *prometheusTrafficCounter) getCounters(port uint16) counters {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	cts, ok := c.counterMap[port]
	if !ok {
		label := strconv.Itoa(int(port))
		cts = counters{
			TxBytes:     c.txBytesVec.WithLabelValues(label),
			RxBytes:     c.rxBytesVec.WithLabelValues(label),
			TxDatagrams: c.txDatagramsVec.WithLabelValues(label),
			RxDatagrams: c.rxDatagramsVec.WithLabelValues(label),
			OpenSockets: c.openSocketsGauge.WithLabelValues(label),
		}
		c.counterMap[port] = cts
	}
	return cts
}

func (c *prometheusTrafficCounter) Tx(port uint16, n int) {
	cts := c.getCounters(port)
	cts.TxBytes.Add(float64(n))
	cts.TxDatagrams.Inc()
}

func (c *prometheusTrafficCounter) Rx(port uint16, n int) {
	cts := c.getCounters(port)
	cts.RxBytes.Add(float64(n))
	cts.RxDatagrams.Inc()
}

func (c *prometheusTrafficCounter) IncSocket(port uint16) {
	cts := c.getCounters(port)
	cts.OpenSockets.Inc()
}

func (c *prometheusTrafficCounter) DecSocket(port uint16) {
	cts := c.getCounters(port)
	cts.OpenSockets.Dec()
}

// runMetricsServer serves reg on listen in the background.
// The returned function shuts the server down.
func runMetricsServer(listen string, reg *prometheus.Registry) func() {
	srv := &http.Server{
		Addr:    listen,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to serve metrics", zap.String("listen", listen), zap.Error(err))
		}
	}()
	logger.Info("metrics server up and running", zap.String("listen", listen))
	return func() {
		_ = srv.Close()
	}
}
