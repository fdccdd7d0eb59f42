// Package metrics exports the counters of sensor channels to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/go-sensoradapter/channel"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "sensoradapter"

// NewRegistry creates a registry with the Go and process collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler returns the HTTP handler serving reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

type counter struct {
	desc  *prometheus.Desc
	value func(m *channel.Metrics) uint64
}

// Collector is a prometheus.Collector reporting the Metrics of named channels,
// labelled with the channel name.
type Collector struct {
	counters []counter

	mu       sync.RWMutex
	channels map[string]*channel.Metrics
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector. An empty namespace selects DefaultNamespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	newDesc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "channel", name), help, []string{"channel"}, nil)
	}

	return &Collector{
		counters: []counter{
			{
				desc:  newDesc("transfers_total", "Total write/read transfers."),
				value: func(m *channel.Metrics) uint64 { return m.TransferCount.Load() },
			},
			{
				desc:  newDesc("errors_total", "Total failed transfers, ignored ones included."),
				value: func(m *channel.Metrics) uint64 { return m.ErrorCount.Load() },
			},
			{
				desc:  newDesc("checksum_errors_total", "Total responses with a checksum mismatch."),
				value: func(m *channel.Metrics) uint64 { return m.ChecksumErrorCount.Load() },
			},
			{
				desc:  newDesc("ignored_errors_total", "Total errors ignored on request."),
				value: func(m *channel.Metrics) uint64 { return m.IgnoredErrorCount.Load() },
			},
			{
				desc:  newDesc("written_bytes_total", "Total bytes written to the transport."),
				value: func(m *channel.Metrics) uint64 { return m.BytesWritten.Load() },
			},
			{
				desc:  newDesc("read_bytes_total", "Total bytes read from the transport."),
				value: func(m *channel.Metrics) uint64 { return m.BytesRead.Load() },
			},
		},
		channels: make(map[string]*channel.Metrics),
	}
}

// Add reports m under the channel label name.
func (c *Collector) Add(name string, m *channel.Metrics) error {
	if m == nil {
		return fmt.Errorf("metrics: nil metrics for channel %q", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.channels[name]; ok {
		return fmt.Errorf("metrics: channel %q already added", name)
	}
	c.channels[name] = m

	return nil
}

// AddProvider reports the metrics of ch when it implements channel.MetricsProvider.
// It reports whether ch was added.
func (c *Collector) AddProvider(name string, ch channel.Channel) (bool, error) {
	p, ok := ch.(channel.MetricsProvider)
	if !ok {
		return false, nil
	}

	return true, c.Add(name, p.Metrics())
}

// AddMulti reports every member of mc that exposes metrics, labelled
// "<prefix><index>".
func (c *Collector) AddMulti(prefix string, mc *channel.MultiChannel) error {
	for i := range mc.ChannelCount() {
		if _, err := c.AddProvider(fmt.Sprintf("%s%d", prefix, i), mc.Channel(i)); err != nil {
			return err
		}
	}

	return nil
}

// Remove stops reporting the channel name.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.channels, name)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, ctr := range c.counters {
		ch <- ctr.desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		c.mu.RLock()
		m, ok := c.channels[name]
		c.mu.RUnlock()
		if !ok {
			continue
		}

		for _, ctr := range c.counters {
			ch <- prometheus.MustNewConstMetric(ctr.desc, prometheus.CounterValue, float64(ctr.value(m)), name)
		}
	}
}
