// Package metrics defines the Prometheus instrumentation for both node
// types: one struct of promauto-registered collectors per component, built
// against an explicit *prometheus.Registry rather than the global
// default one.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scriptoria"

// NameServer holds every collector the name node's session loop,
// directory, ACL table, and liveness monitor report to.
type NameServer struct {
	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	ErrorsTotal      *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	ActiveNodes      prometheus.Gauge
	RoutedFiles      prometheus.Gauge
	NodesFailedTotal prometheus.Counter
}

// NewNameServer registers the name node's collectors against reg.
func NewNameServer(reg *prometheus.Registry) *NameServer {
	f := promauto.With(reg)
	return &NameServer{
		CommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nameserver",
			Name:      "commands_total",
			Help:      "Total client commands processed by the name node, by verb.",
		}, []string{"verb"}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "nameserver",
			Name:      "command_duration_seconds",
			Help:      "Time to handle a client command, by verb.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"verb"}),
		ErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nameserver",
			Name:      "errors_total",
			Help:      "Total command errors, by taxonomy code.",
		}, []string{"code"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "nameserver",
			Name:      "active_sessions",
			Help:      "Number of currently connected client sessions.",
		}),
		ActiveNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "nameserver",
			Name:      "active_storage_nodes",
			Help:      "Number of storage nodes currently considered live.",
		}),
		RoutedFiles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "nameserver",
			Name:      "routed_files",
			Help:      "Number of files currently present in the routing table.",
		}),
		NodesFailedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nameserver",
			Name:      "nodes_failed_total",
			Help:      "Total storage nodes declared failed by the liveness monitor.",
		}),
	}
}

// StorageServer holds every collector the storage node's command loop
// and lock table report to.
type StorageServer struct {
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
	OpenLocks       prometheus.Gauge
	FilesManaged    prometheus.Gauge
	WriteBytes      prometheus.Histogram
}

// NewStorageServer registers the storage node's collectors against reg.
func NewStorageServer(reg *prometheus.Registry) *StorageServer {
	f := promauto.With(reg)
	return &StorageServer{
		CommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storageserver",
			Name:      "commands_total",
			Help:      "Total client commands processed by the storage node, by verb.",
		}, []string{"verb"}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storageserver",
			Name:      "command_duration_seconds",
			Help:      "Time to handle a client command, by verb.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"verb"}),
		ErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storageserver",
			Name:      "errors_total",
			Help:      "Total command errors, by taxonomy code.",
		}, []string{"code"}),
		OpenLocks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "storageserver",
			Name:      "open_sentence_locks",
			Help:      "Number of sentence locks currently held.",
		}),
		FilesManaged: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "storageserver",
			Name:      "files_managed",
			Help:      "Number of files currently stored on this node.",
		}),
		WriteBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storageserver",
			Name:      "write_bytes",
			Help:      "Size in bytes of committed WRITE sessions.",
			Buckets:   []float64{16, 64, 256, 1024, 4096, 16384},
		}),
	}
}

// ObserveCommand is a small helper shared by both node types' command
// loops: increments the verb counter and records its duration.
func ObserveCommand(counter *prometheus.CounterVec, duration *prometheus.HistogramVec, verb string, started time.Time) {
	counter.WithLabelValues(verb).Inc()
	duration.WithLabelValues(verb).Observe(time.Since(started).Seconds())
}
