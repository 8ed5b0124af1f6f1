package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	uploads       *prometheus.CounterVec
	uploadedBytes *prometheus.CounterVec
	deletes       *prometheus.CounterVec
}

// NewMetrics registers the document pipeline metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_uploads_total",
				Help: "Document uploads by storage backend and outcome.",
			},
			[]string{"storage", "outcome"},
		),
		uploadedBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_uploaded_bytes_total",
				Help: "Bytes persisted by successful uploads.",
			},
			[]string{"storage"},
		),
		deletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_deletes_total",
				Help: "Document deletions by storage backend and outcome.",
			},
			[]string{"storage", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.uploadedBytes, m.deletes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) upload(storage, outcome string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(storage, outcome).Inc()
	if outcome == outcomeOK {
		m.uploadedBytes.WithLabelValues(storage).Add(float64(size))
	}
}

func (m *Metrics) delete(storage, outcome string) {
	if m == nil {
		return
	}
	m.deletes.WithLabelValues(storage, outcome).Inc()
}
