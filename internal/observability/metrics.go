package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionBinaryToText = "fit2csv"
	DirectionTextToBinary = "csv2fit"
)

var (
	registerOnce sync.Once

	records = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitconv",
			Name:      "records_total",
			Help:      "Records converted, by direction and record kind.",
		},
		[]string{"direction", "kind"},
	)
	bodyBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitconv",
			Name:      "body_bytes_total",
			Help:      "Binary body bytes read or written.",
		},
		[]string{"direction"},
	)
	conversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitconv",
			Name:      "conversions_total",
			Help:      "Conversion runs, by direction and result.",
		},
		[]string{"direction", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(records, bodyBytes, conversions)
	})
}

func RecordRecord(direction, kind string) {
	RegisterMetrics()
	records.WithLabelValues(direction, kind).Inc()
}

func RecordBodyBytes(direction string, n int) {
	RegisterMetrics()
	bodyBytes.WithLabelValues(direction).Add(float64(n))
}

func RecordConversion(direction string, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	conversions.WithLabelValues(direction, result).Inc()
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
