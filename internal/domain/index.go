package domain

import "fmt"

// Metric identifies the distance metric used by the similarity index.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// ParseMetric validates a metric name from configuration.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, MetricL2:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}

// Similarity converts a raw store distance into a normalized score in [0,1].
// The mapping is monotonic: a smaller distance always maps to a higher score.
func (m Metric) Similarity(distance float64) float64 {
	var s float64
	switch m {
	case MetricL2:
		s = 1 / (1 + distance)
	default:
		// Cosine distance ranges over [0,2].
		s = 1 - distance/2
	}
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// IndexSpec fixes the embedding dimension and distance metric for a deployment.
// It is passed explicitly at construction so no component reads ambient state,
// and tests can exercise different dimensions and metrics in isolation.
type IndexSpec struct {
	Dimension int
	Metric    Metric
}
