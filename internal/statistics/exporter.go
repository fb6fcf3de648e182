package statistics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "hddfanctrl"
)

func Register(registerer prometheus.Registerer, collectors ...prometheus.Collector) {
	for _, collector := range collectors {
		registerer.MustRegister(collector)
	}
}
