package terrain

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Prometheus collectors the animation reports to. A nil *Metrics discards everything.
type Metrics struct {
	Frames      prometheus.Counter
	RenderCalls prometheus.Counter
	Stereo      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
//
// Parameters:
//   - reg: the registerer, or nil to leave the collectors unregistered
//
// Returns:
//   - *Metrics: the collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_frames_total",
			Help: "Animation frames run.",
		}),
		RenderCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_render_calls_total",
			Help: "Scene render calls issued by the animation loop.",
		}),
		Stereo: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_stereo_mode",
			Help: "1 while the stereo render path is active.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Frames, m.RenderCalls, m.Stereo)
	}
	return m
}

func (m *Metrics) observeFrame() {
	if m != nil {
		m.Frames.Inc()
	}
}

func (m *Metrics) observeRender() {
	if m != nil {
		m.RenderCalls.Inc()
	}
}

func (m *Metrics) observeMode(mode Mode) {
	if m == nil {
		return
	}
	if mode == ModeStereo {
		m.Stereo.Set(1)
	} else {
		m.Stereo.Set(0)
	}
}
