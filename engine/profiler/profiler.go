package profiler

import (
	"log"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is one profiling sample covering the interval since the previous sample.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval and mirrors them into Prometheus gauges.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
	logging        bool

	fps     prometheus.Gauge
	heap    prometheus.Gauge
	sys     prometheus.Gauge
	gcPause prometheus.Gauge
}

// ProfilerBuilderOption is a functional option applied to a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often statistics are sampled. Defaults to 1 second.
//
// Parameters:
//   - interval: the sampling interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithUpdateInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithRegisterer registers the profiler gauges with reg instead of leaving them unregistered.
//
// Parameters:
//   - reg: the Prometheus registerer
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithRegisterer(reg prometheus.Registerer) ProfilerBuilderOption {
	return func(p *Profiler) {
		reg.MustRegister(p.fps, p.heap, p.sys, p.gcPause)
	}
}

// WithLogging toggles the per-interval log line. Defaults to true.
func WithLogging(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logging = enabled
	}
}

// withClock replaces time.Now for tests.
func withClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
		p.lastTime = now()
	}
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		now:            time.Now,
		logging:        true,
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_fps",
			Help: "Rendered frames per second over the last profiling interval.",
		}),
		heap: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_heap_bytes",
			Help: "Bytes of allocated heap objects.",
		}),
		sys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_sys_bytes",
			Help: "Bytes of memory obtained from the OS.",
		}),
		gcPause: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_gc_max_pause_microseconds",
			Help: "Longest GC pause during the last profiling interval.",
		}),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - Stats: the sample taken this tick, zero-valued when none was taken
//   - bool: true if a sample was taken this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap; TotalAlloc: cumulative (tracks churn); Sys: process footprint.
	st := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}

	if gcCount := st.GCCount; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		st.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			st.MaxPauseUs = max(st.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.fps.Set(st.FPS)
	p.heap.Set(float64(p.memStats.Alloc))
	p.sys.Set(float64(p.memStats.Sys))
	p.gcPause.Set(float64(st.MaxPauseUs))

	if p.logging {
		log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			st.FPS, st.HeapMB, st.AllocRateMB, st.GCCount, st.LastPauseUs, st.MaxPauseUs, st.SysMB)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = st.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return st, true
}
