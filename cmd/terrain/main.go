// Command terrain opens a window showing an animated noise terrain with a side-by-side stereo mode.
//
// Usage:
//
//	terrain [-config terrain.yaml]
//
// Keys: V toggles stereo, Space pauses the animation, Esc quits.
package main

import (
	"errors"
	"flag"
	"log"
	"net/http"

	"github.com/Carmen-Shannon/oxy-terrain/assets"
	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/config"
	"github.com/Carmen-Shannon/oxy-terrain/engine"
	"github.com/Carmen-Shannon/oxy-terrain/engine/noise"
	"github.com/Carmen-Shannon/oxy-terrain/engine/profiler"
	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer"
	"github.com/Carmen-Shannon/oxy-terrain/engine/window"
	"github.com/Carmen-Shannon/oxy-terrain/terrain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $"+config.EnvConfigPath+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}

	w := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	defer w.Close()

	r := renderer.NewRenderer(renderer.BackendTypeWGPU, w,
		renderer.WithPresentMode(presentMode(cfg.Renderer.PresentMode)),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Renderer.MSAA)),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.SoftwareAdapter),
	)

	reg := prometheus.NewRegistry()
	e := engine.NewEngine(
		engine.WithWindow(w),
		engine.WithRenderer(r),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithRegisterer(reg))),
		engine.WithProfiling(cfg.Profiling.Enabled),
		engine.WithRenderFrameLimit(cfg.Renderer.FrameLimit),
	)

	texture := assets.Rock()
	if cfg.Terrain.Texture != "" {
		texture = common.ImageSource{Name: cfg.Terrain.Texture, Path: cfg.Terrain.Texture}
	}
	initial := terrain.ModeMono
	if cfg.VR.StartStereo {
		initial = terrain.ModeStereo
	}
	src := noise.NewPerlin(cfg.Terrain.GetSeed())
	log.Printf("[Main] noise seed %d", src.Seed())

	ctx := terrain.NewContext(r, e.Scheduler(),
		terrain.WithNoise(src),
		terrain.WithOverlay(e.Overlay()),
		terrain.WithTexture(texture),
		terrain.WithInitialMode(initial),
		terrain.WithEyeSeparation(cfg.VR.EyeSeparation),
		terrain.WithMetrics(terrain.NewMetrics(reg)),
	)

	builder := terrain.NewSceneBuilder(ctx)
	builder.BuildGeom()
	builder.AddButton()

	w.SetTitle(terrain.Title(cfg.Window.Title, ctx.Mode.Mode()))
	ctx.Mode.OnChange(func(m terrain.Mode) {
		w.SetTitle(terrain.Title(cfg.Window.Title, m))
	})

	loop := terrain.NewAnimationLoop(ctx)
	e.OnResize(ctx.Resize)
	e.OnKeyDown(func(keyCode uint32) {
		switch keyCode {
		case common.KeyV:
			ctx.Mode.Toggle()
		case common.KeySpace:
			loop.Toggle()
		}
	})

	if addr := cfg.Metrics.GetAddr(); addr != "" {
		go serveMetrics(addr, reg)
	}

	loop.Start()
	e.Run()
}

func presentMode(name string) renderer.PresentMode {
	if name == "uncapped" {
		return renderer.PresentModeUncapped
	}
	return renderer.PresentModeVSync
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Printf("[Main] serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[Main] metrics server stopped: %v", err)
	}
}
