package scene

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-terrain/engine/game_object"
	"github.com/Carmen-Shannon/oxy-terrain/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Drawable pairs an enabled GameObject with the world matrix captured by the last UpdateMatrixWorld.
type Drawable struct {
	Object      game_object.GameObject
	MatrixWorld mgl32.Mat4
}

// Scene manages a registry of GameObjects and the lights that shade them.
// Renderers read a consistent snapshot through UpdateMatrixWorld and Drawables.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Count returns the number of GameObjects in the scene's registry.
	//
	// Returns:
	//   - int: count of registered GameObjects
	Count() int

	// Add registers a GameObject. Objects without an ID are assigned the next free one.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a GameObject by ID.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object, or nil if not registered
	Get(id uint64) game_object.GameObject

	// Remove unregisters a GameObject by ID. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the object ID
	Remove(id uint64)

	// Objects returns the registered GameObjects in ID order.
	//
	// Returns:
	//   - []game_object.GameObject: the objects
	Objects() []game_object.GameObject

	// AddLight adds a light to the scene.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light from the scene. Unknown lights are ignored.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// Lights returns a copy of the scene's light list.
	//
	// Returns:
	//   - []light.Light: the lights
	Lights() []light.Light

	// AmbientColor returns the scene ambient RGB term added to every lit fragment.
	AmbientColor() [3]float32

	// SetAmbientColor sets the scene ambient RGB term.
	SetAmbientColor(color [3]float32)

	// UpdateMatrixWorld recomputes the world matrix of every enabled object.
	UpdateMatrixWorld()

	// Drawables returns the enabled objects with the world matrices from the last UpdateMatrixWorld,
	// in ID order.
	//
	// Returns:
	//   - []Drawable: the drawables
	Drawables() []Drawable

	// ParallelFor runs fn(i) for every i in [0, n) on the scene's compute pool and blocks until all return.
	//
	// Parameters:
	//   - n: the number of work items
	//   - fn: the work function, called concurrently
	ParallelFor(n int, fn func(i int))
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]game_object.GameObject
	nextID   uint64

	lights       []light.Light
	ambientColor [3]float32

	drawables []Drawable

	// computePool manages a bounded set of reusable goroutines for ParallelFor.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
	poolOnce       sync.Once
}

const poolQueueSize = 256

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new empty Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		registry:       make(map[uint64]game_object.GameObject),
		nextID:         1,
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(obj)
}

func (s *scene) addLocked(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
	}
	if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	s.registry[obj.ID()] = obj
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registry, id)
	s.drawables = slices.DeleteFunc(s.drawables, func(d Drawable) bool { return d.Object.ID() == id })
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *scene) sortedLocked() []game_object.GameObject {
	out := make([]game_object.GameObject, 0, len(s.registry))
	for _, obj := range s.registry {
		out = append(out, obj)
	}
	slices.SortFunc(out, func(a, b game_object.GameObject) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return out
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = slices.DeleteFunc(s.lights, func(x light.Light) bool { return x == l })
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) AmbientColor() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color [3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambientColor = color
}

func (s *scene) UpdateMatrixWorld() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawables = s.drawables[:0]
	for _, obj := range s.sortedLocked() {
		if !obj.Enabled() {
			continue
		}
		s.drawables = append(s.drawables, Drawable{Object: obj, MatrixWorld: obj.ModelMatrix()})
	}
}

func (s *scene) Drawables() []Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.drawables)
}

func (s *scene) ParallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	s.poolOnce.Do(func() {
		s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, poolQueueSize, 1*time.Second)
	})

	// Contiguous chunks keep the task count under the pool queue size for any n.
	chunks := min(n, s.computeWorkers*4, poolQueueSize)
	size := (n + chunks - 1) / chunks

	// A WaitGroup provides the barrier; pool.Wait() blocks until workers idle-exit.
	var wg sync.WaitGroup
	for id, lo := 0, 0; lo < n; id, lo = id+1, lo+size {
		hi := min(lo+size, n)
		wg.Add(1)
		s.computePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					fn(i)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}
