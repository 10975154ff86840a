package scene

import (
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-terrain/engine/game_object"
	"github.com/Carmen-Shannon/oxy-terrain/engine/light"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneAddAssignsIDs(t *testing.T) {
	s := NewScene("test")
	a := game_object.NewGameObject()
	b := game_object.NewGameObject(game_object.WithID(10))
	c := game_object.NewGameObject()

	assert.Equal(t, uint64(1), s.Add(a))
	assert.Equal(t, uint64(10), s.Add(b))
	assert.Equal(t, uint64(11), s.Add(c))
	assert.Equal(t, 3, s.Count())
	assert.Same(t, b, s.Get(10))

	objs := s.Objects()
	require.Len(t, objs, 3)
	assert.Equal(t, []uint64{1, 10, 11}, []uint64{objs[0].ID(), objs[1].ID(), objs[2].ID()})

	s.Remove(10)
	assert.Nil(t, s.Get(10))
	assert.Equal(t, 2, s.Count())
}

func TestSceneLights(t *testing.T) {
	l1 := light.NewPointLight(0xffffff, 1, 0)
	l2 := light.NewPointLight(0xff0000, 1, 0)
	s := NewScene("test", WithLights(l1), WithAmbientColor([3]float32{0.2, 0.2, 0.2}))
	s.AddLight(l2)
	assert.Len(t, s.Lights(), 2)

	s.RemoveLight(l1)
	lights := s.Lights()
	require.Len(t, lights, 1)
	assert.Same(t, l2, lights[0])
	assert.Equal(t, [3]float32{0.2, 0.2, 0.2}, s.AmbientColor())
}

func TestSceneDrawablesSkipDisabled(t *testing.T) {
	on := game_object.NewGameObject(game_object.WithPosition(1, 0, 0))
	off := game_object.NewGameObject(game_object.WithEnabled(false))
	s := NewScene("test", WithObjects(on, off))

	assert.Empty(t, s.Drawables())
	s.UpdateMatrixWorld()
	d := s.Drawables()
	require.Len(t, d, 1)
	assert.Same(t, on, d[0].Object)
	assert.Equal(t, float32(1), d[0].MatrixWorld[12])

	on.SetPosition(5, 0, 0)
	assert.Equal(t, float32(1), s.Drawables()[0].MatrixWorld[12])
	s.UpdateMatrixWorld()
	assert.Equal(t, float32(5), s.Drawables()[0].MatrixWorld[12])
}

func TestSceneParallelForVisitsEveryIndex(t *testing.T) {
	s := NewScene("test", WithComputeWorkers(4))
	seen := make([]atomic.Int32, 300)
	s.ParallelFor(len(seen), func(i int) {
		seen[i].Add(1)
	})
	for i := range seen {
		assert.Equal(t, int32(1), seen[i].Load(), "index %d", i)
	}

	s.ParallelFor(0, func(int) { t.Fatal("called for empty range") })
}
