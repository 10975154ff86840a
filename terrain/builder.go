package terrain

import (
	"log"

	"github.com/Carmen-Shannon/oxy-terrain/engine/game_object"
	"github.com/Carmen-Shannon/oxy-terrain/engine/geometry"
	"github.com/Carmen-Shannon/oxy-terrain/engine/light"
	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Terrain mesh and light constants.
const (
	TerrainWidth     = 150
	TerrainHeight    = 300
	TerrainSegments  = 100
	TerrainRotationZ = 270

	LightColor     = 0xffffff
	LightIntensity = 5
	LightRange     = 100
	LightZ         = 10
)

// SceneBuilder populates a Context with the terrain mesh, its displacement array and the light.
type SceneBuilder struct {
	ctx *Context
}

// NewSceneBuilder creates a builder writing into ctx.
//
// Parameters:
//   - ctx: the context to populate
//
// Returns:
//   - *SceneBuilder: the builder
func NewSceneBuilder(ctx *Context) *SceneBuilder {
	return &SceneBuilder{ctx: ctx}
}

// BuildLight adds one white point light above the terrain.
//
// Returns:
//   - light.Light: the light
func (b *SceneBuilder) BuildLight() light.Light {
	l := light.NewPointLight(LightColor, LightIntensity, LightRange, light.WithPosition(0, 0, LightZ))
	b.ctx.Scene.AddLight(l)
	b.ctx.Light = l
	return l
}

// BuildTerrain builds the displaced plane and adds it to the scene.
// The texture load runs in the background; until it resolves the mesh renders untextured.
//
// Returns:
//   - game_object.GameObject: the terrain mesh
func (b *SceneBuilder) BuildTerrain() game_object.GameObject {
	opts := []material.MaterialBuilderOption{
		material.WithName("terrain"),
		material.WithWireframe(true),
	}
	if src := b.ctx.Texture; len(src.Data) > 0 || src.Path != "" {
		opts = append(opts, material.WithColorMap(material.LoadTexture(src)))
	}
	mat := material.NewLambertMaterial(opts...)

	plane := geometry.NewPlane(TerrainWidth, TerrainHeight, TerrainSegments, TerrainSegments)
	b.ctx.Displacement = SampleDisplacement(plane, b.ctx.Noise, b.ctx.Scene.ParallelFor)

	mesh := game_object.NewGameObject(
		game_object.WithGeometry(plane),
		game_object.WithMaterial(mat),
	)
	mesh.RotateZ(mgl32.DegToRad(TerrainRotationZ))
	b.ctx.Scene.Add(mesh)
	b.ctx.Terrain = mesh

	log.Printf("[Terrain] built %d vertices", plane.VertexCount())
	return mesh
}

// BuildGeom builds the terrain, then the light.
func (b *SceneBuilder) BuildGeom() {
	b.BuildTerrain()
	b.BuildLight()
}
