package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessExpandsAnnotations(t *testing.T) {
	src := strings.Join([]string{
		"//@oxy:include camera",
		"//@oxy:include camera",
		"// @oxy:group 0 0 uniform camera camera",
		"//@oxy:group 1 0 uniform light_block light_block",
		"fn main() {}",
	}, "\n")

	p := NewPreProcessor()
	out, err := p.Process(src)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"), "includes are deduplicated")
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> camera: CameraUniform;")
	assert.Contains(t, out, "@group(1) @binding(0) var<uniform> light_block: LightBlock;")
	assert.Contains(t, out, "fn main() {}")
	assert.NotContains(t, out, "@oxy:")

	decls := p.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, 1, *decls[1].Group)
	assert.Equal(t, 0, *decls[1].Binding)
	assert.Equal(t, AnnotationArgLightBlock, decls[1].Args[2])
}

func TestProcessErrors(t *testing.T) {
	p := NewPreProcessor()
	for _, src := range []string{
		"//@oxy:include nope",
		"//@oxy:include",
		"//@oxy:group x 0 uniform a camera",
		"//@oxy:group 0 0 private a camera",
		"//@oxy:group 0 0 uniform a nope",
		"//@oxy:frobnicate",
		"//@oxy:",
	} {
		_, err := p.Process(src)
		assert.Error(t, err, src)
	}
}

func TestParseAnnotationIgnoresNonComments(t *testing.T) {
	a, err := parseAnnotation(`let s = "@oxy:include camera";`, 1)
	assert.NoError(t, err)
	assert.Nil(t, a)
}
