// Package assets bundles the images the terrain viewer ships with.
package assets

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-terrain/common"
)

//go:embed rock.png
var rock []byte

// Rock returns the bundled rock texture as an image source.
//
// Returns:
//   - common.ImageSource: the embedded PNG
func Rock() common.ImageSource {
	return common.ImageSource{Name: "rock.png", Data: rock}
}
