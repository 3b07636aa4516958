// Package sprite provides sprite sheet layout and frame sequence structures
// for the resource renderer. Each sheet is laid out row by row, one appearance
// variant per row, and materialized into a GPU texture only when a window
// exists; layout and sequence metadata never depend on the texture, so
// headless tools and tests can work with unmaterialized sheets.
package sprite

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nero3327/oredit/pkg/config"
)

// Sheet is a single sprite sheet texture.
type Sheet struct {
	// Name identifies the sheet, shared by every resource type that declares it
	Name string

	// Image is the GPU texture, nil for unmaterialized sheets
	Image *ebiten.Image

	// W, H are the sheet dimensions in pixels
	W, H int
}

// Frame is one drawable cell-sized region of a sheet.
type Frame struct {
	// Sheet is the texture this frame belongs to
	Sheet *Sheet

	// Bounds is the frame's pixel rectangle within the sheet
	Bounds image.Rectangle

	// Blend is the composite mode the frame must be drawn with
	Blend ebiten.Blend
}

// Sequence is a named, ordered list of frames for one appearance variant.
// The renderer indexes into it by density-interpolated frame number.
type Sequence struct {
	// Name is "<resource id>/<variant name>"
	Name string

	// Frames is ordered from sparsest to densest appearance
	Frames []Frame
}

// Len returns the number of frames in the sequence.
func (s *Sequence) Len() int {
	return len(s.Frames)
}

// BlendByName maps a config blend mode name to an ebiten blend.
// The second return value is false for unknown names.
func BlendByName(name string) (ebiten.Blend, bool) {
	switch name {
	case config.BlendAlpha:
		return ebiten.BlendSourceOver, true
	case config.BlendAdditive:
		return ebiten.BlendLighter, true
	default:
		return ebiten.Blend{}, false
	}
}
