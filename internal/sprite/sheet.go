package sprite

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nero3327/oredit/pkg/config"
)

// SequenceSpec describes one planned row of a sheet: the frame strip of a
// single appearance variant.
type SequenceSpec struct {
	// TypeID is the owning resource type's ID
	TypeID string

	// Variant is the appearance variant name, unique within the type
	Variant string

	// Frames is the number of frames in the strip
	Frames int

	// Blend is the composite mode for every frame of the strip
	Blend ebiten.Blend

	// Color is the base color the frame ramp is painted from
	Color color.RGBA
}

// RowPlan places one sequence spec at a vertical offset within its sheet.
type RowPlan struct {
	Spec SequenceSpec

	// Y is the row's top edge in sheet pixels
	Y int
}

// SheetPlan is the computed layout of one sheet: every variant row of every
// resource type that declares the sheet, in declaration order.
type SheetPlan struct {
	Name   string
	FrameW int
	FrameH int
	Rows   []RowPlan

	// W, H are the resulting sheet dimensions in pixels
	W, H int
}

// PlanSheets groups the configured resource variants by sheet name and
// computes the frame layout for each sheet. Sheets appear in first-declaration
// order and rows follow resource declaration order, so the layout is stable
// for a given config.
func PlanSheets(cfg *config.ResourceTypesConfig) ([]SheetPlan, error) {
	var order []string
	plans := make(map[string]*SheetPlan)

	for _, r := range cfg.Resources {
		blend, ok := BlendByName(r.Blend)
		if !ok {
			return nil, fmt.Errorf("resource %q: unknown blend mode %q", r.ID, r.Blend)
		}
		base, err := config.ParseHexColor(r.Color)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", r.ID, err)
		}

		p := plans[r.Sheet]
		if p == nil {
			p = &SheetPlan{Name: r.Sheet, FrameW: config.CellSize, FrameH: config.CellSize}
			plans[r.Sheet] = p
			order = append(order, r.Sheet)
		}

		for _, v := range r.Variants {
			p.Rows = append(p.Rows, RowPlan{
				Spec: SequenceSpec{
					TypeID:  r.ID,
					Variant: v.Name,
					Frames:  v.Frames,
					Blend:   blend,
					Color:   base,
				},
				Y: len(p.Rows) * p.FrameH,
			})
			if w := v.Frames * p.FrameW; w > p.W {
				p.W = w
			}
		}
	}

	result := make([]SheetPlan, 0, len(order))
	for _, name := range order {
		p := plans[name]
		p.H = len(p.Rows) * p.FrameH
		result = append(result, *p)
	}
	return result, nil
}

// EmptySheet returns the planned sheet with layout dimensions but no texture.
// Headless tools use it to build sequences without a graphics context.
func (p *SheetPlan) EmptySheet() *Sheet {
	return &Sheet{Name: p.Name, W: p.W, H: p.H}
}

// Materialize creates the sheet texture and paints every frame as a shade
// ramp of the variant's base color, darkest at frame 0 so denser cells read
// brighter on screen.
func (p *SheetPlan) Materialize() *Sheet {
	img := ebiten.NewImage(p.W, p.H)
	for _, row := range p.Rows {
		for i := 0; i < row.Spec.Frames; i++ {
			rect := image.Rect(i*p.FrameW, row.Y, (i+1)*p.FrameW, row.Y+p.FrameH)
			img.SubImage(rect).(*ebiten.Image).Fill(rampShade(row.Spec.Color, i, row.Spec.Frames))
		}
	}
	return &Sheet{Name: p.Name, Image: img, W: p.W, H: p.H}
}

// Sequences builds the frame sequences of every planned row against the given
// sheet, keyed by resource type ID and then variant name. The sheet is
// normally the plan's own materialized or empty sheet.
func (p *SheetPlan) Sequences(sheet *Sheet) map[string]map[string]*Sequence {
	result := make(map[string]map[string]*Sequence)
	for _, row := range p.Rows {
		frames := make([]Frame, row.Spec.Frames)
		for i := range frames {
			frames[i] = Frame{
				Sheet:  sheet,
				Bounds: image.Rect(i*p.FrameW, row.Y, (i+1)*p.FrameW, row.Y+p.FrameH),
				Blend:  row.Spec.Blend,
			}
		}

		byVariant := result[row.Spec.TypeID]
		if byVariant == nil {
			byVariant = make(map[string]*Sequence)
			result[row.Spec.TypeID] = byVariant
		}
		byVariant[row.Spec.Variant] = &Sequence{
			Name:   row.Spec.TypeID + "/" + row.Spec.Variant,
			Frames: frames,
		}
	}
	return result
}

// rampShade scales the base color linearly from 55% brightness at frame 0 to
// full brightness at the last frame. Single-frame strips use full brightness.
func rampShade(base color.RGBA, frame, frames int) color.RGBA {
	t := 1.0
	if frames > 1 {
		t = 0.55 + 0.45*float64(frame)/float64(frames-1)
	}
	return color.RGBA{
		R: uint8(float64(base.R) * t),
		G: uint8(float64(base.G) * t),
		B: uint8(float64(base.B) * t),
		A: base.A,
	}
}
