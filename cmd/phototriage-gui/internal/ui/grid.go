package ui

import (
	"context"
	"image"
	"math"
	"time"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"phototriage/cmd/phototriage-gui/internal/theme"
	"phototriage/internal/asset"
	"phototriage/internal/library"
	"phototriage/internal/selection"
)

// GridView renders the triage grid and feeds classified gestures to the
// selection session. Raw presses are classified here: a short still
// press is a tap, a held still press is a long-press, and any press
// while selection mode is already active starts a toggle drag.
type GridView struct {
	theme   *theme.Theme
	lib     library.Library
	session *selection.Session

	longPress    time.Duration
	jitterRadius float32

	list widget.List

	// Per-gesture classification state.
	pressActive bool
	pressPos    f32.Point
	pressAt     time.Time
	moved       bool
	dragActive  bool

	thumbs map[asset.ID]paint.ImageOp
}

// NewGridView creates a grid over the library's filtered sequence.
func NewGridView(t *theme.Theme, lib library.Library, session *selection.Session, longPress time.Duration, jitterRadius float32) *GridView {
	if longPress <= 0 {
		longPress = selection.DefaultLongPressDuration
	}
	if jitterRadius <= 0 {
		jitterRadius = selection.DefaultJitterRadius
	}
	return &GridView{
		theme:        t,
		lib:          lib,
		session:      session,
		longPress:    longPress,
		jitterRadius: jitterRadius,
		list: widget.List{
			List: layout.List{Axis: layout.Vertical},
		},
		thumbs: make(map[asset.ID]paint.ImageOp),
	}
}

// Layout renders the grid and processes this frame's pointer events.
// Cell size derives from the available width so the grid always fills
// the window at the configured column count.
func (g *GridView) Layout(gtx layout.Context, columns int, spacing, padding unit.Dp) layout.Dimensions {
	if columns < 1 {
		columns = 1
	}
	spacingPx := gtx.Dp(spacing)
	padPx := gtx.Dp(padding)
	cellPx := (gtx.Constraints.Max.X - 2*padPx - (columns-1)*spacingPx) / columns
	if cellPx < 1 {
		cellPx = 1
	}
	rowStride := cellPx + spacingPx

	g.session.SetGeometry(selection.GridGeometry{
		CellSide:    float32(cellPx),
		Spacing:     float32(spacingPx),
		EdgePadding: float32(padPx),
		Columns:     columns,
	})

	g.handlePointer(gtx, rowStride)

	ids := g.lib.OrderedFilteredAssets()
	rows := (len(ids) + columns - 1) / columns

	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, g)

	return layout.Inset{Top: padding, Bottom: padding}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		lst := material.List(g.theme.Theme, &g.list)
		return lst.Layout(gtx, rows, func(gtx layout.Context, row int) layout.Dimensions {
			return g.layoutRow(gtx, ids, row, columns, cellPx, spacingPx, padPx)
		})
	})
}

// handlePointer drains this frame's pointer events and classifies them.
// Pointer coordinates are widget-relative; adding the scroll distance
// puts them in the content space the hit-test geometry expects.
func (g *GridView) handlePointer(gtx layout.Context, rowStride int) {
	scrollPx := g.list.Position.First*rowStride + g.list.Position.Offset
	toContent := func(p f32.Point) selection.Point {
		return selection.Point{X: p.X, Y: p.Y + float32(scrollPx)}
	}

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: g,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel,
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}

		switch pe.Kind {
		case pointer.Press:
			g.pressActive = true
			g.pressPos = pe.Position
			g.pressAt = gtx.Now
			g.moved = false
			if g.session.InSelectionMode() {
				g.dragActive = true
				g.session.PressStart(toContent(pe.Position))
			} else {
				// Wake up when the long-press threshold passes.
				gtx.Execute(op.InvalidateCmd{At: gtx.Now.Add(g.longPress)})
			}
		case pointer.Drag:
			if !g.pressActive {
				break
			}
			if g.dragActive {
				g.session.DragMove(toContent(pe.Position))
				break
			}
			if dist(pe.Position, g.pressPos) > g.jitterRadius {
				g.moved = true
			}
		case pointer.Release:
			if !g.pressActive {
				break
			}
			if g.dragActive {
				g.session.Release()
			} else if !g.moved && gtx.Now.Sub(g.pressAt) < g.longPress {
				g.session.Tap(toContent(pe.Position))
			}
			g.pressActive, g.dragActive = false, false
		case pointer.Cancel:
			if g.dragActive {
				g.session.Release()
			}
			g.pressActive, g.dragActive = false, false
		}
	}

	// A still press held past the threshold arms selection mode with the
	// pressed cell as anchor. The invalidate scheduled at press time
	// guarantees a frame arrives to run this check.
	if g.pressActive && !g.dragActive && !g.moved && gtx.Now.Sub(g.pressAt) >= g.longPress {
		g.session.LongPress(toContent(g.pressPos))
		g.dragActive = g.session.InSelectionMode()
	}
}

func (g *GridView) layoutRow(gtx layout.Context, ids []asset.ID, row, columns, cellPx, spacingPx, padPx int) layout.Dimensions {
	for col := 0; col < columns; col++ {
		i := row*columns + col
		if i >= len(ids) {
			break
		}
		x := padPx + col*(cellPx+spacingPx)
		stack := op.Offset(image.Pt(x, 0)).Push(gtx.Ops)
		cgtx := gtx
		cgtx.Constraints = layout.Exact(image.Pt(cellPx, cellPx))
		g.layoutCell(cgtx, ids[i], cellPx)
		stack.Pop()
	}
	return layout.Dimensions{Size: image.Pt(gtx.Constraints.Max.X, cellPx+spacingPx)}
}

func (g *GridView) layoutCell(gtx layout.Context, id asset.ID, cellPx int) {
	radius := gtx.Dp(g.theme.Config.CornerRadius)
	bounds := image.Rect(0, 0, cellPx, cellPx)
	defer clip.UniformRRect(bounds, radius).Push(gtx.Ops).Pop()

	if imgOp, ok := g.thumbOp(id, cellPx); ok {
		widget.Image{
			Src:      imgOp,
			Fit:      widget.Cover,
			Position: layout.Center,
		}.Layout(gtx)
	} else {
		paint.Fill(gtx.Ops, g.theme.Palette.Surface)
	}

	if tag, ok := g.lib.TagOf(id); ok {
		g.drawBadge(gtx, tag, cellPx)
	}

	if g.session.IsSelected(id) {
		paint.FillShape(gtx.Ops, g.theme.Palette.Selection, clip.Rect(bounds).Op())
		border := clip.Stroke{
			Path:  clip.UniformRRect(bounds, radius).Path(gtx.Ops),
			Width: float32(gtx.Dp(2)),
		}.Op()
		paint.FillShape(gtx.Ops, g.theme.Palette.Primary, border)
	}
}

// drawBadge marks a tagged cell with a colored square in its top-right
// corner.
func (g *GridView) drawBadge(gtx layout.Context, tag asset.Tag, cellPx int) {
	side := gtx.Dp(14)
	inset := gtx.Dp(6)
	rect := image.Rect(cellPx-inset-side, inset, cellPx-inset, inset+side)
	badge := clip.UniformRRect(rect, side/2).Op(gtx.Ops)
	paint.FillShape(gtx.Ops, g.theme.TagColor(tag), badge)
}

// thumbOp returns the cached image op for id, decoding the thumbnail on
// first use. Decode failures leave the cell as a plain surface.
func (g *GridView) thumbOp(id asset.ID, side int) (paint.ImageOp, bool) {
	if imgOp, ok := g.thumbs[id]; ok {
		return imgOp, true
	}
	img, err := g.lib.Thumbnail(context.Background(), id, side)
	if err != nil {
		return paint.ImageOp{}, false
	}
	if len(g.thumbs) > 512 {
		g.thumbs = make(map[asset.ID]paint.ImageOp)
	}
	imgOp := paint.NewImageOp(img)
	g.thumbs[id] = imgOp
	return imgOp, true
}

// Evict drops cached thumbnails for ids, e.g. after deletion.
func (g *GridView) Evict(ids []asset.ID) {
	for _, id := range ids {
		delete(g.thumbs, id)
	}
}

func dist(a, b f32.Point) float32 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return float32(math.Hypot(dx, dy))
}
