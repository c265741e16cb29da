package ui

import (
	"image"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"

	"phototriage/cmd/phototriage-gui/internal/theme"
	"phototriage/internal/asset"
	"phototriage/internal/filmstrip"
	"phototriage/internal/library"
)

// FilmstripView renders the horizontal strip under the detail view and
// keeps the synchronizer fed with scroll offsets and touch-downs. The
// strip's list is also the synchronizer's scroll sink, so corrective
// snaps land back in the same widget the user scrolls.
type FilmstripView struct {
	theme *theme.Theme
	lib   library.Library
	sync  *filmstrip.Synchronizer
	grid  *GridView

	itemWidth   unit.Dp
	itemSpacing unit.Dp

	list widget.List

	// pending is a scroll target set by ScrollTo and applied on the next
	// frame, when the list geometry is known.
	pending   float32
	hasTarget bool

	// lastReported dedups per-frame offset reports: a frame rendered at
	// an unchanged position must not re-arm the settle timer, or an idle
	// strip would snap forever against its own corrective motion.
	lastReported float32
	hasReported  bool
}

// NewFilmstripView creates the strip. Call WireSynchronizer before the
// first frame.
func NewFilmstripView(t *theme.Theme, lib library.Library, grid *GridView, itemWidth, itemSpacing unit.Dp) *FilmstripView {
	return &FilmstripView{
		theme:       t,
		lib:         lib,
		grid:        grid,
		itemWidth:   itemWidth,
		itemSpacing: itemSpacing,
		list: widget.List{
			List: layout.List{Axis: layout.Horizontal},
		},
	}
}

// WireSynchronizer attaches the synchronizer after construction. The
// view is the synchronizer's Scroller, so the two reference each other.
func (f *FilmstripView) WireSynchronizer(s *filmstrip.Synchronizer) {
	f.sync = s
}

// ScrollTo implements filmstrip.Scroller. The offset is applied on the
// next frame; the snap animation is approximated by an immediate jump,
// which still honors the in-flight window the synchronizer holds open.
func (f *FilmstripView) ScrollTo(offset float32, animated bool) {
	f.pending = offset
	f.hasTarget = true
}

// Layout renders the strip and reports this frame's scroll position to
// the synchronizer.
func (f *FilmstripView) Layout(gtx layout.Context) layout.Dimensions {
	itemPx := gtx.Dp(f.itemWidth)
	spacingPx := gtx.Dp(f.itemSpacing)
	stridePx := itemPx + spacingPx

	f.sync.SetGeometry(filmstrip.Geometry{
		ItemWidth:     float32(itemPx),
		ItemSpacing:   float32(spacingPx),
		ViewportWidth: float32(gtx.Constraints.Max.X),
	})

	if f.hasTarget {
		f.hasTarget = false
		f.list.Position.First = int(f.pending) / stridePx
		f.list.Position.Offset = int(f.pending) % stridePx
	}

	f.handlePointer(gtx, stridePx)

	ids := f.lib.OrderedFilteredAssets()

	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, f)
	paint.Fill(gtx.Ops, f.theme.Palette.Panel)

	dims := f.list.List.Layout(gtx, len(ids), func(gtx layout.Context, i int) layout.Dimensions {
		return f.layoutItem(gtx, ids, i, itemPx, spacingPx)
	})

	// Report the post-layout offset so the synchronizer sees the frame's
	// final position.
	f.reportScroll(float32(f.list.Position.First*stridePx + f.list.Position.Offset))

	return dims
}

// reportScroll forwards the frame's scroll position to the synchronizer,
// but only when it moved since the last report. Frames are produced by
// the synchronizer's own timers, so unconditional reporting would turn
// every completed snap into a fresh settle cycle.
func (f *FilmstripView) reportScroll(offset float32) {
	if f.hasReported && offset == f.lastReported {
		return
	}
	f.lastReported = offset
	f.hasReported = true
	f.sync.OnScroll(offset)
}

func (f *FilmstripView) handlePointer(gtx layout.Context, stridePx int) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: f,
			Kinds:  pointer.Press | pointer.Release,
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
			f.sync.TouchDown()
		case pointer.Release:
			// A release that lands inside an item jumps to it.
			scrollPx := f.list.Position.First*stridePx + f.list.Position.Offset
			idx := int((pe.Position.X + float32(scrollPx)) / float32(stridePx))
			f.sync.SetIndex(idx)
		}
	}
}

func (f *FilmstripView) layoutItem(gtx layout.Context, ids []asset.ID, i, itemPx, spacingPx int) layout.Dimensions {
	id := ids[i]
	bounds := image.Rect(0, 0, itemPx, itemPx)

	func() {
		defer clip.Rect(bounds).Push(gtx.Ops).Pop()
		if imgOp, ok := f.grid.thumbOp(id, itemPx); ok {
			widget.Image{
				Src:      imgOp,
				Fit:      widget.Cover,
				Position: layout.Center,
			}.Layout(gtx)
		} else {
			paint.Fill(gtx.Ops, f.theme.Palette.Surface)
		}
	}()

	// The current item carries an underline in the primary color.
	if i == f.sync.Index() {
		mark := image.Rect(0, itemPx-gtx.Dp(3), itemPx, itemPx)
		paint.FillShape(gtx.Ops, f.theme.Palette.Primary, clip.Rect(mark).Op())
	}

	// Trailing spacing keeps the stride uniform.
	return layout.Dimensions{Size: image.Pt(itemPx+spacingPx, itemPx)}
}
