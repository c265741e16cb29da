package ui

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"phototriage/cmd/phototriage-gui/internal/theme"
	"phototriage/internal/asset"
	"phototriage/internal/config"
	"phototriage/internal/filmstrip"
	"phototriage/internal/journal"
	"phototriage/internal/library"
	"phototriage/internal/selection"
	"phototriage/internal/triage"
)

// App is the review surface: a toolbar, the triage grid, and the
// filmstrip. The grid owns multi-select; the filmstrip owns the current
// index; tag commits and deletions go through the coordinator.
type App struct {
	theme *theme.Theme
	cfg   *config.Config
	lib   *library.DirLibrary
	coord *triage.Coordinator

	session *selection.Session
	sync    *filmstrip.Synchronizer
	grid    *GridView
	strip   *FilmstripView

	invalidate func()

	detail bool

	keepBtn    widget.Clickable
	deleteBtn  widget.Clickable
	unsureBtn  widget.Clickable
	clearBtn   widget.Clickable
	undoBtn    widget.Clickable
	applyBtn   widget.Clickable
	cancelBtn  widget.Clickable
	filterBtn  widget.Clickable
	backBtn    widget.Clickable
	filterMode int

	status string
}

// NewApp wires the review surface together. invalidate must schedule a
// redraw on the UI thread; the synchronizer's timers fire through it.
func NewApp(t *theme.Theme, cfg *config.Config, lib *library.DirLibrary, coord *triage.Coordinator, execute func(func()), invalidate func()) *App {
	a := &App{
		theme:      t,
		cfg:        cfg,
		lib:        lib,
		coord:      coord,
		invalidate: invalidate,
	}

	a.session = selection.NewSession(selection.GridGeometry{
		CellSide:    cfg.Grid.CellSide,
		Spacing:     cfg.Grid.Spacing,
		EdgePadding: cfg.Grid.EdgePadding,
		Columns:     cfg.Grid.Columns,
	}, lib.OrderedFilteredAssets, selection.Callbacks{
		SelectionChanged: invalidate,
		OpenDetail:       a.openDetail,
	})

	a.grid = NewGridView(t, lib, a.session,
		time.Duration(cfg.Grid.LongPressMs)*time.Millisecond, cfg.Grid.JitterRadius)

	a.strip = NewFilmstripView(t, lib, a.grid,
		unit.Dp(cfg.Filmstrip.ItemWidth), unit.Dp(cfg.Filmstrip.ItemSpacing))

	a.sync = filmstrip.NewSynchronizer(filmstrip.Geometry{
		ItemWidth:   cfg.Filmstrip.ItemWidth,
		ItemSpacing: cfg.Filmstrip.ItemSpacing,
	}, a.count, a.strip, filmstrip.Options{
		SettleDelay:    time.Duration(cfg.Filmstrip.SettleDelayMs) * time.Millisecond,
		SnapDuration:   time.Duration(cfg.Filmstrip.SnapDurationMs) * time.Millisecond,
		Execute:        execute,
		OnIndexChanged: func(int) { invalidate() },
	})
	a.strip.WireSynchronizer(a.sync)

	return a
}

func (a *App) count() int {
	return len(a.lib.OrderedFilteredAssets())
}

// openDetail switches to the detail view centered on the tapped photo.
func (a *App) openDetail(id asset.ID) {
	ids := a.lib.OrderedFilteredAssets()
	for i, candidate := range ids {
		if candidate == id {
			a.detail = true
			a.sync.SetIndex(i)
			return
		}
	}
}

// Refresh is called when the library changed under us, e.g. from the
// directory watcher. It reconciles all views against the new sequence.
func (a *App) Refresh() {
	purged, err := a.coord.Rescan()
	if err != nil {
		a.status = err.Error()
		return
	}
	if purged > 0 {
		a.status = fmt.Sprintf("Library changed, %d stale tags dropped", purged)
	}
	a.invalidate()
}

// Layout renders one frame.
func (a *App) Layout(gtx layout.Context) layout.Dimensions {
	a.handleActions(gtx)

	paint.Fill(gtx.Ops, a.theme.Palette.Background)

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(a.layoutToolbar),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			if a.detail {
				return a.layoutDetail(gtx)
			}
			return a.grid.Layout(gtx, a.cfg.Grid.Columns,
				unit.Dp(a.cfg.Grid.Spacing), unit.Dp(a.cfg.Grid.EdgePadding))
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if !a.detail {
				return layout.Dimensions{}
			}
			gtx.Constraints.Min.Y = gtx.Dp(unit.Dp(a.cfg.Filmstrip.ItemWidth))
			gtx.Constraints.Max.Y = gtx.Constraints.Min.Y
			return a.strip.Layout(gtx)
		}),
	)
}

func (a *App) handleActions(gtx layout.Context) {
	if a.keepBtn.Clicked(gtx) {
		a.commitSelection(asset.TagKeep)
	}
	if a.deleteBtn.Clicked(gtx) {
		a.commitSelection(asset.TagDelete)
	}
	if a.unsureBtn.Clicked(gtx) {
		a.commitSelection(asset.TagUnsure)
	}
	if a.clearBtn.Clicked(gtx) {
		for _, id := range a.session.Selected() {
			if err := a.coord.ClearTag(id, journal.SourceBulk); err != nil {
				a.status = err.Error()
			}
		}
		a.session.Cancel()
	}
	if a.undoBtn.Clicked(gtx) {
		if reverted, err := a.coord.Undo(); err != nil {
			a.status = err.Error()
		} else {
			a.status = fmt.Sprintf("Reverted %s", reverted.AssetID)
		}
	}
	if a.applyBtn.Clicked(gtx) {
		a.deleteSelection()
	}
	if a.cancelBtn.Clicked(gtx) {
		a.session.Cancel()
	}
	if a.filterBtn.Clicked(gtx) {
		a.cycleFilter()
	}
	if a.backBtn.Clicked(gtx) {
		a.detail = false
	}
}

func (a *App) commitSelection(tag asset.Tag) {
	ids := a.session.Selected()
	if len(ids) == 0 {
		return
	}
	if err := a.coord.CommitBulk(ids, tag, journal.SourceBulk); err != nil {
		a.status = err.Error()
		return
	}
	a.status = fmt.Sprintf("%d photos tagged %s", len(ids), tag)
	a.session.Cancel()
}

// deleteSelection removes the selected files and reconciles the views
// against whatever subset was confirmed deleted.
func (a *App) deleteSelection() {
	ids := a.session.Selected()
	if len(ids) == 0 {
		return
	}

	deleted, errs := a.coord.DeleteSelected(context.Background(), ids)

	existing := a.lib.ExistingIDs()
	gone := make([]asset.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			gone = append(gone, id)
		}
	}
	a.session.RemoveIDs(gone)
	a.grid.Evict(gone)

	if len(errs) > 0 {
		a.status = fmt.Sprintf("Deleted %d photos, %d failed", deleted, len(errs))
	} else {
		a.status = fmt.Sprintf("Deleted %d photos", deleted)
	}
}

// cycleFilter steps through all / untagged-only / delete-only views.
func (a *App) cycleFilter() {
	a.filterMode = (a.filterMode + 1) % 3
	switch a.filterMode {
	case 0:
		a.lib.SetFilter(library.DefaultFilter())
	case 1:
		a.lib.SetFilter(library.Filter{IncludeUntagged: true})
	case 2:
		a.lib.SetFilter(library.Filter{Allowed: map[asset.Tag]bool{asset.TagDelete: true}})
	}
	a.session.Cancel()
}

func (a *App) filterLabel() string {
	switch a.filterMode {
	case 1:
		return "Untagged"
	case 2:
		return "Marked delete"
	default:
		return "All photos"
	}
}

func (a *App) layoutToolbar(gtx layout.Context) layout.Dimensions {
	inset := layout.UniformInset(a.theme.Config.Spacing)
	return inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		children := []layout.FlexChild{}

		if a.detail {
			children = append(children, a.button(&a.backBtn, "Back", a.theme.Palette.Panel))
		}

		title := fmt.Sprintf("%d photos", a.count())
		if a.session.InSelectionMode() {
			title = fmt.Sprintf("%d selected", a.session.Count())
		}
		children = append(children,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				l := material.Body1(a.theme.Theme, title)
				l.Color = a.theme.Palette.Text
				return layout.Inset{Right: unit.Dp(12)}.Layout(gtx, l.Layout)
			}),
		)

		if a.session.InSelectionMode() {
			children = append(children,
				a.button(&a.keepBtn, "Keep", a.theme.Palette.Keep),
				a.button(&a.deleteBtn, "Delete", a.theme.Palette.Delete),
				a.button(&a.unsureBtn, "Unsure", a.theme.Palette.Unsure),
				a.button(&a.clearBtn, "Clear", a.theme.Palette.Panel),
				a.button(&a.applyBtn, "Remove files", a.theme.Palette.Delete),
				a.button(&a.cancelBtn, "Cancel", a.theme.Palette.Panel),
			)
		} else {
			children = append(children,
				a.button(&a.undoBtn, "Undo", a.theme.Palette.Panel),
				a.button(&a.filterBtn, a.filterLabel(), a.theme.Palette.Panel),
			)
		}

		children = append(children,
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				if a.status == "" {
					return layout.Dimensions{}
				}
				l := material.Caption(a.theme.Theme, a.status)
				l.Color = a.theme.Palette.TextMuted
				return layout.E.Layout(gtx, l.Layout)
			}),
		)

		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx, children...)
	})
}

func (a *App) button(click *widget.Clickable, label string, bg color.NRGBA) layout.FlexChild {
	return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
		btn := material.Button(a.theme.Theme, click, label)
		btn.Background = bg
		btn.TextSize = a.theme.Config.FontCaption
		return layout.Inset{Right: unit.Dp(8)}.Layout(gtx, btn.Layout)
	})
}

// layoutDetail shows the current photo at full size above the strip.
func (a *App) layoutDetail(gtx layout.Context) layout.Dimensions {
	ids := a.lib.OrderedFilteredAssets()
	if len(ids) == 0 {
		a.detail = false
		return layout.Dimensions{}
	}
	idx := a.sync.Index()
	if idx >= len(ids) {
		idx = len(ids) - 1
	}
	id := ids[idx]

	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, a.theme.Palette.Background)

	side := gtx.Constraints.Max.Y
	if gtx.Constraints.Max.X < side {
		side = gtx.Constraints.Max.X
	}
	if imgOp, ok := a.grid.thumbOp(id, side); ok {
		return widget.Image{
			Src:      imgOp,
			Fit:      widget.Contain,
			Position: layout.Center,
		}.Layout(gtx)
	}

	return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		l := material.Body1(a.theme.Theme, string(id))
		l.Color = a.theme.Palette.TextMuted
		return l.Layout(gtx)
	})
}
