package filmstrip

import "math"

// Geometry describes a horizontal strip of fixed-width items.
type Geometry struct {
	ItemWidth     float32
	ItemSpacing   float32
	ViewportWidth float32
}

// Stride is the distance between the leading edges of adjacent items.
func (g Geometry) Stride() float32 {
	return g.ItemWidth + g.ItemSpacing
}

// IndexForOffset maps a continuous scroll offset to the nearest centered
// logical index, clamped to [0, n). Ties resolve to the higher index
// (round half up), deterministically in both directions of travel.
func (g Geometry) IndexForOffset(offset float32, n int) int {
	if n <= 0 {
		return 0
	}
	stride := g.Stride()
	if stride <= 0 {
		return 0
	}
	idx := int(math.Floor(float64(offset/stride) + 0.5))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// OffsetForIndex is the scroll offset that centers item i.
func (g Geometry) OffsetForIndex(i int) float32 {
	return float32(i) * g.Stride()
}
