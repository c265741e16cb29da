package library

import (
	"container/list"
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	// Decoders for the supported library formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"phototriage/internal/asset"
)

const defaultThumbCacheSize = 256

// Thumbnail decodes the asset and downscales it so its longest side is at
// most side pixels. Results are cached per (id, side). Decoding respects
// ctx cancellation between the expensive steps.
func (l *DirLibrary) Thumbnail(ctx context.Context, id asset.ID, side int) (image.Image, error) {
	if side <= 0 {
		return nil, fmt.Errorf("invalid thumbnail side %d", side)
	}
	key := thumbKey{id: id, side: side}
	if img, ok := l.thumbs.get(key); ok {
		return img, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.Path(id))
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	thumb := scaleToFit(src, side)
	l.thumbs.put(key, thumb)
	return thumb, nil
}

// scaleToFit downscales src so its longest side is max. Images already
// small enough are returned as-is.
func scaleToFit(src image.Image, max int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return src
	}

	var tw, th int
	if w >= h {
		tw = max
		th = h * max / w
	} else {
		th = max
		tw = w * max / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

type thumbKey struct {
	id   asset.ID
	side int
}

// thumbCache is a small LRU of decoded thumbnails.
type thumbCache struct {
	mu      sync.Mutex
	cap     int
	entries map[thumbKey]*list.Element
	lru     *list.List
}

type thumbEntry struct {
	key thumbKey
	img image.Image
}

func newThumbCache(capacity int) *thumbCache {
	return &thumbCache{
		cap:     capacity,
		entries: make(map[thumbKey]*list.Element),
		lru:     list.New(),
	}
}

func (c *thumbCache) get(key thumbKey) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(el)
	return el.Value.(*thumbEntry).img, true
}

func (c *thumbCache) put(key thumbKey, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.lru.MoveToFront(el)
		el.Value.(*thumbEntry).img = img
		return
	}
	c.entries[key] = c.lru.PushFront(&thumbEntry{key: key, img: img})
	for c.lru.Len() > c.cap {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*thumbEntry).key)
	}
}

// removeAll evicts every cached size of the given assets.
func (c *thumbCache) removeAll(ids map[asset.ID]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.lru.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*thumbEntry)
		if _, gone := ids[entry.key.id]; gone {
			c.lru.Remove(el)
			delete(c.entries, entry.key)
		}
		el = next
	}
}
