package lots

import (
	"github.com/dhconnelly/rtreego"

	"driver-parkmate/internal/backend"
	"driver-parkmate/internal/shared/geo"
)

const (
	indexDimensions  = 2
	indexMinChildren = 5
	indexMaxChildren = 25
	pointTolerance   = 0.0001
)

type indexedLot struct {
	lot  backend.Lot
	rect *rtreego.Rect
}

func (il *indexedLot) Bounds() *rtreego.Rect {
	return il.rect
}

// Index is an R-Tree over the current lot snapshot for nearest-k and
// viewport queries. Rebuilt on every refresh; snapshots are small enough
// that rebuilding beats incremental maintenance.
type Index struct {
	tree *rtreego.Rtree
	size int
}

func NewIndex(ls []backend.Lot) *Index {
	tree := rtreego.NewTree(indexDimensions, indexMinChildren, indexMaxChildren)
	size := 0
	for _, lot := range ls {
		rect, err := rtreego.NewRect(rtreego.Point{lot.Lon, lot.Lat}, []float64{pointTolerance, pointTolerance})
		if err != nil {
			continue
		}
		tree.Insert(&indexedLot{lot: lot, rect: rect})
		size++
	}
	return &Index{tree: tree, size: size}
}

func (idx *Index) Size() int {
	return idx.size
}

// Nearest returns up to k lots closest to pos, ordered by R-Tree proximity.
func (idx *Index) Nearest(pos geo.Position, k int) []backend.Lot {
	if k <= 0 || idx.size == 0 {
		return nil
	}
	if k > idx.size {
		k = idx.size
	}
	results := idx.tree.NearestNeighbors(k, rtreego.Point{pos.Lon, pos.Lat})
	out := make([]backend.Lot, 0, len(results))
	for _, r := range results {
		if il, ok := r.(*indexedLot); ok {
			out = append(out, il.lot)
		}
	}
	return out
}

// Within returns the lots inside a lat/lon viewport.
func (idx *Index) Within(box geo.BoundingBox) []backend.Lot {
	if idx.size == 0 {
		return nil
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{box.MinLon, box.MinLat},
		[]float64{box.MaxLon - box.MinLon, box.MaxLat - box.MinLat},
	)
	if err != nil {
		return nil
	}
	results := idx.tree.SearchIntersect(rect)
	out := make([]backend.Lot, 0, len(results))
	for _, r := range results {
		if il, ok := r.(*indexedLot); ok {
			out = append(out, il.lot)
		}
	}
	return out
}
