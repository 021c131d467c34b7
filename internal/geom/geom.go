// Package geom provides the minimal point/line/rectangle arithmetic VMap2
// needs: WGS84 longitude/latitude points, multi-segment lines, and axis
// aligned bounding rectangles. It has no dependency on any particular file
// format or projection; callers are expected to supply already-WGS84
// coordinates (spec.md §1 Non-goals excludes projection conversion).
package geom

import "math"

// Point is a 2-d coordinate, (lon, lat) when used for map data.
type Point struct {
	X, Y float64
}

// Line is an ordered sequence of points, one polyline segment.
type Line []Point

// MultiLine is an ordered sequence of segments.
type MultiLine []Line

// NPoints returns the total number of points across all segments.
func (ml MultiLine) NPoints() int {
	n := 0
	for _, l := range ml {
		n += len(l)
	}
	return n
}

// IsEmpty reports whether the multiline has no points at all.
func (ml MultiLine) IsEmpty() bool {
	return ml.NPoints() == 0
}

// BBox returns the minimal axis-aligned rectangle containing every point of
// the multiline. The result is the empty Rect if the multiline has no
// points.
func (ml MultiLine) BBox() Rect {
	r := Rect{Empty: true}
	for _, l := range ml {
		for _, p := range l {
			r.Expand(p)
		}
	}
	return r
}

// Rect is an axis-aligned rectangle, top-left corner (X,Y), width W, height
// H. Contains treats the lower edges as inside and the upper edges as
// outside; ContainsRect compares all four edges inclusively. Empty tracks
// the empty rectangle distinct from a zero-size (single point) rectangle;
// the zero value is the zero-size rectangle at the origin, not the empty
// one.
type Rect struct {
	X, Y, W, H float64
	Empty      bool
}

// NewRect builds the rectangle spanning two opposite corners, in any order.
func NewRect(p1, p2 Point) Rect {
	x0, x1 := math.Min(p1.X, p2.X), math.Max(p1.X, p2.X)
	y0, y1 := math.Min(p1.Y, p2.Y), math.Max(p1.Y, p2.Y)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// IsEmpty reports whether the rectangle is the empty rectangle.
func (r Rect) IsEmpty() bool { return r.Empty }

// TLC is the top-left corner (min X, min Y).
func (r Rect) TLC() Point { return Point{r.X, r.Y} }

// BRC is the bottom-right corner (max X, max Y).
func (r Rect) BRC() Point { return Point{r.X + r.W, r.Y + r.H} }

// Expand grows the rectangle (or, if it is currently empty, initializes it)
// to include p.
func (r *Rect) Expand(p Point) {
	if r.Empty {
		*r = Rect{X: p.X, Y: p.Y, W: 0, H: 0}
		return
	}
	x0, x1 := math.Min(r.X, p.X), math.Max(r.X+r.W, p.X)
	y0, y1 := math.Min(r.Y, p.Y), math.Max(r.Y+r.H, p.Y)
	r.X, r.Y, r.W, r.H = x0, y0, x1-x0, y1-y0
}

// ExpandRect grows r to include all of o. A no-op if o is empty; sets r to
// o if r was empty.
func (r *Rect) ExpandRect(o Rect) {
	if o.Empty {
		return
	}
	r.Expand(o.TLC())
	r.Expand(o.BRC())
}

// Contains reports whether p lies within r (lower bounds inclusive, matching
// the upstream convention that only lower bounds are included so adjacent
// rectangles don't double-count a shared edge).
func (r Rect) Contains(p Point) bool {
	if r.Empty {
		return false
	}
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// ContainsRect reports whether r fully contains o.
func (r Rect) ContainsRect(o Rect) bool {
	if o.Empty {
		return true
	}
	if r.Empty {
		return false
	}
	return o.X >= r.X && o.Y >= r.Y && o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// Intersects reports whether r and o overlap, using strict comparisons on
// every edge: rectangles that only touch along an edge or at a corner do
// not intersect, and a zero-size rectangle intersects o only when it lies
// strictly inside o.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty || o.Empty {
		return false
	}
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Equal reports structural equality; empty rectangles are always equal to
// one another regardless of their zero-valued fields.
func (r Rect) Equal(o Rect) bool {
	if r.Empty != o.Empty {
		return false
	}
	if r.Empty {
		return true
	}
	return r.X == o.X && r.Y == o.Y && r.W == o.W && r.H == o.H
}
