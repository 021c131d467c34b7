// Package geohash implements the base-32 geohash encoding used to index
// VMap2 objects by location: encoding a point or rectangle to a short
// string, decoding a string back to its covered cell, and finding the
// small set of adjacent hashes that jointly cover an arbitrary rectangle.
//
// Based on the classic bit-interleaved geohash scheme (see
// https://github.com/lyokato/libgeohash, which the upstream mapsoft2
// geohash/geohash.h also credits), restricted to the 32-symbol alphabet
// that excludes 'a', 'i', 'l', 'o' to avoid confusion with '1' and '0'.
package geohash

import (
	"github.com/slazav/vmap2/internal/geom"
)

const alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// MaxLen caps the hash length EncodeRect and EncodeRect4 produce (Encode
// and Decode themselves take any length). 12 characters gives
// sub-decimeter resolution, matching the upstream HASHLEN constant.
const MaxLen = 12

var charIndex [128]int8

func init() {
	for i := range charIndex {
		charIndex[i] = -1
	}
	for i, c := range alphabet {
		charIndex[c] = int8(i)
	}
}

// domain is the canonical geohash coordinate range: longitude in
// [-180,180], latitude in [-90,90].
var domain = geom.Rect{X: -180, Y: -90, W: 360, H: 180}

// Verify reports whether hash contains only valid alphabet characters (the
// empty string is valid: it denotes the whole domain).
func Verify(hash string) bool {
	for i := 0; i < len(hash); i++ {
		c := hash[i]
		if c >= 128 || charIndex[c] < 0 {
			return false
		}
	}
	return true
}

// Encode returns the length-len hash whose cell contains p. Points outside
// the canonical domain are clamped into it first.
func Encode(p geom.Point, length int) string {
	if length <= 0 {
		return ""
	}
	lonLo, lonHi := domain.X, domain.X+domain.W
	latLo, latHi := domain.Y, domain.Y+domain.H
	lon := clamp(p.X, lonLo, lonHi)
	lat := clamp(p.Y, latLo, latHi)

	out := make([]byte, length)
	bit := 0
	ch := 0
	evenBit := true // true => this bit refines longitude, per spec "starting from longitude"
	for i := 0; i < length; i++ {
		for bit < 5 {
			if evenBit {
				mid := (lonLo + lonHi) / 2
				if lon >= mid {
					ch = (ch << 1) | 1
					lonLo = mid
				} else {
					ch = ch << 1
					lonHi = mid
				}
			} else {
				mid := (latLo + latHi) / 2
				if lat >= mid {
					ch = (ch << 1) | 1
					latLo = mid
				} else {
					ch = ch << 1
					latHi = mid
				}
			}
			evenBit = !evenBit
			bit++
		}
		out[i] = alphabet[ch]
		bit = 0
		ch = 0
	}
	return string(out)
}

// Decode returns the cell rectangle covered by hash. The result is the
// empty rectangle if hash contains an invalid character.
func Decode(hash string) geom.Rect {
	if !Verify(hash) {
		return geom.Rect{Empty: true}
	}
	lonLo, lonHi := domain.X, domain.X+domain.W
	latLo, latHi := domain.Y, domain.Y+domain.H
	evenBit := true
	for i := 0; i < len(hash); i++ {
		ch := int(charIndex[hash[i]])
		for b := 4; b >= 0; b-- {
			bit := (ch >> uint(b)) & 1
			if evenBit {
				mid := (lonLo + lonHi) / 2
				if bit == 1 {
					lonLo = mid
				} else {
					lonHi = mid
				}
			} else {
				mid := (latLo + latHi) / 2
				if bit == 1 {
					latLo = mid
				} else {
					latHi = mid
				}
			}
			evenBit = !evenBit
		}
	}
	return geom.Rect{X: lonLo, Y: latLo, W: lonHi - lonLo, H: latHi - latLo}
}

// EncodeRect returns the longest hash, of length at most maxLen, whose cell
// fully covers r. Can return the empty string (the whole domain covers
// every rectangle) or, if r itself is empty, the empty string as well.
func EncodeRect(r geom.Rect, maxLen int) string {
	if r.IsEmpty() {
		return ""
	}
	if maxLen > MaxLen {
		maxLen = MaxLen
	}
	if maxLen < 0 {
		maxLen = 0
	}
	p1 := Encode(r.TLC(), maxLen)
	p2 := Encode(nudgeInward(r), maxLen)
	n := 0
	for n < len(p1) && n < len(p2) && p1[n] == p2[n] {
		n++
	}
	return p1[:n]
}

// nudgeInward returns the bottom-right corner of r, pulled infinitesimally
// toward the top-left so that a point exactly on the rectangle's upper edge
// hashes into the same cell as an interior point rather than leaking into
// the neighboring cell (geohash cells, like Rect, are half-open: the lower
// bound is included, the upper bound is not).
func nudgeInward(r geom.Rect) geom.Point {
	const eps = 1e-9
	x := r.X + r.W - eps
	if x < r.X {
		x = r.X
	}
	y := r.Y + r.H - eps
	if y < r.Y {
		y = r.Y
	}
	return geom.Point{X: x, Y: y}
}

// EncodeRect4 returns a set of at most 4 adjacent hashes, each of length at
// most maxLen, whose union covers r. Each hash is as long as possible:
// starting from the whole-domain cell, it greedily descends one character
// at a time, replacing the current covering cells with their children that
// intersect r, stopping when that would require more than 4 cells or
// maxLen is reached. The result always covers r (by induction: a cell's
// children that intersect r jointly cover every point of r that lies in the
// cell), which is the only property §8 requires of it.
func EncodeRect4(r geom.Rect, maxLen int) map[string]bool {
	result := map[string]bool{}
	if r.IsEmpty() {
		return result
	}
	if maxLen > MaxLen {
		maxLen = MaxLen
	}
	cells := []string{""}
	for depth := 0; depth < maxLen; depth++ {
		var next []string
		for _, c := range cells {
			for _, sym := range alphabet {
				child := c + string(sym)
				if Decode(child).Intersects(r) {
					next = append(next, child)
					if len(next) > 4 {
						break
					}
				}
			}
			if len(next) > 4 {
				break
			}
		}
		if len(next) == 0 || len(next) > 4 {
			break
		}
		cells = next
	}
	for _, c := range cells {
		result[c] = true
	}
	return result
}

// compass directions, starting from north and going clockwise.
const (
	DirN = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
)

// Adjacent returns the neighbor of hash in the given compass direction
// (DirN..DirNW), as a hash of the same length. Returns "" on an invalid
// hash or an out-of-range direction.
func Adjacent(hash string, dir int) string {
	if !Verify(hash) || dir < DirN || dir > DirNW {
		return ""
	}
	if hash == "" {
		return ""
	}
	cell := Decode(hash)
	if cell.IsEmpty() {
		return ""
	}
	cx := cell.X + cell.W/2
	cy := cell.Y + cell.H/2
	dx, dy := 0.0, 0.0
	switch dir {
	case DirN:
		dy = cell.H
	case DirNE:
		dx, dy = cell.W, cell.H
	case DirE:
		dx = cell.W
	case DirSE:
		dx, dy = cell.W, -cell.H
	case DirS:
		dy = -cell.H
	case DirSW:
		dx, dy = -cell.W, -cell.H
	case DirW:
		dx = -cell.W
	case DirNW:
		dx, dy = -cell.W, cell.H
	}
	p := geom.Point{X: wrapLon(cx + dx), Y: clamp(cy+dy, domain.Y, domain.Y+domain.H)}
	return Encode(p, len(hash))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapLon(x float64) float64 {
	for x > 180 {
		x -= 360
	}
	for x < -180 {
		x += 360
	}
	return x
}

// RemapBox linearly maps box, expressed in an arbitrary coordinate range
// bbox, into the canonical geohash domain [-180,180]x[-90,90], so that the
// same encoding machinery can index non-geographic coordinates. Returns box
// unchanged if bbox is empty, and the empty rectangle if box is empty.
func RemapBox(box, bbox geom.Rect) geom.Rect {
	if box.IsEmpty() {
		return geom.Rect{Empty: true}
	}
	if bbox.IsEmpty() {
		return box
	}
	sx := domain.W / bbox.W
	sy := domain.H / bbox.H
	x := domain.X + (box.X-bbox.X)*sx
	y := domain.Y + (box.Y-bbox.Y)*sy
	return geom.Rect{X: x, Y: y, W: box.W * sx, H: box.H * sy}
}

// UnmapBox is the inverse of RemapBox: it maps box, expressed in the
// canonical geohash domain, back into bbox's coordinate range. Returns box
// unchanged if bbox is empty, and the empty rectangle if box is empty.
func UnmapBox(box, bbox geom.Rect) geom.Rect {
	if box.IsEmpty() {
		return geom.Rect{Empty: true}
	}
	if bbox.IsEmpty() {
		return box
	}
	sx := bbox.W / domain.W
	sy := bbox.H / domain.H
	x := bbox.X + (box.X-domain.X)*sx
	y := bbox.Y + (box.Y-domain.Y)*sy
	return geom.Rect{X: x, Y: y, W: box.W * sx, H: box.H * sy}
}
