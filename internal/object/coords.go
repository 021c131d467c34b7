package object

import (
	"encoding/json"

	"github.com/slazav/vmap2/internal/errs"
	"github.com/slazav/vmap2/internal/geom"
)

// SetCoords replaces o's geometry by parsing s, a JSON array of
// coordinate pairs. For a Point or Text object, s is a single pair
// ("[lon,lat]"); for Line/Polygon objects it is a multiline, an array of
// segments, each an array of pairs ("[[[lon,lat],[lon,lat]],[...]]").
func (o *Object) SetCoords(s string) error {
	class, err := o.GetClass()
	if err != nil {
		return err
	}
	switch class {
	case ClassPoint, ClassText:
		var pair [2]float64
		if err := json.Unmarshal([]byte(s), &pair); err != nil {
			return &errs.ErrDecode{Reason: "bad point coordinates: " + err.Error()}
		}
		o.Geometry = geom.MultiLine{geom.Line{{X: pair[0], Y: pair[1]}}}
		return nil
	default:
		var raw [][][2]float64
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return &errs.ErrDecode{Reason: "bad multiline coordinates: " + err.Error()}
		}
		ml := make(geom.MultiLine, len(raw))
		for i, seg := range raw {
			line := make(geom.Line, len(seg))
			for j, pt := range seg {
				line[j] = geom.Point{X: pt[0], Y: pt[1]}
			}
			ml[i] = line
		}
		o.Geometry = ml
		return nil
	}
}
