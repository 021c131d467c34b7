// Package object implements the VMap2 object model: type/class/alignment
// encoding, the tagged binary and text pack/unpack forms built on
// internal/codec, and structural equality/ordering.
package object

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/slazav/vmap2/internal/codec"
	"github.com/slazav/vmap2/internal/errs"
	"github.com/slazav/vmap2/internal/geom"
)

// Class is the coarse kind of an object, carried in the high byte of Type.
type Class uint8

const (
	ClassPoint   Class = 0
	ClassLine    Class = 1
	ClassPolygon Class = 2
	ClassText    Class = 3
	ClassNone    Class = 0xFF
)

// Align is a label/text anchor position.
type Align int8

const (
	AlignSW Align = iota
	AlignW
	AlignNW
	AlignN
	AlignNE
	AlignE
	AlignSE
	AlignS
	AlignC
)

var alignNames = []struct {
	a Align
	s string
}{
	{AlignSW, "SW"}, {AlignW, "W"}, {AlignNW, "NW"}, {AlignN, "N"},
	{AlignNE, "NE"}, {AlignE, "E"}, {AlignSE, "SE"}, {AlignS, "S"}, {AlignC, "C"},
}

// PrintAlign renders align as its two-letter (or one-letter) token.
func PrintAlign(align Align) (string, error) {
	for _, e := range alignNames {
		if e.a == align {
			return e.s, nil
		}
	}
	return "", &errs.ErrBadAlignString{Str: fmt.Sprintf("align#%d", int(align))}
}

// ParseAlign parses the token produced by PrintAlign.
func ParseAlign(s string) (Align, error) {
	for _, e := range alignNames {
		if e.s == s {
			return e.a, nil
		}
	}
	return 0, &errs.ErrBadAlignString{Str: s}
}

// NoType is the reserved type/ref_type sentinel meaning "none".
const NoType uint32 = 0xFFFFFFFF

// MakeType assembles a type from a class and a 24-bit type number.
func MakeType(class Class, tnum uint32) (uint32, error) {
	if class == ClassNone {
		return NoType, nil
	}
	if tnum > 0xFFFFFF {
		return 0, &errs.ErrBadTypeString{Reason: "type number too large"}
	}
	return uint32(class)<<24 | (tnum & 0xFFFFFF), nil
}

// GetClass extracts the class encoded in type's high byte.
func GetClass(typ uint32) (Class, error) {
	if typ == NoType {
		return ClassNone, nil
	}
	switch typ >> 24 {
	case 0:
		return ClassPoint, nil
	case 1:
		return ClassLine, nil
	case 2:
		return ClassPolygon, nil
	case 3:
		return ClassText, nil
	default:
		return 0, &errs.ErrBadTypeString{Reason: fmt.Sprintf("unknown object class %d", typ>>24)}
	}
}

// PrintType renders typ as "<class>:0x<hex>", or "none" for the sentinel.
func PrintType(typ uint32) string {
	if typ == NoType {
		return "none"
	}
	var prefix string
	switch typ >> 24 {
	case 0:
		prefix = "point"
	case 1:
		prefix = "line"
	case 2:
		prefix = "area"
	case 3:
		prefix = "text"
	default:
		prefix = "unknown"
	}
	return fmt.Sprintf("%s:0x%x", prefix, typ&0xFFFFFF)
}

// ParseType parses the PrintType grammar: "<class>:<u24>" (decimal or
// 0x-hex) or the literal "none".
func ParseType(s string) (uint32, error) {
	if s == "" {
		return 0, &errs.ErrBadTypeString{Str: s, Reason: "empty string"}
	}
	if s == "none" {
		return NoType, nil
	}
	n := strings.IndexByte(s, ':')
	if n < 0 {
		return 0, &errs.ErrBadTypeString{Str: s, Reason: "':' separator not found"}
	}
	numStr := s[n+1:]
	tnum, err := strconv.ParseInt(numStr, 0, 64)
	if err != nil || tnum < 0 || tnum > 0xFFFFFF {
		return 0, &errs.ErrBadTypeString{Str: s, Reason: "bad or too large type number"}
	}
	var class Class
	switch s[:n] {
	case "point":
		class = ClassPoint
	case "line":
		class = ClassLine
	case "area":
		class = ClassPolygon
	case "text":
		class = ClassText
	default:
		return 0, &errs.ErrBadTypeString{Str: s, Reason: "point, line, area, or text word expected"}
	}
	return MakeType(class, uint32(tnum))
}

// Opt is one entry of an object's free-form option mapping.
type Opt struct {
	Key, Value string
}

func optToStr(o Opt) string {
	if o.Value != "" {
		return o.Key + ": " + o.Value
	}
	return o.Key
}

func strToOpt(s string) Opt {
	if n := strings.Index(s, ": "); n >= 0 {
		return Opt{Key: s[:n], Value: s[n+2:]}
	}
	return Opt{Key: s}
}

// Object is one VMap2 map feature: a typed, optionally named/annotated
// multi-segment geometry, with an optional reference to another object.
type Object struct {
	Type     uint32
	Geometry geom.MultiLine
	Name     string
	Comm     string
	Angle    float32 // NaN means absent
	Scale    float32
	Align    Align
	Opts     []Opt
	RefType  uint32
	RefPt    geom.Point
}

// New returns an object of the given type with every optional field at its
// default.
func New(typ uint32) Object {
	return Object{
		Type:    typ,
		Angle:   float32(math.NaN()),
		Scale:   1.0,
		Align:   AlignSW,
		RefType: NoType,
	}
}

// IsEmpty reports whether the object has no geometry points at all; such
// an object must never be added to a store (§3.1).
func (o Object) IsEmpty() bool {
	return o.Geometry.IsEmpty()
}

// BBox is the minimal rectangle containing the object's geometry.
func (o Object) BBox() geom.Rect {
	return o.Geometry.BBox()
}

// NPoints is the total number of points across all segments.
func (o Object) NPoints() int {
	return o.Geometry.NPoints()
}

// GetClass extracts the object's class from its Type.
func (o Object) GetClass() (Class, error) { return GetClass(o.Type) }

// GetRefClass extracts the class of the referenced object's type, if any.
func (o Object) GetRefClass() (Class, error) { return GetClass(o.RefType) }

func sortedOpts(opts []Opt) []Opt {
	out := make([]Opt, len(opts))
	copy(out, opts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// addTags implements legacy "tags" record compatibility: a whitespace
// separated list of keys, each becoming an option with an empty value.
func (o *Object) addTags(s string) {
	for _, tag := range strings.Fields(s) {
		o.Opts = append(o.Opts, Opt{Key: tag})
	}
}

/**********************************************************/
// Binary form.

// Pack serializes o to its binary on-disk representation (§4.1).
func Pack(o Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, o.Type); err != nil {
		return nil, &errs.ErrInvariant{Reason: "pack: writing type: " + err.Error()}
	}
	if !isNaN32(o.Angle) {
		if err := codec.PackFixed(&buf, "angl", o.Angle); err != nil {
			return nil, err
		}
	}
	if o.Scale != 1.0 {
		if err := codec.PackFixed(&buf, "scle", o.Scale); err != nil {
			return nil, err
		}
	}
	if o.Align != AlignSW {
		if err := codec.PackFixed(&buf, "algn", int8(o.Align)); err != nil {
			return nil, err
		}
	}
	if o.Name != "" {
		if err := codec.PackString(&buf, "name", o.Name); err != nil {
			return nil, err
		}
	}
	if o.Comm != "" {
		if err := codec.PackString(&buf, "comm", o.Comm); err != nil {
			return nil, err
		}
	}
	for _, opt := range sortedOpts(o.Opts) {
		if err := codec.PackString(&buf, "opts", optToStr(opt)); err != nil {
			return nil, err
		}
	}
	if o.RefType != NoType {
		if err := codec.PackFixed(&buf, "reft", o.RefType); err != nil {
			return nil, err
		}
	}
	if o.RefPt != (geom.Point{}) {
		if err := codec.PackPoint(&buf, "refp", o.RefPt); err != nil {
			return nil, err
		}
	}
	if err := codec.PackCoords(&buf, "crds", o.Geometry); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isNaN32(f float32) bool { return f != f }

// Unpack parses the binary form written by Pack.
func Unpack(data []byte) (Object, error) {
	r := bytes.NewReader(data)
	o := New(0)
	if err := binary.Read(r, binary.LittleEndian, &o.Type); err != nil {
		return Object{}, &errs.ErrDecode{Reason: "truncated object type"}
	}
	for {
		tag, err := codec.UnpackTag(r)
		if err != nil {
			return Object{}, err
		}
		if tag == "" {
			break
		}
		switch tag {
		case "angl":
			if err := codec.UnpackFixed(r, &o.Angle); err != nil {
				return Object{}, err
			}
		case "scle":
			if err := codec.UnpackFixed(r, &o.Scale); err != nil {
				return Object{}, err
			}
		case "algn":
			var v int8
			if err := codec.UnpackFixed(r, &v); err != nil {
				return Object{}, err
			}
			o.Align = Align(v)
		case "name":
			if o.Name, err = codec.UnpackString(r); err != nil {
				return Object{}, err
			}
		case "comm":
			if o.Comm, err = codec.UnpackString(r); err != nil {
				return Object{}, err
			}
		case "tags":
			s, err := codec.UnpackString(r)
			if err != nil {
				return Object{}, err
			}
			o.addTags(s)
		case "opts":
			s, err := codec.UnpackString(r)
			if err != nil {
				return Object{}, err
			}
			o.Opts = append(o.Opts, strToOpt(s))
		case "reft":
			if err := codec.UnpackFixed(r, &o.RefType); err != nil {
				return Object{}, err
			}
		case "refp":
			if o.RefPt, err = codec.UnpackPoint(r); err != nil {
				return Object{}, err
			}
		case "crds":
			line, err := codec.UnpackLine(r)
			if err != nil {
				return Object{}, err
			}
			o.Geometry = append(o.Geometry, line)
		default:
			return Object{}, &errs.ErrDecode{Reason: fmt.Sprintf("unknown tag %q", tag)}
		}
	}
	return o, nil
}

/**********************************************************/
// Text form.

// Write renders o in the text-dump form (§4.1, §6.2), terminated by the
// blank line that separates objects.
func Write(w io.Writer, o Object) error {
	if _, err := fmt.Fprintf(w, "%s\n", PrintType(o.Type)); err != nil {
		return &errs.ErrIo{Op: "write object type", Err: err}
	}
	if !isNaN32(o.Angle) {
		if err := codec.WriteTagLine(w, "angl", formatFloat32(o.Angle)); err != nil {
			return err
		}
	}
	if o.Scale != 1.0 {
		if err := codec.WriteTagLine(w, "scle", formatFloat32(o.Scale)); err != nil {
			return err
		}
	}
	if o.Align != AlignSW {
		align, err := PrintAlign(o.Align)
		if err != nil {
			return err
		}
		if err := codec.WriteTagLine(w, "algn", codec.EncodeTextString(align)); err != nil {
			return err
		}
	}
	if o.Name != "" {
		if err := codec.WriteTagLine(w, "name", codec.EncodeTextString(o.Name)); err != nil {
			return err
		}
	}
	if o.Comm != "" {
		if err := codec.WriteTagLine(w, "comm", codec.EncodeTextString(o.Comm)); err != nil {
			return err
		}
	}
	for _, opt := range sortedOpts(o.Opts) {
		if err := codec.WriteTagLine(w, "opts", codec.EncodeTextString(optToStr(opt))); err != nil {
			return err
		}
	}
	if o.RefType != NoType {
		if err := codec.WriteTagLine(w, "reft", codec.EncodeTextString(PrintType(o.RefType))); err != nil {
			return err
		}
	}
	if o.RefPt != (geom.Point{}) {
		if err := codec.WriteTagLine(w, "refp", codec.EncodeTextPoint(o.RefPt)); err != nil {
			return err
		}
	}
	for _, seg := range o.Geometry {
		if err := codec.WriteTagLine(w, "crds", codec.EncodeTextLine(seg)); err != nil {
			return err
		}
	}
	return codec.WriteBlankLine(w)
}

func formatFloat32(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// Read parses one object from the text-dump form, stopping at the blank
// line that separates it from the next (or at end of input). It returns
// io.EOF when there is no further object to read.
func Read(r *bufio.Reader) (Object, error) {
	var typeLine string
	for {
		line, err := codec.NextRawLine(r)
		if err == io.EOF {
			return Object{}, io.EOF
		}
		if err != nil {
			return Object{}, err
		}
		if line != "" {
			typeLine = line
			break
		}
	}
	typ, err := ParseType(typeLine)
	if err != nil {
		return Object{}, err
	}
	o := New(typ)
	for {
		line, err := codec.NextRawLine(r)
		if err == io.EOF || line == "" {
			break
		}
		if err != nil {
			return Object{}, err
		}
		tag, rest, ok := codec.SplitTagLine(line)
		if !ok {
			return Object{}, &errs.ErrDecode{Reason: fmt.Sprintf("malformed text line %q", line)}
		}
		switch tag {
		case "angl":
			v, err := strconv.ParseFloat(rest, 32)
			if err != nil {
				return Object{}, &errs.ErrDecode{Reason: "bad angl value: " + rest}
			}
			o.Angle = float32(v)
		case "scle":
			v, err := strconv.ParseFloat(rest, 32)
			if err != nil {
				return Object{}, &errs.ErrDecode{Reason: "bad scle value: " + rest}
			}
			o.Scale = float32(v)
		case "algn":
			s, err := codec.DecodeTextString(rest)
			if err != nil {
				return Object{}, err
			}
			align, err := ParseAlign(s)
			if err != nil {
				return Object{}, err
			}
			o.Align = align
		case "name":
			if o.Name, err = codec.DecodeTextString(rest); err != nil {
				return Object{}, err
			}
		case "comm":
			if o.Comm, err = codec.DecodeTextString(rest); err != nil {
				return Object{}, err
			}
		case "tags":
			s, err := codec.DecodeTextString(rest)
			if err != nil {
				return Object{}, err
			}
			o.addTags(s)
		case "opts":
			s, err := codec.DecodeTextString(rest)
			if err != nil {
				return Object{}, err
			}
			o.Opts = append(o.Opts, strToOpt(s))
		case "reft":
			s, err := codec.DecodeTextString(rest)
			if err != nil {
				return Object{}, err
			}
			if o.RefType, err = ParseType(s); err != nil {
				return Object{}, err
			}
		case "refp":
			if o.RefPt, err = codec.DecodeTextPoint(rest); err != nil {
				return Object{}, err
			}
		case "crds":
			line, err := codec.DecodeTextLine(rest)
			if err != nil {
				return Object{}, err
			}
			o.Geometry = append(o.Geometry, line)
		default:
			return Object{}, &errs.ErrDecode{Reason: fmt.Sprintf("unknown tag %q", tag)}
		}
	}
	return o, nil
}

/**********************************************************/
// Equality / ordering.

// Equal reports structural equality over every field. NaN angles compare
// equal to each other and unequal to any non-NaN angle.
func Equal(a, b Object) bool {
	if a.Type != b.Type {
		return false
	}
	aNaN, bNaN := isNaN32(a.Angle), isNaN32(b.Angle)
	switch {
	case aNaN != bNaN:
		return false
	case !aNaN && a.Angle != b.Angle:
		return false
	}
	if a.Scale != b.Scale || a.Align != b.Align || a.Name != b.Name || a.Comm != b.Comm {
		return false
	}
	if !equalOpts(a.Opts, b.Opts) {
		return false
	}
	if a.RefType != b.RefType || a.RefPt != b.RefPt {
		return false
	}
	return equalMultiline(a.Geometry, b.Geometry)
}

func equalOpts(a, b []Opt) bool {
	as, bs := sortedOpts(a), sortedOpts(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func equalMultiline(a, b geom.MultiLine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// Less implements the lexicographic ordering law of §4.2: type, angle
// (NaN sorts first), scale, align, name, comm, opts, ref_type, ref_pt,
// geometry. (The field list in §4.2 also names "children", inherited from
// the ordering law of the richer mapdb object model this was distilled
// from; VMap2 objects carry no such field, so it is simply absent here.)
func Less(a, b Object) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	aNaN, bNaN := isNaN32(a.Angle), isNaN32(b.Angle)
	if aNaN != bNaN {
		return aNaN
	}
	if !aNaN && a.Angle != b.Angle {
		return a.Angle < b.Angle
	}
	if a.Scale != b.Scale {
		return a.Scale < b.Scale
	}
	if a.Align != b.Align {
		return a.Align < b.Align
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.Comm != b.Comm {
		return a.Comm < b.Comm
	}
	if c := compareOpts(a.Opts, b.Opts); c != 0 {
		return c < 0
	}
	if a.RefType != b.RefType {
		return a.RefType < b.RefType
	}
	if a.RefPt != b.RefPt {
		return a.RefPt.X < b.RefPt.X || (a.RefPt.X == b.RefPt.X && a.RefPt.Y < b.RefPt.Y)
	}
	return compareMultiline(a.Geometry, b.Geometry) < 0
}

func compareOpts(a, b []Opt) int {
	as, bs := sortedOpts(a), sortedOpts(b)
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		if as[i].Key != bs[i].Key {
			return strings.Compare(as[i].Key, bs[i].Key)
		}
		if as[i].Value != bs[i].Value {
			return strings.Compare(as[i].Value, bs[i].Value)
		}
	}
	return len(as) - len(bs)
}

func compareMultiline(a, b geom.MultiLine) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareLine(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareLine(a, b geom.Line) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].X != b[i].X {
			if a[i].X < b[i].X {
				return -1
			}
			return 1
		}
		if a[i].Y != b[i].Y {
			if a[i].Y < b[i].Y {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
