package object

import (
	"bufio"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/slazav/vmap2/internal/geom"
)

func mustType(t *testing.T, class Class, tnum uint32) uint32 {
	typ, err := MakeType(class, tnum)
	if err != nil {
		t.Fatalf("MakeType: %v", err)
	}
	return typ
}

func TestTypeRoundTrip(t *testing.T) {
	cases := []struct {
		class Class
		tnum  uint32
		str   string
	}{
		{ClassPoint, 0x10, "point:0x10"},
		{ClassLine, 0x20, "line:0x20"},
		{ClassPolygon, 5, "area:0x5"},
		{ClassText, 0, "text:0x0"},
	}
	for _, c := range cases {
		typ := mustType(t, c.class, c.tnum)
		got := PrintType(typ)
		if got != c.str {
			t.Errorf("PrintType(%v,%v) = %q, want %q", c.class, c.tnum, got, c.str)
		}
		parsed, err := ParseType(got)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", got, err)
		}
		if parsed != typ {
			t.Errorf("ParseType(%q) = %#x, want %#x", got, parsed, typ)
		}
	}
}

func TestParseTypeNone(t *testing.T) {
	typ, err := ParseType("none")
	if err != nil || typ != NoType {
		t.Fatalf("got %#x, %v", typ, err)
	}
	if PrintType(NoType) != "none" {
		t.Fatalf("PrintType(NoType) = %q", PrintType(NoType))
	}
}

func TestParseTypeErrors(t *testing.T) {
	bad := []string{"", "bogus", "point-0x10", "point:", "square:0x10", "point:0x1000000"}
	for _, s := range bad {
		if _, err := ParseType(s); err == nil {
			t.Errorf("ParseType(%q): expected error", s)
		}
	}
}

func TestAlignRoundTrip(t *testing.T) {
	for a := AlignSW; a <= AlignC; a++ {
		s, err := PrintAlign(a)
		if err != nil {
			t.Fatalf("PrintAlign(%v): %v", a, err)
		}
		got, err := ParseAlign(s)
		if err != nil || got != a {
			t.Fatalf("round trip %v -> %q -> %v, %v", a, s, got, err)
		}
	}
	if _, err := ParseAlign("bogus"); err == nil {
		t.Fatal("expected error for unknown align token")
	}
}

func sampleObject() Object {
	o := New(mustTypeNoT(ClassText, 0x05))
	o.Name = "mixed\nline"
	o.Opts = []Opt{{Key: "k1", Value: "v1"}, {Key: "k2"}}
	o.Angle = float32(math.NaN())
	o.Scale = 2.5
	o.Align = AlignNE
	o.Geometry = geom.MultiLine{{{X: 37.1234567, Y: 55.7654321}}}
	o.RefType = mustTypeNoT(ClassPoint, 0x10)
	o.RefPt = geom.Point{X: 37.0, Y: 55.0}
	return o
}

func mustTypeNoT(class Class, tnum uint32) uint32 {
	typ, _ := MakeType(class, tnum)
	return typ
}

func TestPackUnpackObject(t *testing.T) {
	o := sampleObject()
	data, err := Pack(o)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := Unpack(data)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !Equal(got, o) {
		t.Fatalf("round trip mismatch:\n got: %+v\nwant: %+v", got, o)
	}
}

func TestWriteReadObject(t *testing.T) {
	o := sampleObject()
	var sb strings.Builder
	if err := Write(&sb, o); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bufio.NewReader(strings.NewReader(sb.String()))
	got, err := Read(r)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !Equal(got, o) {
		t.Fatalf("round trip mismatch:\n got: %+v\nwant: %+v", got, o)
	}
}

func TestReadMultipleObjectsSeparatedByBlankLine(t *testing.T) {
	o1 := New(mustTypeNoT(ClassPoint, 0x10))
	o1.Name = "A"
	o1.Geometry = geom.MultiLine{{{X: 0, Y: 0}}}
	o2 := New(mustTypeNoT(ClassLine, 0x20))
	o2.Geometry = geom.MultiLine{{{X: 1, Y: 1}, {X: 2, Y: 2}}}

	var sb strings.Builder
	Write(&sb, o1)
	Write(&sb, o2)

	r := bufio.NewReader(strings.NewReader(sb.String()))
	got1, err := Read(r)
	if err != nil {
		t.Fatalf("Read o1: %v", err)
	}
	if !Equal(got1, o1) {
		t.Fatalf("o1 mismatch: %+v vs %+v", got1, o1)
	}
	got2, err := Read(r)
	if err != nil {
		t.Fatalf("Read o2: %v", err)
	}
	if !Equal(got2, o2) {
		t.Fatalf("o2 mismatch: %+v vs %+v", got2, o2)
	}
	if _, err := Read(r); err != io.EOF {
		t.Fatalf("expected io.EOF at end, got %v", err)
	}
}

func TestIsEmpty(t *testing.T) {
	o := New(mustTypeNoT(ClassLine, 0x20))
	if !o.IsEmpty() {
		t.Fatal("expected object with no geometry to be empty")
	}
	o.Geometry = geom.MultiLine{{{X: 1, Y: 1}}}
	if o.IsEmpty() {
		t.Fatal("expected object with a point to be non-empty")
	}
}

func TestBBoxAndNPoints(t *testing.T) {
	o := New(mustTypeNoT(ClassLine, 0x20))
	o.Geometry = geom.MultiLine{{{X: 0, Y: 0}, {X: 2, Y: 2}}, {{X: -1, Y: 5}}}
	if o.NPoints() != 3 {
		t.Fatalf("NPoints() = %d, want 3", o.NPoints())
	}
	bb := o.BBox()
	if bb.X != -1 || bb.Y != 0 || bb.W != 3 || bb.H != 5 {
		t.Fatalf("BBox() = %+v", bb)
	}
}

func TestLegacyTagsRecord(t *testing.T) {
	o := New(mustTypeNoT(ClassPoint, 1))
	o.Geometry = geom.MultiLine{{{X: 0, Y: 0}}}
	text := "point:0x1\ntags foo bar\ncrds 0 0\n\n"
	r := bufio.NewReader(strings.NewReader(text))
	got, err := Read(r)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := map[string]bool{"foo": true, "bar": true}
	if len(got.Opts) != 2 {
		t.Fatalf("expected 2 opts from legacy tags, got %v", got.Opts)
	}
	for _, opt := range got.Opts {
		if !want[opt.Key] || opt.Value != "" {
			t.Errorf("unexpected opt %+v", opt)
		}
	}
}

func TestUnknownTagIsDecodeError(t *testing.T) {
	text := "point:0x1\nbogus foo\n\n"
	r := bufio.NewReader(strings.NewReader(text))
	if _, err := Read(r); err == nil {
		t.Fatal("expected decode error for unknown tag")
	}
}

func TestOrderingByType(t *testing.T) {
	a := New(mustTypeNoT(ClassPoint, 1))
	b := New(mustTypeNoT(ClassPoint, 2))
	if !Less(a, b) || Less(b, a) {
		t.Fatalf("expected a < b by type")
	}
}

func TestSetCoordsPoint(t *testing.T) {
	o := New(mustTypeNoT(ClassPoint, 1))
	if err := o.SetCoords("[1.5, 2.5]"); err != nil {
		t.Fatalf("SetCoords: %v", err)
	}
	if o.NPoints() != 1 {
		t.Fatalf("expected single point, got %d", o.NPoints())
	}
	if o.Geometry[0][0].X != 1.5 || o.Geometry[0][0].Y != 2.5 {
		t.Fatalf("got %+v", o.Geometry)
	}
}

func TestSetCoordsLine(t *testing.T) {
	o := New(mustTypeNoT(ClassLine, 1))
	if err := o.SetCoords("[[[0,0],[1,1]],[[2,2]]]"); err != nil {
		t.Fatalf("SetCoords: %v", err)
	}
	if len(o.Geometry) != 2 || o.NPoints() != 3 {
		t.Fatalf("got %+v", o.Geometry)
	}
}
