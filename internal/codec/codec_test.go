package codec

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/slazav/vmap2/internal/geom"
)

func TestPackUnpackString(t *testing.T) {
	var buf bytes.Buffer
	if err := PackString(&buf, "name", "hello"); err != nil {
		t.Fatalf("PackString: %v", err)
	}
	tag, err := UnpackTag(&buf)
	if err != nil || tag != "name" {
		t.Fatalf("UnpackTag = %q, %v", tag, err)
	}
	s, err := UnpackString(&buf)
	if err != nil {
		t.Fatalf("UnpackString: %v", err)
	}
	if s != "hello" {
		t.Fatalf("got %q, want %q", s, "hello")
	}
}

func TestUnpackTagEOF(t *testing.T) {
	tag, err := UnpackTag(bytes.NewReader(nil))
	if err != nil || tag != "" {
		t.Fatalf("expected clean EOF, got %q, %v", tag, err)
	}
}

func TestUnpackTagTruncated(t *testing.T) {
	_, err := UnpackTag(bytes.NewReader([]byte("ab")))
	if err == nil {
		t.Fatal("expected error for truncated tag")
	}
}

func TestPackUnpackFixed(t *testing.T) {
	var buf bytes.Buffer
	var angle float32 = 45.5
	if err := PackFixed(&buf, "angl", angle); err != nil {
		t.Fatalf("PackFixed: %v", err)
	}
	tag, _ := UnpackTag(&buf)
	if tag != "angl" {
		t.Fatalf("tag = %q", tag)
	}
	var got float32
	if err := UnpackFixed(&buf, &got); err != nil {
		t.Fatalf("UnpackFixed: %v", err)
	}
	if got != angle {
		t.Fatalf("got %v, want %v", got, angle)
	}
}

func TestUnpackFixedWrongSize(t *testing.T) {
	var buf bytes.Buffer
	PackFixed(&buf, "scle", int64(1))
	UnpackTag(&buf)
	var got float32
	if err := UnpackFixed(&buf, &got); err == nil {
		t.Fatal("expected size-mismatch error")
	}
}

func TestPackUnpackPointRoundTrip(t *testing.T) {
	pts := []geom.Point{
		{X: 37.1234567, Y: 55.7654321},
		{X: -179.9999999, Y: -89.9999999},
		{X: 0, Y: 0},
		{X: 190, Y: 100}, // wraps: 190 -> -170, 100 -> -80
	}
	for _, p := range pts {
		var buf bytes.Buffer
		if err := PackPoint(&buf, "refp", p); err != nil {
			t.Fatalf("PackPoint: %v", err)
		}
		UnpackTag(&buf)
		got, err := UnpackPoint(&buf)
		if err != nil {
			t.Fatalf("UnpackPoint: %v", err)
		}
		wantX, wantY := wrap(p.X, 180), wrapLat(p.Y)
		if abs(got.X-wantX) > 0.5e-7 || abs(got.Y-wantY) > 0.5e-7 {
			t.Errorf("round trip %v -> %v, want ~(%v,%v)", p, got, wantX, wantY)
		}
	}
}

func wrap(v, bound float64) float64 {
	for v > bound {
		v -= 2 * bound
	}
	for v < -bound {
		v += 2 * bound
	}
	return v
}

func wrapLat(v float64) float64 { return wrap(v, 90) }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestPackUnpackLine(t *testing.T) {
	line := geom.Line{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	var buf bytes.Buffer
	if err := PackLine(&buf, "crds", line); err != nil {
		t.Fatalf("PackLine: %v", err)
	}
	UnpackTag(&buf)
	got, err := UnpackLine(&buf)
	if err != nil {
		t.Fatalf("UnpackLine: %v", err)
	}
	if len(got) != len(line) {
		t.Fatalf("got %d points, want %d", len(got), len(line))
	}
}

func TestPackEmptyLine(t *testing.T) {
	var buf bytes.Buffer
	if err := PackLine(&buf, "crds", nil); err != nil {
		t.Fatalf("PackLine: %v", err)
	}
	UnpackTag(&buf)
	got, err := UnpackLine(&buf)
	if err != nil {
		t.Fatalf("UnpackLine: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 points, got %d", len(got))
	}
}

func TestPackUnpackRect(t *testing.T) {
	r := geom.Rect{X: 10, Y: 20, W: 5, H: 3}
	var buf bytes.Buffer
	if err := PackRect(&buf, "bbox", r); err != nil {
		t.Fatalf("PackRect: %v", err)
	}
	UnpackTag(&buf)
	got, err := UnpackRect(&buf)
	if err != nil {
		t.Fatalf("UnpackRect: %v", err)
	}
	if abs(got.X-r.X) > 1e-6 || abs(got.Y-r.Y) > 1e-6 ||
		abs(got.W-r.W) > 1e-6 || abs(got.H-r.H) > 1e-6 {
		t.Fatalf("got %v, want %v", got, r)
	}
}

func TestEndOfStream(t *testing.T) {
	var buf bytes.Buffer
	PackString(&buf, "name", "x")
	UnpackTag(&buf)
	UnpackString(&buf)
	tag, err := UnpackTag(&buf)
	if err != nil || tag != "" {
		t.Fatalf("expected clean end of stream, got %q, %v", tag, err)
	}
}

func TestTextStringEscaping(t *testing.T) {
	cases := []string{"plain", "with\\backslash", "with\nnewline", "with\x00nul", "mixed\\\n\x00end"}
	for _, s := range cases {
		enc := EncodeTextString(s)
		if strings.ContainsAny(enc, "\n\x00") {
			t.Errorf("EncodeTextString(%q) = %q still contains a raw control byte", s, enc)
		}
		dec, err := DecodeTextString(enc)
		if err != nil {
			t.Fatalf("DecodeTextString(%q): %v", enc, err)
		}
		if dec != s {
			t.Errorf("round trip %q -> %q -> %q", s, enc, dec)
		}
	}
}

func TestDecodeTextStringUnterminatedEscape(t *testing.T) {
	if _, err := DecodeTextString(`trailing\`); err == nil {
		t.Fatal("expected error for unterminated escape")
	}
}

func TestTextPointRoundTrip(t *testing.T) {
	p := geom.Point{X: 37.1234567, Y: 55.7654321}
	enc := EncodeTextPoint(p)
	got, err := DecodeTextPoint(enc)
	if err != nil {
		t.Fatalf("DecodeTextPoint: %v", err)
	}
	if abs(got.X-p.X) > 0.5e-7 || abs(got.Y-p.Y) > 0.5e-7 {
		t.Fatalf("round trip %v -> %q -> %v", p, enc, got)
	}
}

func TestTextLineEmptySegment(t *testing.T) {
	enc := EncodeTextLine(nil)
	if enc != "" {
		t.Fatalf("expected empty string for empty segment, got %q", enc)
	}
	got, err := DecodeTextLine(enc)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestDecodeTextLineOddFields(t *testing.T) {
	if _, err := DecodeTextLine("1 2 3"); err == nil {
		t.Fatal("expected error for odd field count")
	}
}

func TestSplitTagLine(t *testing.T) {
	tag, rest, ok := SplitTagLine("name hello world")
	if !ok || tag != "name" || rest != "hello world" {
		t.Fatalf("got %q %q %v", tag, rest, ok)
	}
	tag, rest, ok = SplitTagLine("crds")
	if !ok || tag != "crds" || rest != "" {
		t.Fatalf("got %q %q %v (empty-payload line)", tag, rest, ok)
	}
	if _, _, ok := SplitTagLine("ab"); ok {
		t.Fatal("expected failure for too-short line")
	}
}

func TestNextRawLineSkipsCommentsKeepsBlanks(t *testing.T) {
	input := "\n# a comment\nname hello\n\n# trailing\n"
	r := bufio.NewReader(strings.NewReader(input))
	line, err := NextRawLine(r)
	if err != nil {
		t.Fatalf("NextRawLine: %v", err)
	}
	if line != "" {
		t.Fatalf("expected blank line preserved, got %q", line)
	}
	line, err = NextRawLine(r)
	if err != nil || line != "name hello" {
		t.Fatalf("got %q, %v", line, err)
	}
	line, err = NextRawLine(r)
	if err != nil || line != "" {
		t.Fatalf("expected blank separator, got %q, %v", line, err)
	}
	if _, err := NextRawLine(r); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
