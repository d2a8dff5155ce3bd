package raster

import (
	"testing"

	"github.com/gcslaoli/watermark-overlay-go/host"
)

func drawTile(t *testing.T, text string) (string, float64) {
	t.Helper()
	s := newSurface(t, 200, 120)
	style := host.TextStyle{
		Font:     "14px sans-serif",
		Color:    "black",
		Align:    host.AlignCenter,
		Baseline: host.BaselineMiddle,
	}
	if err := s.FillText(text, 100, 60, 200, style); err != nil {
		t.Fatalf("FillText(%q): %v", text, err)
	}
	url, err := s.DataURL()
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	_, _, _, mass := inkMoments(s.Image())
	return url, mass
}

func TestCJKTextIsDistinguishable(t *testing.T) {
	a, massA := drawTile(t, "内部信息，请勿外传")
	b, massB := drawTile(t, "口口口口口口口口口")

	if massA == 0 || massB == 0 {
		t.Fatalf("expected ink for both strings, got %v and %v", massA, massB)
	}
	if a == b {
		t.Fatal("different CJK strings produced identical tiles")
	}
}

func TestSegmentsSplitOnCoverage(t *testing.T) {
	set, err := make(faceCache).face("14px sans-serif")
	if err != nil {
		t.Fatalf("face: %v", err)
	}

	segs := segments(set, "ab内c")
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	if segs[0].face != set.faces[0] || string(segs[0].text) != "ab" {
		t.Fatalf("first segment = %q, want Go font run \"ab\"", string(segs[0].text))
	}
	if segs[1].face == set.faces[0] || string(segs[1].text) != "内" {
		t.Fatalf("second segment = %q should not use the Go font", string(segs[1].text))
	}
	if segs[2].face != set.faces[0] || string(segs[2].text) != "c" {
		t.Fatalf("third segment = %q, want Go font run \"c\"", string(segs[2].text))
	}
}

func TestHexBoxWidthFollowsDigits(t *testing.T) {
	set, err := make(faceCache).face("14px sans-serif")
	if err != nil {
		t.Fatalf("face: %v", err)
	}

	if got := hexDigits('内'); got != "5185" {
		t.Fatalf("hexDigits = %q", got)
	}
	if got := hexDigits(0x1F600); got != "1F600" {
		t.Fatalf("hexDigits = %q", got)
	}
	if set.hexBoxWidth(0x1F600) <= set.hexBoxWidth('内') {
		t.Fatal("five digit code point should take a wider box")
	}
}

func TestRegisterFallbackFontRejectsGarbage(t *testing.T) {
	if err := RegisterFallbackFont([]byte("not a font")); err == nil {
		t.Fatal("expected parse error")
	}
}
