package ui2d

import (
	"image"
	"testing"
)

func cellHasInk(a *Atlas, r rune) bool {
	u0, v0, _, _ := a.GlyphUV(r)
	b := a.Image.Bounds()
	x0 := int(u0*float32(b.Dx()) + 0.5)
	y0 := int(v0*float32(b.Dy()) + 0.5)

	cell := image.Rect(x0, y0, x0+a.GlyphW, y0+a.GlyphH)
	for y := cell.Min.Y; y < cell.Max.Y; y++ {
		for x := cell.Min.X; x < cell.Max.X; x++ {
			if a.Image.AlphaAt(x, y).A > 0 {
				return true
			}
		}
	}
	return false
}

func TestDefaultAtlas(t *testing.T) {
	a := DefaultAtlas()

	if a.GlyphW != 7 || a.GlyphH != 13 {
		t.Fatalf("glyph size = %dx%d, want 7x13", a.GlyphW, a.GlyphH)
	}
	for _, r := range "Chargement... 0123456789%" {
		if !a.Has(r) {
			t.Errorf("atlas missing %q", r)
		}
	}
	if !cellHasInk(a, 'C') {
		t.Error("'C' cell is blank")
	}
	if cellHasInk(a, ' ') {
		t.Error("space cell has ink")
	}
}

func TestGlyphUVFallback(t *testing.T) {
	a := DefaultAtlas()

	u0, v0, u1, v1 := a.GlyphUV('世')
	q0, w0, q1, w1 := a.GlyphUV('?')
	if u0 != q0 || v0 != w0 || u1 != q1 || v1 != w1 {
		t.Error("missing rune should use the '?' cell")
	}

	for _, r := range "A~ÿ" {
		u0, v0, u1, v1 := a.GlyphUV(r)
		if u0 < 0 || v0 < 0 || u1 > 1 || v1 > 1 || u0 >= u1 || v0 >= v1 {
			t.Errorf("%q: uv out of range (%v,%v)-(%v,%v)", r, u0, v0, u1, v1)
		}
	}
}

func TestMeasureText(t *testing.T) {
	a := DefaultAtlas()

	tests := []struct {
		text  string
		scale float32
		w, h  float32
	}{
		{"", 1, 0, 0},
		{"abc", 1, 21, 13},
		{"abc", 2, 42, 26},
		{"ab\nabcd", 1, 28, 26},
	}
	for _, tt := range tests {
		w, h := a.MeasureText(tt.text, tt.scale)
		if w != tt.w || h != tt.h {
			t.Errorf("MeasureText(%q, %v) = %v x %v, want %v x %v", tt.text, tt.scale, w, h, tt.w, tt.h)
		}
	}
}

func TestAppendTextSkipsSpaces(t *testing.T) {
	a := DefaultAtlas()
	v := appendText(nil, a, 10, 20, "a b", 2, ColorBlack)

	if got := len(v) / floatsPerVertex; got != 12 {
		t.Fatalf("vertices = %d, want 12", got)
	}
	// Second glyph starts two cells to the right.
	if x := v[6*floatsPerVertex]; x != 10+2*14 {
		t.Errorf("second glyph x = %v, want %v", x, 10+2*14)
	}
	if v[1] != 20 {
		t.Errorf("y = %v, want 20", v[1])
	}
}

func TestCenterText(t *testing.T) {
	a := DefaultAtlas()
	x, y := centerText(a, 800, 600, "Chargement... 42%", 2)

	w, h := a.MeasureText("Chargement... 42%", 2)
	if x != float32(int((800-w)/2)) || y != float32(int((600-h)/2)) {
		t.Errorf("centre = (%v, %v)", x, y)
	}
}
