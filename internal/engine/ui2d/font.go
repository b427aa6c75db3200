package ui2d

import (
	"image"
	"unicode/utf8"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const atlasColumns = 16

// atlasRanges are the code points baked into the atlas: printable ASCII and Latin-1.
var atlasRanges = [][2]rune{
	{0x20, 0x7e},
	{0xa1, 0xff},
}

// Atlas is a fixed-cell glyph sheet rasterized from a bitmap face.
type Atlas struct {
	Image  *image.Alpha
	GlyphW int
	GlyphH int

	cells map[rune]int
}

// NewAtlas rasterizes the glyph ranges of face into a single alpha image.
func NewAtlas(face font.Face) *Atlas {
	metrics := face.Metrics()
	adv, _ := face.GlyphAdvance('M')

	a := &Atlas{
		GlyphW: adv.Ceil(),
		GlyphH: metrics.Height.Ceil(),
		cells:  make(map[rune]int),
	}

	var runes []rune
	for _, rg := range atlasRanges {
		for r := rg[0]; r <= rg[1]; r++ {
			runes = append(runes, r)
		}
	}

	rows := (len(runes) + atlasColumns - 1) / atlasColumns
	a.Image = image.NewAlpha(image.Rect(0, 0, atlasColumns*a.GlyphW, rows*a.GlyphH))

	d := &font.Drawer{Dst: a.Image, Src: image.Opaque, Face: face}
	for i, r := range runes {
		col, row := i%atlasColumns, i/atlasColumns
		d.Dot = fixed.P(col*a.GlyphW, row*a.GlyphH+metrics.Ascent.Ceil())
		d.DrawString(string(r))
		a.cells[r] = i
	}
	return a
}

// DefaultAtlas returns an atlas of the 7x13 basic bitmap face.
func DefaultAtlas() *Atlas {
	return NewAtlas(basicfont.Face7x13)
}

// Has reports whether r has its own cell.
func (a *Atlas) Has(r rune) bool {
	_, ok := a.cells[r]
	return ok
}

// GlyphUV returns the texture coordinates of r's cell. Missing runes map to '?'.
func (a *Atlas) GlyphUV(r rune) (u0, v0, u1, v1 float32) {
	idx, ok := a.cells[r]
	if !ok {
		idx = a.cells['?']
	}
	w := float32(a.Image.Bounds().Dx())
	h := float32(a.Image.Bounds().Dy())
	x := float32((idx % atlasColumns) * a.GlyphW)
	y := float32((idx / atlasColumns) * a.GlyphH)
	return x / w, y / h, (x + float32(a.GlyphW)) / w, (y + float32(a.GlyphH)) / h
}

// MeasureText returns the size of text at the given scale. Lines split on '\n'.
func (a *Atlas) MeasureText(text string, scale float32) (float32, float32) {
	lines, widest, cur := 1, 0, 0
	for _, r := range text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		if cur > widest {
			widest = cur
		}
	}
	if text == "" {
		return 0, 0
	}
	return float32(widest*a.GlyphW) * scale, float32(lines*a.GlyphH) * scale
}

// Font is an atlas uploaded to a single-channel GL texture.
type Font struct {
	*Atlas
	texture uint32
}

// NewFont uploads atlas. Requires a current GL context.
func NewFont(atlas *Atlas) *Font {
	f := &Font{Atlas: atlas}
	b := atlas.Image.Bounds()

	gl.GenTextures(1, &f.texture)
	gl.BindTexture(gl.TEXTURE_2D, f.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(atlas.Image.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return f
}

// TextureID returns the GL texture name.
func (f *Font) TextureID() uint32 {
	return f.texture
}

// Close releases the texture.
func (f *Font) Close() {
	if f.texture != 0 {
		gl.DeleteTextures(1, &f.texture)
		f.texture = 0
	}
}

// runeCount is used by the layout code to presize vertex buffers.
func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}
