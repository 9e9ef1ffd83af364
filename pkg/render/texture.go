package render

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"

	_ "github.com/ftrvxmtrx/tga" // Register TGA decoder
	"golang.org/x/image/draw"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// Texture holds a 2D image for texture mapping. Floor and wall textures
// are loaded or generated once; portal textures are refilled from their
// render target every frame.
type Texture struct {
	Width      int
	Height     int
	Pixels     []Color    // Row-major pixel data, top row first
	WrapU      WrapMode   // Horizontal wrap mode
	WrapV      WrapMode   // Vertical wrap mode
	FilterMode FilterMode // Sampling filter mode

	// scaling buffers for CopyFrom
	src, dst *image.RGBA
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:      width,
		Height:     height,
		Pixels:     make([]Color, width*height),
		WrapU:      WrapRepeat,
		WrapV:      WrapRepeat,
		FilterMode: FilterNearest,
	}
}

// LoadTexture decodes a PNG, JPEG or TGA file into a texture.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage converts any image into a texture.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	tex := NewTexture(b.Dx(), b.Dy())
	tex.fill(rgba)
	return tex
}

// fill copies the pixels of an image of the texture's size.
func (t *Texture) fill(img *image.RGBA) {
	for i := range t.Pixels {
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		t.Pixels[i] = Color{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
}

// CopyFrom refills t with fb, scaled bilinearly when the sizes differ.
func (t *Texture) CopyFrom(fb *Framebuffer) {
	if fb.Width == t.Width && fb.Height == t.Height {
		copy(t.Pixels, fb.Pixels)
		return
	}
	if t.dst == nil || t.dst.Rect.Dx() != t.Width || t.dst.Rect.Dy() != t.Height {
		t.dst = image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	}
	t.src = fb.CopyTo(t.src)
	draw.BiLinear.Scale(t.dst, t.dst.Bounds(), t.src, t.src.Bounds(), draw.Src, nil)
	t.fill(t.dst)
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	for i := range tex.Pixels {
		x, y := i%width, i/width
		if (x/checkSize+y/checkSize)%2 == 0 {
			tex.Pixels[i] = c1
		} else {
			tex.Pixels[i] = c2
		}
	}
	return tex
}

// NewGradientTexture creates a horizontal gradient texture.
func NewGradientTexture(width, height int, left, right Color) *Texture {
	tex := NewTexture(width, height)
	span := float64(max(1, width-1))
	for i := range tex.Pixels {
		tex.Pixels[i] = lerpColor(left, right, float64(i%width)/span)
	}
	return tex
}

// SetPixel sets a pixel in the texture. Out of range writes are dropped.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// GetPixel returns the pixel at (x, y), or transparent black out of range.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

// Sample returns the color at (u, v). v runs bottom to top, so v=1 is the
// first pixel row.
func (t *Texture) Sample(u, v float64) Color {
	if t.Width == 0 || t.Height == 0 {
		return Color{}
	}
	u = wrapUnit(u, t.WrapU)
	v = 1 - wrapUnit(v, t.WrapV)

	if t.FilterMode == FilterBilinear {
		return t.sampleBilinear(u, v)
	}
	x := wrapIndex(int(u*float64(t.Width)), t.Width, WrapClamp)
	y := wrapIndex(int(v*float64(t.Height)), t.Height, WrapClamp)
	return t.Pixels[y*t.Width+x]
}

func (t *Texture) sampleBilinear(u, v float64) Color {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)

	at := func(x, y int) Color {
		return t.Pixels[wrapIndex(y, t.Height, t.WrapV)*t.Width+wrapIndex(x, t.Width, t.WrapU)]
	}
	top := lerpColor(at(x0, y0), at(x0+1, y0), tx)
	bot := lerpColor(at(x0, y0+1), at(x0+1, y0+1), tx)
	return lerpColor(top, bot, ty)
}

// wrapUnit maps a texture coordinate into [0,1].
func wrapUnit(c float64, mode WrapMode) float64 {
	if mode == WrapClamp {
		return math.Max(0, math.Min(1, c))
	}
	return c - math.Floor(c)
}

// wrapIndex maps a pixel index into [0,size).
func wrapIndex(i, size int, mode WrapMode) int {
	if mode == WrapRepeat {
		i %= size
		if i < 0 {
			i += size
		}
		return i
	}
	return min(max(i, 0), size-1)
}

func lerpColor(a, b Color, t float64) Color {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// ModulateColor multiplies two colors channel by channel (texture * vertex
// color).
func ModulateColor(a, b Color) Color {
	mul := func(x, y uint8) uint8 { return uint8(int(x) * int(y) / 255) }
	return Color{R: mul(a.R, b.R), G: mul(a.G, b.G), B: mul(a.B, b.B), A: mul(a.A, b.A)}
}
