package render

import "testing"

func TestFramebufferBounds(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	fb.SetPixel(-1, 0, ColorRed)
	fb.SetPixel(4, 2, ColorRed)
	fb.SetPixel(3, 2, ColorGreen)

	if got := fb.GetPixel(3, 2); got != ColorGreen {
		t.Errorf("pixel (3,2) = %v, want green", got)
	}
	if got := fb.GetPixel(9, 9); got != (Color{}) {
		t.Errorf("out of bounds = %v, want zero", got)
	}
	for i, p := range fb.Pixels {
		if p == ColorRed {
			t.Errorf("out of bounds write landed at %d", i)
		}
	}
}

func TestFramebufferCopyTo(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.Clear(ColorCyan)
	fb.SetPixel(2, 1, ColorYellow)

	img := fb.ToImage()
	if got := img.RGBAAt(2, 1); got != ColorYellow {
		t.Errorf("image (2,1) = %v, want yellow", got)
	}

	fb.SetPixel(0, 0, ColorRed)
	if again := fb.CopyTo(img); again != img {
		t.Error("CopyTo reallocated an image of the right size")
	}
	if got := img.RGBAAt(0, 0); got != ColorRed {
		t.Errorf("image (0,0) = %v, want red", got)
	}

	if other := NewFramebuffer(5, 5).CopyTo(img); other == img {
		t.Error("CopyTo reused an image of the wrong size")
	}
}
