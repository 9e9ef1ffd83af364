package render

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// SaveSnapshot writes the framebuffer to path. The format follows the file
// extension: .webp (lossless) or .png.
func (fb *Framebuffer) SaveSnapshot(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".webp" && ext != ".png" {
		return fmt.Errorf("unsupported snapshot format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	img := fb.ToImage()
	if ext == ".png" {
		err = png.Encode(f, img)
	} else {
		err = nativewebp.Encode(f, img, nil)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", ext, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}
