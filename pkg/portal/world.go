package portal

import (
	"fmt"
	"slices"

	"github.com/taigrr/portals/pkg/render"
)

// PreRenderFunc runs before a camera draws.
type PreRenderFunc func(viewer *render.Camera)

// Handle identifies a registered pre-render callback.
type Handle int

type preRender struct {
	handle Handle
	fn     PreRenderFunc
}

// World holds the surfaces and the ordered pre-render callbacks. Surfaces
// and callbacks run in insertion order.
type World struct {
	surfaces  []*Surface
	callbacks []preRender
	next      Handle
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{}
}

// AddSurface registers s. Names must be unique.
func (w *World) AddSurface(s *Surface) error {
	if w.Surface(s.Name) != nil {
		return fmt.Errorf("add surface %q: name in use", s.Name)
	}
	w.surfaces = append(w.surfaces, s)
	return nil
}

// RemoveSurface unlinks s and drops it from the world.
func (w *World) RemoveSurface(s *Surface) {
	s.Unlink()
	w.surfaces = slices.DeleteFunc(w.surfaces, func(o *Surface) bool { return o == s })
}

// Surfaces returns the surfaces in insertion order.
func (w *World) Surfaces() []*Surface {
	return w.surfaces
}

// Surface returns the surface with the given name, or nil.
func (w *World) Surface(name string) *Surface {
	for _, s := range w.surfaces {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddPreRender appends fn to the callbacks run by BeginCamera.
func (w *World) AddPreRender(fn PreRenderFunc) Handle {
	w.next++
	w.callbacks = append(w.callbacks, preRender{handle: w.next, fn: fn})
	return w.next
}

// RemovePreRender drops a callback. Returns false for unknown handles.
func (w *World) RemovePreRender(h Handle) bool {
	n := len(w.callbacks)
	w.callbacks = slices.DeleteFunc(w.callbacks, func(c preRender) bool { return c.handle == h })
	return len(w.callbacks) != n
}

// BeginCamera runs every pre-render callback for viewer, in order.
func (w *World) BeginCamera(viewer *render.Camera) {
	for _, c := range w.callbacks {
		c.fn(viewer)
	}
}

// SyncPreviews repositions the previews of every surface.
func (w *World) SyncPreviews() {
	for _, s := range w.surfaces {
		s.SyncPreviews()
	}
}
