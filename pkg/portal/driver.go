package portal

import (
	"github.com/taigrr/portals/pkg/render"
)

// DriverStats counts what the last frame did with each surface.
type DriverStats struct {
	Rendered int
	Inactive int
	Culled   int
}

// Driver renders every visible surface of a world before the viewer draws.
type Driver struct {
	Stats DriverStats

	world *World
	scene SceneDrawer
}

// NewDriver creates a driver that draws scene into the surfaces of w.
func NewDriver(w *World, scene SceneDrawer) *Driver {
	return &Driver{world: w, scene: scene}
}

// Install registers the preview sync and then the driver as pre-render
// callbacks on the world, so previews are placed before portals draw.
func (d *Driver) Install() (sync, draw Handle) {
	sync = d.world.AddPreRender(func(*render.Camera) { d.world.SyncPreviews() })
	draw = d.world.AddPreRender(d.BeginCamera)
	return sync, draw
}

// SetResolution sizes every surface's target to the viewer's output.
func (d *Driver) SetResolution(width, height int, scale float64) {
	for _, s := range d.world.Surfaces() {
		s.SetResolution(width, height, scale)
	}
}

// BeginCamera renders each active surface whose slab the viewer can see.
func (d *Driver) BeginCamera(viewer *render.Camera) {
	d.Stats = DriverStats{}
	frustum := viewer.GetFrustum()
	for _, s := range d.world.Surfaces() {
		if !s.IsActive() {
			d.Stats.Inactive++
			continue
		}
		s.Guard(viewer)
		if !frustum.IntersectAABB(s.Bounds()) {
			d.Stats.Culled++
			continue
		}
		if s.Render(viewer, d.scene) {
			d.Stats.Rendered++
		}
	}
}
