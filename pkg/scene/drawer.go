package scene

import (
	"fmt"
	"image"
	"maps"
	"slices"

	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/models"
	"github.com/taigrr/portals/pkg/portal"
	"github.com/taigrr/portals/pkg/render"
)

var (
	colorFrame     = render.RGB(240, 140, 40)
	colorFrameOff  = render.RGB(90, 90, 100)
	colorClosed    = render.RGB(60, 60, 70)
	colorField     = render.ColorYellow
	colorSlabDebug = render.ColorCyan
)

// part is one material's share of a mesh.
type part struct {
	mesh     *models.Mesh
	material int
}

type wall struct {
	mesh      *models.Mesh
	transform math3d.Mat4
	color     render.Color
}

// Drawer draws a Scene. It is the scene drawer handed to the portal
// driver, so the same code draws the main view and every portal view.
type Drawer struct {
	Debug    bool
	LightDir math3d.Vec3

	scene *Scene

	floor    *models.Mesh
	floorAt  math3d.Mat4
	floorTex *render.Texture
	walls    []wall
	wallTex  *render.Texture
	frames   map[*portal.Surface]*models.Mesh
	quads    map[*portal.Surface]*models.Mesh
	slab     *models.Mesh

	parts    map[*models.Mesh][]part
	textures map[image.Image]*render.Texture
}

// NewDrawer prepares the static geometry and textures of s.
func NewDrawer(s *Scene) (*Drawer, error) {
	cfg := s.Config
	d := &Drawer{
		Debug:    cfg.Debug,
		LightDir: math3d.V3(0.3, 1, 0.5),
		scene:    s,
		frames:   make(map[*portal.Surface]*models.Mesh),
		quads:    make(map[*portal.Surface]*models.Mesh),
		slab:     models.NewBox("slab", math3d.V3(0.5, 0.5, 0.5), models.Material{Name: "slab"}),
		parts:    make(map[*models.Mesh][]part),
		textures: make(map[image.Image]*render.Texture),
	}

	half := cfg.FloorSize / 2
	d.floor = models.NewPlane("floor", half, half, half, models.Material{Name: "floor"})
	d.floorAt = math3d.Identity()
	if c := cfg.FloorCenter; c != nil {
		d.floorAt = math3d.Translate(math3d.V3(c[0], 0, c[2]))
	}
	if cfg.FloorTexture != "" {
		tex, err := render.LoadTexture(cfg.path(cfg.FloorTexture))
		if err != nil {
			return nil, fmt.Errorf("load floor texture: %w", err)
		}
		d.floorTex = tex
	} else {
		d.floorTex = render.NewCheckerTexture(64, 64, 32, render.RGB(200, 200, 190), render.RGB(90, 110, 90))
	}

	d.wallTex = render.NewGradientTexture(32, 4, render.RGB(255, 255, 255), render.RGB(170, 170, 170))
	for _, wc := range cfg.Walls {
		d.walls = append(d.walls, wall{
			mesh:      models.NewBox("wall", vec(wc.Size), models.Material{Name: "wall"}),
			transform: math3d.Translate(vec(wc.Position)),
			color:     colorOf(wc.Color),
		})
	}

	for _, surf := range s.Portals.Surfaces() {
		hw, hh := surf.Width/2, surf.Height/2
		d.frames[surf] = models.NewFrame(surf.Name+" frame", hw, hh, 0.1, 0.1, models.Material{Name: "frame"})
		d.quads[surf] = models.NewQuad(surf.Name+" closed", hw, hh, models.Material{Name: "closed"})
	}
	return d, nil
}

// DrawScene implements portal.SceneDrawer.
func (d *Drawer) DrawScene(r *render.Rasterizer, v portal.View) {
	r.DrawMesh(d.floor, d.floorAt, render.DrawOptions{
		Mode:     render.ShadeTexture,
		Texture:  d.floorTex,
		LightDir: d.LightDir,
	})
	for _, w := range d.walls {
		r.DrawMesh(w.mesh, w.transform, render.DrawOptions{
			Mode:     render.ShadeTexture,
			Color:    w.color,
			Texture:  d.wallTex,
			LightDir: d.LightDir,
		})
	}

	for _, e := range d.scene.Props {
		d.drawMesh(r, e.Mesh, e.Pose().Matrix())
	}
	// the player is only seen from the far side of a portal
	if v.Through != nil {
		d.drawMesh(r, d.scene.Player.Mesh, d.scene.Player.Pose().Matrix())
	}

	surfaces := d.scene.Portals.Surfaces()
	for _, s := range surfaces {
		for _, rec := range s.Records() {
			p, ok := rec.Preview.(*portal.EntityPreview)
			if !ok || !p.Active() || p.Mesh == nil {
				continue
			}
			d.drawMesh(r, p.Mesh, p.Pose().Matrix())
		}
	}

	for _, s := range surfaces {
		d.drawPortal(r, v, s)
	}

	if d.Debug && v.Through == nil {
		d.drawDebug(r)
	}
}

// drawPortal draws a surface's frame and its opening. The main view
// samples the surface's render target; portal views show the opening
// closed.
func (d *Drawer) drawPortal(r *render.Rasterizer, v portal.View, s *portal.Surface) {
	frameColor := colorFrameOff
	if s.IsActive() {
		frameColor = colorFrame
	}
	r.DrawMesh(d.frames[s], s.Pose().Matrix(), render.DrawOptions{Color: frameColor, LightDir: d.LightDir})

	// the exit surface sits at the virtual camera
	if v.Through != nil && s == v.Through.Linked() {
		return
	}

	cull := r.DisableBackfaceCulling
	r.DisableBackfaceCulling = true
	defer func() { r.DisableBackfaceCulling = cull }()

	if !s.IsActive() || v.Through != nil || s.Target() == nil {
		r.DrawMesh(d.quads[s], s.Pose().Matrix(), render.DrawOptions{Color: colorClosed})
		return
	}
	r.DrawMesh(d.slab, s.Slab().Transform(s), render.DrawOptions{
		Mode:    render.ShadeScreen,
		Texture: s.Target().Texture(),
	})
}

func (d *Drawer) drawDebug(r *render.Rasterizer) {
	wf := render.NewWireframe(r)
	depth := d.scene.Sensor.Depth
	for _, s := range d.scene.Portals.Surfaces() {
		wf.DrawBox(s.Pose().Matrix(), math3d.V3(s.Width/2, s.Height/2, depth), colorField)
		if s.IsActive() {
			wf.DrawBox(s.Slab().Transform(s), math3d.V3(0.5, 0.5, 0.5), colorSlabDebug)
		}
		wf.DrawAxes(s.Pose(), 0.5)
	}
}

// drawMesh draws each material of mesh with its own color, texture and
// slice plane.
func (d *Drawer) drawMesh(r *render.Rasterizer, mesh *models.Mesh, transform math3d.Mat4) {
	if mesh == nil {
		return
	}
	for _, p := range d.partsOf(mesh) {
		opts := render.DrawOptions{Color: render.ColorWhite, LightDir: d.LightDir}
		if mat := mesh.GetMaterial(p.material); mat != nil {
			opts.Color = mat.Color()
			if plane, ok := mat.Slice(); ok {
				opts.Slice = &plane
			}
			if mat.HasTexture && mat.BaseMap != nil {
				opts.Mode = render.ShadeTexture
				opts.Texture = d.texture(mat.BaseMap)
			}
		}
		r.DrawMesh(p.mesh, transform, opts)
	}
}

func (d *Drawer) partsOf(mesh *models.Mesh) []part {
	if parts, ok := d.parts[mesh]; ok {
		return parts
	}
	split := mesh.SubMeshes()
	parts := make([]part, 0, len(split))
	for _, mat := range slices.Sorted(maps.Keys(split)) {
		parts = append(parts, part{mesh: split[mat], material: mat})
	}
	d.parts[mesh] = parts
	return parts
}

func (d *Drawer) texture(img image.Image) *render.Texture {
	if tex, ok := d.textures[img]; ok {
		return tex
	}
	tex := render.TextureFromImage(img)
	d.textures[img] = tex
	return tex
}

func colorOf(c [4]float64) render.Color {
	m := models.Material{BaseColor: c}
	return m.Color()
}
