package portal

import (
	"math"
	"testing"

	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/render"
)

// recordingScene remembers every view it was asked to draw.
type recordingScene struct {
	views []View
}

func (s *recordingScene) DrawScene(r *render.Rasterizer, v View) {
	s.views = append(s.views, v)
}

func TestPreRenderOrder(t *testing.T) {
	w := NewWorld()
	var order []string
	w.AddPreRender(func(*render.Camera) { order = append(order, "first") })
	h := w.AddPreRender(func(*render.Camera) { order = append(order, "second") })
	w.AddPreRender(func(*render.Camera) { order = append(order, "third") })

	w.BeginCamera(render.NewCamera())
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("order = %v", order)
	}

	if !w.RemovePreRender(h) {
		t.Fatal("RemovePreRender returned false")
	}
	if w.RemovePreRender(h) {
		t.Error("second RemovePreRender should report false")
	}

	order = nil
	w.BeginCamera(render.NewCamera())
	if len(order) != 2 || order[0] != "first" || order[1] != "third" {
		t.Errorf("order after remove = %v", order)
	}
}

func TestWorldSurfaces(t *testing.T) {
	w, a, b := newScenarioWorld(t)
	if w.Surface("a") != a || w.Surface("b") != b || w.Surface("c") != nil {
		t.Error("Surface lookup by name failed")
	}
	if err := w.AddSurface(NewSurface("a", at(0, 0, 0, 0), 1, 1)); err == nil {
		t.Error("duplicate name should be rejected")
	}

	w.RemoveSurface(a)
	if len(w.Surfaces()) != 1 || b.IsActive() {
		t.Error("RemoveSurface should unlink and drop the surface")
	}
}

func facingA() *render.Camera {
	viewer := render.NewCamera()
	viewer.SetPosition(math3d.V3(0, 1, -5))
	viewer.LookAt(math3d.V3(0, 1, 0))
	return viewer
}

func TestDriverRendersVisibleSurfaces(t *testing.T) {
	w, a, _ := newScenarioWorld(t)
	c := NewSurface("lonely", at(0, 0, -20, 0), 2, 3)
	if err := w.AddSurface(c); err != nil {
		t.Fatal(err)
	}
	scene := &recordingScene{}
	d := NewDriver(w, scene)
	d.Install()

	w.BeginCamera(facingA())

	// a is ahead; b is 10 units to the side, outside a 60° view
	if d.Stats.Rendered != 1 || d.Stats.Culled != 1 || d.Stats.Inactive != 1 {
		t.Errorf("stats = %+v, want 1 rendered, 1 culled, 1 inactive", d.Stats)
	}
	if len(scene.views) != 1 || scene.views[0].Through != a {
		t.Fatalf("views = %+v, want one through a", scene.views)
	}
	if scene.views[0].Camera != a.Camera() {
		t.Error("scene should draw through a's virtual camera")
	}
	if !a.Camera().HasProjectionOverride() {
		t.Error("a's camera should be clipped at b")
	}
}

func TestRenderResolvesTarget(t *testing.T) {
	_, a, _ := newScenarioWorld(t)
	a.ClearColor = render.ColorRed
	a.SetResolution(32, 16, 0.5)

	if !a.Render(facingA(), &recordingScene{}) {
		t.Fatal("Render returned false")
	}
	tex := a.Target().Texture()
	if tex.Width != 32 || tex.Height != 16 {
		t.Fatalf("texture = %dx%d, want 32x16", tex.Width, tex.Height)
	}
	if c := tex.GetPixel(16, 8); c.R < 250 || c.G > 5 {
		t.Errorf("resolved pixel = %v, want red", c)
	}
}

func TestRenderInactive(t *testing.T) {
	s := NewSurface("s", at(0, 0, 0, 0), 2, 3)
	scene := &recordingScene{}
	if s.Render(facingA(), scene) {
		t.Error("inactive surface rendered")
	}
	if len(scene.views) != 0 || s.Target() != nil {
		t.Error("inactive surface touched the scene or allocated a target")
	}
}

func TestDriverSyncsPreviewsFirst(t *testing.T) {
	w, a, _ := newScenarioWorld(t)
	e := newProp(1, at(0, 1, -0.5, 0))
	a.EnterField(e)
	e.SetPose(at(0, 1, -0.2, 0))

	var seen math3d.Pose
	scene := sceneFunc(func(r *render.Rasterizer, v View) {
		seen = a.Record(e).Preview.(*EntityPreview).Pose()
	})
	NewDriver(w, scene).Install()
	w.BeginCamera(facingA())

	if !seen.ApproxEqual(a.Map(e.Pose()), eps) {
		t.Errorf("preview drawn at %v, want %v", seen, a.Map(e.Pose()))
	}
}

type sceneFunc func(r *render.Rasterizer, v View)

func (f sceneFunc) DrawScene(r *render.Rasterizer, v View) { f(r, v) }

func TestDriverSetResolution(t *testing.T) {
	w, a, b := newScenarioWorld(t)
	d := NewDriver(w, &recordingScene{})
	d.SetResolution(40, 20, 1)
	for _, s := range []*Surface{a, b} {
		if tex := s.Target().Texture(); tex.Width != 40 || tex.Height != 20 {
			t.Errorf("%s texture = %dx%d", s.Name, tex.Width, tex.Height)
		}
	}
}

func BenchmarkDriverFrame(b *testing.B) {
	a := NewSurface("a", at(0, 0, 0, 0), 2, 3)
	c := NewSurface("b", at(10, 0, 0, math.Pi), 2, 3)
	_ = a.Link(c)
	w := NewWorld()
	_ = w.AddSurface(a)
	_ = w.AddSurface(c)
	d := NewDriver(w, &recordingScene{})
	d.SetResolution(80, 48, 0.5)
	d.Install()
	viewer := facingA()
	for b.Loop() {
		w.BeginCamera(viewer)
	}
}
