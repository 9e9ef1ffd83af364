package scene

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/portal"
	"github.com/taigrr/portals/pkg/render"
)

func buildDefault(t *testing.T) *Scene {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Resolve(Flags{})
	s, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBuildDefault(t *testing.T) {
	s := buildDefault(t)

	a, b := s.Portals.Surface("A"), s.Portals.Surface("B")
	if a == nil || b == nil {
		t.Fatal("portals A and B not built")
	}
	if a.Linked() != b || b.Linked() != a {
		t.Error("A and B should be linked both ways")
	}
	if len(s.Props) != 2 {
		t.Fatalf("props = %d, want 2", len(s.Props))
	}

	ids := map[int]bool{s.Player.ID(): true}
	for _, p := range s.Props {
		if ids[p.ID()] {
			t.Errorf("duplicate entity id %d", p.ID())
		}
		ids[p.ID()] = true
	}

	if got := s.Player.Pose().Position.Y; math.Abs(got-s.Config.Player.Radius) > 1e-9 {
		t.Errorf("player centre y = %v, want resting on the floor", got)
	}
	if !s.Player.Upright() {
		t.Error("player should teleport upright")
	}
	if d := s.Camera.Position().Distance(s.Eye().Position); d > 1e-9 {
		t.Error("camera not placed at the eye")
	}
}

func TestBuildOneWay(t *testing.T) {
	cfg := Config{Portals: []PortalConfig{
		{Name: "in", Position: Vec{0, 1.5, 0}, Link: "out", OneWay: true},
		{Name: "out", Position: Vec{5, 1.5, 0}},
	}}
	cfg.Resolve(Flags{})
	s, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	in, out := s.Portals.Surface("in"), s.Portals.Surface("out")
	if in.Linked() != out || out.IsActive() {
		t.Error("one-way link should only activate the entry")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"unknown link", Config{Portals: []PortalConfig{{Name: "a", Link: "nowhere"}}}, "unknown portal"},
		{"missing model", Config{Props: []PropConfig{{Name: "p", Model: "missing.glb"}}}, "load model"},
		{"missing floor texture", Config{FloorTexture: "missing.png"}, "load floor texture"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.BaseDir = t.TempDir()
			cfg.Resolve(Flags{})
			_, err := Build(cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Build = %v, want error containing %q", err, tc.want)
			}
		})
	}

	cfg := Config{Portals: []PortalConfig{{Name: "a", Link: "nowhere"}}}
	if _, err := Build(cfg); !errors.Is(err, ErrUnknownPortal) {
		t.Errorf("Build = %v, want ErrUnknownPortal", err)
	}
}

func TestWalkThroughPortal(t *testing.T) {
	s := buildDefault(t)

	teleports := 0
	for range 240 {
		s.Move(1, 0)
		teleports += s.Step()
	}

	if teleports != 1 {
		t.Fatalf("teleports = %d, want 1", teleports)
	}
	p := s.Player.Pose()
	if math.Abs(p.Position.X-10) > 1e-6 || p.Position.Z >= 0 {
		t.Errorf("player at %v, want past B on x=10, z<0", p.Position)
	}
	fwd := p.Rotation.Rotate(math3d.Forward())
	if !fwd.ApproxEqual(math3d.V3(0, 0, -1), 1e-6) {
		t.Errorf("player faces %v, want -Z", fwd)
	}
	if up := p.Rotation.Rotate(math3d.Up()); !up.ApproxEqual(math3d.Up(), 1e-9) {
		t.Errorf("player up = %v after teleport", up)
	}
	if s.Frames() != 240 {
		t.Errorf("frames = %d", s.Frames())
	}
}

func TestLookClampsPitch(t *testing.T) {
	s := buildDefault(t)
	yaw := s.Player.Pose().Rotation.Yaw()

	s.Look(0.5, 10)
	if s.pitch != maxPitch {
		t.Errorf("pitch = %v, want %v", s.pitch, maxPitch)
	}
	got := s.Player.Pose().Rotation.Rotate(math3d.Forward())
	if want := math3d.QuatYaw(yaw + 0.5).Rotate(math3d.Forward()); !got.ApproxEqual(want, 1e-9) {
		t.Errorf("player faces %v, want %v", got, want)
	}
	s.Look(0, -20)
	if s.pitch != -maxPitch {
		t.Errorf("pitch = %v, want %v", s.pitch, -maxPitch)
	}
}

func TestPushAndGrab(t *testing.T) {
	s := buildDefault(t)
	crate := s.Props[0]

	// stand just behind the crate, facing it
	s.Player.SetPose(math3d.NewPose(math3d.V3(0.6, 0.3, -4), math3d.QuatYaw(math.Pi)))
	s.Physics.SyncTransforms()

	if got := s.Push(2); got != crate {
		t.Fatalf("Push hit %v, want the crate", got)
	}
	if v := crate.Velocity(); v.Z <= 0 {
		t.Errorf("crate velocity = %v, want towards +Z", v)
	}

	s.ToggleGrab()
	if s.Hand.Held() != crate {
		t.Fatal("ToggleGrab did not pick up the crate")
	}
	if s.Push(2) != nil {
		t.Error("held props cannot be pushed")
	}
	s.ToggleGrab()
	if s.Hand.Held() != nil {
		t.Error("second ToggleGrab should drop")
	}
}

func TestResize(t *testing.T) {
	s := buildDefault(t)
	s.Resize(80, 40)
	if s.Camera.AspectRatio != 2 {
		t.Errorf("aspect = %v, want 2", s.Camera.AspectRatio)
	}
	for _, surf := range s.Portals.Surfaces() {
		if tex := surf.Target().Texture(); tex.Width != 80 || tex.Height != 40 {
			t.Errorf("%s target = %dx%d", surf.Name, tex.Width, tex.Height)
		}
	}
	s.Resize(0, 10)
	if s.Camera.AspectRatio != 2 {
		t.Error("empty resize should be ignored")
	}
}

func TestRenderFrame(t *testing.T) {
	s := buildDefault(t)
	fb := render.NewFramebuffer(64, 36)
	r := render.NewRasterizer(s.Camera, fb)
	s.Resize(64, 36)
	s.Render(r)

	if st := s.Driver.Stats; st.Rendered != 1 || st.Culled != 1 {
		t.Errorf("driver stats = %+v, want A rendered and B culled", st)
	}

	// the view centre looks through A, so it shows A's target
	tex := s.Portals.Surface("A").Target().Texture()
	want := tex.Sample(32.5/64, 1-18.5/36)
	if got := fb.GetPixel(32, 18); got != want {
		t.Errorf("centre pixel = %v, want %v from A's target", got, want)
	}
}

func TestRenderDebugOverlay(t *testing.T) {
	s := buildDefault(t)
	r := render.NewRasterizer(s.Camera, render.NewFramebuffer(64, 36))
	s.Resize(64, 36)

	s.Render(r)
	plain := slices.Clone(r.Framebuffer().Pixels)
	s.Drawer.Debug = true
	s.Render(r)

	if slices.Equal(plain, r.Framebuffer().Pixels) {
		t.Error("debug overlay drew nothing")
	}
}

func TestDrawerPlayerOnlyThroughPortals(t *testing.T) {
	cfg := Config{}
	cfg.Resolve(Flags{})
	s, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	cam := render.NewCamera()
	cam.SetPosition(math3d.V3(0, 1, -4))
	cam.LookAt(s.Player.Pose().Position)
	r := render.NewRasterizer(cam, render.NewFramebuffer(32, 18))

	count := func(v portal.View) int {
		r.Begin(render.ColorBlack)
		r.ResetCullingStats()
		s.Drawer.DrawScene(r, v)
		return r.CullingStats.MeshesTested
	}

	direct := count(portal.View{Camera: cam})
	lonely := portal.NewSurface("lonely", math3d.PoseIdent(), 1, 1)
	through := count(portal.View{Camera: cam, Through: lonely})
	if through != direct+1 {
		t.Errorf("meshes through a portal = %d, direct view = %d; want one more for the player", through, direct)
	}
}

func BenchmarkSceneFrame(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Resolve(Flags{TargetScale: 0.5})
	s, err := Build(cfg)
	if err != nil {
		b.Fatal(err)
	}
	r := render.NewRasterizer(s.Camera, render.NewFramebuffer(120, 68))
	s.Resize(120, 68)
	for b.Loop() {
		s.Move(1, 0)
		s.Step()
		s.Render(r)
	}
}
