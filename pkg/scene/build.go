package scene

import (
	"fmt"
	"math"

	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/models"
	"github.com/taigrr/portals/pkg/physics"
	"github.com/taigrr/portals/pkg/portal"
	"github.com/taigrr/portals/pkg/render"
)

// maxPitch keeps the view just short of straight up or down.
const maxPitch = 1.5

// Scene is a built level: portals, physics, the player and its props.
type Scene struct {
	Config Config

	Portals     *portal.World
	Physics     *physics.World
	Driver      *portal.Driver
	Sensor      *portal.FieldSensor
	Detector    *portal.CrossingDetector
	Transformer *portal.Transformer

	Player *portal.Entity
	Props  []*portal.Entity
	Hand   *Hand
	Drawer *Drawer
	Camera *render.Camera

	pitch  float64
	frames int
	ids    int
}

// Build creates the level described by cfg. cfg should already be resolved.
func Build(cfg Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scene{
		Config:  cfg,
		Portals: portal.NewWorld(),
		Physics: physics.NewWorld(cfg.FPS),
		Camera:  render.NewCamera(),
	}
	s.Physics.Gravity = math3d.V3(0, cfg.Gravity, 0)
	s.Physics.SetFloor(0)
	s.Camera.SetLens(render.Lens{
		FOV:         cfg.FOV * math.Pi / 180,
		AspectRatio: s.Camera.AspectRatio,
		Near:        cfg.Near,
		Far:         cfg.Far,
	})

	if err := s.buildPortals(); err != nil {
		return nil, err
	}

	s.Transformer = &portal.Transformer{Syncer: s.Physics}
	s.Detector = portal.NewCrossingDetector(s.Portals, s.Transformer)
	s.Sensor = portal.NewFieldSensor(s.Portals, s.Physics)
	s.Sensor.Depth = cfg.FieldDepth
	s.Hand = NewHand(s.Portals, cfg.FPS)
	s.Hand.Distance = cfg.HoldDist

	s.buildPlayer()
	if err := s.buildProps(); err != nil {
		return nil, err
	}

	drawer, err := NewDrawer(s)
	if err != nil {
		return nil, err
	}
	s.Drawer = drawer
	s.Driver = portal.NewDriver(s.Portals, drawer)
	s.Driver.Install()

	s.updateCamera()
	return s, nil
}

func (s *Scene) buildPortals() error {
	for _, pc := range s.Config.Portals {
		pose := math3d.NewPose(vec(pc.Position), math3d.QuatEuler(radians(pc.Pitch), radians(pc.Yaw), 0))
		surf := portal.NewSurface(pc.Name, pose, pc.Width, pc.Height)
		surf.ClipOffset = pc.ClipOffset
		surf.SlabMargin = s.Config.SlabMargin
		surf.ClearColor = render.ColorSky
		if err := s.Portals.AddSurface(surf); err != nil {
			return fmt.Errorf("build portals: %w", err)
		}
	}

	for _, pc := range s.Config.Portals {
		if pc.Link == "" {
			continue
		}
		from, to := s.Portals.Surface(pc.Name), s.Portals.Surface(pc.Link)
		var err error
		if pc.OneWay {
			err = from.LinkOneWay(to)
		} else if from.Linked() != to {
			err = from.Link(to)
		}
		if err != nil {
			return fmt.Errorf("link %s to %s: %w", pc.Name, pc.Link, err)
		}
	}
	return nil
}

func (s *Scene) buildPlayer() {
	pc := s.Config.Player
	pos := vec(pc.Position)
	pos.Y += pc.Radius

	body := physics.NewBody("player", math3d.PoseIdent(), pc.Radius)
	s.Physics.Add(body)

	mesh := models.NewBox("player", math3d.V3(pc.Radius, pc.Radius, pc.Radius), models.Material{
		Name:      "player",
		BaseColor: [4]float64{0.9, 0.9, 0.3, 1},
		Sliceable: true,
	})
	s.Player = portal.NewEntity(s.nextID(), "player", mesh, body,
		math3d.NewPose(pos, math3d.QuatYaw(radians(pc.Yaw))), 0)
	s.Player.KeepUpright = true
	s.Sensor.Track(s.Player)
}

func (s *Scene) buildProps() error {
	for _, pc := range s.Config.Props {
		mesh, err := s.propMesh(pc)
		if err != nil {
			return err
		}
		radius := max(pc.Size[0], pc.Size[1], pc.Size[2])

		body := physics.NewBody(pc.Name, math3d.PoseIdent(), radius)
		body.Kinematic = pc.Kinematic
		s.Physics.Add(body)

		e := portal.NewEntity(s.nextID(), pc.Name, mesh, body,
			math3d.NewPose(vec(pc.Position), math3d.QuatYaw(radians(pc.Yaw))), 0)
		e.SetVelocity(vec(pc.Velocity))
		e.SetAngularVelocity(vec(pc.Spin))

		s.Props = append(s.Props, e)
		s.Sensor.Track(e)
	}
	s.Physics.SyncTransforms()
	return nil
}

// propMesh loads the prop's model scaled to fit its size, or builds a box.
func (s *Scene) propMesh(pc PropConfig) (*models.Mesh, error) {
	if pc.Model == "" {
		return models.NewBox(pc.Name, vec(pc.Size), models.Material{
			Name:      pc.Name,
			BaseColor: pc.Color,
			Sliceable: true,
		}), nil
	}

	mesh, _, err := models.LoadGLBWithTexture(s.Config.path(pc.Model))
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", pc.Model, err)
	}
	size := mesh.Size()
	extent := max(size.X, size.Y, size.Z)
	if extent > 0 {
		k := 2 * max(pc.Size[0], pc.Size[1], pc.Size[2]) / extent
		mesh.Transform(math3d.ScaleUniform(k).Mul(math3d.Translate(mesh.Center().Negate())))
	}
	return mesh, nil
}

func (s *Scene) nextID() int {
	s.ids++
	return s.ids
}

// Eye returns the viewer's eye pose.
func (s *Scene) Eye() math3d.Pose {
	p := s.Player.Pose()
	pos := p.Position.Add(math3d.V3(0, s.Config.Player.EyeHeight-s.Config.Player.Radius, 0))
	return math3d.NewPose(pos, math3d.QuatEuler(s.pitch, p.Rotation.Yaw(), 0))
}

// Frames returns the number of steps taken.
func (s *Scene) Frames() int {
	return s.frames
}

// Step advances the simulation one frame and returns the number of
// entities teleported.
func (s *Scene) Step() int {
	s.Hand.Update(s.Eye())
	s.Physics.Step()
	s.Sensor.Update()
	n := s.Detector.Step()
	s.updateCamera()
	s.frames++
	return n
}

func (s *Scene) updateCamera() {
	s.Camera.SetPose(s.Eye())
}

// Render draws one frame from the player's eye into r, whose camera must
// be s.Camera.
func (s *Scene) Render(r *render.Rasterizer) {
	s.Portals.BeginCamera(s.Camera)
	r.Begin(render.ColorSky)
	s.Drawer.DrawScene(r, portal.View{Camera: s.Camera})
}

// Resize matches the camera and every portal target to a width x height output.
func (s *Scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.Camera.SetAspectRatio(float64(width) / float64(height))
	s.Driver.SetResolution(width, height, s.Config.TargetScale)
}

// Move sets the player's horizontal velocity. forward and strafe are in
// units of the configured speed; positive strafe goes right.
func (s *Scene) Move(forward, strafe float64) {
	rot := math3d.QuatYaw(s.Player.Pose().Rotation.Yaw())
	dir := rot.Rotate(math3d.Forward()).Scale(forward).Add(rot.Rotate(math3d.Right()).Scale(strafe))
	v := dir.Scale(s.Config.Player.Speed)
	v.Y = s.Player.Velocity().Y
	s.Player.SetVelocity(v)
}

// Look turns the player by dyaw and tilts the view by dpitch, in radians.
func (s *Scene) Look(dyaw, dpitch float64) {
	p := s.Player.Pose()
	s.Player.SetPose(math3d.NewPose(p.Position, math3d.QuatYaw(p.Rotation.Yaw()+dyaw)))
	s.pitch = math.Max(-maxPitch, math.Min(maxPitch, s.pitch+dpitch))
	s.updateCamera()
}

// Push gives the nearest free prop in front of the player an impulse
// along the view direction. Returns the prop, or nil.
func (s *Scene) Push(speed float64) *portal.Entity {
	e := s.nearestProp(3)
	if e == nil || e.State() == portal.Held {
		return nil
	}
	dir := s.Eye().TransformDir(math3d.Forward())
	e.Body().AddImpulse(dir.Scale(speed))
	return e
}

// ToggleGrab picks up the nearest prop, or drops the one held.
func (s *Scene) ToggleGrab() {
	if s.Hand.Held() != nil {
		s.Hand.Drop()
		return
	}
	if e := s.nearestProp(3); e != nil {
		s.Hand.Grab(e, s.Eye())
	}
}

// nearestProp returns the closest prop within reach that is in front of the eye.
func (s *Scene) nearestProp(reach float64) *portal.Entity {
	eye := s.Eye()
	var best *portal.Entity
	bestDist := reach
	for _, e := range s.Props {
		local := eye.InverseTransformPoint(e.Pose().Position)
		if local.Z >= 0 {
			continue
		}
		if d := local.Len(); d <= bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

func vec(v Vec) math3d.Vec3 {
	return math3d.V3(v[0], v[1], v[2])
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
