package physics

import (
	"math"
	"slices"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/portals/pkg/math3d"
)

// DefaultSpinDamping is the spring frequency used to bring spin to rest.
const DefaultSpinDamping = 2.0

// proxy is the collision-side copy of a body's placement.
type proxy struct {
	center math3d.Vec3
	radius float64
}

// World steps bodies at a fixed rate.
type World struct {
	Gravity  math3d.Vec3
	Friction float64 // horizontal velocity lost per second while grounded

	// Floor, when set, is the height of an infinite horizontal ground plane.
	Floor *float64

	fps     int
	dt      float64
	spin    harmonica.Spring
	bodies  []*Body
	proxies map[int]proxy
	nextID  int
}

// NewWorld creates a world stepped fps times per second with standard
// gravity and no floor.
func NewWorld(fps int) *World {
	if fps <= 0 {
		fps = 60
	}
	g := harmonica.Gravity
	return &World{
		Gravity:  math3d.V3(g.X, g.Y, g.Z),
		Friction: 4,
		fps:      fps,
		dt:       harmonica.FPS(fps),
		spin:     harmonica.NewSpring(harmonica.FPS(fps), DefaultSpinDamping, 1.0),
		proxies:  make(map[int]proxy),
	}
}

// SetFloor places the ground plane at height y.
func (w *World) SetFloor(y float64) {
	w.Floor = &y
}

// FPS returns the step rate.
func (w *World) FPS() int {
	return w.fps
}

// TimeStep returns the duration of one step in seconds.
func (w *World) TimeStep() float64 {
	return w.dt
}

// Add attaches a body. Adding a body twice is a no-op.
func (w *World) Add(b *Body) {
	if b.world == w {
		return
	}
	w.nextID++
	b.id = w.nextID
	b.world = w
	b.dirty = true
	w.bodies = append(w.bodies, b)
	w.proxies[b.id] = proxy{center: b.pose.Position, radius: b.Radius}
}

// Remove detaches a body.
func (w *World) Remove(b *Body) {
	if b.world != w {
		return
	}
	w.bodies = slices.DeleteFunc(w.bodies, func(o *Body) bool { return o == b })
	delete(w.proxies, b.id)
	b.world = nil
	b.id = 0
	b.proj = nil
}

// Bodies returns the attached bodies in insertion order.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// Step advances the simulation by one time step and refreshes every
// collision proxy.
func (w *World) Step() {
	for _, b := range w.bodies {
		if b.Kinematic {
			continue
		}
		if b.proj == nil || b.dirty {
			b.rebuild(w.dt, w.Gravity)
			b.dirty = false
		}

		p := b.proj.Update()
		v := b.proj.Velocity()
		b.pose.Position = math3d.V3(p.X, p.Y, p.Z)
		b.linear = math3d.V3(v.X, v.Y, v.Z)

		b.grounded = false
		if w.Floor != nil && b.pose.Position.Y-b.Radius <= *w.Floor+1e-9 {
			b.pose.Position.Y = *w.Floor + b.Radius
			b.linear.Y = math.Max(0, b.linear.Y)
			keep := math.Max(0, 1-w.Friction*w.dt)
			b.linear.X *= keep
			b.linear.Z *= keep
			b.grounded = true
			b.proj = nil // restart from the corrected state
		}

		w.integrateSpin(b)
	}

	for _, b := range w.bodies {
		w.proxies[b.id] = proxy{center: b.pose.Position, radius: b.Radius}
		b.dirty = false
	}
}

// integrateSpin rotates the body by its angular velocity and lets the spin
// spring pull the angular velocity towards rest.
func (w *World) integrateSpin(b *Body) {
	omega := b.angular
	if speed := omega.Len(); speed > 1e-9 {
		delta := math3d.QuatAxisAngle(omega, speed*w.dt)
		b.pose.Rotation = delta.Mul(b.pose.Rotation).Normalize()
	}
	b.angular.X, b.spinVel[0] = w.spin.Update(b.angular.X, b.spinVel[0], 0)
	b.angular.Y, b.spinVel[1] = w.spin.Update(b.angular.Y, b.spinVel[1], 0)
	b.angular.Z, b.spinVel[2] = w.spin.Update(b.angular.Z, b.spinVel[2], 0)
}

// SyncTransforms pushes pending pose and velocity writes into the
// collision proxies and integrators without advancing time.
func (w *World) SyncTransforms() {
	for _, b := range w.bodies {
		if !b.dirty {
			continue
		}
		w.proxies[b.id] = proxy{center: b.pose.Position, radius: b.Radius}
		if !b.Kinematic {
			b.rebuild(w.dt, w.Gravity)
		}
		b.dirty = false
	}
}

// OverlapSphere returns the colliding bodies whose proxies intersect the
// sphere, in insertion order.
func (w *World) OverlapSphere(center math3d.Vec3, radius float64) []*Body {
	var hits []*Body
	for _, b := range w.bodies {
		if !b.Collides {
			continue
		}
		p := w.proxies[b.id]
		if p.center.Distance(center) <= p.radius+radius {
			hits = append(hits, b)
		}
	}
	return hits
}
