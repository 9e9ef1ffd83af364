package portal

import (
	"math"
	"slices"

	"github.com/taigrr/portals/pkg/physics"
)

// DefaultFieldDepth is how far the field reaches on each side of a surface.
const DefaultFieldDepth = 1.0

// FieldSensor decides which tracked entities are inside each surface's
// field and calls EnterField and ExitField as that changes. Entities with
// a physics body are found through the physics world's overlap query;
// the rest are tested directly.
type FieldSensor struct {
	Depth float64

	world    *World
	physics  *physics.World
	entities []Teleportable
	byBody   map[*physics.Body]Teleportable
}

// NewFieldSensor creates a sensor over the surfaces of w. phys may be nil.
func NewFieldSensor(w *World, phys *physics.World) *FieldSensor {
	return &FieldSensor{
		Depth:   DefaultFieldDepth,
		world:   w,
		physics: phys,
		byBody:  make(map[*physics.Body]Teleportable),
	}
}

// Track adds e to the set of entities the sensor watches.
func (fs *FieldSensor) Track(e Teleportable) {
	if slices.Contains(fs.entities, e) {
		return
	}
	fs.entities = append(fs.entities, e)
	if b, ok := e.(Bodied); ok && b.Body() != nil && fs.physics != nil {
		fs.byBody[b.Body()] = e
	}
}

// Untrack removes e and takes it out of every field.
func (fs *FieldSensor) Untrack(e Teleportable) {
	fs.entities = slices.DeleteFunc(fs.entities, func(o Teleportable) bool { return o == e })
	for body, o := range fs.byBody {
		if o == e {
			delete(fs.byBody, body)
		}
	}
	for _, s := range fs.world.Surfaces() {
		s.ExitField(e)
	}
}

// Update refreshes field membership for every surface. Inactive surfaces
// release everything they were tracking.
func (fs *FieldSensor) Update() {
	for _, s := range fs.world.Surfaces() {
		if !s.IsActive() {
			for _, rec := range slices.Clone(s.records) {
				s.ExitField(rec.Entity)
			}
			continue
		}

		inside := fs.candidates(s)
		for _, rec := range slices.Clone(s.records) {
			if !slices.Contains(inside, rec.Entity) {
				s.ExitField(rec.Entity)
			}
		}
		for _, e := range inside {
			s.EnterField(e)
		}
	}
}

// candidates returns the tracked entities inside s's field, in tracking order.
func (fs *FieldSensor) candidates(s *Surface) []Teleportable {
	near := make(map[Teleportable]bool)
	if fs.physics != nil {
		reach := math.Hypot(s.Width/2, s.Height/2) + fs.Depth
		for _, b := range fs.physics.OverlapSphere(s.pose.Position, reach) {
			if e, ok := fs.byBody[b]; ok {
				near[e] = true
			}
		}
	}

	var inside []Teleportable
	for _, e := range fs.entities {
		if _, hasBody := fs.lookupBody(e); hasBody && !near[e] {
			continue
		}
		p := e.Pose().Position
		r := e.Radius()
		if math.Abs(s.SignedDistance(p)) <= fs.Depth+r && s.Contains(p, r) {
			inside = append(inside, e)
		}
	}
	return inside
}

func (fs *FieldSensor) lookupBody(e Teleportable) (*physics.Body, bool) {
	b, ok := e.(Bodied)
	if !ok || b.Body() == nil {
		return nil, false
	}
	_, tracked := fs.byBody[b.Body()]
	return b.Body(), tracked
}
