package portal

import (
	"slices"

	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/models"
	"github.com/taigrr/portals/pkg/physics"
)

// TraversalState is an entity's relation to the portal fields.
type TraversalState int

const (
	Free    TraversalState = iota // Not near any portal
	InField                       // Inside at least one portal's field
	Held                          // Carried by a holder
)

// String returns the lower-case state name.
func (s TraversalState) String() string {
	switch s {
	case Free:
		return "free"
	case InField:
		return "in-field"
	case Held:
		return "held"
	}
	return "unknown"
}

// Teleportable is anything that can pass through a portal.
type Teleportable interface {
	ID() int
	Pose() math3d.Pose
	SetPose(math3d.Pose)
	Radius() float64

	// State reports Held while a holder is attached, InField while any
	// surface tracks the entity and Free otherwise.
	State() TraversalState
	// Fields is the set of surfaces whose field tracks the entity.
	Fields() *FieldSet
	Holder() Holder

	// Materials returns the materials whose slice planes the portal sets.
	Materials() []*models.Material
	// Preview creates a visual-only copy of the entity.
	Preview() Preview
}

// FieldSet lists the surfaces tracking one entity, oldest entry first.
type FieldSet struct {
	surfaces []*Surface
}

// Len returns the number of tracking surfaces.
func (f *FieldSet) Len() int { return len(f.surfaces) }

// Has reports whether s tracks the entity.
func (f *FieldSet) Has(s *Surface) bool { return slices.Contains(f.surfaces, s) }

// Last returns the most recently entered surface, or nil.
func (f *FieldSet) Last() *Surface {
	if len(f.surfaces) == 0 {
		return nil
	}
	return f.surfaces[len(f.surfaces)-1]
}

func (f *FieldSet) add(s *Surface) {
	if !f.Has(s) {
		f.surfaces = append(f.surfaces, s)
	}
}

func (f *FieldSet) remove(s *Surface) {
	f.surfaces = slices.DeleteFunc(f.surfaces, func(o *Surface) bool { return o == s })
}

// Preview is the visual-only copy shown at the exit portal while an entity
// straddles the entry portal.
type Preview interface {
	SetPose(math3d.Pose)
	Active() bool
	SetActive(bool)
	Materials() []*models.Material
}

// Kinetic entities carry momentum through portals.
type Kinetic interface {
	Velocity() math3d.Vec3
	SetVelocity(math3d.Vec3)
	AngularVelocity() math3d.Vec3
	SetAngularVelocity(math3d.Vec3)
}

// Upright entities keep only their yaw when teleported.
type Upright interface {
	Upright() bool
}

// Holder is told when an entity it carries has been relocated.
type Holder interface {
	OnRelocated(e Teleportable)
}

// Bodied entities expose the physics body that represents them.
type Bodied interface {
	Body() *physics.Body
}

// Entity is a mesh, optionally backed by a physics body.
type Entity struct {
	Name        string
	Mesh        *models.Mesh
	KeepUpright bool

	id     int
	body   *physics.Body
	pose   math3d.Pose
	radius float64
	fields FieldSet
	holder Holder
}

// NewEntity creates an entity. IDs must be unique among the entities that
// share a set of surfaces. When body is non-nil the entity's pose and
// velocity live in the body and radius is taken from it.
func NewEntity(id int, name string, mesh *models.Mesh, body *physics.Body, pose math3d.Pose, radius float64) *Entity {
	e := &Entity{
		Name:   name,
		Mesh:   mesh,
		id:     id,
		body:   body,
		pose:   pose,
		radius: radius,
	}
	if body != nil {
		body.SetPose(pose)
		e.radius = body.Radius
	}
	return e
}

// ID returns the caller-assigned identifier.
func (e *Entity) ID() int { return e.id }

// Body returns the physics body, or nil.
func (e *Entity) Body() *physics.Body { return e.body }

// Pose returns the body's pose when there is one, else the stored pose.
func (e *Entity) Pose() math3d.Pose {
	if e.body != nil {
		return e.body.Pose()
	}
	return e.pose
}

// SetPose writes the pose straight into the body, or the stored pose.
func (e *Entity) SetPose(p math3d.Pose) {
	if e.body != nil {
		e.body.SetPose(p)
		return
	}
	e.pose = p
}

// Radius returns the bounding radius.
func (e *Entity) Radius() float64 { return e.radius }

// State derives the traversal state from the holder and tracking fields.
func (e *Entity) State() TraversalState {
	switch {
	case e.holder != nil:
		return Held
	case e.fields.Len() > 0:
		return InField
	}
	return Free
}

// Fields returns the surfaces currently tracking e.
func (e *Entity) Fields() *FieldSet { return &e.fields }

// Holder returns the attached holder, or nil.
func (e *Entity) Holder() Holder { return e.holder }

// SetHolder attaches or, with nil, detaches a holder.
func (e *Entity) SetHolder(h Holder) { e.holder = h }

// Upright reports whether teleports keep only the yaw.
func (e *Entity) Upright() bool { return e.KeepUpright }

// Velocity returns the body's linear velocity, zero without a body.
func (e *Entity) Velocity() math3d.Vec3 {
	if e.body == nil {
		return math3d.Zero3()
	}
	return e.body.Velocity()
}

// SetVelocity sets the body's linear velocity.
func (e *Entity) SetVelocity(v math3d.Vec3) {
	if e.body != nil {
		e.body.SetVelocity(v)
	}
}

// AngularVelocity returns the body's angular velocity, zero without a body.
func (e *Entity) AngularVelocity() math3d.Vec3 {
	if e.body == nil {
		return math3d.Zero3()
	}
	return e.body.AngularVelocity()
}

// SetAngularVelocity sets the body's angular velocity.
func (e *Entity) SetAngularVelocity(w math3d.Vec3) {
	if e.body != nil {
		e.body.SetAngularVelocity(w)
	}
}

// Materials returns pointers into the mesh's materials.
func (e *Entity) Materials() []*models.Material {
	return meshMaterials(e.Mesh)
}

// Preview returns an inactive copy with a cloned mesh and a frozen,
// non-colliding body.
func (e *Entity) Preview() Preview {
	p := &EntityPreview{Name: e.Name + " (preview)"}
	if e.Mesh != nil {
		p.Mesh = e.Mesh.Clone()
	}
	if e.body != nil {
		p.Body = e.body.Clone()
	}
	p.SetPose(e.Pose())
	return p
}

// EntityPreview is the Preview produced by Entity.
type EntityPreview struct {
	Name string
	Mesh *models.Mesh
	Body *physics.Body

	pose   math3d.Pose
	active bool
}

// Pose returns the preview's pose.
func (p *EntityPreview) Pose() math3d.Pose { return p.pose }

// SetPose moves the preview and its frozen body.
func (p *EntityPreview) SetPose(pose math3d.Pose) {
	p.pose = pose
	if p.Body != nil {
		p.Body.SetPose(pose)
	}
}

// Active reports whether the preview is shown.
func (p *EntityPreview) Active() bool { return p.active }

// SetActive shows or hides the preview.
func (p *EntityPreview) SetActive(v bool) { p.active = v }

// Materials returns pointers into the cloned mesh's materials.
func (p *EntityPreview) Materials() []*models.Material {
	return meshMaterials(p.Mesh)
}

func meshMaterials(m *models.Mesh) []*models.Material {
	if m == nil {
		return nil
	}
	mats := make([]*models.Material, len(m.Materials))
	for i := range m.Materials {
		mats[i] = &m.Materials[i]
	}
	return mats
}
