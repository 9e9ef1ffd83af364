package portal

import (
	"slices"

	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/models"
)

// TraversalRecord tracks one entity inside one surface's field.
type TraversalRecord struct {
	Entity  Teleportable
	Preview Preview

	// EntrySide is the side of the plane the entity was on when it entered.
	EntrySide float64
	// LastSide is the side seen by the most recent crossing check.
	LastSide float64

	lastPos math3d.Vec3
	plane   math3d.Vec4
	sliced  []*models.Material
}

// Record returns the record for e, or nil when e is not in the field.
func (s *Surface) Record(e Teleportable) *TraversalRecord {
	for _, r := range s.records {
		if r.Entity == e {
			return r
		}
	}
	return nil
}

// Records returns the current records in entry order.
func (s *Surface) Records() []*TraversalRecord {
	return s.records
}

// EnterField starts tracking e: its preview is shown at the linked surface
// and both copies are sliced at their portal plane. Calling it again for a
// tracked entity, or on an inactive surface, does nothing.
func (s *Surface) EnterField(e Teleportable) {
	if s.link == nil || e == nil || s.Record(e) != nil {
		return
	}

	pose := e.Pose()
	side := s.SideOf(pose.Position)

	preview, ok := s.previews[e.ID()]
	if !ok {
		preview = e.Preview()
		s.previews[e.ID()] = preview
	}
	preview.SetPose(s.Map(pose))
	preview.SetActive(true)

	rec := &TraversalRecord{
		Entity:    e,
		Preview:   preview,
		EntrySide: side,
		LastSide:  side,
		lastPos:   pose.Position,
		plane:     s.Plane(side),
	}
	// The entity keeps its entry side; the preview keeps the part that
	// has come through.
	rec.slice(e.Materials(), rec.plane)
	rec.slice(preview.Materials(), s.link.Plane(-side))
	s.records = append(s.records, rec)

	e.Fields().add(s)
	Logger().Debug("entered field", "surface", s.Name, "entity", e.ID(), "side", side)
}

// ExitField stops tracking e, hides its preview and clears every slice
// plane that EnterField set. When another surface still tracks e, the
// entity is sliced at that surface's plane again. Untracked entities are
// ignored.
func (s *Surface) ExitField(e Teleportable) {
	rec := s.Record(e)
	if rec == nil {
		return
	}
	s.drop(rec)

	fields := e.Fields()
	fields.remove(s)
	if owner := fields.Last(); owner != nil {
		if r := owner.Record(e); r != nil {
			r.slice(e.Materials(), r.plane)
		}
	}
	Logger().Debug("exited field", "surface", s.Name, "entity", e.ID(), "remaining", fields.Len())
}

func (s *Surface) drop(rec *TraversalRecord) {
	rec.Preview.SetActive(false)
	for _, m := range rec.sliced {
		m.ClearSlice()
	}
	rec.sliced = nil
	s.records = slices.DeleteFunc(s.records, func(r *TraversalRecord) bool { return r == rec })
}

// SyncPreviews moves every active preview to its entity's mapped pose.
func (s *Surface) SyncPreviews() {
	if s.link == nil {
		return
	}
	for _, rec := range s.records {
		rec.Preview.SetPose(s.Map(rec.Entity.Pose()))
	}
}

// slice sets plane on every sliceable material and remembers which ones
// accepted it.
func (rec *TraversalRecord) slice(mats []*models.Material, plane math3d.Vec4) {
	for _, m := range mats {
		if m.SetSlice(plane) && !slices.Contains(rec.sliced, m) {
			rec.sliced = append(rec.sliced, m)
		}
	}
}
