package portal

import "slices"

// CrossingDetector teleports entities whose centre passed through a
// surface rectangle since the previous Step. The crossing point is
// interpolated between the centre positions seen by consecutive steps.
type CrossingDetector struct {
	world       *World
	transformer *Transformer
}

// NewCrossingDetector creates a detector for the surfaces in w.
func NewCrossingDetector(w *World, t *Transformer) *CrossingDetector {
	return &CrossingDetector{world: w, transformer: t}
}

// Step checks every tracked entity once and returns the number teleported.
// The record that saw a crossing is destroyed by the teleport, so each
// crossing teleports at most once.
func (c *CrossingDetector) Step() int {
	n := 0
	for _, s := range c.world.Surfaces() {
		if !s.IsActive() {
			continue
		}
		// teleports remove records while we iterate
		for _, rec := range slices.Clone(s.records) {
			if c.check(s, rec) {
				n++
			}
		}
	}
	return n
}

func (c *CrossingDetector) check(s *Surface, rec *TraversalRecord) bool {
	pose := rec.Entity.Pose()
	d := s.SignedDistance(pose.Position)
	if d == 0 {
		return false
	}
	prev := rec.lastPos
	rec.lastPos = pose.Position

	side := 1.0
	if d < 0 {
		side = -1
	}
	if side == rec.LastSide {
		return false
	}
	rec.LastSide = side

	// the point where the centre passed through the plane
	hit := pose.Position
	if d0 := s.SignedDistance(prev); d0 != d {
		hit = prev.Lerp(pose.Position, d0/(d0-d))
	}
	if !s.Contains(hit, 0) {
		return false
	}

	to := s.Map(pose)
	return c.transformer.Teleport(rec.Entity, s, s.link, to.Position, to.Rotation)
}
