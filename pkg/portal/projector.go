package portal

import (
	"github.com/taigrr/portals/pkg/render"
)

// Projector places a surface's virtual camera for a viewer.
type Projector struct{}

// Place copies the viewer's lens into cam, moves cam to the viewer pose
// mapped through s and installs the oblique projection for the exit
// plane. When the camera is too close to the exit plane the plain lens
// projection is kept. Returns whether oblique clipping is in effect.
func (Projector) Place(s *Surface, viewer, cam *render.Camera) bool {
	cam.SetLens(viewer.Lens)
	cam.SetPose(s.Map(viewer.Pose()))
	if s.link == nil {
		return false
	}

	exit := s.link
	// Orient the exit plane so the virtual camera is behind it.
	side := exit.SideOf(cam.Position())
	normal := exit.Forward().Scale(-side)

	threshold := s.ClipThreshold
	if threshold <= 0 {
		threshold = viewer.Near
	}

	proj, ok := ObliqueProjection(cam.ProjectionMatrix(), cam.ViewMatrix(),
		exit.pose.Position, normal, threshold, s.ClipOffset)
	if !ok {
		Logger().Debug("oblique clipping skipped", "surface", s.Name, "distance", exit.SignedDistance(cam.Position()))
		return false
	}
	cam.SetProjectionMatrix(proj)
	return true
}
