package detect

import "github.com/banshee-data/sprint.report/internal/config"

// COCO hip indices.
const (
	LeftHip  = 11
	RightHip = 12
)

// SubjectLocator reduces pose detections to a single horizontal position:
// the midpoint of the two hip keypoints of the first pose.
type SubjectLocator struct {
	LeftHip  int
	RightHip int
	// MinConfidence rejects hips below this confidence. Zero accepts all.
	MinConfidence float64
}

// DefaultSubjectLocator uses the COCO hips with no confidence filter.
func DefaultSubjectLocator() SubjectLocator {
	return SubjectLocator{LeftHip: LeftHip, RightHip: RightHip}
}

// SubjectLocatorFromSprint reads keypoint settings from cfg.
func SubjectLocatorFromSprint(cfg *config.SprintConfig) SubjectLocator {
	return SubjectLocator{
		LeftHip:       cfg.GetLeftHipKeypoint(),
		RightHip:      cfg.GetRightHipKeypoint(),
		MinConfidence: cfg.GetMinKeypointConfidence(),
	}
}

// Locate returns the subject position, or Absent when there is no pose or
// the first pose lacks usable hips.
func (l SubjectLocator) Locate(poses []Pose) SubjectPosition {
	if len(poses) == 0 {
		return Absent
	}
	kps := poses[0].Keypoints
	if l.LeftHip < 0 || l.RightHip < 0 || l.LeftHip >= len(kps) || l.RightHip >= len(kps) {
		return Absent
	}
	lh, rh := kps[l.LeftHip], kps[l.RightHip]
	if l.MinConfidence > 0 && (lh.Conf < l.MinConfidence || rh.Conf < l.MinConfidence) {
		return Absent
	}
	return At((lh.X + rh.X) / 2)
}
