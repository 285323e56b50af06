package identity

import (
	"fmt"
	"math"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/validity"
)

// TagID is the value decoded from a fiducial marker.
type TagID uint32

func (t TagID) String() string { return fmt.Sprintf("0x%03x", uint32(t)) }

// Identification binds a tag to an ant during a validity interval.
type Identification struct {
	tag      TagID
	ant      AntID
	interval validity.Interval

	// pose of the ant in the tag frame
	computedPose geometry.Isometry
	userPose     *geometry.Isometry
	tagSize      float64
}

// TagValue returns the identified tag.
func (i *Identification) TagValue() TagID { return i.tag }

// TargetAntID returns the identified ant.
func (i *Identification) TargetAntID() AntID { return i.ant }

// Interval returns a copy of the validity of the identification. It
// implements validity.Bounded.
func (i *Identification) Interval() validity.Interval { return i.interval.Clone() }

// Start returns a copy of the first valid time, nil for −∞.
func (i *Identification) Start() *chrono.Time { return i.interval.Clone().Start }

// End returns a copy of the first invalid time after Start, nil for +∞.
func (i *Identification) End() *chrono.Time { return i.interval.Clone().End }

// IsValid reports whether the identification holds at t.
func (i *Identification) IsValid(t chrono.Time) bool { return i.interval.IsValid(t) }

// AntPose returns the pose of the ant in the tag frame: the user-defined
// one if set, otherwise the one computed from measurements.
func (i *Identification) AntPose() geometry.Isometry {
	if i.userPose != nil {
		return *i.userPose
	}
	return i.computedPose
}

// HasUserDefinedAntPose reports whether the pose was set by hand.
func (i *Identification) HasUserDefinedAntPose() bool { return i.userPose != nil }

// SetUserDefinedAntPose overrides the computed pose with the ant center
// position and angle, both in the tag frame.
func (i *Identification) SetUserDefinedAntPose(position geometry.Vec, angle float64) {
	p := geometry.NewIsometry(angle, position)
	i.userPose = &p
}

// ClearUserDefinedAntPose reverts to the computed pose.
func (i *Identification) ClearUserDefinedAntPose() { i.userPose = nil }

// SetComputedAntPose stores the pose derived from head/tail measurements.
func (i *Identification) SetComputedAntPose(pose geometry.Isometry) { i.computedPose = pose }

// TagSize returns the physical tag size, 0 meaning the experiment
// default.
func (i *Identification) TagSize() float64 { return i.tagSize }

// UseDefaultTagSize reports whether TagSize is the experiment default.
func (i *Identification) UseDefaultTagSize() bool { return i.tagSize == 0 }

// SetTagSize sets the physical tag size. 0 restores the default.
func (i *Identification) SetTagSize(size float64) error {
	if size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return fmt.Errorf("tag size %g: %w", size, ErrInvalidArgument)
	}
	i.tagSize = size
	return nil
}

// ComputePositionFromTag returns the ant center and angle in the image
// for a tag detected at tagPosition with tagAngle.
func (i *Identification) ComputePositionFromTag(tagPosition geometry.Vec, tagAngle float64) (geometry.Vec, float64) {
	antToOrig := geometry.NewIsometry(tagAngle, tagPosition).Compose(i.AntPose())
	return antToOrig.Translation, antToOrig.Angle
}

func (i *Identification) String() string {
	return fmt.Sprintf("Identification{ID:%s ↦ %d, From:'%s', To:'%s'}",
		i.tag, uint32(i.ant), i.interval.StartOrSinceEver(), i.interval.EndOrForever())
}

func (i *Identification) clone() *Identification {
	res := *i
	res.interval = i.interval.Clone()
	if i.userPose != nil {
		p := *i.userPose
		res.userPose = &p
	}
	return &res
}

// ComputeAntPoseFromHeadTail returns the pose of an ant in the frame of
// its tag, given the tag pose and the head and tail positions measured in
// the same image. The ant center is the head/tail midpoint and its angle
// points from tail to head.
func ComputeAntPoseFromHeadTail(tagPosition geometry.Vec, tagAngle float64, head, tail geometry.Vec) (geometry.Isometry, error) {
	dx, dy := head.X-tail.X, head.Y-tail.Y
	if dx*dx+dy*dy < 1e-12 {
		return geometry.Isometry{}, fmt.Errorf("head and tail coincide: %w", ErrInvalidArgument)
	}
	center := geometry.Vec{X: (head.X + tail.X) / 2, Y: (head.Y + tail.Y) / 2}
	antToOrig := geometry.NewIsometry(math.Atan2(dy, dx), center)
	tagToOrig := geometry.NewIsometry(tagAngle, tagPosition)
	return tagToOrig.Inverse().Compose(antToOrig), nil
}
