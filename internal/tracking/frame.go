package tracking

import (
	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/space"
)

// TagDetection is one tag seen in an image. Theta is in radians.
type TagDetection struct {
	ID    identity.TagID `json:"id"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Theta float64        `json:"theta"`
}

// RawFrame holds the detections of a single tracking frame.
type RawFrame struct {
	FrameID uint64         `json:"frame_id"`
	Time    chrono.Time    `json:"time"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Tags    []TagDetection `json:"tags"`
}

// PositionedAnt is the pose of an identified ant in the image. Zone is 0
// until CollideFrame located it.
type PositionedAnt struct {
	AntID    identity.AntID `json:"ant_id"`
	Position geometry.Vec   `json:"position"`
	Angle    float64        `json:"angle"`
	Zone     space.ZoneID   `json:"zone"`
}

// IdentifiedFrame is a RawFrame whose tags were resolved to ants.
type IdentifiedFrame struct {
	FrameID   uint64          `json:"frame_id"`
	Space     space.SpaceID   `json:"space"`
	Time      chrono.Time     `json:"time"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Positions []PositionedAnt `json:"positions"`
}

// Collision is a contact between two ants. IDs[0] < IDs[1] and each
// entry of Types lists the shape type of IDs[0] first.
type Collision struct {
	IDs   [2]identity.AntID         `json:"ids"`
	Types [][2]identity.ShapeTypeID `json:"types"`
	Zone  space.ZoneID              `json:"zone"`
}

// CollisionFrame lists the collisions of a frame, sorted by ant pair.
type CollisionFrame struct {
	FrameID    uint64        `json:"frame_id"`
	Space      space.SpaceID `json:"space"`
	Time       chrono.Time   `json:"time"`
	Collisions []Collision   `json:"collisions"`
}
