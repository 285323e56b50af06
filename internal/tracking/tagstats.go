package tracking

import (
	"sort"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/identity"
)

// GapBucket classifies how long a tag went undetected.
type GapBucket int

// Gap buckets, each holding the gaps shorter than its name and at least
// as long as the previous one.
const (
	Gap500ms GapBucket = iota
	Gap1s
	Gap10s
	Gap1m
	Gap10m
	Gap1h
	Gap10h
	GapMore
	NumGapBuckets
)

var gapLimits = [...]chrono.Duration{
	500 * chrono.Millisecond,
	chrono.Second,
	10 * chrono.Second,
	chrono.Minute,
	10 * chrono.Minute,
	chrono.Hour,
	10 * chrono.Hour,
}

var gapNames = [NumGapBuckets]string{"<500ms", "<1s", "<10s", "<1m", "<10m", "<1h", "<10h", ">=10h"}

func (b GapBucket) String() string {
	if b < 0 || b >= NumGapBuckets {
		return "invalid"
	}
	return gapNames[b]
}

// ComputeGap returns the bucket of the hole between lastSeen and
// current. ok is false when current is before lastSeen.
func ComputeGap(lastSeen, current chrono.Time) (b GapBucket, ok bool) {
	gap := current.Sub(lastSeen)
	if gap < 0 {
		return 0, false
	}
	for i, limit := range gapLimits {
		if gap < limit {
			return GapBucket(i), true
		}
	}
	return GapMore, true
}

// TagStatistics summarises the detections of one tag over a run.
// TotalSeen counts frames with the tag; MultipleSeen counts extra
// detections of the tag within a frame already counted.
type TagStatistics struct {
	ID           identity.TagID        `json:"id"`
	FirstSeen    chrono.Time           `json:"first_seen"`
	LastSeen     chrono.Time           `json:"last_seen"`
	TotalSeen    uint64                `json:"total_seen"`
	MultipleSeen uint64                `json:"multiple_seen"`
	Gaps         [NumGapBuckets]uint64 `json:"gaps"`
}

func (s *TagStatistics) addGap(from, to chrono.Time) {
	if b, ok := ComputeGap(from, to); ok {
		s.Gaps[b]++
	}
}

type tagSighting struct {
	stats     TagStatistics
	lastFrame uint64
	lastTime  chrono.Time
}

// TagStatsCollector accumulates TagStatistics from raw frames fed in
// acquisition order. It is not safe for concurrent use.
type TagStatsCollector struct {
	started    bool
	start, end chrono.Time
	tags       map[identity.TagID]*tagSighting
}

// NewTagStatsCollector returns an empty collector.
func NewTagStatsCollector() *TagStatsCollector {
	return &TagStatsCollector{tags: make(map[identity.TagID]*tagSighting)}
}

// Add accounts for the detections of raw.
func (c *TagStatsCollector) Add(raw *RawFrame) {
	now := raw.Time
	if !c.started {
		c.started = true
		c.start = now
	}
	c.end = now

	for _, d := range raw.Tags {
		s, ok := c.tags[d.ID]
		if !ok {
			s = &tagSighting{
				stats:     TagStatistics{ID: d.ID, FirstSeen: now, LastSeen: now, TotalSeen: 1},
				lastFrame: raw.FrameID,
				lastTime:  now,
			}
			if now.After(c.start) {
				s.stats.addGap(c.start, now)
			}
			c.tags[d.ID] = s
			continue
		}
		if s.lastFrame == raw.FrameID {
			s.stats.MultipleSeen++
		} else {
			s.stats.TotalSeen++
			if s.lastFrame+1 < raw.FrameID {
				s.stats.addGap(s.lastTime, now)
			}
			s.stats.LastSeen = now
		}
		s.lastFrame = raw.FrameID
		s.lastTime = now
	}
}

// Start returns the time of the first frame, and false before any frame.
func (c *TagStatsCollector) Start() (chrono.Time, bool) { return c.start, c.started }

// End returns the time of the last frame, and false before any frame.
func (c *TagStatsCollector) End() (chrono.Time, bool) { return c.end, c.started }

// Statistics returns the statistics of every tag seen so far, sorted by
// tag. The hole between a tag's last detection and the last frame is
// counted as a gap. The collector can keep accepting frames afterwards.
func (c *TagStatsCollector) Statistics() []TagStatistics {
	res := make([]TagStatistics, 0, len(c.tags))
	for _, s := range c.tags {
		st := s.stats
		if s.lastTime.Before(c.end) {
			st.addGap(s.lastTime, c.end)
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
