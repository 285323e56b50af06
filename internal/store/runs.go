package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/monitoring"
	"github.com/banshee-data/myrmidon/internal/space"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

// Run describes one processing of a frame source.
type Run struct {
	RunID      string        `json:"run_id"`
	SpaceID    space.SpaceID `json:"space_id"`
	Source     string        `json:"source"`
	StartedAt  chrono.Time   `json:"started_at"`
	FinishedAt *chrono.Time  `json:"finished_at,omitempty"`
	Frames     int64         `json:"frames"`
}

// CollisionBin counts the collisions whose frame time falls in
// [Start, Start+bin).
type CollisionBin struct {
	Start chrono.Time `json:"start"`
	Count int         `json:"count"`
}

// TrajectoryPoint is the position of an ant in one frame.
type TrajectoryPoint struct {
	FrameID  uint64       `json:"frame_id"`
	Time     chrono.Time  `json:"time"`
	Position geometry.Vec `json:"position"`
	Angle    float64      `json:"angle"`
	Zone     space.ZoneID `json:"zone"`
}

// RunStore records the output of processing runs.
type RunStore struct {
	db *DB
}

// NewRunStore returns a store over db.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// ErrTimeRange is returned for frame times that do not fit in int64
// nanoseconds since the Unix epoch, that is before 1677 or after 2262.
var ErrTimeRange = errors.New("time outside storable range")

var (
	minStorable = time.Unix(0, math.MinInt64)
	maxStorable = time.Unix(0, math.MaxInt64)
)

func unixNanos(t chrono.Time) (int64, error) {
	std, err := t.ToTime()
	if err != nil {
		return 0, err
	}
	if std.Before(minStorable) || std.After(maxStorable) {
		return 0, fmt.Errorf("%s: %w", t, ErrTimeRange)
	}
	return std.UnixNano(), nil
}

func fromUnixNanos(n int64) chrono.Time {
	return chrono.FromUnix(0, n)
}

// CreateRun registers a new run and returns its ID.
func (s *RunStore) CreateRun(ctx context.Context, spaceID space.SpaceID, source string) (string, error) {
	runID := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, space_id, source, started_at) VALUES (?, ?, ?, ?)`,
		runID, spaceID, source, chrono.Now().String())
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	monitoring.Logf("[store] created run %s for space %d from %s", runID, spaceID, source)
	return runID, nil
}

// FinishRun marks a run complete after frames frames.
func (s *RunStore) FinishRun(ctx context.Context, runID string, frames int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, frames = ? WHERE run_id = ?`,
		chrono.Now().String(), frames, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// Run returns the run with the given ID.
func (s *RunStore) Run(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id, space_id, source, started_at, finished_at, frames
		FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return r, err
}

// Runs lists every run, most recent first.
func (s *RunStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, space_id, source, started_at, finished_at, frames
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r        Run
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&r.RunID, &r.SpaceID, &r.Source, &started, &finished, &r.Frames); err != nil {
		return nil, err
	}
	t, err := chrono.Parse(started)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", r.RunID, err)
	}
	r.StartedAt = t
	if r.FinishedAt, err = decodeTime(finished); err != nil {
		return nil, fmt.Errorf("run %s: %w", r.RunID, err)
	}
	return &r, nil
}

// InsertPositions records the ant positions of an identified frame.
func (s *RunStore) InsertPositions(ctx context.Context, runID string, frame *tracking.IdentifiedFrame) error {
	ts, err := unixNanos(frame.Time)
	if err != nil {
		return fmt.Errorf("frame %d: %w", frame.FrameID, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_positions (
			run_id, frame_id, frame_unix_nanos, ant_id, x, y, angle, zone_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range frame.Positions {
		if _, err := stmt.ExecContext(ctx, runID, int64(frame.FrameID), ts,
			p.AntID, p.Position.X, p.Position.Y, p.Angle, p.Zone); err != nil {
			return fmt.Errorf("failed to insert position of ant %s: %w", p.AntID, err)
		}
	}
	return tx.Commit()
}

// InsertCollisions records the collisions of a frame.
func (s *RunStore) InsertCollisions(ctx context.Context, runID string, frame *tracking.CollisionFrame) error {
	ts, err := unixNanos(frame.Time)
	if err != nil {
		return fmt.Errorf("frame %d: %w", frame.FrameID, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range frame.Collisions {
		types, err := json.Marshal(c.Types)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_collisions (
				run_id, frame_id, frame_unix_nanos, ant_a, ant_b, zone_id, types_json
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, int64(frame.FrameID), ts, c.IDs[0], c.IDs[1], c.Zone, string(types)); err != nil {
			return fmt.Errorf("failed to insert collision %s-%s: %w", c.IDs[0], c.IDs[1], err)
		}
	}
	return tx.Commit()
}

// Collisions returns the collisions of a run in frame order.
func (s *RunStore) Collisions(ctx context.Context, runID string) ([]tracking.Collision, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ant_a, ant_b, zone_id, types_json
		FROM run_collisions WHERE run_id = ? ORDER BY frame_id, ant_a, ant_b`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []tracking.Collision
	for rows.Next() {
		var (
			c     tracking.Collision
			types string
		)
		if err := rows.Scan(&c.IDs[0], &c.IDs[1], &c.Zone, &types); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(types), &c.Types); err != nil {
			return nil, fmt.Errorf("collision %s-%s: %w", c.IDs[0], c.IDs[1], err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// CollisionCounts histograms the collisions of a run by frame time. Bins
// start at multiples of bin since the Unix epoch, earlier times included.
// Empty bins are omitted.
func (s *RunStore) CollisionCounts(ctx context.Context, runID string, bin chrono.Duration) ([]CollisionBin, error) {
	if bin <= 0 {
		return nil, fmt.Errorf("bin %s must be positive", bin)
	}
	// integer division truncates toward zero: step back one bin for
	// negative remainders
	n := bin.Nanoseconds()
	rows, err := s.db.QueryContext(ctx, `SELECT (frame_unix_nanos / ? - (frame_unix_nanos % ? < 0)) * ? AS bucket, COUNT(*)
		FROM run_collisions WHERE run_id = ?
		GROUP BY bucket ORDER BY bucket`, n, n, n, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []CollisionBin
	for rows.Next() {
		var (
			bucket int64
			count  int
		)
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, err
		}
		res = append(res, CollisionBin{Start: fromUnixNanos(bucket), Count: count})
	}
	return res, rows.Err()
}

// Trajectory returns the positions of ant during a run, in frame order.
func (s *RunStore) Trajectory(ctx context.Context, runID string, ant identity.AntID) ([]TrajectoryPoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT frame_id, frame_unix_nanos, x, y, angle, zone_id
		FROM run_positions WHERE run_id = ? AND ant_id = ? ORDER BY frame_id`, runID, ant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []TrajectoryPoint
	for rows.Next() {
		var (
			p       TrajectoryPoint
			frameID int64
			ts      int64
		)
		if err := rows.Scan(&frameID, &ts, &p.Position.X, &p.Position.Y, &p.Angle, &p.Zone); err != nil {
			return nil, err
		}
		p.FrameID = uint64(frameID)
		p.Time = fromUnixNanos(ts)
		res = append(res, p)
	}
	return res, rows.Err()
}

// TrackedAnts returns the IDs of every ant positioned during a run.
func (s *RunStore) TrackedAnts(ctx context.Context, runID string) ([]identity.AntID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT ant_id FROM run_positions WHERE run_id = ? ORDER BY ant_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []identity.AntID
	for rows.Next() {
		var a identity.AntID
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// InsertSegments records the trajectories and interactions closed during
// a run.
func (s *RunStore) InsertSegments(ctx context.Context, runID string, segs tracking.Segments) error {
	if segs.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, tr := range segs.Trajectories {
		start, end, err := spanNanos(tr.Start, tr.End)
		if err != nil {
			return fmt.Errorf("trajectory of ant %s: %w", tr.Ant, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_trajectories (
				run_id, ant_id, space_id, start_unix_nanos, end_unix_nanos, frames
			) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, tr.Ant, tr.Space, start, end, tr.Frames); err != nil {
			return fmt.Errorf("failed to insert trajectory of ant %s: %w", tr.Ant, err)
		}
	}
	for _, in := range segs.Interactions {
		start, end, err := spanNanos(in.Start, in.End)
		if err != nil {
			return fmt.Errorf("interaction %s-%s: %w", in.IDs[0], in.IDs[1], err)
		}
		types, err := json.Marshal(in.Types)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_interactions (
				run_id, ant_a, ant_b, space_id, start_unix_nanos, end_unix_nanos, frames, types_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, in.IDs[0], in.IDs[1], in.Space, start, end, in.Frames, string(types)); err != nil {
			return fmt.Errorf("failed to insert interaction %s-%s: %w", in.IDs[0], in.IDs[1], err)
		}
	}
	return tx.Commit()
}

func spanNanos(start, end chrono.Time) (int64, int64, error) {
	s, err := unixNanos(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := unixNanos(end)
	if err != nil {
		return 0, 0, err
	}
	return s, e, nil
}

// Interactions returns the interactions of a run by start time. Times
// are read back without their monotonic reading.
func (s *RunStore) Interactions(ctx context.Context, runID string) ([]tracking.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ant_a, ant_b, space_id, start_unix_nanos, end_unix_nanos, frames, types_json
		FROM run_interactions WHERE run_id = ? ORDER BY start_unix_nanos, ant_a, ant_b`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []tracking.Interaction
	for rows.Next() {
		var (
			in         tracking.Interaction
			start, end int64
			types      string
		)
		if err := rows.Scan(&in.IDs[0], &in.IDs[1], &in.Space, &start, &end, &in.Frames, &types); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(types), &in.Types); err != nil {
			return nil, fmt.Errorf("interaction %s-%s: %w", in.IDs[0], in.IDs[1], err)
		}
		in.Start, in.End = fromUnixNanos(start), fromUnixNanos(end)
		res = append(res, in)
	}
	return res, rows.Err()
}

// AntTrajectories returns the trajectory segments of a run by ant then
// start time.
func (s *RunStore) AntTrajectories(ctx context.Context, runID string) ([]tracking.AntTrajectory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ant_id, space_id, start_unix_nanos, end_unix_nanos, frames
		FROM run_trajectories WHERE run_id = ? ORDER BY ant_id, start_unix_nanos`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []tracking.AntTrajectory
	for rows.Next() {
		var (
			tr         tracking.AntTrajectory
			start, end int64
		)
		if err := rows.Scan(&tr.Ant, &tr.Space, &start, &end, &tr.Frames); err != nil {
			return nil, err
		}
		tr.Start, tr.End = fromUnixNanos(start), fromUnixNanos(end)
		res = append(res, tr)
	}
	return res, rows.Err()
}

// InsertTagStatistics records the tag statistics of a run, replacing
// earlier values for the same tags.
func (s *RunStore) InsertTagStatistics(ctx context.Context, runID string, stats []tracking.TagStatistics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range stats {
		first, last, err := spanNanos(st.FirstSeen, st.LastSeen)
		if err != nil {
			return fmt.Errorf("tag %s: %w", st.ID, err)
		}
		gaps, err := json.Marshal(st.Gaps)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO run_tag_stats (
				run_id, tag_id, first_seen_unix_nanos, last_seen_unix_nanos, total_seen, multiple_seen, gaps_json
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, st.ID, first, last, int64(st.TotalSeen), int64(st.MultipleSeen), string(gaps)); err != nil {
			return fmt.Errorf("failed to insert statistics of tag %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// TagStatistics returns the tag statistics of a run sorted by tag.
func (s *RunStore) TagStatistics(ctx context.Context, runID string) ([]tracking.TagStatistics, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag_id, first_seen_unix_nanos, last_seen_unix_nanos, total_seen, multiple_seen, gaps_json
		FROM run_tag_stats WHERE run_id = ? ORDER BY tag_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []tracking.TagStatistics
	for rows.Next() {
		var (
			st              tracking.TagStatistics
			first, last     int64
			total, multiple int64
			gaps            string
		)
		if err := rows.Scan(&st.ID, &first, &last, &total, &multiple, &gaps); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(gaps), &st.Gaps); err != nil {
			return nil, fmt.Errorf("tag %s: %w", st.ID, err)
		}
		st.FirstSeen, st.LastSeen = fromUnixNanos(first), fromUnixNanos(last)
		st.TotalSeen, st.MultipleSeen = uint64(total), uint64(multiple)
		res = append(res, st)
	}
	return res, rows.Err()
}
