package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/space"
	"github.com/banshee-data/myrmidon/internal/validity"
)

// ExperimentStore saves and loads the identity registry and the space
// universe. Saving replaces the previous content.
type ExperimentStore struct {
	db *DB
}

// NewExperimentStore returns a store over db.
func NewExperimentStore(db *DB) *ExperimentStore {
	return &ExperimentStore{db: db}
}

func encodeTime(t *chrono.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func decodeTime(s sql.NullString) (*chrono.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := chrono.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func decodeInterval(start, end sql.NullString) (validity.Interval, error) {
	s, err := decodeTime(start)
	if err != nil {
		return validity.Interval{}, fmt.Errorf("start_time: %w", err)
	}
	e, err := decodeTime(end)
	if err != nil {
		return validity.Interval{}, fmt.Errorf("end_time: %w", err)
	}
	return validity.Interval{Start: s, End: e}, nil
}

// SaveIdentifier stores every shape type, ant, capsule and
// identification of id.
func (s *ExperimentStore) SaveIdentifier(ctx context.Context, id *identity.Identifier) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"ant_capsules", "identifications", "ants", "shape_types"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, st := range id.ShapeTypes().List() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shape_types (shape_type_id, name) VALUES (?, ?)`, st.ID, st.Name); err != nil {
			return fmt.Errorf("failed to insert shape type %d: %w", st.ID, err)
		}
	}

	for _, a := range id.Ants() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ants (ant_id) VALUES (?)`, a.ID()); err != nil {
			return fmt.Errorf("failed to insert ant %s: %w", a.ID(), err)
		}
		for i, c := range a.Capsules() {
			if _, err := tx.ExecContext(ctx, `INSERT INTO ant_capsules (
					ant_id, position, shape_type_id, c1_x, c1_y, c2_x, c2_y, r1, r2
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				a.ID(), i, c.Type,
				c.Capsule.C1.X, c.Capsule.C1.Y, c.Capsule.C2.X, c.Capsule.C2.Y,
				c.Capsule.R1, c.Capsule.R2,
			); err != nil {
				return fmt.Errorf("failed to insert capsule %d of ant %s: %w", i, a.ID(), err)
			}
		}
		for _, ident := range a.Identifications() {
			pose := ident.AntPose()
			if _, err := tx.ExecContext(ctx, `INSERT INTO identifications (
					ant_id, tag_id, start_time, end_time,
					pose_x, pose_y, pose_angle, user_pose, tag_size
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				a.ID(), ident.TagValue(), encodeTime(ident.Start()), encodeTime(ident.End()),
				pose.Translation.X, pose.Translation.Y, pose.Angle,
				ident.HasUserDefinedAntPose(), ident.TagSize(),
			); err != nil {
				return fmt.Errorf("failed to insert %s: %w", ident, err)
			}
		}
	}

	return tx.Commit()
}

// LoadIdentifier rebuilds the identity registry. Rows violating the
// registry invariants, such as overlapping identifications, fail the load.
func (s *ExperimentStore) LoadIdentifier(ctx context.Context) (*identity.Identifier, error) {
	id := identity.NewIdentifier()

	rows, err := s.db.QueryContext(ctx, `SELECT shape_type_id, name FROM shape_types ORDER BY shape_type_id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			typeID identity.ShapeTypeID
			name   string
		)
		if err := rows.Scan(&typeID, &name); err != nil {
			rows.Close()
			return nil, err
		}
		if _, err := id.ShapeTypes().Create(name, typeID); err != nil {
			rows.Close()
			return nil, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT ant_id FROM ants ORDER BY ant_id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var antID identity.AntID
		if err := rows.Scan(&antID); err != nil {
			rows.Close()
			return nil, err
		}
		if _, err := id.CreateAnt(antID); err != nil {
			rows.Close()
			return nil, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadCapsules(ctx, id); err != nil {
		return nil, err
	}
	if err := s.loadIdentifications(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

func (s *ExperimentStore) loadCapsules(ctx context.Context, id *identity.Identifier) error {
	rows, err := s.db.QueryContext(ctx, `SELECT ant_id, shape_type_id, c1_x, c1_y, c2_x, c2_y, r1, r2
		FROM ant_capsules ORDER BY ant_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			antID  identity.AntID
			typeID identity.ShapeTypeID
			c      geometry.Capsule
		)
		if err := rows.Scan(&antID, &typeID, &c.C1.X, &c.C1.Y, &c.C2.X, &c.C2.Y, &c.R1, &c.R2); err != nil {
			return err
		}
		a, err := id.Ant(antID)
		if err != nil {
			return err
		}
		if err := a.AddCapsule(typeID, c); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *ExperimentStore) loadIdentifications(ctx context.Context, id *identity.Identifier) error {
	rows, err := s.db.QueryContext(ctx, `SELECT ant_id, tag_id, start_time, end_time,
			pose_x, pose_y, pose_angle, user_pose, tag_size
		FROM identifications ORDER BY identification_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			antID      identity.AntID
			tag        identity.TagID
			start, end sql.NullString
			pose       geometry.Isometry
			userPose   bool
			tagSize    float64
		)
		if err := rows.Scan(&antID, &tag, &start, &end,
			&pose.Translation.X, &pose.Translation.Y, &pose.Angle, &userPose, &tagSize); err != nil {
			return err
		}
		iv, err := decodeInterval(start, end)
		if err != nil {
			return fmt.Errorf("identification of tag %s: %w", tag, err)
		}
		ident, err := id.AddIdentification(antID, tag, iv.Start, iv.End)
		if err != nil {
			return err
		}
		if userPose {
			ident.SetUserDefinedAntPose(pose.Translation, pose.Angle)
		} else {
			ident.SetComputedAntPose(pose)
		}
		if err := ident.SetTagSize(tagSize); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SaveUniverse stores every space, zone and zone definition of u.
func (s *ExperimentStore) SaveUniverse(ctx context.Context, u *space.Universe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"zone_definitions", "zones", "spaces"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, sp := range u.Spaces() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO spaces (space_id, name) VALUES (?, ?)`, sp.ID(), sp.Name()); err != nil {
			return fmt.Errorf("failed to insert space %d: %w", sp.ID(), err)
		}
		for _, z := range sp.Zones() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO zones (zone_id, space_id, name) VALUES (?, ?, ?)`, z.ID(), sp.ID(), z.Name()); err != nil {
				return fmt.Errorf("failed to insert zone %d: %w", z.ID(), err)
			}
			for _, d := range z.Definitions() {
				shapes, err := geometry.EncodeShapes(d.Shapes())
				if err != nil {
					return err
				}
				iv := d.Interval()
				if _, err := tx.ExecContext(ctx, `INSERT INTO zone_definitions (
						zone_id, start_time, end_time, shapes_json
					) VALUES (?, ?, ?, ?)`,
					z.ID(), encodeTime(iv.Start), encodeTime(iv.End), shapes,
				); err != nil {
					return fmt.Errorf("failed to insert definition of zone %d: %w", z.ID(), err)
				}
			}
		}
	}

	return tx.Commit()
}

// LoadUniverse rebuilds the space universe.
func (s *ExperimentStore) LoadUniverse(ctx context.Context) (*space.Universe, error) {
	u := space.NewUniverse()

	rows, err := s.db.QueryContext(ctx, `SELECT space_id, name FROM spaces ORDER BY space_id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			spaceID space.SpaceID
			name    string
		)
		if err := rows.Scan(&spaceID, &name); err != nil {
			rows.Close()
			return nil, err
		}
		if _, err := u.CreateSpace(name, spaceID); err != nil {
			rows.Close()
			return nil, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	zones := make(map[space.ZoneID]*space.Zone)
	rows, err = s.db.QueryContext(ctx, `SELECT zone_id, space_id, name FROM zones ORDER BY zone_id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			zoneID  space.ZoneID
			spaceID space.SpaceID
			name    string
		)
		if err := rows.Scan(&zoneID, &spaceID, &name); err != nil {
			rows.Close()
			return nil, err
		}
		sp, err := u.Space(spaceID)
		if err != nil {
			rows.Close()
			return nil, err
		}
		z, err := sp.CreateZone(name, zoneID)
		if err != nil {
			rows.Close()
			return nil, err
		}
		zones[zoneID] = z
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT zone_id, start_time, end_time, shapes_json
		FROM zone_definitions ORDER BY definition_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			zoneID     space.ZoneID
			start, end sql.NullString
			shapesJSON string
		)
		if err := rows.Scan(&zoneID, &start, &end, &shapesJSON); err != nil {
			return nil, err
		}
		shapes, err := geometry.DecodeShapes(shapesJSON)
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", zoneID, err)
		}
		iv, err := decodeInterval(start, end)
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", zoneID, err)
		}
		if _, err := zones[zoneID].AddDefinition(shapes, iv.Start, iv.End); err != nil {
			return nil, err
		}
	}
	return u, rows.Err()
}
