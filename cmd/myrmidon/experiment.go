package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/space"
	"github.com/banshee-data/myrmidon/internal/store"
)

// experimentFile is the document read by the import command. Times are
// RFC 3339 strings; a missing or infinite bound is unbounded.
type experimentFile struct {
	ShapeTypes []shapeTypeFile `json:"shape_types"`
	Ants       []antFile       `json:"ants"`
	Spaces     []spaceFile     `json:"spaces"`
}

type shapeTypeFile struct {
	ID   identity.ShapeTypeID `json:"id"`
	Name string               `json:"name"`
}

type antFile struct {
	ID              identity.AntID          `json:"id"`
	Capsules        []identity.TypedCapsule `json:"capsules"`
	Identifications []identificationFile    `json:"identifications"`
}

type identificationFile struct {
	Tag   identity.TagID `json:"tag"`
	Start *chrono.Time   `json:"start"`
	End   *chrono.Time   `json:"end"`
	// Pose is the ant center and angle in the tag frame.
	Pose    *poseFile `json:"pose"`
	TagSize float64   `json:"tag_size"`
}

type poseFile struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

type spaceFile struct {
	ID    space.SpaceID `json:"id"`
	Name  string        `json:"name"`
	Zones []zoneFile    `json:"zones"`
}

type zoneFile struct {
	ID          space.ZoneID     `json:"id"`
	Name        string           `json:"name"`
	Definitions []definitionFile `json:"definitions"`
}

type definitionFile struct {
	Start  *chrono.Time    `json:"start"`
	End    *chrono.Time    `json:"end"`
	Shapes geometry.Shapes `json:"shapes"`
}

func bound(t *chrono.Time) *chrono.Time {
	if t == nil || t.IsInfinite() {
		return nil
	}
	return t
}

func decodeExperiment(r io.Reader) (*experimentFile, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f experimentFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode experiment: %w", err)
	}
	return &f, nil
}

// build checks the document against the registry invariants.
func (f *experimentFile) build() (*identity.Identifier, *space.Universe, error) {
	id := identity.NewIdentifier()
	for _, st := range f.ShapeTypes {
		if _, err := id.ShapeTypes().Create(st.Name, st.ID); err != nil {
			return nil, nil, err
		}
	}
	for _, af := range f.Ants {
		a, err := id.CreateAnt(af.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range af.Capsules {
			if err := a.AddCapsule(c.Type, c.Capsule); err != nil {
				return nil, nil, err
			}
		}
		for _, idf := range af.Identifications {
			ident, err := id.AddIdentification(a.ID(), idf.Tag, bound(idf.Start), bound(idf.End))
			if err != nil {
				return nil, nil, err
			}
			if idf.Pose != nil {
				ident.SetUserDefinedAntPose(geometry.Vec{X: idf.Pose.X, Y: idf.Pose.Y}, idf.Pose.Angle)
			}
			if err := ident.SetTagSize(idf.TagSize); err != nil {
				return nil, nil, err
			}
		}
	}

	u := space.NewUniverse()
	for _, sf := range f.Spaces {
		sp, err := u.CreateSpace(sf.Name, sf.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, zf := range sf.Zones {
			z, err := sp.CreateZone(zf.Name, zf.ID)
			if err != nil {
				return nil, nil, err
			}
			for _, df := range zf.Definitions {
				if _, err := z.AddDefinition(df.Shapes, bound(df.Start), bound(df.End)); err != nil {
					return nil, nil, fmt.Errorf("zone %q: %w", zf.Name, err)
				}
			}
		}
	}
	return id, u, nil
}

func handleImport(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("import")
	path := fs.String("experiment", "", "Experiment JSON file (required, - for stdin)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *path == "" {
		fmt.Fprintln(os.Stderr, "Error: -experiment is required")
		fs.Usage()
		return errUsage
	}

	r := e.stdin
	if *path != "-" {
		f, err := os.Open(*path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	doc, err := decodeExperiment(r)
	if err != nil {
		return err
	}
	id, u, err := doc.build()
	if err != nil {
		return err
	}

	db, err := e.openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	es := store.NewExperimentStore(db)
	if err := es.SaveIdentifier(ctx, id); err != nil {
		return err
	}
	if err := es.SaveUniverse(ctx, u); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "imported %d ants, %d tags, %d spaces\n", len(id.Ants()), len(id.Tags()), len(u.Spaces()))
	return nil
}
