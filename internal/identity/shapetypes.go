package identity

import (
	"fmt"
	"sort"
)

// ShapeTypeID identifies a kind of body part, for instance "head".
type ShapeTypeID uint32

// ShapeType names a kind of body part.
type ShapeType struct {
	ID   ShapeTypeID
	Name string
}

// ShapeTypes is the registry of body part kinds.
type ShapeTypes struct {
	names map[ShapeTypeID]string
}

// NewShapeTypes returns an empty registry.
func NewShapeTypes() *ShapeTypes {
	return &ShapeTypes{names: make(map[ShapeTypeID]string)}
}

// Create registers name under id. An id of 0 picks the lowest free ID.
func (st *ShapeTypes) Create(name string, id ShapeTypeID) (ShapeType, error) {
	if id == 0 {
		id = 1
		for {
			if _, used := st.names[id]; !used {
				break
			}
			id++
		}
	}
	if _, used := st.names[id]; used {
		return ShapeType{}, fmt.Errorf("shape type %d: %w", id, ErrAlreadyExists)
	}
	st.names[id] = name
	return ShapeType{ID: id, Name: name}, nil
}

// Name returns the name of id.
func (st *ShapeTypes) Name(id ShapeTypeID) (string, error) {
	n, ok := st.names[id]
	if !ok {
		return "", fmt.Errorf("shape type %d: %w", id, ErrUnknownShapeType)
	}
	return n, nil
}

// Rename changes the name of id.
func (st *ShapeTypes) Rename(id ShapeTypeID, name string) error {
	if _, ok := st.names[id]; !ok {
		return fmt.Errorf("shape type %d: %w", id, ErrUnknownShapeType)
	}
	st.names[id] = name
	return nil
}

// Has reports whether id is registered.
func (st *ShapeTypes) Has(id ShapeTypeID) bool {
	_, ok := st.names[id]
	return ok
}

// List returns the registered types ordered by ID.
func (st *ShapeTypes) List() []ShapeType {
	res := make([]ShapeType, 0, len(st.names))
	for id, n := range st.names {
		res = append(res, ShapeType{ID: id, Name: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (st *ShapeTypes) delete(id ShapeTypeID) error {
	if _, ok := st.names[id]; !ok {
		return fmt.Errorf("shape type %d: %w", id, ErrUnknownShapeType)
	}
	delete(st.names, id)
	return nil
}
