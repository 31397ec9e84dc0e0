// Package collision detects matrix ID collisions while a blob is being
// encoded. IDs are derived from names by hashing, so two distinct names
// can map to the same ID; when that happens the blob must embed the name
// payload so readers can disambiguate.
package collision

import (
	"github.com/s4ayub/rowquant/errs"
)

// Tracker records matrix names and their hashed IDs during encoding.
// It keeps the names in insertion order for the blob name payload.
type Tracker struct {
	names        map[uint64]string
	orderedNames []string
	hasCollision bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names:        make(map[uint64]string),
		orderedNames: make([]string, 0),
	}
}

// TrackMatrixID records an ID supplied directly by the caller.
// A repeated ID is an error: without names there is no way to tell a
// collision from a duplicate, and neither can be encoded.
func (t *Tracker) TrackMatrixID(id uint64) error {
	if _, exists := t.names[id]; exists {
		return errs.ErrHashCollision
	}

	t.names[id] = ""

	return nil
}

// TrackMatrix records a named matrix and its hashed ID.
//
// A duplicate name returns ErrMatrixAlreadyAdded. Two different names
// hashing to the same ID is not an error; the collision flag is set and
// the encoder embeds the name payload instead.
func (t *Tracker) TrackMatrix(name string, id uint64) error {
	if name == "" {
		return errs.ErrInvalidMatrixName
	}

	if existingName, exists := t.names[id]; exists {
		if existingName == name {
			return errs.ErrMatrixAlreadyAdded
		}
		t.hasCollision = true
	}

	t.names[id] = name
	t.orderedNames = append(t.orderedNames, name)

	return nil
}

// HasCollision reports whether any two tracked names hashed to the same ID.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// MatrixNames returns the tracked names in the order they were added.
func (t *Tracker) MatrixNames() []string {
	return t.orderedNames
}

// Count returns the number of tracked named matrices. Matrices tracked by
// raw ID carry no name and are not counted here.
func (t *Tracker) Count() int {
	return len(t.orderedNames)
}
