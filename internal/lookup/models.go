package lookup

import (
	"time"
)

// Entity is one read-only reference row. ParentID is set for hierarchical
// tables (provinces under regions, and so on).
type Entity struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// HasParent reports whether the row sits under parentID.
func (e Entity) HasParent(parentID int64) bool {
	return e.ParentID != nil && *e.ParentID == parentID
}

// Result is what callers get back from the cache. A failed fetch yields no
// entities and a non-nil Err; nothing about the failure is cached.
type Result struct {
	Entities  []Entity
	Err       error
	FetchedAt time.Time
}

// Failed reports whether the lookup could not be loaded.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Label returns the display label for id and whether it was found.
func (r Result) Label(id int64) (string, bool) {
	for _, e := range r.Entities {
		if e.ID == id {
			return e.Label, true
		}
	}
	return "", false
}

// Children returns rows whose parent is parentID.
func Children(entities []Entity, parentID int64) []Entity {
	out := make([]Entity, 0)
	for _, e := range entities {
		if e.HasParent(parentID) {
			out = append(out, e)
		}
	}
	return out
}

func copyEntities(in []Entity) []Entity {
	if in == nil {
		return nil
	}
	out := make([]Entity, len(in))
	for i, e := range in {
		if e.ParentID != nil {
			p := *e.ParentID
			e.ParentID = &p
		}
		out[i] = e
	}
	return out
}
