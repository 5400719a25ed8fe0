// Package geo implements the region > province > municipality > barangay
// cascade used by address entry.
package geo

import (
	"context"
	"fmt"

	"registrar/internal/lookup"
	dErrors "registrar/pkg/domain-errors"
)

// Level is a position in the fixed cascade. Lower values are ancestors.
type Level int

const (
	Region Level = iota
	Province
	Municipality
	Barangay

	levelCount = 4
)

var levelNames = [levelCount]string{"region", "province", "municipality", "barangay"}

// LookupNames are the lookup tables backing each level.
var LookupNames = [levelCount]string{"regions", "provinces", "municipalities", "barangays"}

func (l Level) String() string {
	if !l.valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) valid() bool {
	return l >= Region && l < levelCount
}

// ParseLevel maps a level name such as "province" back to its Level.
func ParseLevel(name string) (Level, error) {
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	return 0, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown level %q", name))
}

// Levels returns every level, ancestors first.
func Levels() []Level {
	return []Level{Region, Province, Municipality, Barangay}
}

// Chain is a saved selection, one id per level; zero means unset.
type Chain struct {
	RegionID       int64 `json:"region_id"`
	ProvinceID     int64 `json:"province_id"`
	MunicipalityID int64 `json:"municipality_id"`
	BarangayID     int64 `json:"barangay_id"`
}

func (c Chain) at(l Level) int64 {
	switch l {
	case Region:
		return c.RegionID
	case Province:
		return c.ProvinceID
	case Municipality:
		return c.MunicipalityID
	case Barangay:
		return c.BarangayID
	}
	return 0
}

// Catalog holds the full table for every level.
type Catalog [levelCount][]lookup.Entity

// Source is the read side of the lookup cache.
type Source interface {
	Get(ctx context.Context, name string) lookup.Result
}

// LoadCatalog reads all four tables. Any failed table fails the load.
func LoadCatalog(ctx context.Context, src Source) (Catalog, error) {
	var cat Catalog
	for _, l := range Levels() {
		res := src.Get(ctx, LookupNames[l])
		if res.Failed() {
			return Catalog{}, dErrors.Wrap(res.Err, dErrors.CodeTransport, "load "+LookupNames[l])
		}
		cat[l] = res.Entities
	}
	return cat, nil
}

// Selector is an immutable cascade state. Every mutation returns a new value.
type Selector struct {
	catalog    *Catalog
	selected   [levelCount]int64
	options    [levelCount][]lookup.Entity
	unverified [levelCount]bool
}

// NewSelector starts with nothing selected and every region on offer.
func NewSelector(cat Catalog) Selector {
	s := Selector{catalog: &cat}
	s.options[Region] = cat[Region]
	return s
}

// Select picks id at level, clears every descendant and recomputes the child
// level's options. An id of zero clears the level itself.
func (s Selector) Select(level Level, id int64) (Selector, error) {
	if !level.valid() {
		return s, dErrors.New(dErrors.CodeBadRequest, "unknown level")
	}
	if id != 0 && !contains(s.options[level], id) {
		return s, dErrors.Validation([]dErrors.FieldError{{
			Field:   level.String() + "_id",
			Message: "not available under the current " + parentName(level),
		}})
	}

	next := s
	next.selected[level] = id
	next.unverified[level] = false
	for d := level + 1; d < levelCount; d++ {
		next.selected[d] = 0
		next.unverified[d] = false
		next.options[d] = nil
	}
	if level+1 < levelCount && id != 0 {
		next.options[level+1] = lookup.Children(s.table(level+1), id)
	}
	return next, nil
}

// Restore rebuilds a selector from a saved chain. Every saved id is kept.
// The first level that does not sit under its saved parent, and every set
// level below it, is marked unverified rather than cleared. Options stop at
// the mismatch: the flagged level offers the children of its nearest verified
// ancestor and the levels below it offer nothing until the operator reselects.
func Restore(cat Catalog, chain Chain) Selector {
	s := NewSelector(cat)
	broken := false
	for _, l := range Levels() {
		id := chain.at(l)
		s.selected[l] = id
		if id == 0 {
			continue
		}
		if broken || !s.consistent(l, id) {
			broken = true
			s.unverified[l] = true
			continue
		}
		if l+1 < levelCount {
			s.options[l+1] = lookup.Children(cat[l+1], id)
		}
	}
	return s
}

func (s Selector) consistent(l Level, id int64) bool {
	if l == Region {
		return contains(s.table(Region), id)
	}
	parent := s.selected[l-1]
	for _, e := range s.table(l) {
		if e.ID == id {
			return parent != 0 && e.HasParent(parent)
		}
	}
	return false
}

// Selected returns the id chosen at level, zero when unset.
func (s Selector) Selected(level Level) int64 {
	if !level.valid() {
		return 0
	}
	return s.selected[level]
}

// Options returns the entities selectable at level.
func (s Selector) Options(level Level) []lookup.Entity {
	if !level.valid() {
		return nil
	}
	return append([]lookup.Entity(nil), s.options[level]...)
}

// Unverified reports whether the value at level came from a saved record
// whose ancestor chain no longer matches the lookup hierarchy.
func (s Selector) Unverified(level Level) bool {
	return level.valid() && s.unverified[level]
}

// Verified reports whether no level is flagged.
func (s Selector) Verified() bool {
	for _, u := range s.unverified {
		if u {
			return false
		}
	}
	return true
}

// UnverifiedLevels lists flagged levels, ancestors first.
func (s Selector) UnverifiedLevels() []Level {
	var out []Level
	for _, l := range Levels() {
		if s.unverified[l] {
			out = append(out, l)
		}
	}
	return out
}

// Chain returns the current selection.
func (s Selector) Chain() Chain {
	return Chain{
		RegionID:       s.selected[Region],
		ProvinceID:     s.selected[Province],
		MunicipalityID: s.selected[Municipality],
		BarangayID:     s.selected[Barangay],
	}
}

func (s Selector) table(l Level) []lookup.Entity {
	if s.catalog == nil {
		return nil
	}
	return s.catalog[l]
}

func parentName(l Level) string {
	if l == Region {
		return "catalog"
	}
	return (l - 1).String()
}

func contains(entities []lookup.Entity, id int64) bool {
	for _, e := range entities {
		if e.ID == id {
			return true
		}
	}
	return false
}
