package geo

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/lookup"
	dErrors "registrar/pkg/domain-errors"
)

func under(parent int64, id int64, label string) lookup.Entity {
	return lookup.Entity{ID: id, Label: label, ParentID: &parent}
}

// Two regions, each with provinces, municipalities and barangays.
func testCatalog() Catalog {
	return Catalog{
		Region: {
			{ID: 1, Label: "NCR"},
			{ID: 7, Label: "Central Visayas"},
		},
		Province: {
			under(1, 10, "Metro Manila"),
			under(7, 70, "Cebu"),
			under(7, 71, "Bohol"),
		},
		Municipality: {
			under(10, 100, "Quezon City"),
			under(10, 101, "Manila"),
			under(70, 700, "Cebu City"),
			under(71, 710, "Tagbilaran"),
		},
		Barangay: {
			under(100, 1000, "Batasan Hills"),
			under(101, 1010, "Tondo"),
			under(700, 7000, "Lahug"),
		},
	}
}

func mustSelect(t *testing.T, s Selector, l Level, id int64) Selector {
	t.Helper()
	next, err := s.Select(l, id)
	require.NoError(t, err)
	return next
}

func TestSelectCascade(t *testing.T) {
	s := NewSelector(testCatalog())
	require.Len(t, s.Options(Region), 2)
	assert.Empty(t, s.Options(Province))

	s = mustSelect(t, s, Region, 7)
	assert.ElementsMatch(t, []int64{70, 71}, ids(s.Options(Province)))

	s = mustSelect(t, s, Province, 70)
	s = mustSelect(t, s, Municipality, 700)
	s = mustSelect(t, s, Barangay, 7000)
	assert.Equal(t, Chain{RegionID: 7, ProvinceID: 70, MunicipalityID: 700, BarangayID: 7000}, s.Chain())

	t.Run("changing the region clears every descendant", func(t *testing.T) {
		changed := mustSelect(t, s, Region, 1)
		assert.Equal(t, Chain{RegionID: 1}, changed.Chain())
		assert.Equal(t, []int64{10}, ids(changed.Options(Province)))
		assert.Empty(t, changed.Options(Municipality))
		assert.Empty(t, changed.Options(Barangay))
	})

	t.Run("changing the province keeps the region", func(t *testing.T) {
		changed := mustSelect(t, s, Province, 71)
		assert.Equal(t, Chain{RegionID: 7, ProvinceID: 71}, changed.Chain())
		assert.Equal(t, []int64{710}, ids(changed.Options(Municipality)))
	})

	t.Run("the original value is untouched", func(t *testing.T) {
		assert.Equal(t, int64(7000), s.Selected(Barangay))
	})
}

func TestSelectRejectsForeignChild(t *testing.T) {
	s := mustSelect(t, NewSelector(testCatalog()), Region, 1)

	_, err := s.Select(Province, 70)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.Select(Level(9), 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestSelectZeroClearsLevel(t *testing.T) {
	s := mustSelect(t, NewSelector(testCatalog()), Region, 1)
	s = mustSelect(t, s, Province, 10)

	cleared := mustSelect(t, s, Province, 0)
	assert.Equal(t, Chain{RegionID: 1}, cleared.Chain())
	assert.Empty(t, cleared.Options(Municipality))
	assert.Len(t, cleared.Options(Province), 1)
}

func TestRegionSelectionAlwaysClearsDescendants(t *testing.T) {
	cat := testCatalog()
	rng := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		s := NewSelector(cat)
		for _, l := range Levels() {
			opts := s.Options(l)
			if len(opts) == 0 {
				break
			}
			s = mustSelect(t, s, l, opts[rng.IntN(len(opts))].ID)
		}

		region := cat[Region][rng.IntN(len(cat[Region]))].ID
		after := mustSelect(t, s, Region, region)
		assert.Zero(t, after.Selected(Province))
		assert.Zero(t, after.Selected(Municipality))
		assert.Zero(t, after.Selected(Barangay))

		if provinces := s.Options(Province); len(provinces) > 0 {
			p := provinces[rng.IntN(len(provinces))].ID
			afterProvince := mustSelect(t, s, Province, p)
			assert.Equal(t, s.Selected(Region), afterProvince.Selected(Region))
		}
	}
}

func TestRestore(t *testing.T) {
	cat := testCatalog()

	t.Run("consistent chain is verified", func(t *testing.T) {
		s := Restore(cat, Chain{RegionID: 1, ProvinceID: 10, MunicipalityID: 101, BarangayID: 1010})
		assert.True(t, s.Verified())
		assert.Equal(t, []int64{100, 101}, ids(s.Options(Municipality)))
	})

	t.Run("mismatch flags its level and everything below", func(t *testing.T) {
		// Cebu City is not under Metro Manila.
		s := Restore(cat, Chain{RegionID: 1, ProvinceID: 10, MunicipalityID: 700, BarangayID: 7000})

		assert.Equal(t, int64(700), s.Selected(Municipality))
		assert.Equal(t, int64(7000), s.Selected(Barangay))
		assert.True(t, s.Unverified(Municipality))
		assert.True(t, s.Unverified(Barangay), "barangay hangs off an unverified municipality")
		assert.Equal(t, []Level{Municipality, Barangay}, s.UnverifiedLevels())
		assert.False(t, s.Verified())
	})

	t.Run("options come from the nearest verified ancestor", func(t *testing.T) {
		s := Restore(cat, Chain{RegionID: 1, ProvinceID: 10, MunicipalityID: 700, BarangayID: 7000})

		assert.Equal(t, []int64{100, 101}, ids(s.Options(Municipality)))
		assert.Empty(t, s.Options(Barangay))
	})

	t.Run("unknown ids and gaps are flagged", func(t *testing.T) {
		s := Restore(cat, Chain{RegionID: 99, BarangayID: 1000})
		assert.True(t, s.Unverified(Region))
		assert.True(t, s.Unverified(Barangay))
	})

	t.Run("reselecting an ancestor clears flags", func(t *testing.T) {
		s := Restore(cat, Chain{RegionID: 1, ProvinceID: 70})
		require.True(t, s.Unverified(Province))

		s = mustSelect(t, s, Region, 7)
		assert.True(t, s.Verified())
		assert.Zero(t, s.Selected(Province))
	})
}

func TestParseLevel(t *testing.T) {
	for _, l := range Levels() {
		got, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}

	_, err := ParseLevel("sitio")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

type stubSource map[string]lookup.Result

func (s stubSource) Get(_ context.Context, name string) lookup.Result {
	return s[name]
}

func TestLoadCatalog(t *testing.T) {
	cat := testCatalog()
	src := stubSource{}
	for _, l := range Levels() {
		src[LookupNames[l]] = lookup.Result{Entities: cat[l]}
	}

	loaded, err := LoadCatalog(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, cat, loaded)

	src["barangays"] = lookup.Result{Err: errors.New("timeout")}
	_, err = LoadCatalog(context.Background(), src)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
}

func ids(entities []lookup.Entity) []int64 {
	out := make([]int64, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}
