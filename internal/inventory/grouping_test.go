package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

func lotIDs(lots []models.Lot) []string {
	ids := make([]string, 0, len(lots))
	for _, lot := range lots {
		ids = append(ids, lot.ID)
	}
	return ids
}

func TestGroupByDate(t *testing.T) {
	groups := GroupByDate(sampleLots(), SortAscending)
	require.Len(t, groups, 3)

	assert.Equal(t, "2026-02-10", groups[0].Date)
	assert.Equal(t, "10 Feb 2026", groups[0].Label)
	assert.Equal(t, []string{"lot-2", "lot-3"}, lotIDs(groups[1].Lots))
	assert.Equal(t, "11 Feb 2026", groups[1].Label)
	assert.Equal(t, []string{"lot-4", "out-1"}, lotIDs(groups[2].Lots))

	desc := GroupByDate(sampleLots(), SortDescending)
	assert.Equal(t, []string{"lot-3", "lot-2"}, lotIDs(desc[1].Lots))
}

func TestGroupByDate_ExactKeysAndFallbackLabel(t *testing.T) {
	lots := []models.Lot{
		{ID: "a", Date: "2026-02-11"},
		{ID: "b", Date: "2026-02-11T09:30:00Z"},
		{ID: "c", Date: "someday"},
	}
	groups := GroupByDate(lots, SortAscending)
	require.Len(t, groups, 3)

	assert.Equal(t, "11 Feb 2026", groups[0].Label)
	assert.Equal(t, "11 Feb 2026", groups[1].Label)
	assert.Equal(t, "someday", groups[2].Label)
}

func TestGroupByDate_Empty(t *testing.T) {
	assert.Empty(t, GroupByDate(nil, SortAscending))
}

func TestUniqueLocationValues(t *testing.T) {
	lots := append(sampleLots(), models.Lot{ID: "blank", Entries: []models.BagSizeEntry{entry("Seed", "1", "1", models.Location{})}})
	values := UniqueLocationValues(lots)

	assert.Equal(t, []string{"1", "2", "3"}, values.Chambers)
	assert.Equal(t, []string{"1", "2", "3"}, values.Floors)
	assert.Equal(t, []string{"1", "2", "4", "5", "6"}, values.Rows)
}

func TestMatchesLocationFilters(t *testing.T) {
	lots := sampleLots()
	lot3, lot2 := lots[0], lots[2]

	testCases := []struct {
		name   string
		lot    models.Lot
		filter LocationFilter
		want   bool
	}{
		{"empty filter", lot3, LocationFilter{}, true},
		{"chamber and floor", lot3, LocationFilter{Chamber: "1", Floor: "2"}, true},
		{"wrong chamber", lot3, LocationFilter{Chamber: "2"}, false},
		{"dimensions checked independently", lot2, LocationFilter{Floor: "3", Row: "5"}, true},
		{"row missing", lot2, LocationFilter{Row: "9"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchesLocationFilters(tc.lot, tc.filter))
		})
	}
}

func TestFilterLots(t *testing.T) {
	assert.Equal(t, []string{"lot-1", "out-1"}, lotIDs(FilterLots(sampleLots(), LocationFilter{Chamber: "2"})))
	assert.Len(t, FilterLots(sampleLots(), LocationFilter{}), 5)
	assert.Empty(t, FilterLots(sampleLots(), LocationFilter{Chamber: "9"}))
}
