package inventory

import (
	"sort"
	"time"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

const (
	dateKeyLayout   = "2006-01-02"
	dateLabelLayout = "02 Jan 2006"
)

// SortOrder orders lots by receipt number within a date group.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// DateGroup is the set of lots received on one date.
type DateGroup struct {
	Date  string       `json:"date"`
	Label string       `json:"label"`
	Lots  []models.Lot `json:"lots"`
}

// GroupByDate groups lots by exact date key, dates ascending, lots within a
// date by receipt number in the given order.
func GroupByDate(lots []models.Lot, order SortOrder) []DateGroup {
	byDate := make(map[string][]models.Lot)
	for _, lot := range lots {
		byDate[lot.Date] = append(byDate[lot.Date], lot)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	groups := make([]DateGroup, 0, len(dates))
	for _, date := range dates {
		members := byDate[date]
		sort.SliceStable(members, func(i, j int) bool {
			if order == SortDescending {
				return members[i].ReceiptNumber > members[j].ReceiptNumber
			}
			return members[i].ReceiptNumber < members[j].ReceiptNumber
		})
		groups = append(groups, DateGroup{Date: date, Label: DateLabel(date), Lots: members})
	}
	return groups
}

// DateLabel renders an ISO date key as "11 Feb 2026". Keys that do not parse
// are returned unchanged.
func DateLabel(key string) string {
	value := key
	if len(value) > len(dateKeyLayout) {
		value = value[:len(dateKeyLayout)]
	}
	parsed, err := time.Parse(dateKeyLayout, value)
	if err != nil {
		return key
	}
	return parsed.Format(dateLabelLayout)
}

// LocationValues lists the distinct location parts across a set of lots.
type LocationValues struct {
	Chambers []string `json:"chambers"`
	Floors   []string `json:"floors"`
	Rows     []string `json:"rows"`
}

// UniqueLocationValues collects non-empty chambers, floors and rows, each sorted.
func UniqueLocationValues(lots []models.Lot) LocationValues {
	chambers := make(map[string]struct{})
	floors := make(map[string]struct{})
	rows := make(map[string]struct{})
	for _, lot := range lots {
		for _, entry := range lot.Entries {
			addNonEmpty(chambers, entry.Location.Chamber)
			addNonEmpty(floors, entry.Location.Floor)
			addNonEmpty(rows, entry.Location.Row)
		}
	}
	return LocationValues{
		Chambers: sortedKeys(chambers),
		Floors:   sortedKeys(floors),
		Rows:     sortedKeys(rows),
	}
}

// LocationFilter restricts lots by location; empty fields do not constrain.
type LocationFilter struct {
	Chamber string `form:"chamber" json:"chamber"`
	Floor   string `form:"floor" json:"floor"`
	Row     string `form:"row" json:"row"`
}

// IsEmpty reports whether the filter matches everything.
func (f LocationFilter) IsEmpty() bool {
	return f.Chamber == "" && f.Floor == "" && f.Row == ""
}

// MatchesLocationFilters reports whether, for every set dimension, at least one
// of the lot's entries sits at the filtered value.
func MatchesLocationFilters(lot models.Lot, filter LocationFilter) bool {
	if filter.IsEmpty() {
		return true
	}
	return matchesDimension(lot, filter.Chamber, func(l models.Location) string { return l.Chamber }) &&
		matchesDimension(lot, filter.Floor, func(l models.Location) string { return l.Floor }) &&
		matchesDimension(lot, filter.Row, func(l models.Location) string { return l.Row })
}

// FilterLots keeps the lots matching filter.
func FilterLots(lots []models.Lot, filter LocationFilter) []models.Lot {
	if filter.IsEmpty() {
		return lots
	}
	out := make([]models.Lot, 0, len(lots))
	for _, lot := range lots {
		if MatchesLocationFilters(lot, filter) {
			out = append(out, lot)
		}
	}
	return out
}

func matchesDimension(lot models.Lot, want string, part func(models.Location) string) bool {
	if want == "" {
		return true
	}
	for _, entry := range lot.Entries {
		if part(entry.Location) == want {
			return true
		}
	}
	return false
}

func addNonEmpty(set map[string]struct{}, value string) {
	if value != "" {
		set[value] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
