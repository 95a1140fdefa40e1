package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/pyladies-meetup/internal/growth"
)

// SortOrder represents the available chapter orderings
type SortOrder string

const (
	SortByName    SortOrder = "name"
	SortByMembers SortOrder = "members"
)

// sortReports sorts growth reports based on the specified sort order
func sortReports(reports []*growth.Report, order SortOrder) {
	switch order {
	case SortByName:
		sort.SliceStable(reports, func(i, j int) bool {
			return strings.ToLower(reports[i].Chapter) < strings.ToLower(reports[j].Chapter)
		})
	case SortByMembers:
		sort.SliceStable(reports, func(i, j int) bool {
			mi, mj := chapterMembers(reports[i]), chapterMembers(reports[j])
			if mi != mj {
				return mi > mj
			}
			// Equal sizes fall back to name order
			return strings.ToLower(reports[i].Chapter) < strings.ToLower(reports[j].Chapter)
		})
	}
}

// chapterMembers returns the size of the chapter's own PyLadies roster
func chapterMembers(r *growth.Report) int {
	for _, s := range r.Series {
		if s.Kind == growth.KindPyLadies {
			return s.Total
		}
	}
	return 0
}
