package growth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/pyladies-meetup/internal/logger"
	"github.com/pfrederiksen/pyladies-meetup/internal/meetup"
	"github.com/pfrederiksen/pyladies-meetup/internal/storage"
)

const (
	KindPyLadies = "pyladies"
	KindPUG      = "pug"

	monthLayout = "2006-01"
)

// MonthCount is the number of members who joined in one month.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Series is the join history of one group.
type Series struct {
	Name    string       `json:"name"`
	Kind    string       `json:"kind"`
	Total   int          `json:"total"`
	Undated int          `json:"undated"`
	Months  []MonthCount `json:"months"`
}

// Report is the growth history of one chapter and its nearby groups.
type Report struct {
	Chapter string     `json:"chapter"`
	Created *time.Time `json:"created,omitempty"`
	Series  []Series   `json:"series"`
}

// Buckets counts members by join month, in ascending month order. Members
// without a usable join date are returned as undated.
func Buckets(members []meetup.Member) (months []MonthCount, undated int) {
	counts := make(map[string]int)
	for _, m := range members {
		joined, ok := m.Joined()
		if !ok {
			undated++
			continue
		}
		counts[joined.Format(monthLayout)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	months = make([]MonthCount, 0, len(keys))
	for _, k := range keys {
		months = append(months, MonthCount{Month: k, Count: counts[k]})
	}
	return months, undated
}

// NewSeries builds the series for one group's members.
func NewSeries(name, kind string, members []meetup.Member) Series {
	months, undated := Buckets(members)
	return Series{
		Name:    name,
		Kind:    kind,
		Total:   len(members),
		Undated: undated,
		Months:  months,
	}
}

// LoadChapter reads a chapter directory. The PyLadies series comes first,
// followed by nearby groups sorted by name. The copy of the chapter's own group
// among the nearby files is not reported twice; it stands in for the roster
// when pyladies_members.json is missing. Unreadable group files are logged and
// skipped.
func LoadChapter(dir string) (*Report, error) {
	report := &Report{Chapter: filepath.Base(dir)}

	var group meetup.Record
	if err := storage.Load(filepath.Join(dir, storage.GroupFile), &group); err != nil {
		return nil, fmt.Errorf("loading chapter %s: %w", report.Chapter, err)
	}
	if g, err := meetup.NewGroup(group); err == nil && !g.Created.IsZero() {
		created := g.Created
		report.Created = &created
	}

	var members []meetup.Member
	haveRoster := true
	if err := storage.Load(filepath.Join(dir, storage.MembersFile), &members); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading chapter %s: %w", report.Chapter, err)
		}
		haveRoster = false
	}
	report.Series = append(report.Series, NewSeries(report.Chapter, KindPyLadies, members))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing chapter %s: %w", report.Chapter, err)
	}

	// The chapter's own group usually classifies as a nearby PUG too and is
	// written under its cleaned name next to the other groups.
	own := report.Chapter + ".json"
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || name == storage.GroupFile || name == storage.MembersFile {
			continue
		}

		var pugMembers []meetup.Member
		if err := storage.Load(filepath.Join(dir, name), &pugMembers); err != nil {
			logger.Warn("Skipping unreadable group file", logger.Fields{
				"chapter": report.Chapter,
				"file":    name,
				"reason":  err.Error(),
			})
			continue
		}

		if name == own {
			if !haveRoster {
				report.Series[0] = NewSeries(report.Chapter, KindPyLadies, pugMembers)
			}
			continue
		}
		report.Series = append(report.Series, NewSeries(strings.TrimSuffix(name, ".json"), KindPUG, pugMembers))
	}

	return report, nil
}

// LoadAll reads every chapter in the output directory, or only the named one
// (matched after name cleaning) when chapter is not empty.
func LoadAll(s *storage.Storage, chapter string) ([]*Report, error) {
	chapters, err := s.ListChapters()
	if err != nil {
		return nil, err
	}

	want := storage.CleanName(chapter)
	var reports []*Report
	for _, name := range chapters {
		if want != "" && !strings.EqualFold(name, want) {
			continue
		}
		r, err := LoadChapter(filepath.Join(s.Dir(), name))
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}

	if want != "" && len(reports) == 0 {
		return nil, fmt.Errorf("chapter not found: %s", chapter)
	}
	return reports, nil
}

// Months returns every month that appears in any series, ascending.
func (r *Report) Months() []string {
	seen := make(map[string]bool)
	for _, s := range r.Series {
		for _, m := range s.Months {
			seen[m.Month] = true
		}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// Count returns the joins for a month, or 0.
func (s Series) Count(month string) int {
	for _, m := range s.Months {
		if m.Month == month {
			return m.Count
		}
	}
	return 0
}
