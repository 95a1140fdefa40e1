package meetup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pfrederiksen/pyladies-meetup/internal/logger"
	"github.com/pfrederiksen/pyladies-meetup/internal/registry"
)

// DefaultChapterDelay is the pause before each chapter's group lookup, on top
// of the fetcher's own per-request spacing.
const DefaultChapterDelay = 500 * time.Millisecond

// SkippedChapter records a chapter whose group could not be resolved.
type SkippedChapter struct {
	Name string
	Err  error
}

// DiscoveryReport summarizes a FindAll pass.
type DiscoveryReport struct {
	Found   int
	Skipped []SkippedChapter
}

// GroupFinder resolves a chapter's canonical Meetup group.
type GroupFinder struct {
	source PageSource
	delay  time.Duration
	log    *logger.Logger
}

// NewGroupFinder creates a GroupFinder that pauses delay before each lookup.
func NewGroupFinder(source PageSource, delay time.Duration) *GroupFinder {
	return &GroupFinder{
		source: source,
		delay:  delay,
		log:    logger.Named("pyladies.meetup.groups"),
	}
}

// Find looks up the group for one chapter. Exactly one result across all pages
// is accepted. No result yields ErrGroupNotFound and more than one yields
// ErrAmbiguousGroup, including duplicates spread over several pages.
func (f *GroupFinder) Find(ctx context.Context, ch registry.ResolvedChapter) (Group, error) {
	params := url.Values{}
	if ch.ID != "" {
		params.Set("group_id", ch.ID)
	}
	if ch.Slug != "" {
		params.Set("group_urlname", ch.Slug)
	}

	if err := sleep(ctx, f.delay); err != nil {
		return Group{}, err
	}

	var matches []Record
	for results, err := range f.source.Pages(ctx, GroupsEndpoint, params) {
		if err != nil {
			return Group{}, fmt.Errorf("finding group for %s: %w", ch.Name, err)
		}
		matches = append(matches, results...)
		if len(matches) > 1 {
			break
		}
	}

	switch len(matches) {
	case 0:
		return Group{}, fmt.Errorf("finding group for %s: %w", ch.Name, ErrGroupNotFound)
	case 1:
		g, err := NewGroup(matches[0])
		if err != nil {
			return Group{}, fmt.Errorf("finding group for %s: %w", ch.Name, err)
		}
		return g, nil
	default:
		return Group{}, fmt.Errorf("finding group for %s: %w", ch.Name, ErrAmbiguousGroup)
	}
}

// FindAll looks up every chapter in order. Failed chapters are logged and
// skipped; only context cancellation ends the pass early.
func (f *GroupFinder) FindAll(ctx context.Context, chapters []registry.ResolvedChapter) ([]Group, DiscoveryReport) {
	var (
		groups []Group
		report DiscoveryReport
	)

	for _, ch := range chapters {
		g, err := f.Find(ctx, ch)
		if err != nil {
			if ctx.Err() != nil {
				f.log.Warn("Group discovery interrupted", logger.Fields{"chapter": ch.Name})
				break
			}

			msg := "Error finding group info"
			if errors.Is(err, ErrAmbiguousGroup) {
				msg = "Received more than one PyLadies group"
			}
			f.log.Error(msg, logger.Fields{"chapter": ch.Name}, err)
			report.Skipped = append(report.Skipped, SkippedChapter{Name: ch.Name, Err: err})
			continue
		}

		f.log.Debug("Found Meetup data", logger.Fields{
			"chapter": ch.Name,
			"group":   g.Name,
			"id":      g.ID,
		})
		groups = append(groups, g)
	}

	report.Found = len(groups)
	f.log.Debug("Group discovery finished", logger.Fields{
		"found":   report.Found,
		"skipped": len(report.Skipped),
	})

	return groups, report
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
