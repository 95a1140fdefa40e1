package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/pyladies-meetup/internal/config"
	"github.com/pfrederiksen/pyladies-meetup/internal/logger"
	"github.com/pfrederiksen/pyladies-meetup/internal/meetup"
	"github.com/pfrederiksen/pyladies-meetup/internal/registry"
	"github.com/pfrederiksen/pyladies-meetup/internal/storage"
)

// Failure stages reported in a Summary.
const (
	StageDiscover   = "discover"
	StageOutput     = "output"
	StageMembers    = "members"
	StageNearby     = "nearby"
	StagePUGMembers = "pug_members"
)

// ChapterSource provides the chapter registry.
type ChapterSource interface {
	Fetch(ctx context.Context) ([]registry.Chapter, error)
}

// Failure describes one unit of work that did not complete.
type Failure struct {
	Chapter string `json:"chapter"`
	Group   string `json:"group,omitempty"`
	Stage   string `json:"stage"`
	Error   string `json:"error"`
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID        string                 `json:"run_id"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at"`
	OutputDir    string                 `json:"output_dir"`
	Chapters     int                    `json:"chapters"`
	Unresolvable []string               `json:"unresolvable"`
	Resolved     int                    `json:"resolved"`
	Skipped      int                    `json:"skipped"`
	Collected    int                    `json:"collected"`
	NearbyPUGs   int                    `json:"nearby_pugs"`
	NearbyFailed int                    `json:"nearby_failed"`
	Failures     []Failure              `json:"failures,omitempty"`
	Metrics      map[string]interface{} `json:"metrics,omitempty"`
}

// Collector runs the collection pipeline.
type Collector struct {
	registry ChapterSource
	finder   *meetup.GroupFinder
	members  *meetup.MemberCollector
	nearby   *meetup.NearbyFinder
	store    *storage.Storage
	metrics  *logger.Metrics
	log      *logger.Logger
}

// New wires a Collector from configuration. Output goes to store.
func New(cfg *config.Config, store *storage.Storage) *Collector {
	metrics := logger.NewMetrics()

	fetcher := meetup.NewFetcher(cfg.Meetup.Host, cfg.Meetup.APIKey,
		meetup.WithRequestDelay(cfg.Meetup.RequestDelay),
		meetup.WithRetries(cfg.Meetup.Retries),
		meetup.WithMetrics(metrics),
	)

	classifier := meetup.NewClassifier(
		config.SplitTerms(cfg.Meetup.PUGBlacklist),
		config.SplitTerms(cfg.Meetup.PUGWhitelist),
	)

	return &Collector{
		registry: registry.NewClient(cfg.Main.RegistryURL),
		finder:   meetup.NewGroupFinder(fetcher, cfg.Meetup.ChapterDelay),
		members:  meetup.NewMemberCollector(fetcher),
		nearby: meetup.NewNearbyFinder(fetcher, classifier, meetup.NearbyOptions{
			Radius:   cfg.Meetup.NearbyRadius,
			Category: cfg.Meetup.NearbyCategory,
			PageSize: cfg.Meetup.NearbyPageSize,
		}),
		store:   store,
		metrics: metrics,
		log:     logger.Named("pyladies.meetup"),
	}
}

// Run executes one collection pass. It fails only when the registry cannot be
// read; per-chapter problems end up in the Summary. When ctx is cancelled the
// partial Summary is returned together with the context error.
func (c *Collector) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		OutputDir: c.store.Dir(),
	}

	c.log.Info("Getting PyLadies Meetup groups data", logger.Fields{"run_id": sum.RunID})

	chapters, err := c.registry.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching chapter registry: %w", err)
	}

	resolvable, unresolvable := registry.Resolve(chapters)
	sum.Chapters = len(chapters)
	sum.Unresolvable = unresolvable
	c.metrics.SetGauge("chapters.total", float64(len(chapters)))
	c.metrics.SetGauge("chapters.resolvable", float64(len(resolvable)))
	c.log.Debug("PyLadies without Meetup data", logger.Fields{
		"count":    len(unresolvable),
		"chapters": unresolvable,
	})

	groups, report := c.finder.FindAll(ctx, resolvable)
	sum.Resolved = report.Found
	sum.Skipped = len(report.Skipped)
	for _, s := range report.Skipped {
		sum.Failures = append(sum.Failures, Failure{Chapter: s.Name, Stage: StageDiscover, Error: s.Err.Error()})
	}
	c.log.Info("Found PyLadies groups", logger.Fields{"count": len(groups), "skipped": sum.Skipped})

	c.log.Info("Getting member data for nearby PUGs & PyLadies groups", nil)
	for _, g := range groups {
		if ctx.Err() != nil {
			break
		}
		if c.collectChapter(ctx, g, sum) {
			sum.Collected++
			c.metrics.IncrCounter("chapters.collected")
		}
	}

	sum.FinishedAt = time.Now().UTC()
	sum.Metrics = c.metrics.GetSnapshot()

	if err := c.store.Save(sum, filepath.Join(c.store.Dir(), storage.SummaryFile)); err != nil {
		c.log.Error("Could not write run summary", nil, err)
	}

	c.log.Info("Run finished", logger.Fields{
		"run_id":      sum.RunID,
		"collected":   sum.Collected,
		"skipped":     sum.Skipped,
		"failures":    len(sum.Failures),
		"nearby_pugs": sum.NearbyPUGs,
	})

	return sum, ctx.Err()
}

// collectChapter writes one chapter's group, members and nearby PUG rosters.
// It reports whether the chapter's own group and roster were written.
func (c *Collector) collectChapter(ctx context.Context, g meetup.Group, sum *Summary) bool {
	fail := func(stage, group string, err error) {
		c.log.Error("Chapter step failed", logger.Fields{
			"chapter": g.Name,
			"group":   group,
			"stage":   stage,
		}, err)
		sum.Failures = append(sum.Failures, Failure{Chapter: g.Name, Group: group, Stage: stage, Error: err.Error()})
	}

	dir, err := c.store.ChapterDir(g.Name)
	if err != nil {
		fail(StageOutput, "", err)
		return false
	}

	if err := c.store.Save(g.Raw, filepath.Join(dir, storage.GroupFile)); err != nil {
		fail(StageOutput, "", err)
		return false
	}

	// A failed roster does not stop the nearby groups from being collected.
	collected := true
	members, err := c.members.Members(ctx, g)
	if err != nil {
		fail(StageMembers, "", err)
		collected = false
	} else if err := c.store.Save(members, filepath.Join(dir, storage.MembersFile)); err != nil {
		fail(StageOutput, "", err)
		collected = false
	}

	pugs, err := c.nearby.Nearby(ctx, g)
	if err != nil {
		fail(StageNearby, "", err)
		return collected
	}

	for _, pug := range pugs {
		if ctx.Err() != nil {
			break
		}

		file := storage.CleanName(pug.Name) + ".json"
		if file == ".json" || file == storage.GroupFile || file == storage.MembersFile {
			sum.NearbyFailed++
			fail(StageOutput, pug.Name, fmt.Errorf("group name %q is not usable as a file name", pug.Name))
			continue
		}

		pugMembers, err := c.members.Members(ctx, pug)
		if err != nil {
			sum.NearbyFailed++
			fail(StagePUGMembers, pug.Name, err)
			continue
		}
		if err := c.store.Save(pugMembers, filepath.Join(dir, file)); err != nil {
			sum.NearbyFailed++
			fail(StageOutput, pug.Name, err)
			continue
		}
		sum.NearbyPUGs++
	}

	return collected
}
