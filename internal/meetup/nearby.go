package meetup

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pfrederiksen/pyladies-meetup/internal/logger"
)

const (
	DefaultNearbyRadius   = 50.0 // miles
	DefaultNearbyCategory = 34
	DefaultNearbyPageSize = 200
)

// Classifier decides from a group's name whether it is a Python user group.
// It is a keyword heuristic: a deny term anywhere in the name rejects the
// group, otherwise any allow term accepts it, otherwise it is rejected.
type Classifier struct {
	deny  []string
	allow []string
}

// NewClassifier creates a Classifier. Terms are matched case-insensitively as
// substrings; blank terms are ignored.
func NewClassifier(deny, allow []string) *Classifier {
	return &Classifier{
		deny:  normalizeTerms(deny),
		allow: normalizeTerms(allow),
	}
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// IsPUG reports whether name looks like a Python user group.
func (c *Classifier) IsPUG(name string) bool {
	name = strings.ToLower(name)
	for _, t := range c.deny {
		if strings.Contains(name, t) {
			return false
		}
	}
	for _, t := range c.allow {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}

// NearbyOptions bounds the geo query.
type NearbyOptions struct {
	Radius   float64 // miles
	Category int
	PageSize int
}

// DefaultNearbyOptions returns a 50 mile radius in the tech category, 200 per page.
func DefaultNearbyOptions() NearbyOptions {
	return NearbyOptions{
		Radius:   DefaultNearbyRadius,
		Category: DefaultNearbyCategory,
		PageSize: DefaultNearbyPageSize,
	}
}

// NearbyFinder finds Python user groups around a group.
type NearbyFinder struct {
	source     PageSource
	classifier *Classifier
	opts       NearbyOptions
	log        *logger.Logger
}

// NewNearbyFinder creates a NearbyFinder.
func NewNearbyFinder(source PageSource, classifier *Classifier, opts NearbyOptions) *NearbyFinder {
	return &NearbyFinder{
		source:     source,
		classifier: classifier,
		opts:       opts,
		log:        logger.Named("pyladies.meetup.nearby"),
	}
}

// Nearby returns the groups around g that classify as Python user groups, in
// API order. g itself is included when its name classifies. Records that are
// not valid groups are logged and skipped.
func (n *NearbyFinder) Nearby(ctx context.Context, g Group) ([]Group, error) {
	n.log.Debug("Finding nearby PUGs", logger.Fields{"group": g.Name})

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(g.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(g.Lon, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(n.opts.Radius, 'f', -1, 64))
	params.Set("category_id", strconv.Itoa(n.opts.Category))
	params.Set("page", strconv.Itoa(n.opts.PageSize))

	records, err := Collect(n.source.Pages(ctx, GroupsEndpoint, params))
	if err != nil {
		return nil, fmt.Errorf("finding groups near %s: %w", g.Name, err)
	}

	var pugs []Group
	for _, r := range records {
		candidate, err := NewGroup(r)
		if err != nil {
			n.log.Warn("Skipping malformed nearby group", logger.Fields{"group": g.Name, "reason": err.Error()})
			continue
		}
		if n.classifier.IsPUG(candidate.Name) {
			pugs = append(pugs, candidate)
		}
	}

	n.log.Debug("Found nearby PUGs", logger.Fields{
		"group":      g.Name,
		"pugs":       len(pugs),
		"candidates": len(records),
		"radius":     n.opts.Radius,
	})
	return pugs, nil
}
