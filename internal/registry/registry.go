// Package registry reads the PyLadies chapter registry and decides which
// chapters can be looked up on Meetup.
//
// The registry is the community-maintained config.yml in the pyladies/pyladies
// GitHub repository. Each chapter may carry a numeric Meetup group id and/or a
// Meetup URL name ("slug"). Resolve splits chapters into those that can be
// looked up and those that cannot.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"
)

const (
	UserAgent = "pyladies-meetup/1.0 (github.com/pfrederiksen/pyladies-meetup)"
	Timeout   = 30 * time.Second
)

// Chapter is a single chapter entry from the registry.
type Chapter struct {
	Name       string `yaml:"name"`
	MeetupID   string `yaml:"meetup_id"`
	MeetupSlug string `yaml:"meetup"`
}

// ResolvedChapter is a chapter with at least one Meetup identifier.
type ResolvedChapter struct {
	Name string
	ID   string
	Slug string
}

type document struct {
	Chapters []Chapter `yaml:"chapters"`
}

// Parse decodes a registry document.
func Parse(data []byte) ([]Chapter, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	return doc.Chapters, nil
}

// Resolve partitions chapters into resolvable and unresolvable sets. A chapter
// is resolvable when it has a Meetup id or a non-blank slug. Slugs are
// normalized by removing all whitespace ("Pylad ies ATX" becomes "PyladiesATX").
// Every chapter lands in exactly one of the two results, in registry order.
func Resolve(chapters []Chapter) (resolvable []ResolvedChapter, unresolvable []string) {
	for _, ch := range chapters {
		id := strings.TrimSpace(ch.MeetupID)
		slug := NormalizeSlug(ch.MeetupSlug)
		if id == "" && slug == "" {
			unresolvable = append(unresolvable, ch.Name)
			continue
		}
		resolvable = append(resolvable, ResolvedChapter{
			Name: ch.Name,
			ID:   id,
			Slug: slug,
		})
	}
	return resolvable, unresolvable
}

// NormalizeSlug joins whitespace-separated tokens into one identifier.
func NormalizeSlug(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Client fetches the registry document over HTTP.
type Client struct {
	http *resty.Client
	url  string
}

// NewClient creates a registry client for the given document URL.
func NewClient(url string) *Client {
	client := resty.New()
	client.SetTimeout(Timeout)
	client.SetHeader("User-Agent", UserAgent)

	return &Client{
		http: client,
		url:  url,
	}
}

// Fetch downloads and parses the registry.
func (c *Client) Fetch(ctx context.Context) ([]Chapter, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetching registry: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetching registry: unexpected status code: %d", resp.StatusCode())
	}

	return Parse(resp.Body())
}
