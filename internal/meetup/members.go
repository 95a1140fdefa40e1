package meetup

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pfrederiksen/pyladies-meetup/internal/logger"
)

// MemberCollector pulls member rosters.
type MemberCollector struct {
	source PageSource
	log    *logger.Logger
}

// NewMemberCollector creates a MemberCollector reading from source.
func NewMemberCollector(source PageSource) *MemberCollector {
	return &MemberCollector{
		source: source,
		log:    logger.Named("pyladies.meetup.members"),
	}
}

// Members returns every member of g in page order. No deduplication is done.
// On failure the members gathered so far are returned with the error.
func (c *MemberCollector) Members(ctx context.Context, g Group) ([]Member, error) {
	c.log.Debug("Getting member data", logger.Fields{
		"group":         g.Name,
		"reported_size": g.Members,
	})

	params := url.Values{}
	params.Set("group_id", g.ID)

	records, err := Collect(c.source.Pages(ctx, MembersEndpoint, params))

	members := make([]Member, 0, len(records))
	for _, r := range records {
		members = append(members, Member(r))
	}

	if err != nil {
		return members, fmt.Errorf("getting members for %s: %w", g.Name, err)
	}

	c.log.Info("Got members", logger.Fields{
		"group":   g.Name,
		"members": len(members),
	})
	return members, nil
}
