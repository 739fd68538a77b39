package agent

import (
	"context"

	"github.com/mereck/moltbook/internal/moltbook"
	"github.com/mereck/moltbook/pkg/logging"
)

const (
	searchLimit = 5
	feedLimit   = 10
)

// feedSorts is the fixed set of feed orderings scanned each cycle.
var feedSorts = []string{"hot", "new"}

// discover gathers candidate posts: a keyword search per topic, then hot and
// new feeds per submolt. Results are deduplicated by ID, first-seen wins, and
// anything already engaged is excluded. Returns what it has collected so far
// if ctx is cancelled mid-scan. One failed query does not abort the rest.
func (a *Agent) discover(ctx context.Context) []moltbook.Post {
	var posts []moltbook.Post
	seen := make(map[string]struct{})

	collect := func(batch []moltbook.Post) {
		for _, post := range batch {
			if post.ID == "" {
				continue
			}
			if _, dup := seen[post.ID]; dup {
				continue
			}
			if a.Engaged(post.ID) {
				continue
			}
			seen[post.ID] = struct{}{}
			posts = append(posts, post)
		}
	}

	for _, topic := range a.cfg.Topics {
		if ctx.Err() != nil {
			return posts
		}
		results, err := a.api.Search(ctx, topic, searchLimit)
		if err != nil {
			a.logger.WithError(err).WithField("topic", topic).Warn("Search failed")
			continue
		}
		collect(results)
	}

	for _, sort := range feedSorts {
		for _, submolt := range a.cfg.Submolts {
			if ctx.Err() != nil {
				return posts
			}
			results, err := a.api.Feed(ctx, submolt, sort, feedLimit)
			if err != nil {
				a.logger.WithError(err).WithFields(logging.Fields{
					"submolt": submolt,
					"sort":    sort,
				}).Warn("Feed query failed")
				continue
			}
			collect(results)
		}
	}

	return posts
}
