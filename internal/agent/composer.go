package agent

import (
	"context"
	"strings"
	"time"

	"github.com/mereck/moltbook/internal/intent"
	"github.com/mereck/moltbook/pkg/logging"
)

const (
	// postCooldown is the minimum time between two original posts.
	postCooldown = 30 * time.Minute

	// postChance gates an eligible cycle's attempt to compose.
	postChance = 0.3
)

type postDraft struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// maybePost occasionally publishes an original post. Both guards must pass:
// the cooldown since lastPost, then the probabilistic gate. Returns the new
// last-post time on success and lastPost unchanged on any failure, so the
// next cycle is eligible to retry.
func (a *Agent) maybePost(ctx context.Context, lastPost time.Time) time.Time {
	if a.now().Sub(lastPost) < postCooldown {
		return lastPost
	}
	if a.rand.Float64() > postChance {
		return lastPost
	}
	if a.cfg.MaxPostsPerCycle < 1 {
		return lastPost
	}

	topic := a.cfg.Topics[a.rand.Intn(len(a.cfg.Topics))]
	submolt := a.cfg.Submolts[a.rand.Intn(len(a.cfg.Submolts))]

	reply, err := a.complete(ctx, composePrompt(topic, submolt))
	if err != nil {
		a.logger.WithError(err).Warn("LLM call failed during post creation")
		a.metrics.llmFailure("compose")
		return lastPost
	}

	var draft postDraft
	if !intent.Unmarshal(reply, &draft) || strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Body) == "" {
		a.logger.WithField("reply", preview(reply, 200)).Warn("Could not parse post reply")
		a.metrics.llmFailure("compose")
		return lastPost
	}

	if err := a.api.CreatePost(ctx, draft.Title, draft.Body, submolt); err != nil {
		a.metrics.action("post", err)
		a.logger.WithError(err).Warn("Failed to create post")
		return lastPost
	}
	a.metrics.action("post", nil)

	a.logger.WithFields(logging.Fields{
		"title":   preview(draft.Title, 80),
		"submolt": submolt,
	}).Info("Created post")

	return a.now()
}
