package agent

import (
	"context"
	"strings"

	"github.com/mereck/moltbook/internal/intent"
	"github.com/mereck/moltbook/internal/moltbook"
	"github.com/mereck/moltbook/pkg/logging"
)

// maxCandidates bounds the prompt: only this many posts are shown to the LLM.
const maxCandidates = 15

type action struct {
	Index   int    `json:"index"`
	Action  string `json:"action"`
	Comment string `json:"comment"`
}

type decision struct {
	Actions []action `json:"actions"`
}

// engage presents candidates to the LLM and executes its chosen actions.
// Returns the number of successful actions. Malformed or out-of-range
// entries are skipped; a failed action never aborts the batch. Every post
// touched is marked engaged exactly once, before the next is processed.
func (a *Agent) engage(ctx context.Context, posts []moltbook.Post) int {
	if len(posts) > maxCandidates {
		posts = posts[:maxCandidates]
	}

	reply, err := a.complete(ctx, engagePrompt(posts, a.cfg.MaxCommentsPerCycle))
	if err != nil {
		a.logger.WithError(err).Warn("LLM call failed during engagement")
		a.metrics.llmFailure("engage")
		return 0
	}

	var dec decision
	if !intent.Unmarshal(reply, &dec) {
		a.logger.WithField("reply", preview(reply, 200)).Warn("Could not parse engagement reply")
		a.metrics.llmFailure("engage")
		return 0
	}

	taken := 0
	for _, act := range dec.Actions {
		if ctx.Err() != nil {
			break
		}
		if act.Index < 1 || act.Index > len(posts) {
			continue
		}
		post := posts[act.Index-1]

		vote := false
		attempted := false
		succeeded := false

		if act.Action == "comment" {
			text := strings.TrimSpace(act.Comment)
			if text == "" {
				// No blank comments; the post stays un-engaged
				continue
			}
			attempted = true
			err := a.api.CreateComment(ctx, post.ID, text)
			a.metrics.action("comment", err)
			if err != nil {
				a.logger.WithError(err).WithField("post_id", post.ID).Warn("Failed to comment")
			} else {
				succeeded = true
				taken++
				a.logger.WithFields(logging.Fields{
					"post_id": post.ID,
					"comment": preview(text, 80),
				}).Info("Commented on post")
			}
			// Reinforce own comments
			vote = true
		}

		if act.Action == "upvote" {
			vote = a.rand.Float64() < a.cfg.VoteProbability
		}

		if vote {
			attempted = true
			err := a.api.Upvote(ctx, post.ID)
			a.metrics.action("upvote", err)
			if err != nil {
				a.logger.WithError(err).WithField("post_id", post.ID).Warn("Failed to upvote")
			} else {
				succeeded = true
				a.logger.WithField("post_id", post.ID).Info("Upvoted post")
				if act.Action == "upvote" {
					taken++
				}
			}
		}

		if !attempted || succeeded || a.cfg.ShouldEngageOnFailure() {
			a.markEngaged(post.ID)
		}
	}

	return taken
}
