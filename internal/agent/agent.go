// Package agent drives the autonomous moltbook loop: discover candidate
// posts, ask the LLM which to engage with, execute its chosen actions, and
// occasionally publish an original post. The loop runs until the context is
// cancelled.
package agent

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	agentconfig "github.com/mereck/moltbook/internal/config"
	"github.com/mereck/moltbook/internal/moltbook"
	"github.com/mereck/moltbook/pkg/llm"
	"github.com/mereck/moltbook/pkg/logging"
)

// API is the slice of the moltbook client the agent consumes.
type API interface {
	Search(ctx context.Context, query string, limit int) ([]moltbook.Post, error)
	Feed(ctx context.Context, submolt, sort string, limit int) ([]moltbook.Post, error)
	CreateComment(ctx context.Context, postID, body string) error
	Upvote(ctx context.Context, postID string) error
	CreatePost(ctx context.Context, title, body, submolt string) error
}

const llmTimeout = 120 * time.Second

type AgentConfig struct {
	Config  agentconfig.Config
	API     API
	LLM     llm.Provider
	Logger  logging.Logger
	Metrics *Metrics

	// Rand and Now are injectable for tests; defaults are used when nil.
	Rand *rand.Rand
	Now  func() time.Time
}

type Agent struct {
	cfg     agentconfig.Config
	api     API
	llm     llm.Provider
	logger  logging.Logger
	metrics *Metrics
	rand    *rand.Rand
	now     func() time.Time

	engaged  map[string]struct{}
	lastPost time.Time
	cycle    int
}

func New(cfg AgentConfig) *Agent {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Agent{
		cfg:     cfg.Config,
		api:     cfg.API,
		llm:     cfg.LLM,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		rand:    rng,
		now:     now,
		engaged: make(map[string]struct{}),
	}
}

// Run executes cycles until ctx is cancelled. The between-cycle sleep
// selects on ctx, so shutdown interrupts it immediately.
func (a *Agent) Run(ctx context.Context) {
	a.logger.WithFields(logging.Fields{
		"interval": a.cfg.CycleInterval().String(),
		"topics":   a.cfg.Topics,
		"submolts": a.cfg.Submolts,
	}).Info("Starting autonomous loop")

	for ctx.Err() == nil {
		a.runCycle(ctx)

		select {
		case <-ctx.Done():
		case <-time.After(a.cfg.CycleInterval()):
		}
	}

	a.logger.WithField("cycles", a.cycle).Info("Shut down gracefully")
}

func (a *Agent) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.WithField("panic", fmt.Sprint(r)).Error("Cycle panic")
		}
	}()

	a.cycle++
	a.logger.WithField("cycle", a.cycle).Info("Cycle start")

	posts := a.discover(ctx)
	a.metrics.candidatesFound(len(posts))
	a.logger.WithField("candidates", len(posts)).Info("Discovery complete")

	if len(posts) > 0 && ctx.Err() == nil {
		taken := a.engage(ctx, posts)
		a.logger.WithField("actions", taken).Info("Engagement complete")
	}

	if ctx.Err() == nil {
		a.lastPost = a.maybePost(ctx, a.lastPost)
	}

	a.metrics.cycleDone()
}

// complete sends one chat completion with the agent's persona as the system
// prompt and the configured sampling parameters.
func (a *Agent) complete(ctx context.Context, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	return a.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt(a.cfg)},
		{Role: "user", Content: userPrompt},
	}, &llm.Options{
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
}

// Engaged reports whether a post was already acted on this process lifetime.
func (a *Agent) Engaged(postID string) bool {
	_, ok := a.engaged[postID]
	return ok
}

func (a *Agent) markEngaged(postID string) {
	a.engaged[postID] = struct{}{}
}
