package agent

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	agentconfig "github.com/mereck/moltbook/internal/config"
	"github.com/mereck/moltbook/internal/moltbook"
	"github.com/mereck/moltbook/pkg/llm"
	"github.com/mereck/moltbook/pkg/logging"
)

func testLogger() logging.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() agentconfig.Config {
	return agentconfig.Config{
		Persona:              "test persona",
		Topics:               []string{"golang"},
		Submolts:             []string{"general"},
		CycleIntervalSeconds: 300,
		MaxCommentsPerCycle:  3,
		MaxPostsPerCycle:     1,
		VoteProbability:      1.0,
		Temperature:          0.7,
		MaxTokens:            256,
	}
}

// fakeAPI records every call and lets tests override individual methods.
type fakeAPI struct {
	mu sync.Mutex

	searchFn func(query string) ([]moltbook.Post, error)
	feedFn   func(submolt, sort string) ([]moltbook.Post, error)

	commentErr error
	upvoteErr  error
	postErr    error

	searches []string
	comments [][2]string // post ID, body
	upvotes  []string
	posts    [][3]string // title, body, submolt
}

func (f *fakeAPI) Search(ctx context.Context, query string, limit int) ([]moltbook.Post, error) {
	f.mu.Lock()
	f.searches = append(f.searches, query)
	f.mu.Unlock()
	if f.searchFn != nil {
		return f.searchFn(query)
	}
	return nil, nil
}

func (f *fakeAPI) Feed(ctx context.Context, submolt, sort string, limit int) ([]moltbook.Post, error) {
	if f.feedFn != nil {
		return f.feedFn(submolt, sort)
	}
	return nil, nil
}

func (f *fakeAPI) CreateComment(ctx context.Context, postID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, [2]string{postID, body})
	return f.commentErr
}

func (f *fakeAPI) Upvote(ctx context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upvotes = append(f.upvotes, postID)
	return f.upvoteErr
}

func (f *fakeAPI) CreatePost(ctx context.Context, title, body, submolt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, [3]string{title, body, submolt})
	return f.postErr
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches) + len(f.comments) + len(f.upvotes) + len(f.posts)
}

// fakeLLM returns a canned reply and records the prompts it saw.
type fakeLLM struct {
	reply string
	err   error

	prompts []string
}

func (f *fakeLLM) Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (string, error) {
	for _, m := range messages {
		if m.Role == "user" {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	return f.reply, f.err
}

func (f *fakeLLM) Probe(ctx context.Context) error { return nil }

// constSource feeds rand.Rand a fixed stream so probability gates are
// deterministic: 0 makes Float64 return 0, 3<<61 makes it return 0.75.
type constSource struct{ v int64 }

func (s constSource) Int63() int64 { return s.v }
func (s constSource) Seed(int64)  {}

func newTestAgent(cfg agentconfig.Config, api *fakeAPI, provider llm.Provider, src rand.Source) *Agent {
	if src == nil {
		src = constSource{0}
	}
	return New(AgentConfig{
		Config: cfg,
		API:    api,
		LLM:    provider,
		Logger: testLogger(),
		Rand:   rand.New(src),
		Now:    func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	api := &fakeAPI{}
	a := newTestAgent(testConfig(), api, &fakeLLM{reply: `{"actions": []}`}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	// Let the first cycle execute, then cancel during the 300s sleep.
	time.Sleep(100 * time.Millisecond)
	calls := api.callCount()
	if calls == 0 {
		t.Fatal("expected at least one API call from the first cycle")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if got := api.callCount(); got != calls {
		t.Errorf("API calls after cancellation: %d, want %d", got, calls)
	}
}

func TestRunCycleRecoversFromPanic(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(string) ([]moltbook.Post, error) { panic("boom") },
	}
	a := newTestAgent(testConfig(), api, &fakeLLM{}, nil)

	a.runCycle(context.Background())

	if a.cycle != 1 {
		t.Errorf("cycle = %d, want 1", a.cycle)
	}
}
