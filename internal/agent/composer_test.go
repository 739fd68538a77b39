package agent

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMaybePostHonorsCooldown(t *testing.T) {
	provider := &fakeLLM{reply: `{"title": "t", "body": "b"}`}
	api := &fakeAPI{}
	a := newTestAgent(testConfig(), api, provider, nil)

	last := a.now().Add(-10 * time.Minute)
	got := a.maybePost(context.Background(), last)

	if !got.Equal(last) {
		t.Errorf("lastPost = %v, want unchanged %v", got, last)
	}
	if len(provider.prompts) != 0 {
		t.Error("no LLM call expected inside the cooldown window")
	}
	if len(api.posts) != 0 {
		t.Errorf("posts = %v, want none", api.posts)
	}
}

func TestMaybePostPublishes(t *testing.T) {
	cfg := testConfig()
	cfg.Submolts = []string{"ponder"}
	provider := &fakeLLM{reply: "```json\n{\"title\": \"On compilers\", \"body\": \"Some thoughts.\"}\n```"}
	api := &fakeAPI{}
	a := newTestAgent(cfg, api, provider, nil)

	last := a.now().Add(-time.Hour)
	got := a.maybePost(context.Background(), last)

	if !got.Equal(a.now()) {
		t.Errorf("lastPost = %v, want %v", got, a.now())
	}
	if len(api.posts) != 1 {
		t.Fatalf("posts = %v, want one", api.posts)
	}
	if api.posts[0] != [3]string{"On compilers", "Some thoughts.", "ponder"} {
		t.Errorf("post = %v", api.posts[0])
	}
}

func TestMaybePostProbabilityGate(t *testing.T) {
	provider := &fakeLLM{reply: `{"title": "t", "body": "b"}`}
	api := &fakeAPI{}
	// 3<<61 drives Float64 to 0.75, above the 0.3 posting chance.
	a := newTestAgent(testConfig(), api, provider, constSource{3 << 61})

	last := a.now().Add(-time.Hour)
	if got := a.maybePost(context.Background(), last); !got.Equal(last) {
		t.Errorf("lastPost = %v, want unchanged %v", got, last)
	}
	if len(api.posts) != 0 {
		t.Errorf("posts = %v, want none", api.posts)
	}
}

func TestMaybePostDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPostsPerCycle = 0
	api := &fakeAPI{}
	a := newTestAgent(cfg, api, &fakeLLM{reply: `{"title": "t", "body": "b"}`}, nil)

	last := a.now().Add(-time.Hour)
	if got := a.maybePost(context.Background(), last); !got.Equal(last) {
		t.Errorf("lastPost = %v, want unchanged %v", got, last)
	}
	if len(api.posts) != 0 {
		t.Errorf("posts = %v, want none", api.posts)
	}
}

func TestMaybePostRejectsBadDraft(t *testing.T) {
	for name, reply := range map[string]string{
		"prose":       "let me think about that",
		"empty title": `{"title": "  ", "body": "b"}`,
		"empty body":  `{"title": "t", "body": ""}`,
	} {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{}
			a := newTestAgent(testConfig(), api, &fakeLLM{reply: reply}, nil)

			last := a.now().Add(-time.Hour)
			if got := a.maybePost(context.Background(), last); !got.Equal(last) {
				t.Errorf("lastPost = %v, want unchanged %v", got, last)
			}
			if len(api.posts) != 0 {
				t.Errorf("posts = %v, want none", api.posts)
			}
		})
	}
}

func TestMaybePostFailureKeepsTimestamp(t *testing.T) {
	api := &fakeAPI{postErr: errors.New("500")}
	a := newTestAgent(testConfig(), api, &fakeLLM{reply: `{"title": "t", "body": "b"}`}, nil)

	last := a.now().Add(-time.Hour)
	if got := a.maybePost(context.Background(), last); !got.Equal(last) {
		t.Errorf("lastPost = %v, want unchanged %v", got, last)
	}
	if len(api.posts) != 1 {
		t.Fatalf("expected exactly one create attempt, got %v", api.posts)
	}
}
