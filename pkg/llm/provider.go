package llm

import (
	"context"
	"net/http"
	"time"
)

// Provider is a chat-completion backend. Complete issues a single
// non-streaming request and returns the assistant's full reply text.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts *Options) (string, error)

	// Probe checks that the backend is reachable. Any HTTP response counts;
	// only transport-level failures are errors.
	Probe(ctx context.Context) error
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries per-call sampling parameters. Zero values mean
// provider defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
}

const probeTimeout = 3 * time.Second

// probeURL issues a GET against rawURL and reports transport failures.
// Status codes are ignored: a 404 from the health root still proves the
// backend is up.
func probeURL(ctx context.Context, client *http.Client, rawURL string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
