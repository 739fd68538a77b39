package llm

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_API_URL", "")

	cfg := LoadConfig()
	if cfg.Provider != "ollama" {
		t.Fatalf("expected ollama default, got %q", cfg.Provider)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "gpt-test")
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("LLM_API_URL", "http://example.test/v1")

	cfg := LoadConfig()
	if cfg.Provider != "openai" || cfg.Model != "gpt-test" || cfg.APIKey != "secret" || cfg.APIURL != "http://example.test/v1" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestNewProvider(t *testing.T) {
	cases := []struct {
		provider string
		wantErr  bool
	}{
		{"openai", false},
		{"Anthropic", false},
		{"ollama", false},
		{"petals", true},
	}
	for _, tc := range cases {
		_, err := NewProvider(Config{Provider: tc.provider, Model: "m"})
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.provider)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.provider, err)
		}
	}
}
