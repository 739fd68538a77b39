package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestGetEnvDefault(t *testing.T) {
	if got := GetEnv("MOLTBOOK_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestGetEnvSet(t *testing.T) {
	t.Setenv("MOLTBOOK_TEST_VAR", "value")
	if got := GetEnv("MOLTBOOK_TEST_VAR", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("MOLTBOOK_TEST_INT", "42")
	if got := GetEnvInt("MOLTBOOK_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("MOLTBOOK_TEST_INT", "not-a-number")
	if got := GetEnvInt("MOLTBOOK_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default on parse failure, got %d", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("MOLTBOOK_TEST_FLOAT", "0.35")
	if got := GetEnvFloat("MOLTBOOK_TEST_FLOAT", 0.7); got != 0.35 {
		t.Fatalf("expected 0.35, got %v", got)
	}
	t.Setenv("MOLTBOOK_TEST_FLOAT", "bogus")
	if got := GetEnvFloat("MOLTBOOK_TEST_FLOAT", 0.7); got != 0.7 {
		t.Fatalf("expected default on parse failure, got %v", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("MOLTBOOK_TEST_BOOL", "true")
	if !GetEnvBool("MOLTBOOK_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("MOLTBOOK_TEST_BOOL", "junk")
	if GetEnvBool("MOLTBOOK_TEST_BOOL", false) {
		t.Fatal("expected default on parse failure")
	}
}

func TestGetLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"other": logrus.InfoLevel,
	}
	for value, want := range cases {
		t.Setenv("LOG_LEVEL", value)
		if got := GetLogLevel(); got != want {
			t.Fatalf("LOG_LEVEL=%q: expected %v, got %v", value, want, got)
		}
	}
}
