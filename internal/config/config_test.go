package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("SESSION_SECONDS", "")
	t.Setenv("EXPOSE_CORRECT_OPTION", "")
	cfg := FromEnv()
	if cfg.Mode != ModeOffline {
		t.Fatalf("mode: got %q", cfg.Mode)
	}
	if cfg.SessionSeconds != 900 {
		t.Fatalf("session seconds: got %d", cfg.SessionSeconds)
	}
	if !cfg.ExposeCorrectOption || !cfg.EnableLocalAuth {
		t.Fatalf("expected offline defaults, got %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("SESSION_SECONDS", "60")
	t.Setenv("GRADING_PARALLELISM", "bogus")
	t.Setenv("EXPOSE_CORRECT_OPTION", "false")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	cfg := FromEnv()
	if cfg.SessionSeconds != 60 || cfg.GradingParallelism != 1 {
		t.Fatalf("ints: %+v", cfg)
	}
	if cfg.ExposeCorrectOption || cfg.EnableLocalAuth {
		t.Fatalf("bools: %+v", cfg)
	}
	if cfg.LogMode != "production" {
		t.Fatalf("log mode: %q", cfg.LogMode)
	}
	if len(cfg.CORSOriginsOnline) != 2 || cfg.CORSOriginsOnline[1] != "https://b.example" {
		t.Fatalf("csv: %#v", cfg.CORSOriginsOnline)
	}
}

func TestLoadDotEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte("QUIZ_API_URL=http://quiz.test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUIZ_API_URL", "")
	os.Unsetenv("QUIZ_API_URL")
	cfg := Load(p)
	if cfg.QuizAPIURL != "http://quiz.test" {
		t.Fatalf("dotenv not applied: %q", cfg.QuizAPIURL)
	}
}
