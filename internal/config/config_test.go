package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  port: 9090
database:
  host: localhost
  port: 3306
  user: sparkle
  password: secret
  name: catalog
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("driver default = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.PipelineTimeout() != 30*time.Second {
		t.Errorf("timeout default = %s, want 30s", cfg.PipelineTimeout())
	}
	if cfg.Pipeline.PayloadDir != "./temp" || cfg.Pipeline.OutputDir != "./out" {
		t.Errorf("pipeline dir defaults wrong: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("apiKeyEnv default = %q", cfg.Pipeline.APIKeyEnv)
	}
}

func TestDSNBuilders(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = 3306
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "catalog"

	want := "u:p@tcp(db.internal:3306)/catalog?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.MySQLDSN(); got != want {
		t.Errorf("mysql dsn = %q, want %q", got, want)
	}

	pg := cfg.PostgresDSN()
	if pg != "host=db.internal port=3306 user=u password=p dbname=catalog sslmode=disable" {
		t.Errorf("postgres dsn = %q", pg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
