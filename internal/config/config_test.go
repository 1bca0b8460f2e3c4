package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBPath != ".calsync/calsync.db" {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
	if cfg.Environment != EnvDevelopment {
		t.Errorf("Environment = %q, want %q", cfg.Environment, EnvDevelopment)
	}
	if cfg.DashboardPort != 8080 {
		t.Errorf("DashboardPort = %d, want 8080", cfg.DashboardPort)
	}
	if cfg.IncrementalCron != "* * * * *" {
		t.Errorf("IncrementalCron = %q, want every-minute default", cfg.IncrementalCron)
	}
	if cfg.ScheduleCron != "0 * * * *" {
		t.Errorf("ScheduleCron = %q, want hourly default", cfg.ScheduleCron)
	}
	if cfg.InternalTriggerSecret != "" {
		t.Errorf("InternalTriggerSecret = %q, want empty without env", cfg.InternalTriggerSecret)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calsync.yaml")
	content := `
db_path: /var/lib/calsync/sync.db
environment: production
dashboard_port: 9090
incremental_cron: "*/5 * * * *"
google:
  client_id: cid
  client_secret: csec
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBPath != "/var/lib/calsync/sync.db" {
		t.Errorf("DBPath = %q, want file value", cfg.DBPath)
	}
	if cfg.Environment != EnvProduction {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
	if cfg.DashboardPort != 9090 {
		t.Errorf("DashboardPort = %d, want 9090", cfg.DashboardPort)
	}
	if cfg.IncrementalCron != "*/5 * * * *" {
		t.Errorf("IncrementalCron = %q, want file value", cfg.IncrementalCron)
	}
	if cfg.Google.ClientID != "cid" || cfg.Google.ClientSecret != "csec" {
		t.Errorf("Google = %+v, want file credentials", cfg.Google)
	}
	// Unset keys keep their defaults
	if cfg.ScheduleCron != "0 * * * *" {
		t.Errorf("ScheduleCron = %q, want default when file omits it", cfg.ScheduleCron)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() succeeded with a nonexistent config file")
	}
}

func TestLoad_DeploymentEnvVars(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "env-cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-secret")
	t.Setenv("INTERNAL_TRIGGER_SECRET_KEY", "trigger-secret")
	t.Setenv("NODE_ENV", "production")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Google.ClientID != "env-cid" {
		t.Errorf("Google.ClientID = %q, want env value", cfg.Google.ClientID)
	}
	if cfg.Google.ClientSecret != "env-secret" {
		t.Errorf("Google.ClientSecret = %q, want env value", cfg.Google.ClientSecret)
	}
	if cfg.InternalTriggerSecret != "trigger-secret" {
		t.Errorf("InternalTriggerSecret = %q, want env value", cfg.InternalTriggerSecret)
	}
	if cfg.Environment != EnvProduction {
		t.Errorf("Environment = %q, want NODE_ENV value", cfg.Environment)
	}
}

func TestInternalBaseURL(t *testing.T) {
	cases := []struct {
		env  string
		want string
	}{
		{EnvProduction, "https://tuturuuu.com"},
		{EnvDevelopment, "http://localhost:3000"},
		{"", "http://localhost:3000"},
		{"staging", "http://localhost:3000"},
	}
	for _, tc := range cases {
		cfg := &Config{Environment: tc.env}
		if got := cfg.InternalBaseURL(); got != tc.want {
			t.Errorf("InternalBaseURL(%q) = %q, want %q", tc.env, got, tc.want)
		}
	}
}

func TestWatch_RequiresPath(t *testing.T) {
	if err := Watch("", func(*Config) {}, nil); err == nil {
		t.Fatal("Watch() accepted an empty path")
	}
}
