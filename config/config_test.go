package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend:8000/api")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("DRAFTS_TTL", "2h")
	t.Setenv("CONTENT_STRICT_SECTIONS", "true")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load("config-missing-in-tests")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.BaseURL != "http://backend:8000/api" || !cfg.Backend.MethodOverride {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("brokers = %q", cfg.Kafka.Brokers)
	}
	if cfg.Drafts.TTL != 2*time.Hour {
		t.Errorf("drafts ttl = %v", cfg.Drafts.TTL)
	}
	if !cfg.Content.StrictSections {
		t.Error("strict sections not enabled")
	}
	if len(cfg.Content.Resources) != 1 || cfg.Content.Resources[0] != "destinations" {
		t.Errorf("resources = %q", cfg.Content.Resources)
	}
	if cfg.Server.Port != 9000 || cfg.Server.RequestTimeout != 45*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.ENV != "development" || cfg.IsProduction() {
		t.Errorf("env = %q", cfg.ENV)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		var c Config
		c.Backend.BaseURL = "http://backend"
		c.Security.JWTSecret = "s"
		c.Drafts.TTL = time.Hour
		return &c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no backend", func(c *Config) { c.Backend.BaseURL = "" }, true},
		{"no jwt secret", func(c *Config) { c.Security.JWTSecret = "" }, true},
		{"keycloak replaces secret", func(c *Config) {
			c.Security.JWTSecret = ""
			c.Keycloak = KeycloakConfig{Enabled: true, ServerURL: "http://kc", Realm: "travel"}
		}, false},
		{"keycloak without realm", func(c *Config) { c.Keycloak = KeycloakConfig{Enabled: true, ServerURL: "http://kc"} }, true},
		{"zero ttl", func(c *Config) { c.Drafts.TTL = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"a, b", "", "c"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitList = %q", got)
	}
}
