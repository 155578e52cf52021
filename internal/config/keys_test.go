package config

import "testing"

func TestGetAPIKey(t *testing.T) {
	t.Run("environment wins over config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key")

		cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"}}
		key, err := GetAPIKey(cfg)
		if err != nil {
			t.Fatalf("GetAPIKey() error = %v", err)
		}
		if key != "sk-ant-env-key" {
			t.Errorf("key = %q, want sk-ant-env-key", key)
		}
	})

	t.Run("from config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"}}
		key, err := GetAPIKey(cfg)
		if err != nil {
			t.Fatalf("GetAPIKey() error = %v", err)
		}
		if key != "sk-ant-config-key" {
			t.Errorf("key = %q, want sk-ant-config-key", key)
		}
	})

	t.Run("no key configured", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		if _, err := GetAPIKey(&Config{}); err != ErrNoAPIKey {
			t.Errorf("GetAPIKey() error = %v, want ErrNoAPIKey", err)
		}
	})
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"valid key", "sk-ant-REDACTED", "sk-ant-...wxyz"},
		{"empty key", "", "(not set)"},
		{"short key", "short", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.want {
				t.Errorf("MaskAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetAPIKeySource(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key")

		if got := GetAPIKeySource(&Config{}); got != KeySourceEnv {
			t.Errorf("GetAPIKeySource() = %v, want KeySourceEnv", got)
		}
	})

	t.Run("from config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"}}
		if got := GetAPIKeySource(cfg); got != KeySourceConfig {
			t.Errorf("GetAPIKeySource() = %v, want KeySourceConfig", got)
		}
	})

	t.Run("no key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		if got := GetAPIKeySource(&Config{}); got != KeySourceNone {
			t.Errorf("GetAPIKeySource() = %v, want KeySourceNone", got)
		}
	})
}
