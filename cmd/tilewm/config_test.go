package main

import (
	"strings"
	"testing"

	"github.com/1broseidon/tilewm/internal/config"
)

func TestValidateBindings(t *testing.T) {
	if err := validateBindings(config.DefaultConfig()); err != nil {
		t.Fatalf("default config: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name: "bad key",
			mutate: func(c *config.Config) {
				c.Keybindings = []config.KeybindingConfig{{Commands: []string{"set-floating"}, Bindings: []string{"alt+nosuchkey"}}}
			},
			wantErr: "keybindings[0].bindings",
		},
		{
			name: "bad command in mode",
			mutate: func(c *config.Config) {
				c.BindingModes = []config.BindingModeConfig{{
					Name:        "resize",
					Keybindings: []config.KeybindingConfig{{Commands: []string{"explode"}, Bindings: []string{"h"}}},
				}}
			},
			wantErr: "binding_modes[0].keybindings[0].commands",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			err := validateBindings(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("validateBindings() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCommandFlagsStopAtFirstArg(t *testing.T) {
	if err := commandCmd.Flags().Parse([]string{"--id", "abc", "resize", "-0.1"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if subjectID != "abc" {
		t.Fatalf("--id = %q, want abc", subjectID)
	}
	if got := commandCmd.Flags().Args(); len(got) != 2 || got[1] != "-0.1" {
		t.Fatalf("args = %v, want [resize -0.1]", got)
	}
}
