package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultIPCPort            = 6123
	DefaultFullscreenCooldown = 300 * time.Millisecond
)

// Margins represents per-edge spacing in pixels.
type Margins struct {
	Top    int `yaml:"top" json:"top"`
	Right  int `yaml:"right" json:"right"`
	Bottom int `yaml:"bottom" json:"bottom"`
	Left   int `yaml:"left" json:"left"`
}

// GeneralConfig holds daemon-wide settings.
type GeneralConfig struct {
	LogLevel string `yaml:"log_level"`
	IPCPort  int    `yaml:"ipc_port"`
	// FullscreenCooldownMS suppresses location-change handling for a window
	// right after it enters or leaves fullscreen.
	FullscreenCooldownMS int `yaml:"fullscreen_cooldown_ms"`
}

// GapsConfig controls spacing between tiled windows.
type GapsConfig struct {
	InnerGap int     `yaml:"inner_gap"`
	OuterGap Margins `yaml:"outer_gap"`
}

type FloatingConfig struct {
	Centered bool `yaml:"centered"`
}

// WindowBehaviorConfig controls how newly managed windows are placed.
type WindowBehaviorConfig struct {
	// InitialState is "tiling" or "floating".
	InitialState string         `yaml:"initial_state"`
	Floating     FloatingConfig `yaml:"floating"`
}

// WorkspaceConfig declares a named workspace.
type WorkspaceConfig struct {
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"display_name,omitempty" json:"displayName,omitempty"`
	// BindToMonitor is the index of the monitor, in sorted order, that the
	// workspace is activated on at startup.
	BindToMonitor *int `yaml:"bind_to_monitor,omitempty" json:"bindToMonitor,omitempty"`
	// KeepAlive keeps the workspace active even when it has no windows.
	KeepAlive bool `yaml:"keep_alive,omitempty" json:"keepAlive,omitempty"`
}

// KeybindingConfig maps one or more key chords to a command list.
type KeybindingConfig struct {
	Commands []string `yaml:"commands" json:"commands"`
	Bindings []string `yaml:"bindings" json:"bindings"`
}

// BindingModeConfig is a named set of keybindings that replaces the
// default set while enabled.
type BindingModeConfig struct {
	Name        string             `yaml:"name" json:"name"`
	DisplayName string             `yaml:"display_name,omitempty" json:"displayName,omitempty"`
	Keybindings []KeybindingConfig `yaml:"keybindings" json:"keybindings"`
}

// Config is the user configuration consumed read-only by the window
// manager.
type Config struct {
	Include        includeList          `yaml:"include,omitempty"`
	General        GeneralConfig        `yaml:"general"`
	Gaps           GapsConfig           `yaml:"gaps"`
	WindowBehavior WindowBehaviorConfig `yaml:"window_behavior"`
	Workspaces     []WorkspaceConfig    `yaml:"workspaces"`
	Keybindings    []KeybindingConfig   `yaml:"keybindings"`
	BindingModes   []BindingModeConfig  `yaml:"binding_modes"`
}

// ValidationError reports an invalid value at a YAML path.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func DefaultConfig() *Config {
	workspaces := make([]WorkspaceConfig, 0, 9)
	for i := 1; i <= 9; i++ {
		workspaces = append(workspaces, WorkspaceConfig{Name: fmt.Sprint(i)})
	}

	keybindings := []KeybindingConfig{
		{Commands: []string{"set-tiling"}, Bindings: []string{"alt+t"}},
		{Commands: []string{"toggle-floating"}, Bindings: []string{"alt+shift+space"}},
		{Commands: []string{"toggle-fullscreen"}, Bindings: []string{"alt+f"}},
		{Commands: []string{"set-minimized"}, Bindings: []string{"alt+m"}},
		{Commands: []string{"wm-redraw"}, Bindings: []string{"alt+shift+w"}},
		{Commands: []string{"wm-toggle-pause"}, Bindings: []string{"alt+shift+p"}},
		{Commands: []string{"wm-reload-config"}, Bindings: []string{"alt+shift+r"}},
		{Commands: []string{"wm-enable-binding-mode resize"}, Bindings: []string{"alt+r"}},
	}
	for i := 1; i <= 9; i++ {
		keybindings = append(keybindings, KeybindingConfig{
			Commands: []string{fmt.Sprintf("focus-workspace %d", i)},
			Bindings: []string{fmt.Sprintf("alt+%d", i)},
		})
	}

	return &Config{
		General: GeneralConfig{
			LogLevel:             "info",
			IPCPort:              DefaultIPCPort,
			FullscreenCooldownMS: int(DefaultFullscreenCooldown / time.Millisecond),
		},
		Gaps: GapsConfig{
			InnerGap: 8,
			OuterGap: Margins{Top: 8, Right: 8, Bottom: 8, Left: 8},
		},
		WindowBehavior: WindowBehaviorConfig{
			InitialState: "tiling",
			Floating:     FloatingConfig{Centered: true},
		},
		Workspaces:  workspaces,
		Keybindings: keybindings,
		BindingModes: []BindingModeConfig{
			{
				Name: "resize",
				Keybindings: []KeybindingConfig{
					{Commands: []string{"resize -0.02"}, Bindings: []string{"h", "left"}},
					{Commands: []string{"resize +0.02"}, Bindings: []string{"l", "right"}},
					{Commands: []string{"wm-disable-binding-mode resize"}, Bindings: []string{"escape", "return"}},
				},
			},
		},
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.General.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "general.log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.General.IPCPort < 1 || c.General.IPCPort > 65535 {
		return &ValidationError{Path: "general.ipc_port", Err: fmt.Errorf("ipc_port must be between 1 and 65535")}
	}
	if c.General.FullscreenCooldownMS < 0 {
		return &ValidationError{Path: "general.fullscreen_cooldown_ms", Err: fmt.Errorf("fullscreen_cooldown_ms must be >= 0")}
	}
	if c.Gaps.InnerGap < 0 {
		return &ValidationError{Path: "gaps.inner_gap", Err: fmt.Errorf("inner_gap must be >= 0")}
	}
	if m := c.Gaps.OuterGap; m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return &ValidationError{Path: "gaps.outer_gap", Err: fmt.Errorf("outer_gap values must be >= 0")}
	}
	switch c.WindowBehavior.InitialState {
	case "tiling", "floating":
	default:
		return &ValidationError{Path: "window_behavior.initial_state", Err: fmt.Errorf("initial_state must be one of: tiling, floating")}
	}

	seen := make(map[string]struct{}, len(c.Workspaces))
	for i, ws := range c.Workspaces {
		path := fmt.Sprintf("workspaces[%d]", i)
		if strings.TrimSpace(ws.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("workspace name is required")}
		}
		if _, dup := seen[ws.Name]; dup {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate workspace name %q", ws.Name)}
		}
		seen[ws.Name] = struct{}{}
		if ws.BindToMonitor != nil && *ws.BindToMonitor < 0 {
			return &ValidationError{Path: path + ".bind_to_monitor", Err: fmt.Errorf("bind_to_monitor must be >= 0")}
		}
	}

	if err := validateKeybindings("keybindings", c.Keybindings); err != nil {
		return err
	}

	modes := make(map[string]struct{}, len(c.BindingModes))
	for i, mode := range c.BindingModes {
		path := fmt.Sprintf("binding_modes[%d]", i)
		if strings.TrimSpace(mode.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("binding mode name is required")}
		}
		if _, dup := modes[mode.Name]; dup {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate binding mode %q", mode.Name)}
		}
		modes[mode.Name] = struct{}{}
		if err := validateKeybindings(path+".keybindings", mode.Keybindings); err != nil {
			return err
		}
	}
	return nil
}

func validateKeybindings(path string, bindings []KeybindingConfig) error {
	for i, kb := range bindings {
		p := fmt.Sprintf("%s[%d]", path, i)
		if len(kb.Commands) == 0 {
			return &ValidationError{Path: p + ".commands", Err: fmt.Errorf("at least one command is required")}
		}
		if len(kb.Bindings) == 0 {
			return &ValidationError{Path: p + ".bindings", Err: fmt.Errorf("at least one binding is required")}
		}
	}
	return nil
}

// SlogLevel maps general.log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	return ParseLogLevel(c.General.LogLevel)
}

// ParseLogLevel maps a level name to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FullscreenCooldown returns the fullscreen transition cooldown.
func (c *Config) FullscreenCooldown() time.Duration {
	return time.Duration(c.General.FullscreenCooldownMS) * time.Millisecond
}

// Workspace returns the workspace declaration with the given name.
func (c *Config) Workspace(name string) (WorkspaceConfig, bool) {
	for _, ws := range c.Workspaces {
		if ws.Name == name {
			return ws, true
		}
	}
	return WorkspaceConfig{}, false
}

// WorkspaceIndex returns the declaration order of name, or -1.
func (c *Config) WorkspaceIndex(name string) int {
	for i, ws := range c.Workspaces {
		if ws.Name == name {
			return i
		}
	}
	return -1
}

// BindingMode returns the binding mode with the given name.
func (c *Config) BindingMode(name string) (BindingModeConfig, bool) {
	for _, mode := range c.BindingModes {
		if mode.Name == name {
			return mode, true
		}
	}
	return BindingModeConfig{}, false
}
