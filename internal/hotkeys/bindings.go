package hotkeys

import (
	"fmt"
	"strings"

	"github.com/1broseidon/tilewm/internal/config"
)

var modifierNames = map[string]string{
	"alt":     "Mod1",
	"mod1":    "Mod1",
	"shift":   "Shift",
	"ctrl":    "Control",
	"control": "Control",
	"super":   "Mod4",
	"win":     "Mod4",
	"lwin":    "Mod4",
	"mod4":    "Mod4",
}

var keyNames = map[string]string{
	"space":     "space",
	"enter":     "Return",
	"return":    "Return",
	"escape":    "Escape",
	"esc":       "Escape",
	"tab":       "Tab",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"left":      "Left",
	"right":     "Right",
	"up":        "Up",
	"down":      "Down",
	"home":      "Home",
	"end":       "End",
	"minus":     "minus",
	"plus":      "plus",
	"equal":     "equal",
	"comma":     "comma",
	"period":    "period",
}

// ParseBinding converts a chord such as "alt+shift+h" into the key
// sequence form xgbutil grabs, "Mod1-Shift-h".
func ParseBinding(binding string) (string, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(binding)), "+")
	if len(parts) == 0 || parts[0] == "" {
		return "", fmt.Errorf("empty key binding")
	}

	seq := make([]string, 0, len(parts))
	seen := make(map[string]bool)
	for _, mod := range parts[:len(parts)-1] {
		name, ok := modifierNames[strings.TrimSpace(mod)]
		if !ok {
			return "", fmt.Errorf("binding %q: unknown modifier %q", binding, mod)
		}
		if !seen[name] {
			seen[name] = true
			seq = append(seq, name)
		}
	}

	key, err := keyName(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return "", fmt.Errorf("binding %q: %w", binding, err)
	}
	return strings.Join(append(seq, key), "-"), nil
}

func keyName(key string) (string, error) {
	if name, ok := keyNames[key]; ok {
		return name, nil
	}
	if len(key) == 1 && (key[0] >= 'a' && key[0] <= 'z' || key[0] >= '0' && key[0] <= '9') {
		return key, nil
	}
	if len(key) >= 2 && len(key) <= 3 && key[0] == 'f' {
		n := 0
		for _, r := range key[1:] {
			if r < '0' || r > '9' {
				return "", fmt.Errorf("unknown key %q", key)
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 24 {
			return fmt.Sprintf("F%d", n), nil
		}
	}
	if _, ok := modifierNames[key]; ok {
		return "", fmt.Errorf("binding has no key, only modifier %q", key)
	}
	return "", fmt.Errorf("unknown key %q", key)
}

// ActiveKeybindings returns the keybindings in effect: those of the most
// recently enabled binding mode, or the defaults when no mode is active.
func ActiveKeybindings(cfg *config.Config, modes []config.BindingModeConfig) []config.KeybindingConfig {
	if len(modes) > 0 {
		return modes[0].Keybindings
	}
	return cfg.Keybindings
}
