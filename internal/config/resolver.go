package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// FileName is the configuration file name looked up in standard locations.
const FileName = "polybot.yaml"

// Resolve returns the module IDs from the configuration in load order.
// IDs are sorted, so "bot.*" provisions before "channel.*" and
// "gateway.*" starts last and stops first.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SearchPaths returns the candidate config locations in lookup order:
// $XDG_CONFIG_HOME/polybot/polybot.yaml, else ~/.config/polybot/polybot.yaml,
// then ./polybot.yaml.
func SearchPaths() []string {
	var candidates []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "polybot", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "polybot", FileName))
	}
	return append(candidates, FileName)
}

// FindPath returns explicit when set, otherwise the first existing entry
// of SearchPaths.
func FindPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	candidates := SearchPaths()
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("config: no configuration file found (searched: %v)", candidates)
}
