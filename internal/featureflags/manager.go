// Package featureflags evaluates the FEATURE_FLAGS setting.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	// FlagOpenSignup lets visitors create accounts at /auth/signup/.
	FlagOpenSignup = "open_signup"
	// FlagGroupDirectory exposes the /groups/ listing.
	FlagGroupDirectory = "group_directory"
)

// defaults apply to known flags missing from the configuration.
var defaults = map[string]string{
	FlagOpenSignup:     "on",
	FlagGroupDirectory: "on",
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "open_signup=off,group_directory=25%"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value := normalize(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

func (m *Manager) lookup(name string) (string, bool) {
	name = normalize(name)
	if m != nil {
		if v, ok := m.flags[name]; ok {
			return v, true
		}
	}
	v, ok := defaults[name]
	return v, ok
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
//
// Unconfigured known flags use their default; unknown flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	value, ok := m.lookup(name)
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if strings.HasSuffix(value, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
		if err != nil || pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		if userID == 0 {
			return false
		}
		return rolloutBucket(name, userID) < pct
	}

	return false
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated status of configured and known flags for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags)+len(defaults))
	for name := range defaults {
		out[name] = m.Enabled(name, userID)
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// String renders the configured flags in a stable order for logs.
func (m *Manager) String() string {
	names := make([]string, 0, len(m.flags))
	for name := range m.flags {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+m.flags[name])
	}
	return strings.Join(parts, ",")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
