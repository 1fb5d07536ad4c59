// Package featureflags evaluates FEATURE_FLAGS, e.g. "strict_revoke=on,audit_publish=off".
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

const (
	// StrictRevoke makes Revoke report guild removal failures instead of swallowing them.
	StrictRevoke = "strict_revoke"
	// AuditPublish forwards audit events to Redis subscribers.
	AuditPublish = "audit_publish"
)

// Defaults apply when FEATURE_FLAGS does not mention a flag.
var Defaults = map[string]string{
	StrictRevoke: "off",
	AuditPublish: "on",
}

// Manager holds parsed flag values.
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma separated list of name=value pairs on top of Defaults.
// Malformed pairs are ignored.
func NewManager(raw string) *Manager {
	flags := make(map[string]string, len(Defaults))
	for k, v := range Defaults {
		flags[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		flags[name] = value
	}
	return &Manager{flags: flags}
}

// Enabled evaluates name for the member vid. Values are on/true/1, off/false/0
// or N% for a rollout that is stable per member.
func (m *Manager) Enabled(name string, vid int64) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, ok := percent(value)
	switch {
	case !ok || pct <= 0:
		return false
	case pct >= 100:
		return true
	case vid <= 0:
		return false
	}
	return bucket(name, vid) < pct
}

// Raw returns a copy of the configured values.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot evaluates every flag for vid.
func (m *Manager) Snapshot(vid int64) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, vid)
	}
	return out
}

func percent(value string) (int, bool) {
	digits, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, vid int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatInt(vid, 10)))
	return int(h.Sum32() % 100)
}
