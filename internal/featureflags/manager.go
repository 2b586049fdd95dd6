// Package featureflags gates unfinished behavior behind configuration, so a
// scoring or feed change can ship dark and reach a slice of users before
// everyone sees it.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// rule is one parsed flag setting: a hard switch or a staged percentage.
type rule struct {
	on      bool
	staged  bool
	percent int
}

// Manager answers whether a flag is on for a given user. Flags come from a
// single config string of comma-separated settings, e.g.
// "staged_scoring=on,referral_banner=25%,legacy_sort=off".
type Manager struct {
	rules map[string]rule
}

// NewManager parses the flag list. Malformed entries are dropped rather than
// failing startup; an unknown flag reads as off.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name = canon(name)
		if name == "" {
			continue
		}
		if r, ok := parseRule(canon(value)); ok {
			rules[name] = r
		}
	}
	return &Manager{rules: rules}
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{on: true}, true
	case "off", "false", "0":
		return rule{}, true
	}

	pct, found := strings.CutSuffix(value, "%")
	if !found {
		return rule{}, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil || n < 0 || n > 100 {
		return rule{}, false
	}
	return rule{staged: true, percent: n}, true
}

// Enabled reports the flag state for one user. Staged flags are sticky: the
// same user stays in or out of the rollout until the percentage changes.
// Anonymous traffic (userID 0) never joins a partial rollout.
func (m *Manager) Enabled(name string, userID uint) bool {
	name = canon(name)
	r, ok := m.rules[name]
	if !ok {
		return false
	}
	if !r.staged {
		return r.on
	}
	if r.percent >= 100 {
		return true
	}
	if userID == 0 || r.percent <= 0 {
		return false
	}
	return bucket(name, userID) < r.percent
}

// Snapshot evaluates every configured flag for one user, in the shape the
// flags endpoint hands to clients.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func canon(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bucket places a user in one of 100 stable slots per flag. Hashing the flag
// name in keeps placements independent, so joining one rollout says nothing
// about another.
func bucket(name string, userID uint) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte{'/'})
	h.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
