package core

import (
	"fmt"
	"sort"
	"strings"
)

// RoleKind identifies one of the fixed agent specializations.
type RoleKind string

const (
	RoleMetaLearning  RoleKind = "meta_learning"
	RoleAdaptation    RoleKind = "adaptation"
	RoleStateModeling RoleKind = "state_modeling"
	RoleCoordinator   RoleKind = "coordinator"
)

// DispatchOrder returns the non-coordinator kinds in the order their tasks
// are built and submitted.
func DispatchOrder() []RoleKind {
	return []RoleKind{RoleMetaLearning, RoleAdaptation, RoleStateModeling}
}

// Valid reports whether k is a known role kind.
func (k RoleKind) Valid() bool {
	switch k {
	case RoleMetaLearning, RoleAdaptation, RoleStateModeling, RoleCoordinator:
		return true
	}
	return false
}

// ParseRoleKind accepts the canonical names plus dashed or spaced variants
// ("meta-learning", "State Modeling").
func ParseRoleKind(s string) (RoleKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	k := RoleKind(norm)
	if !k.Valid() {
		return "", fmt.Errorf("unknown role kind %q", s)
	}
	return k, nil
}

// Role captures the metadata of a role agent. Values handed out by agents
// are copies; mutating them does not affect the agent.
type Role struct {
	Kind            RoleKind
	Name            string
	Goal            string
	Backstory       string
	Capabilities    []string
	MaxIterations   int
	AllowDelegation bool
	Tools           []string
}

// Clone returns a deep copy of r.
func (r Role) Clone() Role {
	r.Capabilities = append([]string(nil), r.Capabilities...)
	r.Tools = append([]string(nil), r.Tools...)
	return r
}

// HasCapability reports whether tag is in the role's capability set.
func (r Role) HasCapability(tag string) bool {
	i := sort.SearchStrings(r.Capabilities, tag)
	return i < len(r.Capabilities) && r.Capabilities[i] == tag
}

// CapabilitySet normalizes tags into a sorted set without blanks or duplicates.
func CapabilitySet(tags ...string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
