package capture

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/rinkline/internal/domain/model"
)

// SlotRules maps an event type to the player roles that implicitly receive
// the n-th puck point (1-based) placed on an event of that type.
type SlotRules map[model.EventType]map[int][]model.Role

// DefaultSlotRules returns the built-in table for the known event types.
func DefaultSlotRules() SlotRules {
	return SlotRules{
		model.Faceoff:   {1: {"winner", "loser"}},
		model.Shot:      {1: {"shooter"}},
		model.Goal:      {1: {"scorer", "shooter"}},
		model.Pass:      {1: {"passer"}, 2: {"receiver"}},
		model.Hit:       {1: {"hitter", "hittee"}},
		model.Takeaway:  {1: {"taker"}},
		model.Giveaway:  {1: {"giver"}},
		model.Block:     {1: {"blocker"}},
		model.ZoneEntry: {1: {"carrier"}},
		model.DumpIn:    {1: {"dumper"}},
		model.Rebound:   {1: {"retriever"}},
	}
}

// Roles returns the roles linked to the ordinal-th puck point of t.
func (r SlotRules) Roles(t model.EventType, ordinal int) []model.Role {
	return r[t][ordinal]
}

// Merge returns a copy of r where every event type present in other is
// replaced by other's rules.
func (r SlotRules) Merge(other SlotRules) SlotRules {
	out := make(SlotRules, len(r)+len(other))
	for t, slots := range r {
		out[t] = slots
	}
	for t, slots := range other {
		out[t] = slots
	}
	return out
}

// EventTypes lists the configured event types in sorted order.
func (r SlotRules) EventTypes() []model.EventType {
	out := make([]model.EventType, 0, len(r))
	for t := range r {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseSlotRules converts the configuration shape
// (event type -> ordinal as string -> role names) into SlotRules.
func ParseSlotRules(raw map[string]map[string][]string) (SlotRules, error) {
	out := make(SlotRules, len(raw))
	for typ, slots := range raw {
		t := model.ParseEventType(typ)
		if t == "" {
			return nil, fmt.Errorf("%w: empty event type", ErrInvalidRule)
		}
		parsed := make(map[int][]model.Role, len(slots))
		for key, roles := range slots {
			ordinal, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || ordinal < 1 {
				return nil, fmt.Errorf("%w: %s ordinal %q must be a positive integer", ErrInvalidRule, t, key)
			}
			for _, role := range roles {
				role = strings.ToLower(strings.TrimSpace(role))
				if role == "" {
					continue
				}
				parsed[ordinal] = append(parsed[ordinal], model.Role(role))
			}
		}
		out[t] = parsed
	}
	return out, nil
}
