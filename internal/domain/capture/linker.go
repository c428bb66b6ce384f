// Package capture decides where each coordinate placed during live capture
// lands on the in-progress event.
package capture

import (
	"fmt"

	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/rink"
)

// Target says what a placed coordinate marks.
type Target string

// Placement targets.
const (
	Puck   Target = "puck"
	Player Target = "player"
)

// Outcome describes what a placement did, for callers that log or count.
type Outcome struct {
	// Snapped is set when a faceoff click was moved onto a reference dot.
	Snapped bool
	Dot     rink.FaceoffDot
	// Linked lists the players that received the point implicitly.
	Linked []string
	// Slot is the 1-based puck ordinal for puck placements, 0 otherwise.
	Slot int
}

// Option applies a configuration option to the Linker.
type Option func(*Linker)

// WithSlotRules replaces the slot rule table.
func WithSlotRules(rules SlotRules) Option {
	return func(l *Linker) {
		if rules != nil {
			l.rules = rules
		}
	}
}

// WithFaceoffMatcher sets the matcher used for faceoff snapping.
func WithFaceoffMatcher(m rink.FaceoffMatcher) Option {
	return func(l *Linker) {
		l.matcher = m
	}
}

// WithOrientation sets the rink orientation used for zone tagging.
func WithOrientation(o rink.Orientation) Option {
	return func(l *Linker) {
		l.orientation = o
	}
}

// Linker is the capture auto-linking policy. It holds configuration only;
// callers must serialize placements against the same event.
type Linker struct {
	rules       SlotRules
	matcher     rink.FaceoffMatcher
	orientation rink.Orientation
}

// NewLinker creates a linker with default rules, the standard faceoff dots
// and home attacking right in period 1.
func NewLinker(opts ...Option) *Linker {
	l := &Linker{
		rules:       DefaultSlotRules(),
		matcher:     rink.NewFaceoffMatcher(rink.StandardFaceoffDots(), rink.DefaultFaceoffTolerance),
		orientation: rink.Orientation{HomeAttacksRightInPeriod1: true},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rules returns the active slot rule table.
func (l *Linker) Rules() SlotRules { return l.rules }

// Place appends raw to the right slot of ev and returns the updated copy.
// The input event is never modified. The only failure is ErrNoTarget.
func (l *Linker) Place(ev model.Event, raw rink.CanvasPosition, target Target, ref *model.PlayerRef) (model.Event, Outcome, error) {
	out := ev.Clone()
	raw = rink.ClampCanvas(raw)

	if out.Type == model.Faceoff {
		if dot, ok := l.matcher.Match(raw); ok {
			res := Outcome{Snapped: true, Dot: dot}
			res.Slot = l.appendPuck(&out, dot.Position)
			if len(out.Players) > 0 {
				res.Linked = l.link(&out, res.Slot, dot.Position)
			}
			return out, res, nil
		}
	}

	pos := rink.ToRink(raw)
	if target == Puck {
		res := Outcome{}
		res.Slot = l.appendPuck(&out, pos)
		res.Linked = l.link(&out, res.Slot, pos)
		return out, res, nil
	}

	if len(out.Players) == 0 {
		return ev, Outcome{}, ErrNoTarget
	}
	idx := 0
	if ref != nil && ref.ID != "" {
		idx = out.PlayerIndex(ref.ID)
		if idx < 0 {
			return ev, Outcome{}, fmt.Errorf("%w: player %q is not on event", ErrNoTarget, ref.ID)
		}
	}
	out.Players[idx].Positions = append(out.Players[idx].Positions, pos)
	return out, Outcome{Linked: []string{out.Players[idx].ID}}, nil
}

// appendPuck adds pos to the puck slots and tags the zone on the first one.
func (l *Linker) appendPuck(ev *model.Event, pos rink.RinkPosition) int {
	ev.PuckPositions = append(ev.PuckPositions, pos)
	ordinal := len(ev.PuckPositions)
	if ordinal == 1 && ev.Zone == "" && ev.Team != "" {
		ev.Zone = l.orientation.Classify(rink.ToCanvas(pos).X, ev.Period, ev.Team)
	}
	return ordinal
}

// link gives pos to every player whose role the rules tie to the ordinal-th
// puck point, unless that player's slot is already filled.
func (l *Linker) link(ev *model.Event, ordinal int, pos rink.RinkPosition) []string {
	roles := l.rules.Roles(ev.Type, ordinal)
	if len(roles) == 0 {
		return nil
	}
	var linked []string
	for i := range ev.Players {
		p := &ev.Players[i]
		if !hasRole(roles, p.Role) || len(p.Positions) >= ordinal {
			continue
		}
		p.Positions = append(p.Positions, pos)
		linked = append(linked, p.ID)
	}
	return linked
}

func hasRole(roles []model.Role, r model.Role) bool {
	for _, want := range roles {
		if want == r {
			return true
		}
	}
	return false
}
