package rink

import (
	"fmt"
	"strings"
)

// Blue line positions in canvas units.
const (
	LeftBlueLine  = 74.0
	RightBlueLine = 126.0
)

// Zone is a region of the rink relative to one team.
type Zone string

// Zone labels.
const (
	Offensive Zone = "offensive"
	Neutral   Zone = "neutral"
	Defensive Zone = "defensive"
)

// Team identifies one side of a game.
type Team string

// Teams.
const (
	Home Team = "home"
	Away Team = "away"
)

// ParseTeam accepts "home" or "away" in any case.
func ParseTeam(s string) (Team, error) {
	switch Team(strings.ToLower(strings.TrimSpace(s))) {
	case Home:
		return Home, nil
	case Away:
		return Away, nil
	}
	return "", fmt.Errorf("unknown team %q", s)
}

// DirectionRule decides in which periods the teams play toward the opposite
// end from period 1.
type DirectionRule int

const (
	// SecondPeriodOnly flips direction in period 2 only. Periods 1, 3 and
	// every overtime period keep the period 1 direction.
	SecondPeriodOnly DirectionRule = iota
	// AlternateEveryPeriod flips direction in every even period, overtime
	// included.
	AlternateEveryPeriod
)

// ParseDirectionRule maps the config names onto a DirectionRule.
func ParseDirectionRule(s string) (DirectionRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "second-period-only":
		return SecondPeriodOnly, nil
	case "alternate":
		return AlternateEveryPeriod, nil
	}
	return 0, fmt.Errorf("unknown direction rule %q", s)
}

func (r DirectionRule) String() string {
	if r == AlternateEveryPeriod {
		return "alternate"
	}
	return "second-period-only"
}

// flipped reports whether period plays in the opposite direction to period 1.
func (r DirectionRule) flipped(period int) bool {
	if r == AlternateEveryPeriod {
		return period > 0 && period%2 == 0
	}
	return period == 2
}

// Orientation fixes which end each team attacks.
type Orientation struct {
	HomeAttacksRightInPeriod1 bool
	Rule                      DirectionRule
}

// Classify maps a canvas x coordinate to a zone for team in period.
// A position exactly on a blue line is Neutral.
func (o Orientation) Classify(xCanvas float64, period int, team Team) Zone {
	// Direction is "as configured" unless the period flips it.
	asConfigured := !o.Rule.flipped(period)
	homeDefendsRight := !o.HomeAttacksRightInPeriod1
	if !asConfigured {
		homeDefendsRight = o.HomeAttacksRightInPeriod1
	}

	attacksRight := !homeDefendsRight
	if team != Home {
		attacksRight = !attacksRight
	}

	switch {
	case xCanvas > RightBlueLine:
		if attacksRight {
			return Offensive
		}
		return Defensive
	case xCanvas < LeftBlueLine:
		if attacksRight {
			return Defensive
		}
		return Offensive
	default:
		return Neutral
	}
}

// ClassifyZone classifies xCanvas with the SecondPeriodOnly rule.
func ClassifyZone(xCanvas float64, period int, team Team, homeAttacksRightInPeriod1 bool) Zone {
	return Orientation{HomeAttacksRightInPeriod1: homeAttacksRightInPeriod1}.Classify(xCanvas, period, team)
}
