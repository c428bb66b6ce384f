package chain

import "github.com/okian/rinkline/internal/domain/model"

// Summary aggregates a set of chains for the analytics pages.
type Summary struct {
	Chains        int                     `json:"chains"`
	Shots         int                     `json:"shots"`
	Goals         int                     `json:"goals"`
	AverageLength float64                 `json:"average_length"`
	Preceding     map[model.EventType]int `json:"preceding"`
	Links         map[Strategy]int        `json:"links"`
	Stops         map[StopReason]int      `json:"stops"`
}

// Summarize counts preceding event types, linkage strategies and stop
// reasons across chains.
func Summarize(chains []Chain) Summary {
	s := Summary{
		Chains:    len(chains),
		Preceding: make(map[model.EventType]int),
		Links:     make(map[Strategy]int),
		Stops:     make(map[StopReason]int),
	}
	total := 0
	for _, c := range chains {
		total += c.Len()
		switch c.Terminal().Type {
		case model.Goal:
			s.Goals++
		case model.Shot:
			s.Shots++
		}
		for _, e := range c.Events[:c.Len()-1] {
			s.Preceding[e.Type]++
		}
		for _, l := range c.Links {
			s.Links[l]++
		}
		s.Stops[c.Stop]++
	}
	if len(chains) > 0 {
		s.AverageLength = float64(total) / float64(len(chains))
	}
	return s
}
