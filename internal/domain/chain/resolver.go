package chain

import "github.com/okian/rinkline/internal/domain/model"

// Strategy names how a predecessor was found.
type Strategy string

// Linkage strategies in decreasing reliability.
const (
	ByKey      Strategy = "key"
	BySequence Strategy = "sequence"
	ByPlay     Strategy = "play"
)

// Resolver finds the pool position of the event preceding current.
type Resolver struct {
	Strategy Strategy
	Resolve  func(current model.Event) (int, bool)
}

type gameIndex struct {
	game  string
	index int
}

// Pool is a read-only snapshot of events with lookup indexes. Each index
// keeps the first event in pool order for a given key, so a lookup returns
// what a front-to-back scan would.
type Pool struct {
	events []model.Event
	byKey  map[string]int
	bySeq  map[gameIndex]int
	byPlay map[gameIndex]int
}

// NewPool indexes events. The slice is not copied and must not be mutated
// while the pool is in use.
func NewPool(events []model.Event) *Pool {
	p := &Pool{
		events: events,
		byKey:  make(map[string]int, len(events)),
		bySeq:  make(map[gameIndex]int, len(events)),
		byPlay: make(map[gameIndex]int, len(events)),
	}
	for i, e := range events {
		if e.EventKey != "" {
			if _, ok := p.byKey[e.EventKey]; !ok {
				p.byKey[e.EventKey] = i
			}
		}
		if e.SequenceIndex != nil {
			k := gameIndex{game: e.GameID, index: *e.SequenceIndex}
			if _, ok := p.bySeq[k]; !ok {
				p.bySeq[k] = i
			}
		}
		if e.PlayIndex != nil {
			k := gameIndex{game: e.GameID, index: *e.PlayIndex}
			if _, ok := p.byPlay[k]; !ok {
				p.byPlay[k] = i
			}
		}
	}
	return p
}

// Len returns the number of events in the pool.
func (p *Pool) Len() int { return len(p.events) }

// Event returns the event at pool position i.
func (p *Pool) Event(i int) model.Event { return p.events[i] }

// KeyResolver follows linked_event_key across the whole pool.
func KeyResolver(p *Pool) Resolver {
	return Resolver{Strategy: ByKey, Resolve: func(cur model.Event) (int, bool) {
		if cur.LinkedEventKey == "" {
			return 0, false
		}
		i, ok := p.byKey[cur.LinkedEventKey]
		return i, ok
	}}
}

// SequenceResolver finds sequence_index-1 within the same game.
func SequenceResolver(p *Pool) Resolver {
	return Resolver{Strategy: BySequence, Resolve: func(cur model.Event) (int, bool) {
		if cur.SequenceIndex == nil {
			return 0, false
		}
		i, ok := p.bySeq[gameIndex{game: cur.GameID, index: *cur.SequenceIndex - 1}]
		return i, ok
	}}
}

// PlayIndexResolver finds play_index-1 within the same game.
func PlayIndexResolver(p *Pool) Resolver {
	return Resolver{Strategy: ByPlay, Resolve: func(cur model.Event) (int, bool) {
		if cur.PlayIndex == nil {
			return 0, false
		}
		i, ok := p.byPlay[gameIndex{game: cur.GameID, index: *cur.PlayIndex - 1}]
		return i, ok
	}}
}

// DefaultResolvers returns key, sequence and play-index resolvers in order.
func DefaultResolvers(p *Pool) []Resolver {
	return []Resolver{KeyResolver(p), SequenceResolver(p), PlayIndexResolver(p)}
}
