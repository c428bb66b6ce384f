// Package chain rebuilds the run of plays that led to each shot or goal.
package chain

import "github.com/okian/rinkline/internal/domain/model"

// DefaultMaxLength bounds a chain, terminal event included.
const DefaultMaxLength = 10

// StopReason records why a chain stopped growing.
type StopReason string

// Stop reasons.
const (
	StopNoPredecessor StopReason = "no-predecessor"
	StopTerminal      StopReason = "previous-shot-or-goal"
	StopLengthCap     StopReason = "length-cap"
	StopCycle         StopReason = "cycle"
)

// Chain is the ordered list of events ending in a shot or goal. Links[i]
// tells how Events[i] was reached from Events[i+1].
type Chain struct {
	Events []model.Event
	Links  []Strategy
	Stop   StopReason
}

// Terminal returns the shot or goal that ends the chain.
func (c Chain) Terminal() model.Event { return c.Events[len(c.Events)-1] }

// Len returns the number of events, terminal included.
func (c Chain) Len() int { return len(c.Events) }

// Option applies a configuration option to the Reconstructor.
type Option func(*Reconstructor)

// WithMaxLength sets the chain length cap. Values below 1 are ignored.
func WithMaxLength(n int) Option {
	return func(r *Reconstructor) {
		if n >= 1 {
			r.maxLength = n
		}
	}
}

// WithResolvers replaces the resolver set built for each pool.
func WithResolvers(build func(*Pool) []Resolver) Option {
	return func(r *Reconstructor) {
		if build != nil {
			r.resolvers = build
		}
	}
}

// Reconstructor builds chains. It holds no per-run state and is safe for
// concurrent use.
type Reconstructor struct {
	maxLength int
	resolvers func(*Pool) []Resolver
}

// NewReconstructor creates a reconstructor with the default cap and the
// key, sequence, play-index resolver order.
func NewReconstructor(opts ...Option) *Reconstructor {
	r := &Reconstructor{
		maxLength: DefaultMaxLength,
		resolvers: DefaultResolvers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxLength returns the configured cap.
func (r *Reconstructor) MaxLength() int { return r.maxLength }

// Build returns the chain for every shot or goal in events, in pool order.
func (r *Reconstructor) Build(events []model.Event) []Chain {
	pool := NewPool(events)
	resolvers := r.resolvers(pool)
	var out []Chain
	for i, e := range events {
		if e.Type.Terminal() {
			out = append(out, r.walk(pool, resolvers, i))
		}
	}
	return out
}

func (r *Reconstructor) walk(pool *Pool, resolvers []Resolver, terminal int) Chain {
	// Built back to front, reversed at the end.
	idx := []int{terminal}
	var links []Strategy
	seen := map[int]struct{}{terminal: {}}
	stop := StopLengthCap

	current := terminal
	for len(idx) < r.maxLength {
		prev, how, ok := resolve(resolvers, pool.Event(current))
		if !ok {
			stop = StopNoPredecessor
			break
		}
		if pool.Event(prev).Type.Terminal() {
			stop = StopTerminal
			break
		}
		if _, dup := seen[prev]; dup {
			stop = StopCycle
			break
		}
		seen[prev] = struct{}{}
		idx = append(idx, prev)
		links = append(links, how)
		current = prev
	}

	c := Chain{
		Events: make([]model.Event, len(idx)),
		Links:  make([]Strategy, len(links)),
		Stop:   stop,
	}
	for i, j := range idx {
		c.Events[len(idx)-1-i] = pool.Event(j)
	}
	for i, s := range links {
		c.Links[len(links)-1-i] = s
	}
	return c
}

// resolve tries each resolver in order; later ones run only on a miss.
func resolve(resolvers []Resolver, cur model.Event) (int, Strategy, bool) {
	for _, res := range resolvers {
		if i, ok := res.Resolve(cur); ok {
			return i, res.Strategy, true
		}
	}
	return 0, "", false
}
