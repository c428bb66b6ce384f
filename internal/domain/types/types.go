// Package types contains response shapes shared by the service and the HTTP API.
package types

import (
	"github.com/okian/rinkline/internal/domain/chain"
	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/rink"
)

// ChainView is one reconstructed chain, terminal event last.
type ChainView struct {
	TerminalKey  string           `json:"terminal_key"`
	TerminalType model.EventType  `json:"terminal_type"`
	Length       int              `json:"length"`
	Events       []model.Event    `json:"events"`
	Links        []chain.Strategy `json:"links"`
	Stop         chain.StopReason `json:"stop"`
}

// NewChainView flattens a chain for transport.
func NewChainView(c chain.Chain) ChainView {
	t := c.Terminal()
	links := c.Links
	if links == nil {
		links = []chain.Strategy{}
	}
	return ChainView{
		TerminalKey:  t.EventKey,
		TerminalType: t.Type,
		Length:       c.Len(),
		Events:       c.Events,
		Links:        links,
		Stop:         c.Stop,
	}
}

// GameChains is the analysis of one game's event pool.
type GameChains struct {
	GameID string `json:"game_id"`
	// PoolSize is the number of events the chains were built from.
	PoolSize int `json:"pool_size"`
	// Truncated is set when the pool hit the retrieval cap.
	Truncated bool          `json:"truncated"`
	Chains    []ChainView   `json:"chains"`
	Summary   chain.Summary `json:"summary"`
}

// Placement reports the event after one coordinate was placed.
type Placement struct {
	Event   model.Event `json:"event"`
	Slot    int         `json:"slot,omitempty"`
	Snapped bool        `json:"snapped"`
	Dot     string      `json:"dot,omitempty"`
	Linked  []string    `json:"linked,omitempty"`
}

// ZoneView answers a zone classification query.
type ZoneView struct {
	X      float64   `json:"x"`
	Period int       `json:"period"`
	Team   rink.Team `json:"team"`
	Zone   rink.Zone `json:"zone"`
}

// FaceoffView answers a faceoff snapping query.
type FaceoffView struct {
	Snapped  bool                `json:"snapped"`
	Dot      string              `json:"dot,omitempty"`
	Position rink.RinkPosition   `json:"position"`
	Canvas   rink.CanvasPosition `json:"canvas"`
}

// CaptureView is an open capture session.
type CaptureView struct {
	ID    string      `json:"id"`
	Event model.Event `json:"event"`
}
