package types

import "github.com/DoyleJ11/battlesnake-replay/internal/grid"

// Client -> Server
//
//	seek:  turn
//	step:  delta (negative steps back)
//	play:  interval_ms (optional, server default when 0)
//	pause: {}
type ClientMessage struct {
	Type       string `json:"type"`
	Turn       int    `json:"turn,omitempty"`
	Delta      int    `json:"delta,omitempty"`
	IntervalMS int    `json:"interval_ms,omitempty"`
}

type ServerMessage struct {
	Type    string      `json:"type"` // "Frame" | "Error"
	Version int         `json:"version,omitempty"`
	Frame   *grid.Frame `json:"frame,omitempty"`
	Error   string      `json:"error,omitempty"`
}
