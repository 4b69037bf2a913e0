package replay

import "encoding/json"

// Position is a board coordinate. Origin is bottom-left, y grows upward.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Snake struct {
	ID     string     `json:"id"`
	Name   string     `json:"name,omitempty"`
	Health int        `json:"health,omitempty"`
	Body   []Position `json:"body"` // head first
}

func (s Snake) Head() Position { return s.Body[0] }

type Board struct {
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Snakes  []Snake    `json:"snakes"`
	Food    []Position `json:"food"`
	Hazards []Position `json:"hazards"`
}

// InBounds reports whether p lies on the board.
func (b Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Snapshot is one recorded turn. Slices are shared with the Store and must
// not be modified.
type Snapshot struct {
	Turn  int   `json:"turn"`
	Board Board `json:"board"`

	// Raw is the snapshot exactly as it appeared in the log.
	Raw json.RawMessage `json:"-"`
}

// SnakeIDs returns the set of snake ids alive in this turn.
func (s Snapshot) SnakeIDs() map[string]bool {
	ids := make(map[string]bool, len(s.Board.Snakes))
	for _, snake := range s.Board.Snakes {
		ids[snake.ID] = true
	}
	return ids
}
