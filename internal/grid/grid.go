package grid

import (
	"github.com/DoyleJ11/battlesnake-replay/internal/replay"
)

// Cell is the display state of one board square. The zero value is an empty
// square.
type Cell struct {
	Index     int  `json:"index"`
	Occupied  bool `json:"occupied"`
	IsHead    bool `json:"head"`
	IsDead    bool `json:"dead"`
	HasFood   bool `json:"food"`
	HasHazard bool `json:"hazard"`
}

// Grid stores cells row-major from the top of the board down, so Cells[0] is
// the row with the highest y.
type Grid struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Cells  [][]Cell `json:"cells"`
}

func newGrid(width, height int) Grid {
	cells := make([][]Cell, height)
	for row := range cells {
		cells[row] = make([]Cell, width)
	}
	return Grid{Width: width, Height: height, Cells: cells}
}

// RowFor maps a board y coordinate to its grid row.
func RowFor(height, y int) int { return height - 1 - y }

// At returns the cell for a board position. ok is false off the board.
func (g Grid) At(p replay.Position) (Cell, bool) {
	if p.X < 0 || p.X >= g.Width || p.Y < 0 || p.Y >= g.Height {
		return Cell{}, false
	}
	return g.Cells[RowFor(g.Height, p.Y)][p.X], true
}

// cell assumes p has already been bounds checked.
func (g Grid) cell(p replay.Position) *Cell {
	return &g.Cells[RowFor(g.Height, p.Y)][p.X]
}

// drawSnake marks every body segment. Overlapping snakes are last-write-wins
// for Index, and a head flag set by an earlier snake is never cleared.
func (g Grid) drawSnake(snake replay.Snake, index int, dead bool) {
	for i, pos := range snake.Body {
		c := g.cell(pos)
		c.Occupied = true
		c.Index = index
		if i == 0 {
			c.IsHead = true
		}
		if dead {
			c.IsDead = true
		}
	}
}
