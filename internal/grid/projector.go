package grid

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/battlesnake-replay/internal/replay"
)

var ErrEmptyMatch = errors.New("match has no snakes at turn 0")
var ErrMalformedEntity = errors.New("position outside board")
var ErrUnknownSnake = errors.New("snake missing from turn 0 roster")

// Projector turns the recorded turns of one match into display grids. The
// identity index is fixed when the Projector is built, so Project and Render
// are safe to call from any number of goroutines.
type Projector struct {
	store *replay.Store
	ids   IdentityIndex
}

// Frame is everything a viewer needs to show one turn.
type Frame struct {
	Turn        int             `json:"turn"`
	Grid        Grid            `json:"grid"`
	HasPrevious bool            `json:"has_previous"`
	HasNext     bool            `json:"has_next"`
	Raw         json.RawMessage `json:"raw"`
}

func (f Frame) Previous() int { return f.Turn - 1 }
func (f Frame) Next() int     { return f.Turn + 1 }

func New(store *replay.Store) (*Projector, error) {
	first, err := store.Get(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmptyMatch, err)
	}
	ids, err := NewIdentityIndex(first.Board.Snakes)
	if err != nil {
		return nil, err
	}
	return &Projector{store: store, ids: ids}, nil
}

func (p *Projector) Identities() IdentityIndex { return p.ids }

func (p *Projector) Turns() int { return p.store.Count() }

// Project builds the grid for turn. Snakes that were alive in the previous
// turn but are gone now are drawn at their last position and marked dead.
// Food and hazards come from the current turn only.
func (p *Projector) Project(turn int) (Grid, error) {
	current, previous, err := p.store.Pair(turn)
	if err != nil {
		return Grid{}, err
	}
	return p.project(turn, current, previous)
}

// Render projects turn and adds the navigation state around it.
func (p *Projector) Render(turn int) (Frame, error) {
	current, previous, err := p.store.Pair(turn)
	if err != nil {
		return Frame{}, err
	}
	g, err := p.project(turn, current, previous)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Turn:        turn,
		Grid:        g,
		HasPrevious: turn > 0,
		HasNext:     turn < p.store.Count()-1,
		Raw:         current.Raw,
	}, nil
}

func (p *Projector) project(turn int, current replay.Snapshot, previous *replay.Snapshot) (Grid, error) {
	board := current.Board
	dead := fallen(current, previous)

	// Validate everything first so a bad turn never yields a half-drawn grid.
	for _, snakes := range [][]replay.Snake{board.Snakes, dead} {
		for _, snake := range snakes {
			if err := p.checkSnake(board, snake); err != nil {
				return Grid{}, fmt.Errorf("turn %d: %w", turn, err)
			}
		}
	}
	for _, pos := range board.Food {
		if !board.InBounds(pos) {
			return Grid{}, fmt.Errorf("turn %d: %w: food at (%d,%d)", turn, ErrMalformedEntity, pos.X, pos.Y)
		}
	}
	for _, pos := range board.Hazards {
		if !board.InBounds(pos) {
			return Grid{}, fmt.Errorf("turn %d: %w: hazard at (%d,%d)", turn, ErrMalformedEntity, pos.X, pos.Y)
		}
	}

	g := newGrid(board.Width, board.Height)
	for _, snake := range board.Snakes {
		i, _ := p.ids.Lookup(snake.ID)
		g.drawSnake(snake, i, false)
	}
	for _, snake := range dead {
		i, _ := p.ids.Lookup(snake.ID)
		g.drawSnake(snake, i, true)
	}
	for _, pos := range board.Food {
		g.cell(pos).HasFood = true
	}
	for _, pos := range board.Hazards {
		g.cell(pos).HasHazard = true
	}
	return g, nil
}

func (p *Projector) checkSnake(board replay.Board, snake replay.Snake) error {
	if _, ok := p.ids.Lookup(snake.ID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSnake, snake.ID)
	}
	for _, pos := range snake.Body {
		if !board.InBounds(pos) {
			return fmt.Errorf("%w: snake %q at (%d,%d) on %dx%d board",
				ErrMalformedEntity, snake.ID, pos.X, pos.Y, board.Width, board.Height)
		}
	}
	return nil
}

// fallen returns the snakes of previous that are absent from current.
func fallen(current replay.Snapshot, previous *replay.Snapshot) []replay.Snake {
	if previous == nil {
		return nil
	}
	alive := current.SnakeIDs()
	var dead []replay.Snake
	for _, snake := range previous.Board.Snakes {
		if !alive[snake.ID] {
			dead = append(dead, snake)
		}
	}
	return dead
}
