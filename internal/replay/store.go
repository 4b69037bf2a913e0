package replay

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
)

var ErrFormat = errors.New("malformed match log")
var ErrOutOfRange = errors.New("turn out of range")

// Store holds the turns of one recorded match. It is read-only after Load and
// safe for concurrent use.
type Store struct {
	snapshots []Snapshot
}

// The wire types mirror Snapshot with pointers so a missing board or
// coordinate can be told apart from a zero one.
type wireSnapshot struct {
	Turn  int        `json:"turn"`
	Board *wireBoard `json:"board"`
}

type wireBoard struct {
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Snakes  []wireSnake     `json:"snakes"`
	Food    []*wirePosition `json:"food"`
	Hazards []*wirePosition `json:"hazards"`
}

type wireSnake struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Health int             `json:"health"`
	Body   []*wirePosition `json:"body"`
}

type wirePosition struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// Load parses a JSON array of snapshots. Every malformed turn is reported in
// the returned error; no Store is built unless all turns are valid.
func Load(r io.Reader) (*Store, error) {
	dec := json.NewDecoder(r)
	var raws []json.RawMessage
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: expected an array of snapshots: %w", ErrFormat, err)
	}
	if raws == nil {
		return nil, fmt.Errorf("%w: expected an array of snapshots, got null", ErrFormat)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after the snapshot array", ErrFormat)
	}

	var errs error
	snapshots := make([]Snapshot, 0, len(raws))
	for i, raw := range raws {
		snap, err := parseSnapshot(raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("turn %d: %w", i, err))
			continue
		}
		snapshots = append(snapshots, snap)
	}
	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, errs)
	}
	return &Store{snapshots: snapshots}, nil
}

// LoadFile reads a match log from disk. Gzip-compressed logs are detected by
// their magic bytes and decompressed transparently.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(2); bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		defer gz.Close()
		r = gz
	}
	return Load(r)
}

func parseSnapshot(raw json.RawMessage) (Snapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Snapshot{}, errors.New("not an object")
	}

	var w wireSnapshot
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return Snapshot{}, err
	}
	if w.Board == nil {
		return Snapshot{}, errors.New("missing board")
	}
	board, err := convertBoard(*w.Board)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Turn: w.Turn, Board: board, Raw: raw}, nil
}

// convertBoard checks the board invariants and reports every violation.
func convertBoard(w wireBoard) (Board, error) {
	var errs error
	if w.Width <= 0 || w.Height <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("invalid board size %dx%d", w.Width, w.Height))
	}

	b := Board{Width: w.Width, Height: w.Height}
	seen := make(map[string]bool, len(w.Snakes))
	for i, ws := range w.Snakes {
		switch {
		case ws.ID == "":
			errs = multierr.Append(errs, fmt.Errorf("snake %d has no id", i))
		case len(ws.Body) == 0:
			errs = multierr.Append(errs, fmt.Errorf("snake %q has an empty body", ws.ID))
		case seen[ws.ID]:
			errs = multierr.Append(errs, fmt.Errorf("duplicate snake id %q", ws.ID))
		}
		seen[ws.ID] = true

		body, err := convertPositions(fmt.Sprintf("snake %q body", ws.ID), ws.Body)
		errs = multierr.Append(errs, err)
		b.Snakes = append(b.Snakes, Snake{ID: ws.ID, Name: ws.Name, Health: ws.Health, Body: body})
	}

	var err error
	b.Food, err = convertPositions("food", w.Food)
	errs = multierr.Append(errs, err)
	b.Hazards, err = convertPositions("hazard", w.Hazards)
	errs = multierr.Append(errs, err)

	if errs != nil {
		return Board{}, errs
	}
	return b, nil
}

func convertPositions(what string, wire []*wirePosition) ([]Position, error) {
	if wire == nil {
		return nil, nil
	}
	var errs error
	out := make([]Position, 0, len(wire))
	for i, wp := range wire {
		if wp == nil || wp.X == nil || wp.Y == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s segment %d needs both x and y", what, i))
			continue
		}
		out = append(out, Position{X: *wp.X, Y: *wp.Y})
	}
	return out, errs
}

func (s *Store) Count() int { return len(s.snapshots) }

func (s *Store) Get(turn int) (Snapshot, error) {
	if turn < 0 || turn >= len(s.snapshots) {
		return Snapshot{}, fmt.Errorf("%w: %d is not in [0, %d)", ErrOutOfRange, turn, len(s.snapshots))
	}
	return s.snapshots[turn], nil
}

// Previous returns the snapshot before turn. ok is false at turn 0.
func (s *Store) Previous(turn int) (snap Snapshot, ok bool, err error) {
	if _, err := s.Get(turn); err != nil {
		return Snapshot{}, false, err
	}
	if turn == 0 {
		return Snapshot{}, false, nil
	}
	return s.snapshots[turn-1], true, nil
}

// Pair returns the snapshot at turn together with the one before it, which
// is nil at turn 0.
func (s *Store) Pair(turn int) (Snapshot, *Snapshot, error) {
	current, err := s.Get(turn)
	if err != nil {
		return Snapshot{}, nil, err
	}
	prev, ok, _ := s.Previous(turn)
	if !ok {
		return current, nil, nil
	}
	return current, &prev, nil
}
