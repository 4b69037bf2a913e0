package replay

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoTurns = `[
  {"turn": 0, "board": {"width": 3, "height": 3,
    "snakes": [{"id": "a", "name": "alpha", "health": 100, "body": [{"x": 1, "y": 1}]}],
    "food": [{"x": 0, "y": 0}], "hazards": []}},
  {"turn": 1, "board": {"width": 3, "height": 3, "snakes": [], "food": []}}
]`

func TestLoad_ParsesTurnsInOrder(t *testing.T) {
	s, err := Load(strings.NewReader(twoTurns))
	require.NoError(t, err)
	require.Equal(t, 2, s.Count())

	first, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Board.Width)
	require.Len(t, first.Board.Snakes, 1)
	assert.Equal(t, "a", first.Board.Snakes[0].ID)
	assert.Equal(t, Position{X: 1, Y: 1}, first.Board.Snakes[0].Head())
	assert.Equal(t, []Position{{X: 0, Y: 0}}, first.Board.Food)
	assert.Contains(t, string(first.Raw), `"alpha"`)

	second, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Turn)
	assert.Empty(t, second.Board.Snakes)
}

func TestLoad_RejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "not json", input: `{{`, want: "expected an array"},
		{name: "object instead of array", input: `{"board": {}}`, want: "expected an array"},
		{name: "null", input: `null`, want: "got null"},
		{name: "element not an object", input: `[1]`, want: "not an object"},
		{name: "missing board", input: `[{"turn": 0}]`, want: "missing board"},
		{name: "non-integer width", input: `[{"board": {"width": 2.5, "height": 3}}]`, want: "turn 0"},
		{name: "string height", input: `[{"board": {"width": 3, "height": "3"}}]`, want: "turn 0"},
		{name: "zero size", input: `[{"board": {"width": 0, "height": 3}}]`, want: "invalid board size"},
		{name: "empty body", input: `[{"board": {"width": 3, "height": 3, "snakes": [{"id": "a", "body": []}]}}]`, want: "empty body"},
		{name: "missing id", input: `[{"board": {"width": 3, "height": 3, "snakes": [{"body": [{"x": 0, "y": 0}]}]}}]`, want: "has no id"},
		{name: "duplicate id", input: `[{"board": {"width": 3, "height": 3, "snakes": [
			{"id": "a", "body": [{"x": 0, "y": 0}]}, {"id": "a", "body": [{"x": 1, "y": 0}]}]}}]`, want: "duplicate snake id"},
		{name: "empty body segment", input: `[{"board": {"width": 3, "height": 3, "snakes": [{"id": "a", "body": [{}]}]}}]`, want: `snake "a" body segment 0 needs both x and y`},
		{name: "null body segment", input: `[{"board": {"width": 3, "height": 3, "snakes": [{"id": "a", "body": [null]}]}}]`, want: `snake "a" body segment 0 needs both x and y`},
		{name: "segment missing y", input: `[{"board": {"width": 3, "height": 3, "snakes": [{"id": "a", "body": [{"x": 1, "y": 1}, {"x": 1}]}]}}]`, want: `snake "a" body segment 1 needs both x and y`},
		{name: "food missing x", input: `[{"board": {"width": 3, "height": 3, "food": [{"y": 2}]}}]`, want: "food segment 0 needs both x and y"},
		{name: "null hazard", input: `[{"board": {"width": 3, "height": 3, "hazards": [null]}}]`, want: "hazard segment 0 needs both x and y"},
		{name: "trailing value", input: `[{"board": {"width": 3, "height": 3}}] {"not": "an array"}`, want: "trailing data"},
		{name: "trailing garbage", input: `[] xyz`, want: "trailing data"},
		{name: "malformed position", input: `[{"board": {"width": 3, "height": 3, "food": [{"x": "1", "y": 0}]}}]`, want: "turn 0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Load(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, ErrFormat), "want ErrFormat, got %v", err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_ReportsEveryBadTurn(t *testing.T) {
	input := `[{"turn": 0}, {"board": {"width": 3, "height": 3}}, {"turn": 2}]`
	_, err := Load(strings.NewReader(input))
	require.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "turn 0: missing board")
	assert.Contains(t, err.Error(), "turn 2: missing board")
	assert.NotContains(t, err.Error(), "turn 1")
}

func TestLoad_ReportsEveryBadSegment(t *testing.T) {
	input := `[{"board": {"width": 3, "height": 3, "snakes": [{"id": "a", "body": [{"x": 0, "y": 0}, {}, null]}]}}]`
	_, err := Load(strings.NewReader(input))
	require.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), `snake "a" body segment 1`)
	assert.Contains(t, err.Error(), `snake "a" body segment 2`)
	assert.NotContains(t, err.Error(), "segment 0")
}

func TestLoad_AllowsTrailingWhitespace(t *testing.T) {
	s, err := Load(strings.NewReader(twoTurns + "\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())
}

func TestLoad_EmptyArray(t *testing.T) {
	s, err := Load(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestGet_BoundsChecked(t *testing.T) {
	s, err := Load(strings.NewReader(twoTurns))
	require.NoError(t, err)

	for _, turn := range []int{-1, 2, 100} {
		_, err := s.Get(turn)
		assert.ErrorIs(t, err, ErrOutOfRange, "turn %d", turn)
	}
}

func TestPrevious(t *testing.T) {
	s, err := Load(strings.NewReader(twoTurns))
	require.NoError(t, err)

	_, ok, err := s.Previous(0)
	require.NoError(t, err)
	assert.False(t, ok, "turn 0 has no previous turn")

	prev, ok, err := s.Previous(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, prev.Turn)

	_, _, err = s.Previous(2)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPair(t *testing.T) {
	s, err := Load(strings.NewReader(twoTurns))
	require.NoError(t, err)

	cur, prev, err := s.Pair(0)
	require.NoError(t, err)
	assert.Equal(t, 0, cur.Turn)
	assert.Nil(t, prev)

	cur, prev, err = s.Pair(1)
	require.NoError(t, err)
	assert.Equal(t, 1, cur.Turn)
	require.NotNil(t, prev)
	assert.Len(t, prev.Board.Snakes, 1)

	_, _, err = s.Pair(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestLoadFile_PlainAndGzip(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "states.json")
	require.NoError(t, os.WriteFile(plain, []byte(twoTurns), 0o644))

	compressed := filepath.Join(dir, "states.json.gz")
	f, err := os.Create(compressed)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(twoTurns))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{plain, compressed} {
		s, err := LoadFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, 2, s.Count(), path)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
