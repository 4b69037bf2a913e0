package grid

import (
	"maps"
	"slices"
	"strings"

	"github.com/DoyleJ11/battlesnake-replay/internal/replay"
)

// IdentityIndex assigns every snake of a match a small stable integer used
// for consistent styling across turns. The zero value is empty.
type IdentityIndex struct {
	ids   []string
	index map[string]int
}

// NewIdentityIndex orders the roster by id and numbers it from 0.
func NewIdentityIndex(roster []replay.Snake) (IdentityIndex, error) {
	if len(roster) == 0 {
		return IdentityIndex{}, ErrEmptyMatch
	}

	ids := make([]string, 0, len(roster))
	for _, snake := range roster {
		ids = append(ids, snake.ID)
	}
	slices.SortFunc(ids, strings.Compare)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	return IdentityIndex{ids: ids, index: index}, nil
}

func (x IdentityIndex) Lookup(id string) (int, bool) {
	i, ok := x.index[id]
	return i, ok
}

func (x IdentityIndex) Len() int { return len(x.ids) }

// IDs returns the roster in index order.
func (x IdentityIndex) IDs() []string { return slices.Clone(x.ids) }

// Map returns a copy of the id to index mapping.
func (x IdentityIndex) Map() map[string]int { return maps.Clone(x.index) }
