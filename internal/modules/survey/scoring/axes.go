package scoring

import (
	"errors"
	"fmt"
	"sort"

	types "github.com/earthnet/frame-survey/internal/domain"
)

// ErrConfiguration marks survey data that cannot be scored: a broken axis
// table, a question outside the task, or a result with no matching cluster.
var ErrConfiguration = errors.New("survey configuration error")

// AxisTable is the validated opposite-category lookup for one task.
type AxisTable struct {
	opposite map[uint]uint
	names    map[uint]string
}

// BuildAxisTable validates that the opposite relation over cats is a perfect
// pairing: every category has an opposite, none is its own, the opposite is
// in the same set, and the relation is symmetric.
func BuildAxisTable(cats []*types.Category) (*AxisTable, error) {
	byID := make(map[uint]*types.Category, len(cats))
	for _, c := range cats {
		if c == nil {
			continue
		}
		byID[c.ID] = c
	}

	at := &AxisTable{
		opposite: make(map[uint]uint, len(byID)),
		names:    make(map[uint]string, len(byID)),
	}
	for id, c := range byID {
		if c.OppositeID == nil || *c.OppositeID == 0 {
			return nil, fmt.Errorf("%w: category %q has no opposite", ErrConfiguration, c.Name)
		}
		oppID := *c.OppositeID
		if oppID == id {
			return nil, fmt.Errorf("%w: category %q is its own opposite", ErrConfiguration, c.Name)
		}
		opp, ok := byID[oppID]
		if !ok {
			return nil, fmt.Errorf("%w: opposite %d of %q is not in task %d", ErrConfiguration, oppID, c.Name, c.TaskID)
		}
		if opp.TaskID != c.TaskID {
			return nil, fmt.Errorf("%w: %q and %q belong to different tasks", ErrConfiguration, c.Name, opp.Name)
		}
		if opp.OppositeID == nil || *opp.OppositeID != id {
			return nil, fmt.Errorf("%w: %q -> %q is not symmetric", ErrConfiguration, c.Name, opp.Name)
		}
		at.opposite[id] = oppID
		at.names[id] = c.Name
	}
	return at, nil
}

func (a *AxisTable) Opposite(id uint) (uint, bool) {
	opp, ok := a.opposite[id]
	return opp, ok
}

func (a *AxisTable) Name(id uint) string { return a.names[id] }

func (a *AxisTable) Len() int { return len(a.opposite) / 2 }

// Pairs returns each axis once as (lower id, higher id), ordered by the lower id.
func (a *AxisTable) Pairs() [][2]uint {
	out := make([][2]uint, 0, a.Len())
	for id, opp := range a.opposite {
		if id < opp {
			out = append(out, [2]uint{id, opp})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
