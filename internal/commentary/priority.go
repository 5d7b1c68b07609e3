package commentary

import "sort"

// PriorityTable maps event kinds to their urgency. Higher values preempt lower ones.
// A table is immutable once built.
type PriorityTable struct {
	values map[EventKind]int
}

// DefaultPriorities returns the built-in priority table.
func DefaultPriorities() PriorityTable {
	return NewPriorityTable(map[EventKind]int{
		AlienDestroyedNormal:    1,
		AlienDestroyedTough:     1,
		PowerUpAppear:           3,
		PowerUpCollectRapidFire: 4,
		PowerUpCollectShield:    4,
		PowerUpDestroyed:        5,
		GamePaused:              6,
		GameResumed:             6,
		LoseLife:                8,
		LevelUp:                 8,
		GainLife:                8,
		GameStart:               10,
		GameRestart:             10,
		GameOver:                10,
	})
}

// NewPriorityTable copies values into a new table.
func NewPriorityTable(values map[EventKind]int) PriorityTable {
	copied := make(map[EventKind]int, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return PriorityTable{values: copied}
}

// Lookup returns the priority for kind. Unknown kinds report 0 and false.
func (t PriorityTable) Lookup(kind EventKind) (int, bool) {
	p, ok := t.values[kind]
	return p, ok
}

// PriorityEntry is one row of the table, used for listings.
type PriorityEntry struct {
	Kind     EventKind `json:"kind"`
	Priority int       `json:"priority"`
}

// Entries lists the table ordered by descending priority, then by kind name.
func (t PriorityTable) Entries() []PriorityEntry {
	out := make([]PriorityEntry, 0, len(t.values))
	for k, v := range t.values {
		out = append(out, PriorityEntry{Kind: k, Priority: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
