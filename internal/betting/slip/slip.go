package slip

import "github.com/shopspring/decimal"

// Key identifies a selection. Membership in the slip is a set over this
// identity, not a counter.
type Key struct {
	EventID string
	Market  string
	Outcome string
}

// Selection is one pending pick in the slip. Stake is only meaningful in
// single mode, where each selection is staked independently.
type Selection struct {
	Key
	Odds  decimal.Decimal
	Stake decimal.Decimal
}

// Slip is the client-side pending bet set. Exists only in memory until
// submit; order of insertion is preserved for presentation.
type Slip struct {
	order []Key
	items map[Key]Selection
}

func New() *Slip {
	return &Slip{items: make(map[Key]Selection)}
}

// Toggle adds the selection, or removes it when an identical identity is
// already present. Returns true when the selection was added.
func (s *Slip) Toggle(sel Selection) bool {
	if _, ok := s.items[sel.Key]; ok {
		s.remove(sel.Key)
		return false
	}
	s.items[sel.Key] = sel
	s.order = append(s.order, sel.Key)
	return true
}

// SetStake updates the stake of an existing selection. No-op when the
// selection is not in the slip.
func (s *Slip) SetStake(k Key, stake decimal.Decimal) {
	sel, ok := s.items[k]
	if !ok {
		return
	}
	sel.Stake = stake
	s.items[k] = sel
}

// Remove drops one selection by identity.
func (s *Slip) Remove(k Key) { s.remove(k) }

func (s *Slip) remove(k Key) {
	if _, ok := s.items[k]; !ok {
		return
	}
	delete(s.items, k)
	for i, ord := range s.order {
		if ord == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Selections returns the current picks in insertion order.
func (s *Slip) Selections() []Selection {
	out := make([]Selection, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

func (s *Slip) Len() int { return len(s.items) }

func (s *Slip) Clear() {
	s.order = nil
	s.items = make(map[Key]Selection)
}
