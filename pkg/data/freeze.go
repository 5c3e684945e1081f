package data

import (
	"sync/atomic"
)

// FreezeToken is an opaque handle returned by Freeze. Pass it to Unfreeze
// to release the corresponding freeze.
type FreezeToken uint64

var nextToken uint64

func newFreezeToken() FreezeToken {
	return FreezeToken(atomic.AddUint64(&nextToken, 1))
}

// frozenState holds the frozen snapshot and the latest replacement that
// arrived while the series was frozen. Multiple callers can freeze the same
// series; it stays frozen until all of them unfreeze.
type frozenState struct {
	snapshot *SeriesSnapshot
	pending  *Series
	count    int
	tokens   map[FreezeToken]bool
}

// Freeze pins the named series (or every series if no names are given) so
// readers keep seeing the current data. A chart freezes its series while the
// user brushes a selection, so a refetch landing mid-gesture does not move
// the axis under the cursor. Replacements are held until Unfreeze.
func (s *Store) Freeze(names ...string) FreezeToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := newFreezeToken()

	if len(names) == 0 {
		names = make([]string, 0, len(s.series))
		for name := range s.series {
			names = append(names, name)
		}
	}

	for _, name := range names {
		ser, ok := s.series[name]
		if !ok {
			continue
		}
		fs, exists := s.frozen[name]
		if !exists {
			fs = &frozenState{
				snapshot: snapshotFrom(ser),
				tokens:   make(map[FreezeToken]bool),
			}
			s.frozen[name] = fs
		}
		fs.count++
		fs.tokens[token] = true
	}
	return token
}

// Unfreeze releases a freeze identified by token. When the last freeze on a
// series is released, a held-back replacement becomes live.
func (s *Store) Unfreeze(token FreezeToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, fs := range s.frozen {
		if !fs.tokens[token] {
			continue
		}
		delete(fs.tokens, token)
		fs.count--
		if fs.count > 0 {
			continue
		}
		if p := fs.pending; p != nil {
			ser := s.getOrCreate(name)
			ser.Times, ser.Values = p.Times, p.Values
			if p.Labels != nil {
				ser.Labels = p.Labels
			}
			s.enforceMaxPoints(ser)
			s.version++
		}
		delete(s.frozen, name)
	}
}
