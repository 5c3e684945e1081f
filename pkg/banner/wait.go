package banner

import (
	"context"

	"github.com/stackwatcher/stack-watcher/pkg/stores"
)

// WaitForFetches blocks until every listed store kind has reported a fetch
// on updates, or ctx is done. It returns the kinds still pending, which is
// empty when all reported. Failed fetches count as reported: the frame
// shows their error.
func WaitForFetches(ctx context.Context, updates <-chan stores.Update, kinds ...stores.Kind) []stores.Kind {
	pending := make(map[stores.Kind]bool, len(kinds))
	for _, k := range kinds {
		pending[k] = true
	}
	for len(pending) > 0 {
		select {
		case u, ok := <-updates:
			if !ok {
				return remaining(kinds, pending)
			}
			delete(pending, u.Kind)
		case <-ctx.Done():
			return remaining(kinds, pending)
		}
	}
	return nil
}

func remaining(kinds []stores.Kind, pending map[stores.Kind]bool) []stores.Kind {
	var out []stores.Kind
	for _, k := range kinds {
		if pending[k] {
			out = append(out, k)
		}
	}
	return out
}
