package ports

import "context"

// Watchable is implemented by stores that can notify about external changes
// (another process or replica rewriting a deck).
type Watchable interface {
	// Watch returns a channel receiving the patient id of every deck changed outside
	// this process. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
