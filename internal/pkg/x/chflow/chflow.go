// Package chflow provides context-aware helpers for channel sends and
// receives, so loops built on channels always honor cancellation.
package chflow

import "context"

// Receive waits for a value from ch or for ctx to be canceled. The boolean
// is false when the context was done first or the channel is closed.
func Receive[T any](ctx context.Context, ch <-chan T) (T, bool) {
	var data T
	select {
	case <-ctx.Done():
		return data, false
	case data, ok := <-ch:
		return data, ok
	}
}

// Send delivers data to ch unless ctx is canceled first. It reports whether
// the send happened.
func Send[T any](ctx context.Context, ch chan<- T, data T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- data:
		return true
	}
}
