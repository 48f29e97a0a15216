// Package corpus archives novel testcases discovered during fuzzing.
package corpus

import "context"

// Store persists and lists testcase bytes. Corpus entries are
// content-addressed by digest so repeated Put calls for the same bytes
// are idempotent.
type Store interface {
	Put(ctx context.Context, digest string, data []byte) error
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, digest string) ([]byte, error)
}
