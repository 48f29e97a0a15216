package transport

import (
	"context"
	"time"
)

// RecvAnyBlocking polls RecvAny until a message arrives or ctx is
// done. Coordinator and worker event loops are built over the
// non-blocking RecvAny probe (per the wire protocol's any-source
// receive); this wraps it into a blocking call for callers that have
// nothing else to do meanwhile.
func RecvAnyBlocking(ctx context.Context, t Transport, pollInterval time.Duration) (Message, error) {
	for {
		msg, ok, err := t.RecvAny()
		if err != nil {
			return Message{}, err
		}
		if ok {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
