package nimbus

import (
	"context"

	"github.com/nimbusobs/nimbus-go/internal/transport"
	"github.com/nimbusobs/nimbus-go/protocol"
)

// sendTask adapts a single event delivery into a dispatch.Task, the only
// caller the dispatch core has in this repo.
type sendTask struct {
	tr transport.Transport
	ev protocol.Event
}

func newSendTask(tr transport.Transport, ev protocol.Event) *sendTask {
	return &sendTask{tr: tr, ev: ev}
}

// Run delegates to the transport using the dispatch core's own worker
// context, so a ShutdownNow interrupt cancels an in-flight send the same way
// it cancels any other task body.
func (t *sendTask) Run(ctx context.Context) error {
	return t.tr.Send(ctx, t.ev)
}
