package nimbus

import (
	"context"
	"fmt"
)

// Recover captures the panic value currently being unwound, if any, as an
// exception event and then re-panics with the same value so the process's
// normal crash behavior is unaffected. It must be called directly from a
// deferred function:
//
//	defer client.Recover(ctx)
func (c *Client) Recover(ctx context.Context) {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", r)
	}
	c.CaptureException(ctx, err)
	panic(r)
}
