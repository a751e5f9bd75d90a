package sigctx

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyContext is done on the first SIGINT, SIGTERM or SIGQUIT,
// or when parent is done.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}
