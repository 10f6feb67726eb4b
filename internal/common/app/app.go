package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// ContextWithShutdown returns a child of parent that is cancelled on SIGINT or SIGTERM, and a function
// releasing the signal handler. A second signal isn't caught, so it kills the process.
func ContextWithShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			log.Warnf("received %s, stopping", sig)
			signal.Stop(c)
			cancel()
		case <-ctx.Done():
			signal.Stop(c)
		}
	}()
	return ctx, cancel
}
