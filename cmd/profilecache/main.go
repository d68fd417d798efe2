/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

// Command profilecache resolves DIDs to profile metadata through a persistent cache
// in front of the remote profile directory.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
