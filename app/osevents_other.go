//go:build !unix

package app

import "context"

// runOSEvents is a no-op on platforms without SIGWINCH.
func (s *Supervisor) runOSEvents(ctx context.Context) {
	<-ctx.Done()
}
