// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that starts the
// change-feed consumer and the periodic sync job of the daemon together.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Run starts the worker and returns right away; the worker keeps going
// until ctx is done. Wait blocks until it has fully stopped.
type Worker interface {
	Run(ctx context.Context)
	Wait()
}
