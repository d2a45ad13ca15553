package engine

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/notname9390/lol/pkg/logger"
)

// SafeGroup wraps errgroup.Group with panic recovery so one bad worker
// cannot take down the whole run.
type SafeGroup struct {
	group *errgroup.Group
	log   logger.Logger
}

// NewSafeGroup creates a new SafeGroup with panic recovery
func NewSafeGroup(ctx context.Context, log logger.Logger) (*SafeGroup, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &SafeGroup{
		group: g,
		log:   log,
	}, ctx
}

// Go runs the given function in a new goroutine. A panic is converted
// to an error and logged with its stack trace.
func (sg *SafeGroup) Go(fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				sg.log.Error("worker panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack", string(debug.Stack())))
				err = fmt.Errorf("worker panic: %v", r)
			}
		}()

		return fn()
	})
}

// SetLimit caps the number of concurrently running goroutines.
func (sg *SafeGroup) SetLimit(n int) {
	sg.group.SetLimit(n)
}

// Wait blocks until all goroutines have completed and returns the
// first error encountered.
func (sg *SafeGroup) Wait() (err error) {
	defer func() {
		if r := recover(); r != nil {
			sg.log.Error("panic during wait",
				logger.WithField("panic", r),
				logger.WithField("stack", string(debug.Stack())))
			err = fmt.Errorf("wait panic: %v", r)
		}
	}()

	return sg.group.Wait()
}
