package shipmate

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Runner runs one component within the supervisor.
type Runner struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor manages component lifecycles: all components start together
// and the first failure, or a cancelled context, brings everything down.
type Supervisor struct {
	Logger *zap.Logger
}

// Run starts all runners and waits for termination.
func (s Supervisor) Run(ctx context.Context, runners []Runner) error {
	if len(runners) == 0 {
		return fmt.Errorf("no components to run")
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(runners))

	for _, runner := range runners {
		r := runner
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger := s.Logger.With(zap.String("component", r.Name))
			logger.Info("starting component")
			if err := r.Run(ctx); err != nil {
				logger.Error("component exited", zap.Error(err))
				errCh <- fmt.Errorf("%s: %w", r.Name, err)
				return
			}
			logger.Info("component stopped")
		}()
	}

	select {
	case <-ctx.Done():
		s.Logger.Info("shutdown requested")
	case err := <-errCh:
		return err
	}

	wg.Wait()
	return nil
}
