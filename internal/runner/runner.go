package runner

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

//go:generate mockgen -source=runner.go -destination=runner_mock.go -package=runner

// shutdownTimeout bounds the graceful shutdown of each HTTP server.
const shutdownTimeout = 5 * time.Second

// Worker is a long-running activity that returns when ctx is done.
type Worker interface {
	Start(ctx context.Context) error
}

// HTTPServer defines HTTP server interface.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Runner starts workers and servers on a shared context. The first error
// cancels that context for everyone, and Run returns only after every
// activity has exited.
type Runner struct {
	mu      sync.Mutex
	workers []Worker
	servers []HTTPServer
	wg      sync.WaitGroup
	errCh   chan error
}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{
		errCh: make(chan error, 1), // keeps the first error only
	}
}

// AddWorker adds a Worker to be run later.
func (r *Runner) AddWorker(worker Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers = append(r.workers, worker)
}

// AddHTTPServer adds an HTTPServer to be run later.
func (r *Runner) AddHTTPServer(srv HTTPServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers = append(r.servers, srv)
}

// Run starts everything that was added and blocks until all of it has
// returned. Cancellation of ctx is a clean shutdown and yields nil; otherwise
// the first error reported by any activity is returned.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	workers := append([]Worker(nil), r.workers...)
	servers := append([]HTTPServer(nil), r.servers...)
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, w := range workers {
		r.runWorker(ctx, cancel, w)
	}
	for _, srv := range servers {
		r.runHTTPServer(ctx, cancel, srv)
	}

	r.wg.Wait()

	select {
	case err := <-r.errCh:
		return err
	default:
		return nil
	}
}

// runWorker runs a single Worker in a goroutine. A worker returning, with or
// without an error, stops the others.
func (r *Runner) runWorker(ctx context.Context, cancel context.CancelFunc, worker Worker) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		if err := worker.Start(ctx); err != nil {
			r.sendError(err)
		}
	}()
}

// runHTTPServer runs a single HTTPServer in a goroutine and handles graceful shutdown.
func (r *Runner) runHTTPServer(ctx context.Context, cancel context.CancelFunc, srv HTTPServer) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		serverErrCh := make(chan error, 1)
		go func() {
			serverErrCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				r.sendError(err)
				return
			}
			<-serverErrCh
		case err := <-serverErrCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.sendError(err)
			}
			cancel()
		}
	}()
}

// sendError keeps the first encountered error.
func (r *Runner) sendError(err error) {
	select {
	case r.errCh <- err:
	default:
	}
}
