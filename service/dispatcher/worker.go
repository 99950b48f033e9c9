package dispatcher

import (
	"context"
	"net/http"

	"ChatRelay/logger"
	"ChatRelay/service/chat"

	"github.com/gin-gonic/gin"
)

// Worker is one protocol-handling unit: its own session manager, its
// own HTTP/WebSocket server, fed exclusively by the slot's listener.
// Workers share nothing but the fan-out bus.
type Worker struct {
	Index int
	Srv   *chat.Server

	http *http.Server
	ln   *connListener
}

// NewWorker builds a worker for one table slot. register wires the
// event handlers into the fresh dispatcher.
func NewWorker(index int, ln *connListener, deps chat.Deps, register func(*chat.Dispatcher)) *Worker {
	srv := chat.NewServer(index, deps)
	register(srv.Dispatch)

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/chat", srv.HandleWS)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"worker": index, "conns": srv.Conns.Count()})
	})

	return &Worker{
		Index: index,
		Srv:   srv,
		http:  &http.Server{Handler: r},
		ln:    ln,
	}
}

// NewWorkerFactory closes the shared collaborators over a WorkerFactory
// so the sticky table can respawn slots without replumbing them.
func NewWorkerFactory(deps chat.Deps, register func(*chat.Dispatcher)) WorkerFactory {
	return func(index int, ln *connListener) *Worker {
		return NewWorker(index, ln, deps, register)
	}
}

// Run serves routed connections until the listener closes or the
// worker is stopped. A clean shutdown returns nil.
func (w *Worker) Run() error {
	if err := w.Srv.Start(); err != nil {
		return err
	}
	logger.Infof("[worker %d] serving", w.Index)
	err := w.http.Serve(w.ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop drains the worker: close sessions first so teardown events
// flush, then stop the HTTP server.
func (w *Worker) Stop(ctx context.Context) {
	w.Srv.Stop()
	if err := w.http.Shutdown(ctx); err != nil {
		logger.Warnf("[worker %d] shutdown: %v", w.Index, err)
	}
}
