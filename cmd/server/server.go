package main

import (
	"context"
	"errors"
	"net/http"

	"triviaarena/internal/applog"
)

// gracefulServer wraps http.Server so main can run it in a goroutine and
// shut it down on signal without leaking the net/http plumbing into main.
type gracefulServer struct {
	router http.Handler
	addr   string
	srv    *http.Server
}

func (g *gracefulServer) run() {
	g.srv = &http.Server{Addr: g.addr, Handler: g.router}
	if err := g.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Fatal("http server failed", err)
	}
}

func (g *gracefulServer) shutdown(ctx context.Context) {
	if g.srv == nil {
		return
	}
	if err := g.srv.Shutdown(ctx); err != nil {
		applog.Warn("graceful shutdown error", map[string]any{"error": err.Error()})
	}
}
