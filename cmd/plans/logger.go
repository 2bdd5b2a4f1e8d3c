package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"
)

const requestIDKey = "request_id"

// logHandler tags records logged while serving a request with the chi
// request id. Errors are also copied to errorHandler when it is set.
type logHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *logHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	if h.coreHandler.Enabled(ctx, lvl) {
		return true
	}
	return h.errorHandler != nil && h.errorHandler.Enabled(ctx, lvl)
}

func (h *logHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := middleware.GetReqID(ctx); id != "" {
		r = r.Clone()
		r.AddAttrs(slog.String(requestIDKey, id))
	}

	if h.coreHandler.Enabled(ctx, r.Level) {
		if err := h.coreHandler.Handle(ctx, r); err != nil {
			return err
		}
	}

	// a failing error file must not break the request log
	if h.errorHandler != nil && r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &logHandler{coreHandler: h.coreHandler.WithAttrs(attrs)}
	if h.errorHandler != nil {
		out.errorHandler = h.errorHandler.WithAttrs(attrs)
	}
	return out
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	out := &logHandler{coreHandler: h.coreHandler.WithGroup(name)}
	if h.errorHandler != nil {
		out.errorHandler = h.errorHandler.WithGroup(name)
	}
	return out
}

func setupLogger(env, errorLogPath string) *slog.Logger {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	var coreHandler slog.Handler
	switch env {
	case envLocal:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: true})
	case envDev:
		coreHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	h := &logHandler{coreHandler: coreHandler}
	if errorLogPath == "" {
		return slog.New(h)
	}

	errorFile, err := os.OpenFile(errorLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("cannot open error log file", slog.String("path", errorLogPath), slog.String("err", err.Error()))
		return slog.New(h)
	}

	h.errorHandler = slog.NewTextHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(h)
}
