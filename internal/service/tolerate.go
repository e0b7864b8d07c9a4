package service

import (
	"context"
	"log/slog"
)

// tolerate runs one branch of a view fan-out. A failing branch is logged at
// WARN and replaced by fallback so sibling branches are never affected.
func tolerate[T any](ctx context.Context, logger *slog.Logger, branch string, fallback T, fn func() (T, error), attrs ...slog.Attr) T {
	v, err := fn()
	if err != nil {
		args := make([]any, 0, len(attrs)+2)
		args = append(args, slog.String("branch", branch), slog.String("error", err.Error()))
		for _, a := range attrs {
			args = append(args, a)
		}
		logger.WarnContext(ctx, "branch degraded", args...)
		return fallback
	}
	return v
}
