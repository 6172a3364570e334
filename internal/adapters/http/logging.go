package http

import "log/slog"

const serviceName = "stockdeck-api"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		slog.String("service", serviceName),
		slog.String("layer", "http"),
	)
}

func logHandlerError(operation string, err error) {
	httpLogger().Error("operation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
