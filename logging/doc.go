// Package logging provides a tiny abstraction over slog so the feedback
// engine can depend on a minimal interface (Logger) while allowing hosts to
// plug any structured logger. Adapters for slog and zap are provided; the
// NoOpLogger default keeps the engine silent unless a host opts in.
package logging
