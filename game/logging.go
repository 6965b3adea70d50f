package game

import (
	"context"
	"log/slog"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ForwardRaylibLogs routes raylib's trace log through logger. Call before
// the window opens so initialisation messages are captured.
func ForwardRaylibLogs(logger *slog.Logger) {
	rl.SetTraceLogLevel(rl.LogInfo)
	rl.SetTraceLogCallback(func(level int, msg string) {
		logger.Log(context.Background(), raylibLevel(rl.TraceLogLevel(level)), strings.TrimSpace(msg),
			"source", "raylib")
	})
}

// raylibLevel maps a raylib trace level to a slog level.
func raylibLevel(level rl.TraceLogLevel) slog.Level {
	switch {
	case level <= rl.LogDebug:
		return slog.LevelDebug
	case level == rl.LogInfo:
		return slog.LevelInfo
	case level == rl.LogWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
