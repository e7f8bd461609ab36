package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{name: "空值", level: "", want: slog.LevelDebug},
		{name: "info", level: "info", want: slog.LevelInfo},
		{name: "大写", level: "WARN", want: slog.LevelWarn},
		{name: "warning", level: "warning", want: slog.LevelWarn},
		{name: "error", level: " error ", want: slog.LevelError},
		{name: "未知", level: "verbose", want: slog.LevelDebug},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseLevel(tc.level))
		})
	}
}
