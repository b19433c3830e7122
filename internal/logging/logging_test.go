package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		enabled zapcore.Level
		muted   zapcore.Level
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig(), enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
		{name: "empty level", cfg: Config{}, enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
		{name: "warn", cfg: Config{Level: "warn"}, enabled: zapcore.WarnLevel, muted: zapcore.InfoLevel},
		{name: "development debug", cfg: Config{Level: "debug", Development: true}, enabled: zapcore.DebugLevel, muted: zapcore.DebugLevel - 1},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("expected %s enabled", tt.enabled)
			}
			if logger.Core().Enabled(tt.muted) {
				t.Errorf("expected %s muted", tt.muted)
			}
		})
	}
}
