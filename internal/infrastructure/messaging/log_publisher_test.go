package messaging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/claimrisk/internal/domain/event"
	"github.com/bibbank/claimrisk/internal/infrastructure/messaging"
)

func TestLogPublisher(t *testing.T) {
	tests := []struct {
		name        string
		level       slog.Level
		wantPayload bool
	}{
		{name: "info omits payload", level: slog.LevelInfo, wantPayload: false},
		{name: "debug includes payload", level: slog.LevelDebug, wantPayload: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: tt.level}))
			pub := messaging.NewLogPublisher(logger)

			evt := event.NewClaimScored("a-7", "c-7", "clinic", "REVIEW", "full",
				0.3, 0.45, []string{"late_reporting"}, false, time.Now())
			require.NoError(t, pub.Publish(context.Background(), evt))

			out := buf.String()
			assert.Contains(t, out, event.EventTypeClaimScored)
			assert.Contains(t, out, "a-7")
			assert.Equal(t, tt.wantPayload, bytes.Contains(buf.Bytes(), []byte("event payload")))
		})
	}
}
