package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggingConfig_Prepare(t *testing.T) {
	testCases := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"normal", false, true},
		{"none", false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			log := LoggingConfig{Level: tc.level}.prepare(&stdout, &stderr, false, false)

			log.Debug("debug message")
			log.Info("info message")
			log.Error("error message")
			_ = log.Sync()

			assert.Equal(t, tc.wantDebug, bytes.Contains(stdout.Bytes(), []byte("debug message")))
			assert.Equal(t, tc.wantInfo, bytes.Contains(stdout.Bytes(), []byte("info message")))
			assert.NotContains(t, stdout.String(), "error message")
			assert.Equal(t, tc.level != "none", bytes.Contains(stderr.Bytes(), []byte("ERROR")))
		})
	}
}
