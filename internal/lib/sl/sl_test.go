package sl_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	attr := sl.Err(errors.New("something went wrong"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.NotPanics(t, func() {
		attr := sl.Err(nil)
		assert.Equal(t, "error", attr.Key)
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		json      bool
		debugSeen bool
	}{
		{name: "local is text with debug", env: "local", debugSeen: true},
		{name: "dev is json with debug", env: "dev", json: true, debugSeen: true},
		{name: "prod is json without debug", env: "prod", json: true},
		{name: "unknown env falls back to prod", env: "staging", json: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := sl.New(tt.env, &buf)

			log.Debug("debug line")
			debugWritten := buf.Len() > 0
			assert.Equal(t, tt.debugSeen, debugWritten)

			buf.Reset()
			log.Info("info line", sl.Err(errors.New("boom")))
			var decoded map[string]any
			if tt.json {
				require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
				assert.Equal(t, "boom", decoded["error"])
			} else {
				assert.Error(t, json.Unmarshal(buf.Bytes(), &decoded))
				assert.Contains(t, buf.String(), "error=boom")
			}
		})
	}
}
