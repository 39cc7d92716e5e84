package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strabs/doit/pkg/log"
)

func TestGetLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level   string
		want    slog.Level
		wantErr bool
	}{
		"error":            {level: "error", want: slog.LevelError},
		"warn":             {level: "warn", want: slog.LevelWarn},
		"warning alias":    {level: "warning", want: slog.LevelWarn},
		"info":             {level: "info", want: slog.LevelInfo},
		"debug":            {level: "debug", want: slog.LevelDebug},
		"case insensitive": {level: "INFO", want: slog.LevelInfo},
		"unknown":          {level: "verbose", wantErr: true},
		"empty":            {level: "", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			lvl, err := log.GetLevel(tc.level)
			if tc.wantErr {
				require.ErrorIs(t, err, log.ErrUnknownLogLevel)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, lvl)
		})
	}
}

func TestGetFormat(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		format  string
		want    log.Format
		wantErr bool
	}{
		"json":    {format: "json", want: log.FormatJSON},
		"logfmt":  {format: "logfmt", want: log.FormatLogfmt},
		"text":    {format: "TEXT", want: log.FormatText},
		"unknown": {format: "xml", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, err := log.GetFormat(tc.format)
			if tc.wantErr {
				require.ErrorIs(t, err, log.ErrUnknownLogFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, f)
		})
	}
}

func TestCreateHandlerWithStrings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	h, err := log.CreateHandlerWithStrings(&buf, "info", "json")
	require.NoError(t, err)
	require.NotNil(t, h)

	logger := slog.New(h)
	logger.Info("hello", slog.String("k", "v"))

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	_, err = log.CreateHandlerWithStrings(&buf, "nope", "json")
	require.ErrorIs(t, err, log.ErrInvalidArgument)

	_, err = log.CreateHandlerWithStrings(&buf, "info", "nope")
	require.ErrorIs(t, err, log.ErrInvalidArgument)
}
