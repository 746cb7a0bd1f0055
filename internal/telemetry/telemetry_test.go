package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyguard/internal/domain"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "rule", "security-credentials")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "security-credentials", rec["rule"])
}

func TestNewLoggerRejectsUnknown(t *testing.T) {
	_, err := NewLogger(LogConfig{Format: "xml"})
	assert.Error(t, err)
	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCheck(domain.RiskHigh, []string{"a"}, time.Millisecond)
	m.ObserveRejected("text")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.ObserveCheck(domain.RiskMedium, []string{"hr-sensitive", "unprofessional-tone"}, 2*time.Millisecond)
	m.ObserveRejected("")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `policyguard_checks_total{risk="MEDIUM"} 1`)
	assert.Contains(t, body, `policyguard_rule_matches_total{rule="unprofessional-tone"} 1`)
	assert.Contains(t, body, `policyguard_checks_rejected_total{field="unknown"} 1`)
	assert.Contains(t, body, `policyguard_check_duration_seconds_count 1`)
	assert.Contains(t, body, `go_goroutines`)
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(context.Background(), TracingConfig{Enabled: true, SampleRatio: -1})
	assert.Error(t, err)
}
