package observability_test

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

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	h := m.Hooks()
	ctx := context.Background()

	h.OnFirstChunk(ctx, &domain.GenerationEvent{Elapsed: 120 * time.Millisecond})
	h.OnGenerationEnd(ctx, &domain.GenerationEvent{Outcome: domain.OutcomeCommitted, Elapsed: time.Second})
	h.OnGenerationEnd(ctx, &domain.GenerationEvent{Outcome: domain.OutcomeFailed})
	h.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "get_weather"})
	h.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "get_weather", IsError: true})
	h.OnClassificationMiss(ctx, &domain.NodeEvent{Keys: []string{"carousel"}})
	h.OnRenderFailure(ctx, &domain.NodeEvent{Component: "progress"})
	h.OnHeal(ctx, &domain.NodeEvent{Healed: true})
	h.OnAction(ctx, &domain.ActionEvent{Action: domain.Action{Type: domain.ActionSubmitForm}, Handled: true})

	expected := `
# HELP genui_generations_total Streamed generations by outcome.
# TYPE genui_generations_total counter
genui_generations_total{outcome="committed"} 1
genui_generations_total{outcome="failed"} 1
# HELP genui_tool_calls_total Tool executions by tool and result.
# TYPE genui_tool_calls_total counter
genui_tool_calls_total{result="error",tool_name="get_weather"} 1
genui_tool_calls_total{result="ok",tool_name="get_weather"} 1
# HELP genui_classification_misses_total Nodes whose key matched no component, by the unknown key.
# TYPE genui_classification_misses_total counter
genui_classification_misses_total{key="carousel"} 1
# HELP genui_heals_total Self-heal attempts by result.
# TYPE genui_heals_total counter
genui_heals_total{result="healed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"genui_generations_total", "genui_tool_calls_total", "genui_classification_misses_total", "genui_heals_total"))

	count, err := testutil.GatherAndCount(m.Registry(), "genui_first_chunk_seconds", "genui_render_failures_total", "genui_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnHeal(context.Background(), &domain.NodeEvent{})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `genui_heals_total{result="failed"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := observability.LogHooks(logger)
	ctx := context.Background()

	h.OnFrame(ctx, &domain.GenerationEvent{Bytes: 10})
	h.OnGenerationEnd(ctx, &domain.GenerationEvent{Outcome: domain.OutcomeFailed, Error: "quota"})
	h.OnToolCall(ctx, &domain.ToolEvent{ToolName: "roll"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "frames are debug only")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "generation_end", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "quota", rec["error"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "tool_call", rec["msg"])
	assert.Equal(t, "roll", rec["tool_name"])
}
