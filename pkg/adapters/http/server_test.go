package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui"
	httpadapter "github.com/aretw0/genui/pkg/adapters/http"
	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

const form = `{"card": {"title": "Sign up", "children": [
	{"input": {"label": "Email"}},
	{"button": {"label": "Party", "action": {"type": "TRIGGER_EFFECT", "payload": {"effect": "CONFETTI"}}}}
]}}`

type fixture struct {
	server  *httptest.Server
	client  *genui.Client
	model   *memory.Model
	streams *httpadapter.StreamManager
}

func setup(t *testing.T, opts ...httpadapter.Option) *fixture {
	t.Helper()
	model := memory.NewModel()
	model.Fallback = func(ports.GenerateRequest) memory.Script { return memory.Script{Chunks: memory.Split(form, 11)} }
	streams := httpadapter.NewStreamManager(nil)
	client, err := genui.New(genui.WithModel(model), genui.WithEffectSink(streams), genui.WithDebounceDelay(time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	handler, err := httpadapter.NewHandler(client, append([]httpadapter.Option{httpadapter.WithStreams(streams)}, opts...)...)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, client: client, model: model, streams: streams}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	resp, out := f.do(t, http.MethodPost, "/conversations", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return out["conversation_id"].(string)
}

func TestHealthAndInfo(t *testing.T) {
	f := setup(t)

	resp, out := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])

	_, out = f.do(t, http.MethodGet, "/info", nil)
	assert.Equal(t, "genui-http", out["app"])
	assert.Equal(t, genui.Version, out["version"])
}

func TestCatalog(t *testing.T) {
	f := setup(t)
	_, out := f.do(t, http.MethodGet, "/catalog", nil)
	assert.Len(t, out["components"], 20)
	assert.Contains(t, out["prompt"], "COMPONENT DEFINITIONS")
}

func TestValidateAndRepair(t *testing.T) {
	f := setup(t)

	_, out := f.do(t, http.MethodPost, "/validate", map[string]any{"tree": map[string]any{"text": map[string]any{"content": "hi"}}})
	assert.Equal(t, true, out["valid"])

	_, out = f.do(t, http.MethodPost, "/validate", map[string]any{"tree": map[string]any{"type": "Button"}})
	assert.Equal(t, false, out["valid"])
	assert.NotEmpty(t, out["error"])

	_, out = f.do(t, http.MethodPost, "/repair", map[string]any{"text": `{"text": {"content": "hel`})
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, map[string]any{"text": map[string]any{"content": "hel"}}, out["value"])
}

func TestRequestValidation(t *testing.T) {
	f := setup(t)
	id := f.create(t)

	resp, _ := f.do(t, http.MethodPost, "/conversations/"+id+"/messages", map[string]any{"text": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "minLength")

	resp, _ = f.do(t, http.MethodPost, "/conversations/"+id+"/actions", map[string]any{"payload": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing type")

	resp, _ = f.do(t, http.MethodPut, "/conversations/"+id+"/context", map[string]any{"device": "watch"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "enum")
}

func TestConversationLifecycle(t *testing.T) {
	f := setup(t)
	id := f.create(t)

	resp, out := f.do(t, http.MethodPost, "/conversations/"+id+"/messages", map[string]any{"text": "a sign up form"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs := out["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	assert.Equal(t, "assistant", last["role"])
	assert.NotNil(t, last["ui"])

	resp, out = f.do(t, http.MethodGet, "/conversations/"+id+"/view", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "card", out["component"])
	assert.Equal(t, "ok", out["status"])
	assert.Len(t, out["children"], 2)

	resp, _ = f.do(t, http.MethodPost, "/conversations/"+id+"/input", map[string]any{"path": "root.card.children.0.input", "value": "a@b.c"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	f.client.Wait()

	_, out = f.do(t, http.MethodGet, "/conversations/"+id, nil)
	msgs = out["messages"].([]any)
	ui := msgs[len(msgs)-1].(map[string]any)["ui"]
	raw, _ := json.Marshal(ui)
	assert.Contains(t, string(raw), `"value":"a@b.c"`)

	_, out = f.do(t, http.MethodGet, "/conversations", nil)
	assert.Contains(t, out["conversations"], id)

	resp, _ = f.do(t, http.MethodDelete, "/conversations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/conversations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditFlowStatusCodes(t *testing.T) {
	f := setup(t)
	id := f.create(t)

	resp, _ := f.do(t, http.MethodGet, "/conversations/"+id+"/view", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "no tree yet")

	resp, _ = f.do(t, http.MethodPost, "/conversations/"+id+"/refine", map[string]any{"instruction": "bigger"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "nothing selected")

	f.do(t, http.MethodPost, "/conversations/"+id+"/messages", map[string]any{"text": "form"})
	resp, out := f.do(t, http.MethodPut, "/conversations/"+id+"/edit-mode", map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["edit_mode"])

	resp, out = f.do(t, http.MethodPut, "/conversations/"+id+"/selection", map[string]any{"path": "root.card.children.1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "root.card.children.1", out["selected"])

	_, out = f.do(t, http.MethodGet, "/conversations/"+id+"/view", nil)
	child := out["children"].([]any)[1].(map[string]any)
	assert.Equal(t, true, child["selected"])
}

// readEvents collects SSE events until n have arrived.
func readEvents(t *testing.T, body *bufio.Reader, n int) []httpadapter.Event {
	t.Helper()
	var events []httpadapter.Event
	var cur httpadapter.Event
	for len(events) < n {
		line, err := body.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, cur)
			cur = httpadapter.Event{}
		}
	}
	return events
}

func TestEvents(t *testing.T) {
	f := setup(t)
	id := f.create(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/conversations/"+id+"/events?watch=messages", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	body := bufio.NewReader(resp.Body)

	events := readEvents(t, body, 2)
	assert.Equal(t, "ping", events[0].Name)
	assert.Equal(t, "snapshot", events[1].Name)
	var first domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(events[1].Data), &first))
	require.Len(t, first.Appended, 1)
	assert.Equal(t, domain.WelcomeText, first.Appended[0].Text)

	require.NoError(t, f.client.Submit(context.Background(), id, "form"))
	events = readEvents(t, body, 1)
	assert.Equal(t, "diff", events[0].Name)
	var diff domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(events[0].Data), &diff))
	assert.NotEmpty(t, diff.Appended)

	require.NoError(t, f.client.Dispatch(context.Background(), id, domain.Action{
		Type:    domain.ActionTriggerEffect,
		Payload: map[string]any{"effect": "CONFETTI"},
	}))
	for {
		ev := readEvents(t, body, 1)[0]
		if ev.Name == "diff" {
			continue
		}
		assert.Equal(t, httpadapter.Event{Name: "effect", Data: `{"effect":"CONFETTI"}`}, ev)
		break
	}
}

func TestMetricsMount(t *testing.T) {
	f := setup(t, httpadapter.WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})))
	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
