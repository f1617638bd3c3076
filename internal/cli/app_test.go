package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/internal/config"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/tools"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ToolsFile = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.GalleryDir = filepath.Join("..", "..", "examples", "gallery")
	return cfg
}

func TestNewApp_Offline(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(context.Background(), cfg, WithOffline(), WithToolOptions(tools.WithLatency(0, 0)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.Len(t, app.Examples, 3)
	assert.NotNil(t, app.Gallery)

	ctx := context.Background()
	id, err := app.Open(ctx, "")
	require.NoError(t, err)
	snap, err := app.Client.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, snap.Messages)

	require.NoError(t, app.Client.Submit(ctx, id, "show the release board"))
	snap, err = app.Client.Snapshot(ctx, id)
	require.NoError(t, err)
	i := domain.LastUIIndex(snap.Messages)
	require.GreaterOrEqual(t, i, 0)
	raw, err := json.Marshal(snap.Messages[i].UI)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "kanban", "the release board example answers")

	n, err := testutil.GatherAndCount(app.Metrics.Registry(), "genui_generations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = app.Open(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestNewApp_ProcessTools(t *testing.T) {
	cfg := testConfig(t)
	cfg.GalleryDir = ""
	cfg.ToolsFile = filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(cfg.ToolsFile, []byte(`tools:
  - name: greet
    description: Says hello
    command: echo
    args: ["hello"]
`), 0o644))

	app, err := NewApp(context.Background(), cfg, WithOffline())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	var names []string
	for _, tool := range app.Client.Tools() {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "greet")
	assert.Contains(t, names, "get_weather")
}

func TestNewApp_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()

	app, err := NewApp(context.Background(), cfg, WithOffline())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx := context.Background()
	id, err := app.Open(ctx, "")
	require.NoError(t, err)
	require.NoError(t, app.Client.Submit(ctx, id, "sales"))

	var stored []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, cfg.Redis.Prefix) {
			stored = append(stored, k)
		}
	}
	assert.NotEmpty(t, stored, "conversation persisted under the configured prefix")
}

func TestNewApp_EncryptedStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(make([]byte, 32))

	app, err := NewApp(context.Background(), cfg, WithOffline())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx := context.Background()
	id, err := app.Open(ctx, "")
	require.NoError(t, err)
	require.NoError(t, app.Client.Submit(ctx, id, "quarterly sales"))

	raw, err := mr.Get(cfg.Redis.Prefix + "conversation:" + id)
	require.NoError(t, err)
	assert.NotContains(t, raw, "quarterly sales")
}

func TestNewApp_Errors(t *testing.T) {
	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		cfg := testConfig(t)
		cfg.Redis.Addr = addr
		_, err := NewApp(context.Background(), cfg, WithOffline())
		assert.ErrorContains(t, err, "unreachable")
	})

	t.Run("bad store key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
		_, err := NewApp(context.Background(), cfg, WithOffline())
		assert.ErrorContains(t, err, "32 bytes")
	})

	t.Run("broken gallery", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"ui": {"carousel": {}}}`), 0o644))
		cfg := testConfig(t)
		cfg.GalleryDir = dir
		_, err := NewApp(context.Background(), cfg, WithOffline())
		assert.ErrorContains(t, err, "gallery")
	})
}

func TestBestExample(t *testing.T) {
	examples := []domain.Example{
		{Name: "signup-form", Prompt: "A signup form"},
		{Name: "sales-report", Prompt: "Quarterly sales report", Tags: []string{"chart"}},
	}
	assert.Equal(t, "sales-report", bestExample(examples, "chart of sales").Name)
	assert.Equal(t, "signup-form", bestExample(examples, "hi").Name, "ties keep the first example")
}
