package tools_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/registry"
	"github.com/aretw0/genui/pkg/tools"
)

func newRegistry(t *testing.T, opts ...tools.ServiceOption) *registry.Registry {
	t.Helper()
	opts = append([]tools.ServiceOption{tools.WithLatency(0, 0), tools.WithSeed(7)}, opts...)
	reg := registry.NewRegistry()
	tools.NewService(opts...).Register(reg)
	return reg
}

func call(t *testing.T, reg *registry.Registry, name string, args map[string]any) domain.ToolResult {
	t.Helper()
	res, err := reg.Execute(context.Background(), domain.ToolCall{Name: name, Args: args})
	require.NoError(t, err)
	return res
}

func TestDefinitions_PromptOrder(t *testing.T) {
	var names []string
	for _, d := range tools.Definitions() {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description)
		assert.Equal(t, "object", d.Parameters["type"])
	}
	assert.Equal(t, []string{"get_weather", "search_knowledge", "get_stock_price", "get_crypto_price"}, names)

	reg := newRegistry(t)
	assert.Equal(t, names, reg.Names())
}

func TestWeather_Live(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "35.6762", r.URL.Query().Get("latitude"))
		assert.Equal(t, "139.6503", r.URL.Query().Get("longitude"))
		_, _ = w.Write([]byte(`{
			"current": {"temperature_2m": 22.5, "relative_humidity_2m": 60, "weather_code": 61, "wind_speed_10m": 12.3},
			"current_units": {"temperature_2m": "°C", "wind_speed_10m": "km/h"}
		}`))
	}))
	defer srv.Close()

	reg := newRegistry(t, tools.WithEndpoints(srv.URL, srv.URL))
	res := call(t, reg, "get_weather", map[string]any{"location": "Tokyo"})
	require.False(t, res.IsError, res.Error)

	out := res.Result.(map[string]any)
	assert.Equal(t, "Tokyo", out["location"])
	assert.Equal(t, "22.5°C", out["temperature"])
	assert.Equal(t, "Rainy", out["condition"])
	assert.Equal(t, "60%", out["humidity"])
	assert.Equal(t, "12.3 km/h", out["windSpeed"])
	assert.Equal(t, "Open-Meteo API (Real-time)", out["source"])
}

func TestWeather_FallsBackToMock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	reg := newRegistry(t, tools.WithEndpoints(srv.URL, srv.URL))

	for _, city := range []string{"London", "Atlantis"} {
		res := call(t, reg, "get_weather", map[string]any{"location": city})
		require.False(t, res.IsError)
		out := res.Result.(map[string]any)
		assert.Equal(t, city, out["location"])
		assert.Equal(t, "Mock Data", out["source"])
		assert.Regexp(t, `^-?\d+°C$`, out["temperature"])
		assert.Contains(t, out["forecast"], "conditions throughout the day")
	}
}

func TestWeatherCondition(t *testing.T) {
	tests := map[int]string{
		0:  "Clear",
		2:  "Cloudy",
		45: "Foggy",
		63: "Rainy",
		73: "Snowy",
		80: "Clear",
		96: "Thunderstorm",
	}
	for code, want := range tests {
		assert.Equal(t, want, tools.WeatherCondition(code), "code %d", code)
	}
}

func TestCryptoPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("ids") {
		case "bitcoin":
			_, _ = w.Write([]byte(`{"bitcoin": {"usd": 65432.1, "usd_24h_change": -1.234}}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	reg := newRegistry(t, tools.WithEndpoints(srv.URL, srv.URL))

	t.Run("found", func(t *testing.T) {
		res := call(t, reg, "get_crypto_price", map[string]any{"coin_id": "bitcoin"})
		require.False(t, res.IsError, res.Error)
		out := res.Result.(map[string]any)
		assert.Equal(t, "BITCOIN", out["symbol"])
		assert.Equal(t, "$65,432.1", out["price"])
		assert.Equal(t, "-1.23%", out["change24h"])
		assert.Equal(t, "DOWN", out["trend"])
	})

	t.Run("unknown coin", func(t *testing.T) {
		res := call(t, reg, "get_crypto_price", map[string]any{"coin_id": "dogecorn"})
		assert.True(t, res.IsError)
		assert.Equal(t, "Coin 'dogecorn' not found. Try 'bitcoin', 'ethereum', or 'solana'.", res.Error)
	})
}

func TestCryptoPrice_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	reg := newRegistry(t, tools.WithEndpoints(srv.URL, srv.URL))
	res := call(t, reg, "get_crypto_price", map[string]any{"coin_id": "solana"})
	require.False(t, res.IsError)
	out := res.Result.(map[string]any)
	assert.Equal(t, "Mock Data (API Unavailable)", out["source"])
	assert.Regexp(t, `^\$\d+\.\d{2}$`, out["price"])
}

func TestMissingArgument(t *testing.T) {
	reg := newRegistry(t)
	tests := map[string]string{
		"get_weather":      "location",
		"search_knowledge": "query",
		"get_stock_price":  "symbol",
		"get_crypto_price": "coin_id",
	}
	for name, arg := range tests {
		res := call(t, reg, name, map[string]any{})
		assert.True(t, res.IsError)
		assert.Equal(t, "Failed to execute tool '"+name+"': Missing '"+arg+"' argument", res.Error)
	}
}

func TestStockPrice_Shape(t *testing.T) {
	reg := newRegistry(t)
	res := call(t, reg, "get_stock_price", map[string]any{"symbol": "nvda"})
	require.False(t, res.IsError)

	out := res.Result.(map[string]any)
	assert.Equal(t, "NVDA", out["symbol"])
	assert.Equal(t, "USD", out["currency"])

	history := out["history"].([]any)
	require.Len(t, history, 10)
	first := history[0].(map[string]any)
	last := history[9].(map[string]any)
	assert.Equal(t, "09:30", first["name"])
	assert.Equal(t, "14:00", last["name"])
	assert.Equal(t, last["value"], out["currentPrice"])

	// history doubles as chart data
	raw, err := json.Marshal(map[string]any{"chart": map[string]any{"title": "NVDA", "data": history}})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name":"09:30"`)
}

func TestSearchKnowledge(t *testing.T) {
	reg := newRegistry(t)
	res := call(t, reg, "search_knowledge", map[string]any{"query": "failover"})
	require.False(t, res.IsError)
	out := res.Result.(map[string]any)
	assert.Equal(t, "failover", out["query"])
	assert.Len(t, out["results"], 2)
	assert.Contains(t, out["generatedSummary"], `"failover"`)
}

func TestSearchKnowledge_HonoursContext(t *testing.T) {
	reg := registry.NewRegistry()
	tools.NewService(tools.WithSeed(1)).Register(reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := reg.Execute(ctx, domain.ToolCall{Name: "search_knowledge", Args: map[string]any{"query": "x"}})
	assert.ErrorIs(t, err, context.Canceled)
}
