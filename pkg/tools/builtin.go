package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/registry"
)

const (
	DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"
	DefaultCryptoURL  = "https://api.coingecko.com/api/v3/simple/price"
)

// cityCoords resolves the cities the weather tool queries live.
var cityCoords = map[string][2]float64{
	"tokyo":         {35.6762, 139.6503},
	"new york":      {40.7128, -74.0060},
	"london":        {51.5074, -0.1278},
	"san francisco": {37.7749, -122.4194},
	"paris":         {48.8566, 2.3522},
	"singapore":     {1.3521, 103.8198},
	"sydney":        {-33.8688, 151.2093},
	"beijing":       {39.9042, 116.4074},
	"dubai":         {25.2048, 55.2708},
	"mumbai":        {19.0760, 72.8777},
}

var errUpstream = errors.New("upstream unavailable")

// Service implements the builtin tools.
type Service struct {
	client     *http.Client
	weatherURL string
	cryptoURL  string
	limiter    *rate.Limiter
	clock      clock.Clock
	logger     *slog.Logger

	searchLatency time.Duration
	stockLatency  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithHTTPClient(c *http.Client) ServiceOption {
	return func(s *Service) { s.client = c }
}

// WithEndpoints overrides the upstream base URLs.
func WithEndpoints(weather, crypto string) ServiceOption {
	return func(s *Service) {
		s.weatherURL = weather
		s.cryptoURL = crypto
	}
}

// WithRateLimit bounds upstream requests per second.
func WithRateLimit(perSecond float64, burst int) ServiceOption {
	return func(s *Service) { s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithClock sets the clock used for simulated latency.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithLatency sets the simulated latency of the mock tools. Zero disables it.
func WithLatency(search, stock time.Duration) ServiceOption {
	return func(s *Service) {
		s.searchLatency = search
		s.stockLatency = stock
	}
}

// WithSeed makes mock data deterministic.
func WithSeed(seed uint64) ServiceOption {
	return func(s *Service) { s.rng = rand.New(rand.NewPCG(seed, seed)) }
}

func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		client:        &http.Client{Timeout: 10 * time.Second},
		weatherURL:    DefaultWeatherURL,
		cryptoURL:     DefaultCryptoURL,
		limiter:       rate.NewLimiter(rate.Limit(5), 5),
		clock:         clock.New(),
		logger:        logging.NewNop(),
		searchLatency: 800 * time.Millisecond,
		stockLatency:  600 * time.Millisecond,
		rng:           rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func stringParam(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func object(props map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": props}
}

// Definitions describes the builtin tools in prompt order.
func Definitions() []domain.Tool {
	return []domain.Tool{
		{
			Name:        "get_weather",
			Description: "Returns current temperature and condition.",
			Parameters:  object(map[string]any{"location": stringParam("City name, e.g. Tokyo")}),
		},
		{
			Name:        "search_knowledge",
			Description: "Returns summary from knowledge base (use for generic questions).",
			Parameters:  object(map[string]any{"query": stringParam("Search query")}),
		},
		{
			Name:        "get_stock_price",
			Description: "Returns stock data.",
			Parameters:  object(map[string]any{"symbol": stringParam("Ticker symbol")}),
		},
		{
			Name:        "get_crypto_price",
			Description: "Returns current price and 24h change for a cryptocurrency (e.g., 'bitcoin', 'ethereum', 'solana').",
			Parameters:  object(map[string]any{"coin_id": stringParam("CoinGecko coin id")}),
		},
	}
}

// Register binds the builtin tools into reg.
func (s *Service) Register(reg *registry.Registry) {
	fns := map[string]registry.ToolFunction{
		"get_weather":      s.Weather,
		"search_knowledge": s.SearchKnowledge,
		"get_stock_price":  s.StockPrice,
		"get_crypto_price": s.CryptoPrice,
	}
	for _, t := range Definitions() {
		reg.Register(t, fns[t.Name])
	}
}

func requireString(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("Missing '%s' argument", name)
	}
	return v, nil
}

func (s *Service) float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Service) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-s.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errUpstream, err)
	}
	return nil
}

type meteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Units struct {
		Temperature string `json:"temperature_2m"`
		WindSpeed   string `json:"wind_speed_10m"`
	} `json:"current_units"`
}

// Weather answers get_weather. Cities outside the coordinate table and
// upstream failures get mock data.
func (s *Service) Weather(ctx context.Context, args map[string]any) (any, error) {
	location, err := requireString(args, "location")
	if err != nil {
		return nil, err
	}
	coords, ok := cityCoords[strings.ToLower(strings.TrimSpace(location))]
	if !ok {
		s.logger.Debug("city not in coordinate table, using mock", "location", location)
		return s.mockWeather(location), nil
	}

	q := url.Values{}
	q.Set("latitude", num(coords[0]))
	q.Set("longitude", num(coords[1]))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")
	q.Set("timezone", "auto")

	var data meteoResponse
	if err := s.getJSON(ctx, s.weatherURL, q, &data); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("weather fetch failed, falling back to mock", "err", err)
		return s.mockWeather(location), nil
	}

	c := data.Current
	return map[string]any{
		"location":    location,
		"temperature": num(c.Temperature) + data.Units.Temperature,
		"condition":   WeatherCondition(c.WeatherCode),
		"humidity":    num(c.Humidity) + "%",
		"windSpeed":   num(c.WindSpeed) + " " + data.Units.WindSpeed,
		"source":      "Open-Meteo API (Real-time)",
		"rawCode":     c.WeatherCode,
	}, nil
}

// WeatherCondition maps a WMO weather code to a condition name.
func WeatherCondition(code int) string {
	switch {
	case code >= 95:
		return "Thunderstorm"
	case code >= 71 && code <= 77:
		return "Snowy"
	case code >= 51 && code <= 67:
		return "Rainy"
	case code >= 45 && code <= 48:
		return "Foggy"
	case code > 0 && code <= 3:
		return "Cloudy"
	}
	return "Clear"
}

var mockConditions = []string{"Sunny", "Cloudy", "Partly Cloudy", "Rainy", "Thunderstorm", "Snowy"}

func (s *Service) mockWeather(location string) map[string]any {
	condition := mockConditions[s.intn(len(mockConditions))]
	base := 20.0
	switch condition {
	case "Snowy":
		base = -5
	case "Rainy":
		base = 15
	case "Sunny":
		base = 28
	}
	temp := int(math.Floor(base + s.float()*10 - 5))
	return map[string]any{
		"location":    location,
		"temperature": fmt.Sprintf("%d°C", temp),
		"condition":   condition,
		"humidity":    fmt.Sprintf("%d%%", s.intn(60)+30),
		"windSpeed":   fmt.Sprintf("%d km/h", s.intn(30)+5),
		"forecast":    fmt.Sprintf("Expect %s conditions throughout the day.", strings.ToLower(condition)),
		"source":      "Mock Data",
	}
}

type coinQuote struct {
	USD    float64 `json:"usd"`
	Change float64 `json:"usd_24h_change"`
}

// CryptoPrice answers get_crypto_price.
func (s *Service) CryptoPrice(ctx context.Context, args map[string]any) (any, error) {
	coinID, err := requireString(args, "coin_id")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("ids", coinID)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	var data map[string]coinQuote
	if err := s.getJSON(ctx, s.cryptoURL, q, &data); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("crypto fetch failed, falling back to mock", "err", err)
		base := 3000.0
		if strings.ToLower(coinID) == "bitcoin" {
			base = 65000
		}
		return map[string]any{
			"symbol":    strings.ToUpper(coinID),
			"price":     fmt.Sprintf("$%.2f", base+s.float()*100),
			"change24h": "+1.2%",
			"trend":     "UP",
			"source":    "Mock Data (API Unavailable)",
		}, nil
	}

	coin, ok := data[strings.ToLower(coinID)]
	if !ok {
		return nil, registry.Fail("Coin '%s' not found. Try 'bitcoin', 'ethereum', or 'solana'.", coinID)
	}
	sign := ""
	if coin.Change > 0 {
		sign = "+"
	}
	trend := "UP"
	if coin.Change < 0 {
		trend = "DOWN"
	}
	return map[string]any{
		"symbol":    strings.ToUpper(coinID),
		"price":     "$" + grouped(coin.USD),
		"change24h": fmt.Sprintf("%s%.2f%%", sign, coin.Change),
		"trend":     trend,
		"source":    "CoinGecko API (Real-time)",
	}, nil
}

// SearchKnowledge answers search_knowledge from a canned knowledge base.
func (s *Service) SearchKnowledge(ctx context.Context, args map[string]any) (any, error) {
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}
	if err := s.wait(ctx, s.searchLatency); err != nil {
		return nil, err
	}
	return map[string]any{
		"query": query,
		"results": []any{
			map[string]any{
				"source":  "Internal Knowledge Base",
				"title":   "System Architecture v2.4",
				"excerpt": fmt.Sprintf("Search result for %q: The distributed node system handles 50k req/s with auto-scaling groups in us-east-1 and eu-west-1.", query),
			},
			map[string]any{
				"source":  "API Documentation",
				"title":   "Rate Limiting & Quotas",
				"excerpt": "Standard tier allows 1000 requests per minute. Enterprise tier offers dedicated throughput.",
			},
		},
		"generatedSummary": fmt.Sprintf("Based on internal docs, %q relates to our high-availability cluster config deployed last Q3. It supports multi-region failover.", query),
	}, nil
}

var tradingHours = []string{"09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30", "13:00", "13:30", "14:00"}

// StockPrice answers get_stock_price with a simulated intraday series.
func (s *Service) StockPrice(ctx context.Context, args map[string]any) (any, error) {
	symbol, err := requireString(args, "symbol")
	if err != nil {
		return nil, err
	}
	if err := s.wait(ctx, s.stockLatency); err != nil {
		return nil, err
	}

	price := s.float()*200 + 50
	history := make([]any, 0, len(tradingHours))
	values := make([]float64, 0, len(tradingHours))
	for _, t := range tradingHours {
		price += (s.float() - 0.48) * 5
		v := round2(price)
		values = append(values, v)
		history = append(history, map[string]any{"name": t, "value": v})
	}
	open, closing := values[0], values[len(values)-1]
	change := closing - open
	pct := change / open * 100
	sign := ""
	if pct > 0 {
		sign = "+"
	}
	trend := "UP"
	if change < 0 {
		trend = "DOWN"
	}
	return map[string]any{
		"symbol":        strings.ToUpper(symbol),
		"currentPrice":  closing,
		"currency":      "USD",
		"change":        fmt.Sprintf("%.2f", change),
		"changePercent": fmt.Sprintf("%s%.2f%%", sign, pct),
		"trend":         trend,
		"volume":        s.intn(1000000) + 500000,
		"history":       history,
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// grouped formats v with thousands separators and at most three decimals.
func grouped(v float64) string {
	s := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
