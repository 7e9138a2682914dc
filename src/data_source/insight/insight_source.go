package insight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	datasource "crypto-advisor/src/data_source"
	"crypto-advisor/src/helpers"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/metrics"
	"crypto-advisor/src/models"
	"crypto-advisor/src/utils"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 800
)

var errNotConfigured = errors.New("ai api key not configured")

// -----------------------------------------------------------------------------
// InsightSource produces one "insight of the day" per user per UTC day,
// generated by an OpenAI-compatible chat backend or drawn from a static pool.
// -----------------------------------------------------------------------------

type InsightSource struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Cache     *utils.TTLCache[models.MInsight]
	Logger    *logger.Logger

	client *openai.Client
	now    func() time.Time
	pick   func(n int) int
}

// -----------------------------------------------------------------------------

// NewInsightSource builds the source. An empty APIKey disables generation.
func NewInsightSource(upstream models.MUpstreamConfig, cache *utils.TTLCache[models.MInsight], log *logger.Logger) *InsightSource {
	timeout := time.Duration(upstream.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxTokens := upstream.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	s := &InsightSource{
		Model:     upstream.Model,
		MaxTokens: maxTokens,
		Timeout:   timeout,
		Cache:     cache,
		Logger:    log,
		now:       time.Now,
		pick:      rand.Intn,
	}

	if upstream.APIKey != "" {
		config := openai.DefaultConfig(upstream.APIKey)
		if upstream.BaseURL != "" {
			config.BaseURL = strings.TrimRight(upstream.BaseURL, "/")
		}
		config.HTTPClient = &http.Client{Timeout: timeout, Transport: bodyTap{base: http.DefaultTransport}}
		s.client = openai.NewClientWithConfig(config)
	}
	return s
}

// -----------------------------------------------------------------------------

// DailyKey identifies the insight slot for userID on the UTC day of t.
func DailyKey(userID string, t time.Time) string {
	return fmt.Sprintf("insight_%s_%s", userID, t.UTC().Format(time.DateOnly))
}

// -----------------------------------------------------------------------------

// GetInsight returns the user's insight for today. Generation failures are
// replaced by a pooled insight, which is cached under the same daily key so
// the day's answer stays stable.
func (s *InsightSource) GetInsight(ctx context.Context, userID string, prefs models.MUserPreferences) models.MInsight {
	now := s.now()
	key := DailyKey(userID, now)

	if cached, ok := s.Cache.Get(key); ok {
		cached.FromCache = true
		return cached
	}

	insight, err := s.generate(ctx, key, prefs, now)
	if err != nil {
		reason := "upstream_error"
		if errors.Is(err, errNotConfigured) {
			reason = "not_configured"
		} else {
			s.Logger.Error("AI insight generation failed: %v", err)
		}
		metrics.ProviderFallbacks.WithLabelValues(models.SectionInsight, reason).Inc()
		insight = s.fallback(key, prefs, now)
	}

	s.Cache.Set(key, insight, 0)
	return insight
}

// -----------------------------------------------------------------------------

func (s *InsightSource) generate(ctx context.Context, id string, prefs models.MUserPreferences, now time.Time) (models.MInsight, error) {
	if s.client == nil {
		return models.MInsight{}, errNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var raw []byte
	ctx = context.WithValue(ctx, rawBodyKey{}, &raw)

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.Model,
		MaxTokens: s.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(prefs)},
		},
	})
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("ai", "error").Inc()
		return models.MInsight{}, helpers.NewNetworkError("chat completion failed", err)
	}
	metrics.UpstreamRequests.WithLabelValues("ai", "success").Inc()

	if len(resp.Choices) == 0 {
		return models.MInsight{}, helpers.NewDataSourceError("chat completion returned no choices", nil)
	}

	content := messageText(resp.Choices[0].Message, raw)
	if content == "" {
		return models.MInsight{}, helpers.NewDataSourceError("chat completion returned empty content", nil)
	}

	s.Logger.Info("generated insight in %dms", time.Since(start).Milliseconds())
	return models.MInsight{
		ID:           id,
		Content:      content,
		GeneratedAt:  now.UTC(),
		InvestorType: prefs.InvestorType,
		Assets:       prefs.Assets,
	}, nil
}

// -----------------------------------------------------------------------------

// messageText prefers content, then the "reasoning" field that reasoning
// models on OpenRouter return (absent from openai.ChatCompletionMessage),
// then reasoning_content.
func messageText(msg openai.ChatCompletionMessage, raw []byte) string {
	if content := strings.TrimSpace(msg.Content); content != "" {
		return content
	}
	if len(raw) > 0 {
		if r := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.reasoning").String()); r != "" {
			return r
		}
	}
	return strings.TrimSpace(msg.ReasoningContent)
}

type rawBodyKey struct{}

// bodyTap copies the response body into the *[]byte stored under rawBodyKey
// in the request context, leaving the body readable for the client.
type bodyTap struct {
	base http.RoundTripper
}

func (t bodyTap) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	dst, ok := req.Context().Value(rawBodyKey{}).(*[]byte)
	if !ok {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	*dst = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// -----------------------------------------------------------------------------

var investorLabels = map[string]string{
	models.InvestorHodler:       "HODLer",
	models.InvestorDayTrader:    "Day Trader",
	models.InvestorNFTCollector: "NFT Collector",
}

// BuildPrompt renders the generation prompt for prefs.
func BuildPrompt(prefs models.MUserPreferences) string {
	label, ok := investorLabels[prefs.InvestorType]
	if !ok {
		label = "Crypto Investor"
	}

	names := make([]string, len(prefs.Assets))
	for i, a := range prefs.Assets {
		names[i] = datasource.DisplayName(a)
	}

	var b strings.Builder
	b.WriteString("You are a professional crypto market analyst.\n\n")
	b.WriteString("Generate a short \"Crypto Insight of the Day\" for a personalized investor dashboard.\n\n")
	b.WriteString("User profile:\n")
	fmt.Fprintf(&b, "- Investor type: %s\n", label)
	fmt.Fprintf(&b, "- Interested assets: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "- Content preferences: %s\n\n", strings.Join(prefs.ContentTypes, ", "))
	b.WriteString("Rules:\n")
	b.WriteString("- Do NOT claim recent price movements unless explicitly provided.\n")
	b.WriteString("- Focus on long-term fundamentals, general trends, or educational insights.\n")
	b.WriteString("- Avoid phrases like \"today\", \"this week\", or \"recently\" unless market data is given.\n")
	b.WriteString("- No predictions or guarantees.\n\n")
	b.WriteString("Style:\n")
	b.WriteString("- 3-5 sentences\n")
	b.WriteString("- Neutral, educational tone\n")
	b.WriteString("- One paragraph\n")
	b.WriteString("- No emojis, no disclaimers\n\n")
	b.WriteString("Generate the insight now.")
	return b.String()
}

// -----------------------------------------------------------------------------

var fallbackPool = map[string][]string{
	models.InvestorHodler: {
		"Focus on dollar-cost averaging during market dips. Historical data shows consistent accumulation during downturns often leads to strong returns over 3-5 year periods.",
		"Consider rebalancing your portfolio quarterly. As your top holdings grow, ensure you're not overexposed to any single asset.",
		"Stack sats and stay patient. The best long-term returns come from holding through volatility, not timing the market.",
	},
	models.InvestorDayTrader: {
		"Watch for breakout patterns on 4-hour charts. Volume confirmation above key resistance levels often signals strong momentum plays.",
		"Set strict stop-losses at 2-3% below entry. Capital preservation is key for consistent day trading success.",
		"Monitor funding rates on perpetual futures. Extreme positive rates often precede short-term pullbacks.",
	},
	models.InvestorNFTCollector: {
		"Track floor price trends and holder distribution. Collections with growing unique holders often signal organic demand.",
		"Look for projects with active communities and roadmap updates. Utility beyond speculation drives long-term value.",
		"Diversify across blue-chip and emerging collections. Established projects provide stability while new ones offer growth potential.",
	},
}

func (s *InsightSource) fallback(id string, prefs models.MUserPreferences, now time.Time) models.MInsight {
	pool, ok := fallbackPool[prefs.InvestorType]
	if !ok {
		pool = fallbackPool[models.InvestorHodler]
	}
	return models.MInsight{
		ID:           id,
		Content:      pool[s.pick(len(pool))],
		GeneratedAt:  now.UTC(),
		InvestorType: prefs.InvestorType,
		Assets:       prefs.Assets,
		IsFallback:   true,
	}
}
