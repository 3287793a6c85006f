// Package advisor asks an LLM for a trade directive for one symbol,
// grounding the prompt in the current wallet state and recent headlines.
// The model's reply is parsed with the same rules the executor applies,
// so whatever the advisor returns can be fed straight into execution.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/okanewa/tradewallet/internal/config"
	"github.com/okanewa/tradewallet/internal/decision"
	"github.com/okanewa/tradewallet/internal/wallet"
	"github.com/okanewa/tradewallet/pkg/models"
	"github.com/okanewa/tradewallet/pkg/utils"
)

// ErrNoAPIKey is returned when no OpenAI API key is configured.
var ErrNoAPIKey = errors.New("no OpenAI API key configured")

const systemPrompt = `You are a disciplined trading analyst managing a simulated portfolio.
You are given the current wallet state, recent market headlines, and one symbol to analyze.

Weigh the headlines against the current position and available cash, then decide.

Your reply MUST end with exactly one line in one of these forms:
BUY X.XX SYMBOL
SELL X.XX SYMBOL
HOLD

where X.XX is the exact quantity and SYMBOL is the symbol you were asked about.
Never recommend a buy that exceeds available cash or a sell that exceeds the held quantity.`

// Advice is the advisor's full answer for one symbol.
type Advice struct {
	Symbol    string          `json:"symbol"`
	RawText   string          `json:"raw_text"`
	Decision  models.Decision `json:"decision"`
	Headlines []Headline      `json:"headlines,omitempty"`
}

// Advisor produces trade directives from an OpenAI chat model.
type Advisor struct {
	client *openai.Client
	cfg    config.LLMConfig
	news   *NewsFetcher
	wallet *wallet.Wallet
	log    *slog.Logger
}

// New creates an advisor from the LLM configuration. The news fetcher is
// optional; without one the prompt simply carries no headlines.
func New(cfg config.LLMConfig, w *wallet.Wallet, news *NewsFetcher, logger *slog.Logger) (*Advisor, error) {
	if cfg.OpenAIKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Advisor{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		news:   news,
		wallet: w,
		log:    logger,
	}, nil
}

// Decide asks the model for a directive on the symbol as of the given
// date and parses the reply. The returned Advice always carries a
// decision; an unparseable reply comes back as HOLD.
func (a *Advisor) Decide(ctx context.Context, symbol, asOf string) (*Advice, error) {
	sym := utils.NormalizeSymbol(symbol)

	var headlines []Headline
	if a.news != nil {
		headlines = a.news.Headlines(ctx, sym)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Temperature: float32(a.cfg.Temperature),
		MaxTokens:   a.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(a.wallet, sym, asOf, headlines)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion for %s: %w", sym, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion for %s: empty response", sym)
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	d := decision.Parse(raw)

	a.log.Info("advisor decision",
		"symbol", sym, "action", d.Action, "quantity", d.Quantity, "model", a.cfg.Model)

	return &Advice{
		Symbol:    sym,
		RawText:   raw,
		Decision:  d,
		Headlines: headlines,
	}, nil
}

// buildPrompt assembles the user message: wallet context, headlines, and
// the analysis request.
func buildPrompt(w *wallet.Wallet, symbol, asOf string, headlines []Headline) string {
	var b strings.Builder

	b.WriteString(w.AgentContext(symbol))
	b.WriteString("\n")

	if len(headlines) > 0 {
		b.WriteString("📰 **Recent Headlines:**\n")
		for _, h := range headlines {
			fmt.Fprintf(&b, "- [%s] %s\n", h.Source, h.Title)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Analyze %s", symbol)
	if asOf != "" {
		fmt.Fprintf(&b, " as of %s", asOf)
	}
	b.WriteString(" and give your trading decision.\n")
	return b.String()
}
