package verifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fyrsmithlabs/figclass/internal/decision"
)

type anthropicVerifier struct {
	*base
}

func newAnthropicVerifier(cfg Config, opts ...Option) (*anthropicVerifier, error) {
	b, err := newBase(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &anthropicVerifier{base: b}, nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Verify classifies the rendered node with Claude.
func (a *anthropicVerifier) Verify(ctx context.Context, req decision.VerifyRequest) (decision.Verdict, error) {
	prompt, err := userPrompt(req)
	if err != nil {
		return decision.Verdict{}, err
	}
	body := anthropicRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      systemPrompt(),
		Temperature: 0,
		Messages: []anthropicMessage{{
			Role: "user",
			Content: []anthropicBlock{
				{Type: "image", Source: &anthropicSource{
					Type:      "base64",
					MediaType: mediaType(req.Image),
					Data:      base64.StdEncoding.EncodeToString(req.Image.Data),
				}},
				{Type: "text", Text: prompt},
			},
		}},
	}
	return a.do(ctx, req.Node.ID, func(ctx context.Context) (decision.Verdict, error) {
		return a.doRequest(ctx, body)
	})
}

func (a *anthropicVerifier) doRequest(ctx context.Context, req anthropicRequest) (decision.Verdict, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return decision.Verdict{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return decision.Verdict{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", a.cfg.APIKey.Value())
	httpReq.Header.Set("Anthropic-Version", "2023-06-01")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return decision.Verdict{}, ctx.Err()
		}
		return decision.Verdict{}, &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decision.Verdict{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		var errResp anthropicError
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return decision.Verdict{}, statusError(resp.StatusCode, msg)
	}

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decision.Verdict{}, fmt.Errorf("failed to parse response: %w", err)
	}
	for _, c := range out.Content {
		if c.Type == "text" && c.Text != "" {
			return parseVerdict(c.Text)
		}
	}
	return decision.Verdict{}, fmt.Errorf("%w: empty response from API", ErrMalformedVerdict)
}

var _ decision.Verifier = (*anthropicVerifier)(nil)
