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

type openAIVerifier struct {
	*base
}

func newOpenAIVerifier(cfg Config, opts ...Option) (*openAIVerifier, error) {
	b, err := newBase(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &openAIVerifier{base: b}, nil
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// openAIMessage content is either a string or a list of parts.
type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Verify classifies the rendered node with a GPT vision model.
func (o *openAIVerifier) Verify(ctx context.Context, req decision.VerifyRequest) (decision.Verdict, error) {
	prompt, err := userPrompt(req)
	if err != nil {
		return decision.Verdict{}, err
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mediaType(req.Image), base64.StdEncoding.EncodeToString(req.Image.Data))
	body := openAIRequest{
		Model:          o.cfg.Model,
		MaxTokens:      o.cfg.MaxTokens,
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: []openAIPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: dataURL, Detail: "low"}},
			}},
		},
	}
	return o.do(ctx, req.Node.ID, func(ctx context.Context) (decision.Verdict, error) {
		return o.doRequest(ctx, body)
	})
}

func (o *openAIVerifier) doRequest(ctx context.Context, req openAIRequest) (decision.Verdict, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return decision.Verdict{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return decision.Verdict{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey.Value())

	resp, err := o.httpClient.Do(httpReq)
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
		var errResp openAIError
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return decision.Verdict{}, statusError(resp.StatusCode, msg)
	}

	var out openAIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decision.Verdict{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return decision.Verdict{}, fmt.Errorf("%w: empty response from API", ErrMalformedVerdict)
	}
	return parseVerdict(out.Choices[0].Message.Content)
}

var _ decision.Verifier = (*openAIVerifier)(nil)
