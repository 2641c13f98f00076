package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-1.5-flash"

	maxResponseSize = 10 << 20
)

type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key not provided")
	}
	g := &Gemini{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
	}
	if g.model == "" {
		g.model = DefaultGeminiModel
	}
	if g.baseURL == "" {
		g.baseURL = DefaultGeminiBaseURL
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{}
	}
	return g, nil
}

func (g *Gemini) Name() string { return ProviderGemini }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *Gemini) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", NewFatalError(fmt.Errorf("build request body: %w", err))
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("read response body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(resp.StatusCode, respBody)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewFatalError(fmt.Errorf("decode gemini response: %w", err))
	}
	if parsed.PromptFeedback.BlockReason != "" {
		return "", NewFatalError(fmt.Errorf("prompt blocked: %s", parsed.PromptFeedback.BlockReason))
	}
	if len(parsed.Candidates) == 0 {
		return "", NewFatalError(errors.New("gemini returned no candidates"))
	}

	candidate := parsed.Candidates[0]
	if blockedFinishReasons[candidate.FinishReason] {
		return "", NewFatalError(fmt.Errorf("response blocked: finish reason %s", candidate.FinishReason))
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", NewFatalError(fmt.Errorf("gemini returned no text (finish reason %q)", candidate.FinishReason))
	}
	return text.String(), nil
}

// Finish reasons that end a candidate without usable text.
var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}
