package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultOllamaURL is the default local Ollama endpoint
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultOllamaModel is the default local model
	DefaultOllamaModel = "llama3.1"
	// DefaultProbeTimeout is the default timeout for liveness probes
	DefaultProbeTimeout = 2 * time.Second
)

// OllamaProvider is the secondary local-model fallback. The generate endpoint
// only takes a flat prompt string, so the system instruction and a JSON-only
// directive are prepended textually.
type OllamaProvider struct {
	baseURL      string
	model        string
	client       *http.Client
	probeTimeout time.Duration
	logger       *zap.Logger
	debugMode    bool
}

// NewOllamaProvider creates the local fallback provider
func NewOllamaProvider(baseURL, model string, timeout, probeTimeout time.Duration, logger *zap.Logger, debugMode bool) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: timeout,
		},
		probeTimeout: probeTimeout,
		logger:       logger,
		debugMode:    debugMode,
	}
}

// Name identifies the provider in logs and errors
func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends a prompt and returns the raw model output
func (p *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	prompt := req.Prompt
	if req.SystemInstruction != "" {
		prompt = req.SystemInstruction + "\n\n" + prompt
	}

	genReq := ollamaGenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	}
	if req.StructuredOutput {
		genReq.Format = "json"
		genReq.Prompt += "\n\nRespond with valid JSON only. No prose, no markdown."
	}

	body, err := json.Marshal(genReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("provider", p.Name()),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(genReq.Prompt)),
			zap.Bool("structured_output", req.StructuredOutput),
			zap.String("request_id", ExtractRequestID(ctx)),
		)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, SanitizeResponse(string(bodyBytes), false))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("provider", p.Name()),
			zap.String("model", p.model),
			zap.Int("response_length", len(result.Response)),
			zap.String("response_preview", SanitizeResponse(result.Response, true)),
			zap.String("request_id", ExtractRequestID(ctx)),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		)
	}

	return result.Response, nil
}

// HealthCheck probes the Ollama root endpoint with a short timeout
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama probe returned status %d", resp.StatusCode)
	}
	return nil
}
