package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dnalab/dnachat/pkg/config"
	"github.com/dnalab/dnachat/pkg/dna"
	"github.com/dnalab/dnachat/pkg/logger"
)

// Client is the contract with the Gemini generation backend. Both request
// kinds (profile extraction, conversational turn) are schema-constrained
// JSON exchanges against the generateContent endpoint.
type Client struct {
	apiBase        string
	model          string
	ttsModel       string
	ttsVoice       string
	thinkingBudget int
	httpClient     *http.Client
	log            *logger.Logger

	mu     sync.RWMutex
	apiKey string
}

// NewClient builds a gateway from config. apiKey is the initial credential;
// SetAPIKey rotates it in place without discarding other state.
func NewClient(cfg config.GeminiConfig, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		apiBase:        strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/"),
		model:          strings.TrimSpace(cfg.Model),
		ttsModel:       strings.TrimSpace(cfg.TTSModel),
		ttsVoice:       strings.TrimSpace(cfg.TTSVoice),
		thinkingBudget: cfg.ThinkingBudget,
		httpClient:     &http.Client{Timeout: timeout},
		log:            log,
		apiKey:         strings.TrimSpace(apiKey),
	}
}

// SetAPIKey installs a new credential. Subsequent requests pick it up
// immediately; no re-construction or process restart is required.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = strings.TrimSpace(key)
}

// APIKeyConfigured reports whether a credential is present.
func (c *Client) APIKeyConfigured() bool {
	return c.credential() != ""
}

func (c *Client) credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// ExtractProfile sends raw uploaded text and requests a structured
// summary-plus-metrics object. Transport failures and malformed payloads are
// both returned as errors; malformed ones satisfy errors.Is(err,
// ErrMalformed) so callers can degrade rather than fail the upload.
func (c *Client) ExtractProfile(ctx context.Context, rawText string) (Extraction, error) {
	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: "Analyze to extract DNA model: " + rawText}},
		}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   extractionSchema(),
			ThinkingConfig:   &thinkingConfig{ThinkingBudget: c.thinkingBudget},
		},
	}

	text, err := c.generate(ctx, c.model, req)
	if err != nil {
		return Extraction{}, err
	}
	return parseExtraction([]byte(text))
}

// Converse sends the full ordered history plus a system directive
// synthesized from the profile identity and the behavioral dials, and
// requests a role-played reply with fallacy findings.
func (c *Client) Converse(ctx context.Context, profile dna.ModelProfile, history []dna.Message, settings dna.CustomizationSettings) (TurnReply, error) {
	contents := make([]content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == dna.RoleModel {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: msg.Content}}})
	}

	req := generateRequest{
		Contents: contents,
		SystemInstruction: &content{
			Parts: []part{{Text: buildSystemDirective(profile, settings)}},
		},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   converseSchema(),
		},
	}

	text, err := c.generate(ctx, c.model, req)
	if err != nil {
		return TurnReply{}, err
	}
	return parseTurnReply([]byte(text))
}

// generate POSTs a generateContent request and returns the concatenated
// candidate text.
func (c *Client) generate(ctx context.Context, model string, reqBody generateRequest) (string, error) {
	if c.apiBase == "" {
		return "", fmt.Errorf("gemini API base not configured")
	}
	key := c.credential()
	if key == "" {
		return "", fmt.Errorf("gemini API key not configured")
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.apiBase, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini request failed: status %d: %s", resp.StatusCode, trimBody(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response envelope: %v", ErrMalformed, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini API error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrMalformed)
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())

	c.log.Debug("gemini call completed",
		"model", model,
		"elapsed", time.Since(start).String(),
		"response_len", len(text),
	)
	return text, nil
}

func trimBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		return s[:256] + "..."
	}
	return s
}

// Wire shapes for the generateContent REST endpoint.

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	ResponseMimeType   string                 `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]interface{} `json:"responseSchema,omitempty"`
	ThinkingConfig     *thinkingConfig        `json:"thinkingConfig,omitempty"`
	ResponseModalities []string               `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig          `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
