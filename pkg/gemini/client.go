package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"

	responseMimeType = "application/json"
	temperature      = 0.2
	maxOutputTokens  = 32768
)

// Client talks to the Gemini generative language API: file uploads with the
// processing handshake, and structured document generation.
type Client struct {
	apiKey  string
	hc      *http.Client
	baseURL string
	model   string

	pollInterval       time.Duration
	settleDelay        time.Duration
	processingDeadline time.Duration
}

func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}
	return &Client{
		apiKey:             apiKey,
		hc:                 &http.Client{},
		baseURL:            defaultBaseURL,
		model:              defaultModel,
		pollInterval:       3 * time.Second,
		settleDelay:        5 * time.Second,
		processingDeadline: 10 * time.Minute,
	}, nil
}

// Generate runs one generation call. With previous == nil the call is fresh;
// otherwise the service is instructed to merge and extend the previous
// document set. The returned set always replaces the previous one in full.
func (c *Client) Generate(ctx context.Context, parts []domain.ContentPart, video *domain.MediaFile, previous *domain.DocumentSet) (*domain.DocumentSet, error) {
	if len(parts) == 0 && video == nil {
		return nil, domain.ErrNoInput
	}

	prompt, err := buildPrompt(parts, video != nil, previous)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	apiParts := []part{{Text: prompt}}
	for _, p := range parts {
		if p.IsImage() {
			apiParts = append(apiParts, part{InlineData: &inlineData{MimeType: p.MimeType, Data: p.Base64Data}})
		}
	}

	if video != nil {
		uploaded, err := c.uploadAndWait(ctx, video)
		if err != nil {
			return nil, err
		}
		apiParts = append(apiParts, part{FileData: &fileData{MimeType: uploaded.MimeType, FileURI: uploaded.URI}})
	}

	return c.generateContent(ctx, apiParts)
}

func (c *Client) generateContent(ctx context.Context, apiParts []part) (*domain.DocumentSet, error) {
	reqBody := generateContentRequest{
		Contents: []content{{Parts: apiParts}},
		GenerationConfig: generationConfig{
			ResponseMimeType: responseMimeType,
			ResponseSchema:   responseSchema,
			Temperature:      temperature,
			MaxOutputTokens:  maxOutputTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &domain.ServiceError{Message: fmt.Sprintf("sending generation request: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapAPIError(resp)
	}

	var genResp generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, &domain.MalformedResponseError{Reason: fmt.Sprintf("decoding response envelope: %v", err)}
	}

	rawText := candidateText(genResp)
	if strings.TrimSpace(rawText) == "" {
		return nil, &domain.MalformedResponseError{Reason: "the AI returned an empty response"}
	}

	jsonText := unwrapFence(rawText)

	var docs domain.DocumentSet
	if err := json.Unmarshal([]byte(jsonText), &docs); err != nil {
		slog.Debug("unparseable generation output", "raw", jsonText)
		return nil, &domain.MalformedResponseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if err := docs.Validate(); err != nil {
		return nil, &domain.MalformedResponseError{Reason: err.Error()}
	}

	return &docs, nil
}

func candidateText(resp generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// mapAPIError distinguishes server-side faults (worth retrying later) from
// everything else the service reports.
func (c *Client) mapAPIError(resp *http.Response) error {
	var apiErr apiErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)

	message := apiErr.Error.Message
	if message == "" {
		message = fmt.Sprintf("generation request failed with status %d", resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusInternalServerError || apiErr.Error.Code >= http.StatusInternalServerError {
		return &domain.ServiceError{Message: message, Transient: true}
	}
	return &domain.ServiceError{Message: message}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
