package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 30 * time.Second

const assistantMarker = "Assistant:"

// Generation parameters sent with every inference request.
const (
	defaultTemperature  = 0.7
	defaultMaxNewTokens = 200
)

var (
	// ErrUpstream reports a failure answered by the inference API itself,
	// either as a non-200 status or as an error payload.
	ErrUpstream = errors.New("inference api error")
	// ErrUnexpectedFormat reports a response body in neither documented shape.
	ErrUnexpectedFormat = errors.New("unexpected response format from inference api")
)

// Client generates text from a prompt using a hosted language model.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type hfClient struct {
	apiKey     string
	modelURL   string
	httpClient *http.Client
}

// NewClient returns a Client backed by the Hugging Face Inference API.
func NewClient(apiKey, modelURL string) Client {
	return &hfClient{
		apiKey:     apiKey,
		modelURL:   modelURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	Temperature  float64 `json:"temperature"`
	MaxNewTokens int     `json:"max_new_tokens"`
}

func (c *hfClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			Temperature:  defaultTemperature,
			MaxNewTokens: defaultMaxNewTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call inference api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read inference response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return parseGenerated(raw)
}

// parseGenerated unpacks the two shapes the inference API answers with: a
// list of generations on success, or an object carrying an error message.
// Models that echo the conversation back return everything up to a final
// "Assistant:" marker, which is stripped when present.
func parseGenerated(raw []byte) (string, error) {
	var generations []struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &generations); err == nil {
		if len(generations) == 0 || generations[0].GeneratedText == nil {
			return "", ErrUnexpectedFormat
		}
		reply := *generations[0].GeneratedText
		if idx := strings.LastIndex(reply, assistantMarker); idx >= 0 {
			reply = reply[idx+len(assistantMarker):]
		}
		return strings.TrimSpace(reply), nil
	}

	var apiError struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &apiError); err == nil && apiError.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUpstream, apiError.Error)
	}

	return "", ErrUnexpectedFormat
}
