package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	FastModel  string
	ProModel   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is a thin facade over the Gemini generateContent endpoint. One call
// is a single request/response exchange; there is no streaming and no retry.
type Client struct {
	mu         sync.RWMutex
	apiKey     string
	baseURL    string
	models     Models
	httpClient *http.Client
	logger     zerolog.Logger
}

// Output is the decoded result of one generation call: zero or more images
// plus the concatenation of any text parts the model returned.
type Output struct {
	Images []GeneratedImage
	Text   string
}

// GeneratedImage is one inline image returned by the model.
type GeneratedImage struct {
	MIME string
	Data []byte
}

type responseBody struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with a long timeout will be created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 180 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	models := Models{Fast: opts.FastModel, Pro: opts.ProModel}
	if models.Fast == "" {
		models.Fast = "gemini-2.5-flash-image"
	}
	if models.Pro == "" {
		models.Pro = "gemini-3-pro-image-preview"
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		models:     models,
		httpClient: client,
		logger:     opts.Logger,
	}
}

// Models returns the configured tier model names.
func (c *Client) Models() Models {
	return c.models
}

// SetAPIKey swaps the credential at runtime, so a key provisioned through the
// API takes effect without a restart.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = strings.TrimSpace(key)
	c.mu.Unlock()
}

// HasCredential reports whether a key is configured.
func (c *Client) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// Generate sends one built request and decodes the response into images and
// text. A response with neither is a failure. Failures are classified into
// the taxonomy in errors.go so the editor can show distinct messages.
func (c *Client) Generate(ctx context.Context, req *Request) (*Output, error) {
	body, err := json.Marshal(req.body)
	if err != nil {
		return nil, &Error{Kind: KindOther, Detail: fmt.Sprintf("marshal request: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(req.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindOther, Detail: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.mu.RLock()
	if c.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", c.apiKey)
	}
	c.mu.RUnlock()

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", req.Model).Msg("genai: transport error")
		return nil, &Error{Kind: KindNetwork, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail := ""
		var apiErr errorBody
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			detail = apiErr.Error.Message
		} else if data, _ := io.ReadAll(resp.Body); len(data) > 0 {
			detail = strings.TrimSpace(string(data))
		}
		classified := classifyStatus(resp.StatusCode, detail)
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("model", req.Model).
			Str("kind", string(classified.Kind)).
			Str("detail", classified.Detail).
			Msg("genai: generation failed")
		return nil, classified
	}

	var decoded responseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &Error{Kind: KindOther, Detail: fmt.Sprintf("decode response: %v", err)}
	}

	out := &Output{}
	var text strings.Builder
	for _, candidate := range decoded.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil || len(data) == 0 {
					continue
				}
				mime := p.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				out.Images = append(out.Images, GeneratedImage{MIME: mime, Data: data})
			}
			if p.Text != "" {
				text.WriteString(p.Text)
			}
		}
	}
	out.Text = text.String()

	if len(out.Images) == 0 && out.Text == "" {
		return nil, &Error{Kind: KindEmpty}
	}

	c.logger.Debug().
		Str("model", req.Model).
		Int("images", len(out.Images)).
		Bool("text", out.Text != "").
		Dur("elapsed", time.Since(started)).
		Msg("genai: generation succeeded")

	return out, nil
}
