package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type captureTransport struct {
	status   int
	response any
	err      error

	lastPath string
	lastBody []byte
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.lastPath = req.URL.Path
	if req.Body != nil {
		t.lastBody, _ = io.ReadAll(req.Body)
	}
	if t.err != nil {
		return nil, t.err
	}
	body, _ := json.Marshal(t.response)
	return &http.Response{
		StatusCode: t.status,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func newTestClient(transport *captureTransport) *Client {
	return NewClient(Options{
		APIKey:     "test-key",
		BaseURL:    "https://example.test/v1beta",
		FastModel:  "fast-tier",
		ProModel:   "pro-tier",
		HTTPClient: &http.Client{Transport: transport},
		Logger:     zerolog.New(io.Discard),
	})
}

func candidateResponse(parts ...map[string]any) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": parts}},
		},
	}
}

func TestGenerateDecodesImagesAndText(t *testing.T) {
	imgBytes := []byte{0x89, 'P', 'N', 'G'}
	transport := &captureTransport{
		status: http.StatusOK,
		response: candidateResponse(
			map[string]any{"inlineData": map[string]any{
				"mimeType": "image/png",
				"data":     base64.StdEncoding.EncodeToString(imgBytes),
			}},
			map[string]any{"text": "here you go"},
		),
	}
	client := newTestClient(transport)

	out, err := client.Generate(context.Background(), &Request{Model: "fast-tier"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(out.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(out.Images))
	}
	if !bytes.Equal(out.Images[0].Data, imgBytes) {
		t.Fatalf("image bytes mismatch")
	}
	if out.Images[0].MIME != "image/png" {
		t.Fatalf("mime = %q, want image/png", out.Images[0].MIME)
	}
	if out.Text != "here you go" {
		t.Fatalf("text = %q", out.Text)
	}
	if !strings.HasSuffix(transport.lastPath, "/models/fast-tier:generateContent") {
		t.Fatalf("path = %q", transport.lastPath)
	}
}

func TestGenerateConcatenatesTextParts(t *testing.T) {
	transport := &captureTransport{
		status: http.StatusOK,
		response: candidateResponse(
			map[string]any{"text": "first "},
			map[string]any{"text": "second"},
		),
	}
	client := newTestClient(transport)

	out, err := client.Generate(context.Background(), &Request{Model: "fast-tier"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Text != "first second" {
		t.Fatalf("text = %q, want concatenation", out.Text)
	}
}

func TestGenerateEmptyResponseIsFailure(t *testing.T) {
	transport := &captureTransport{status: http.StatusOK, response: candidateResponse()}
	client := newTestClient(transport)

	_, err := client.Generate(context.Background(), &Request{Model: "fast-tier"})
	if err == nil {
		t.Fatalf("expected error for empty output")
	}
	if KindOf(err) != KindEmpty {
		t.Fatalf("kind = %q, want empty", KindOf(err))
	}
	if err.Error() != "no output produced" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestGenerateClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		wantErr ErrorKind
	}{
		{"server fault", 500, KindServer},
		{"overloaded", 503, KindServer},
		{"bad credential", 401, KindAuth},
		{"forbidden", 403, KindAuth},
		{"rate limited", 429, KindQuota},
		{"bad request", 400, KindOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &captureTransport{
				status:   tc.status,
				response: map[string]any{"error": map[string]any{"code": tc.status, "message": "upstream says no"}},
			}
			client := newTestClient(transport)

			_, err := client.Generate(context.Background(), &Request{Model: "fast-tier"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if KindOf(err) != tc.wantErr {
				t.Fatalf("kind = %q, want %q", KindOf(err), tc.wantErr)
			}
		})
	}
}

func TestGenerateOtherFailurePassesMessageThrough(t *testing.T) {
	transport := &captureTransport{
		status:   400,
		response: map[string]any{"error": map[string]any{"code": 400, "message": "prompt was blocked"}},
	}
	client := newTestClient(transport)

	_, err := client.Generate(context.Background(), &Request{Model: "fast-tier"})
	if err == nil || err.Error() != "prompt was blocked" {
		t.Fatalf("err = %v, want passthrough message", err)
	}
}

func TestGenerateTransportErrorIsNetwork(t *testing.T) {
	transport := &captureTransport{err: errors.New("connection refused")}
	client := newTestClient(transport)

	_, err := client.Generate(context.Background(), &Request{Model: "fast-tier"})
	if KindOf(err) != KindNetwork {
		t.Fatalf("kind = %q, want network", KindOf(err))
	}
	if err.Error() != "network error, check connection" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestGenerateSendsAPIKeyHeader(t *testing.T) {
	transport := &captureTransport{
		status:   http.StatusOK,
		response: candidateResponse(map[string]any{"text": "ok"}),
	}
	client := newTestClient(transport)
	client.SetAPIKey("rotated-key")

	var gotHeader string
	wrapped := &headerCaptureTransport{inner: transport, header: &gotHeader}
	client.httpClient = &http.Client{Transport: wrapped}

	if _, err := client.Generate(context.Background(), &Request{Model: "fast-tier"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gotHeader != "rotated-key" {
		t.Fatalf("x-goog-api-key = %q, want rotated-key", gotHeader)
	}
}

type headerCaptureTransport struct {
	inner  http.RoundTripper
	header *string
}

func (t *headerCaptureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	*t.header = req.Header.Get("x-goog-api-key")
	return t.inner.RoundTrip(req)
}
