package genai

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"studio/internal/domain"
)

// Models names the two model tiers a request can target.
type Models struct {
	Fast string
	Pro  string
}

// Request is one built generateContent payload bound to a model tier.
type Request struct {
	Model string
	body  generateContentRequest
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
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
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

// UsesProTier decides the model tier for a settings snapshot. 1K without an
// explicit override selects the fast tier; everything else the pro tier. The
// mapping is total: every valid settings value lands in exactly one tier.
func UsesProTier(s domain.Settings) bool {
	return s.ProOverride || s.Resolution != domain.Resolution1K
}

// AugmentPrompt appends style and camera-angle clauses to the prompt, style
// first. "None" values leave the prompt untouched.
func AugmentPrompt(prompt string, s domain.Settings) string {
	var b strings.Builder
	b.WriteString(prompt)
	if s.Style != "" && s.Style != domain.StyleNone {
		fmt.Fprintf(&b, ", in %s style", s.Style)
	}
	if s.CameraAngle != "" && s.CameraAngle != domain.CameraAngleNone {
		fmt.Fprintf(&b, ", shot from %s", s.CameraAngle)
	}
	return b.String()
}

// BuildRequest maps a prompt, preprocessed source images and settings into a
// single generateContent payload. Image parts come first, each tagged with
// its sniffed media type; the augmented prompt is always the last part.
// imageSize is only meaningful on the pro tier and is omitted otherwise.
func BuildRequest(prompt string, settings domain.Settings, images []domain.SourceImage, models Models) *Request {
	parts := make([]part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: detectMIME(img),
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}
	parts = append(parts, part{Text: AugmentPrompt(prompt, settings)})

	cfg := &generationConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &imageConfig{AspectRatio: settings.AspectRatio},
	}

	model := models.Fast
	if UsesProTier(settings) {
		model = models.Pro
		cfg.ImageConfig.ImageSize = string(settings.Resolution)
	}

	return &Request{
		Model: model,
		body: generateContentRequest{
			Contents:         []content{{Role: "user", Parts: parts}},
			GenerationConfig: cfg,
		},
	}
}

// detectMIME sniffs the encoded media type from the image bytes, falling back
// to the declared type and finally to JPEG, which is what preprocessing
// re-encodes to.
func detectMIME(img domain.SourceImage) string {
	if len(img.Data) > 0 {
		if sniffed := http.DetectContentType(img.Data); strings.HasPrefix(sniffed, "image/") {
			return sniffed
		}
	}
	if strings.HasPrefix(img.MIME, "image/") {
		return img.MIME
	}
	return "image/jpeg"
}
