package genai

import (
	"strings"
	"testing"

	"studio/internal/domain"
)

var testModels = Models{Fast: "fast-tier", Pro: "pro-tier"}

func baseSettings() domain.Settings {
	return domain.Settings{
		AspectRatio: "1:1",
		Resolution:  domain.Resolution1K,
		Style:       domain.StyleNone,
		CameraAngle: domain.CameraAngleNone,
	}
}

func TestTierSelectionIsDeterministic(t *testing.T) {
	cases := []struct {
		resolution domain.Resolution
		override   bool
		wantPro    bool
	}{
		{domain.Resolution1K, false, false},
		{domain.Resolution1K, true, true},
		{domain.Resolution2K, false, true},
		{domain.Resolution2K, true, true},
		{domain.Resolution4K, false, true},
		{domain.Resolution4K, true, true},
	}
	for _, tc := range cases {
		s := baseSettings()
		s.Resolution = tc.resolution
		s.ProOverride = tc.override
		if got := UsesProTier(s); got != tc.wantPro {
			t.Fatalf("UsesProTier(%s, override=%v) = %v, want %v", tc.resolution, tc.override, got, tc.wantPro)
		}
	}
}

func TestBuildRequestFastTierOmitsImageSize(t *testing.T) {
	req := BuildRequest("a red bicycle", baseSettings(), nil, testModels)

	if req.Model != "fast-tier" {
		t.Fatalf("model = %q, want fast-tier", req.Model)
	}
	parts := req.body.Contents[0].Parts
	if len(parts) != 1 {
		t.Fatalf("parts = %d, want 1", len(parts))
	}
	if parts[0].Text != "a red bicycle" {
		t.Fatalf("text = %q, want unmodified prompt", parts[0].Text)
	}
	cfg := req.body.GenerationConfig
	if cfg.ImageConfig.ImageSize != "" {
		t.Fatalf("imageSize = %q, must be omitted on the fast tier", cfg.ImageConfig.ImageSize)
	}
	if cfg.ImageConfig.AspectRatio != "1:1" {
		t.Fatalf("aspectRatio = %q, want 1:1", cfg.ImageConfig.AspectRatio)
	}
}

func TestBuildRequestProTierCarriesImageSize(t *testing.T) {
	s := baseSettings()
	s.Resolution = domain.Resolution4K
	s.Style = "Cinematic"
	s.CameraAngle = "Low Angle"

	req := BuildRequest("portrait", s, nil, testModels)

	if req.Model != "pro-tier" {
		t.Fatalf("model = %q, want pro-tier", req.Model)
	}
	if got := req.body.GenerationConfig.ImageConfig.ImageSize; got != "4K" {
		t.Fatalf("imageSize = %q, want 4K", got)
	}
	parts := req.body.Contents[0].Parts
	want := "portrait, in Cinematic style, shot from Low Angle"
	if parts[len(parts)-1].Text != want {
		t.Fatalf("final text = %q, want %q", parts[len(parts)-1].Text, want)
	}
}

func TestBuildRequestResponseModalities(t *testing.T) {
	req := BuildRequest("x", baseSettings(), nil, testModels)
	got := req.body.GenerationConfig.ResponseModalities
	if len(got) != 2 || got[0] != "TEXT" || got[1] != "IMAGE" {
		t.Fatalf("responseModalities = %v, want [TEXT IMAGE]", got)
	}
}

func TestBuildRequestImagePartsPrecedeText(t *testing.T) {
	// Minimal real PNG header so content sniffing kicks in.
	pngBytes := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	images := []domain.SourceImage{
		{MIME: "image/png", Data: pngBytes},
		{MIME: "", Data: []byte{0x01, 0x02, 0x03}},
	}

	req := BuildRequest("combine these", baseSettings(), images, testModels)

	parts := req.body.Contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	if parts[0].InlineData == nil || parts[1].InlineData == nil {
		t.Fatalf("image parts must come first")
	}
	if parts[0].InlineData.MimeType != "image/png" {
		t.Fatalf("sniffed mime = %q, want image/png", parts[0].InlineData.MimeType)
	}
	if parts[1].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("fallback mime = %q, want image/jpeg", parts[1].InlineData.MimeType)
	}
	if parts[2].Text == "" || parts[2].InlineData != nil {
		t.Fatalf("text part must be last")
	}
}

func TestAugmentPromptOrderAndSentinels(t *testing.T) {
	s := baseSettings()
	if got := AugmentPrompt("a cat", s); got != "a cat" {
		t.Fatalf("sentinel settings must pass prompt through, got %q", got)
	}

	s.Style = "Watercolor"
	if got := AugmentPrompt("a cat", s); got != "a cat, in Watercolor style" {
		t.Fatalf("style clause wrong: %q", got)
	}

	s.CameraAngle = "Above"
	got := AugmentPrompt("a cat", s)
	if !strings.HasSuffix(got, ", in Watercolor style, shot from Above") {
		t.Fatalf("style clause must precede camera clause: %q", got)
	}
}
