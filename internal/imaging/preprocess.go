package imaging

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/image/webp"

	"studio/internal/domain"
)

// Options configures a Preprocessor.
type Options struct {
	// MaxDimension bounds the longer side of an image sent to the model.
	MaxDimension int
	// JPEGQuality is the re-encode quality factor (0-100).
	JPEGQuality int
	// SkipBelowBytes short-circuits inputs already small enough to send as-is.
	SkipBelowBytes int
	Logger         zerolog.Logger
}

// Preprocessor shrinks source images before they are attached to a model
// request, keeping payloads within service limits. It never fails: anything
// that cannot be decoded is passed through unchanged.
type Preprocessor struct {
	maxDimension   int
	quality        int
	skipBelowBytes int
	logger         zerolog.Logger
}

// NewPreprocessor constructs a Preprocessor, applying defaults for unset options.
func NewPreprocessor(opts Options) *Preprocessor {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 1024
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 70
	}
	if opts.SkipBelowBytes <= 0 {
		opts.SkipBelowBytes = 256 * 1024
	}
	return &Preprocessor{
		maxDimension:   opts.MaxDimension,
		quality:        opts.JPEGQuality,
		skipBelowBytes: opts.SkipBelowBytes,
		logger:         opts.Logger,
	}
}

// Process bounds one image to the configured maximum dimension, preserving
// aspect ratio and re-encoding as JPEG. Inputs already below the byte
// threshold or dimension bound are returned byte-identical. Decode failures
// degrade to returning the input unchanged.
func (p *Preprocessor) Process(ctx context.Context, src domain.SourceImage) domain.SourceImage {
	if len(src.Data) <= p.skipBelowBytes {
		return src
	}
	if err := ctx.Err(); err != nil {
		return src
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src.Data))
	if err != nil {
		p.logger.Debug().Err(err).Msg("imaging: decode config failed, passing original through")
		return src
	}
	if cfg.Width <= p.maxDimension && cfg.Height <= p.maxDimension {
		return src
	}

	decoded, _, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		p.logger.Debug().Err(err).Msg("imaging: decode failed, passing original through")
		return src
	}

	width, height := fitWithin(cfg.Width, cfg.Height, p.maxDimension)
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), decoded, decoded.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: p.quality}); err != nil {
		p.logger.Debug().Err(err).Msg("imaging: jpeg encode failed, passing original through")
		return src
	}

	p.logger.Debug().
		Int("from_width", cfg.Width).
		Int("from_height", cfg.Height).
		Int("to_width", width).
		Int("to_height", height).
		Int("bytes", buf.Len()).
		Msg("imaging: downscaled source image")

	return domain.SourceImage{MIME: "image/jpeg", Data: buf.Bytes()}
}

// ProcessAll processes a job's source images concurrently and waits for all
// of them, preserving input order.
func (p *Preprocessor) ProcessAll(ctx context.Context, images []domain.SourceImage) []domain.SourceImage {
	if len(images) == 0 {
		return nil
	}
	out := make([]domain.SourceImage, len(images))
	g, ctx := errgroup.WithContext(ctx)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			out[i] = p.Process(ctx, img)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// fitWithin scales (w, h) so the longer side equals bound, preserving ratio.
func fitWithin(w, h, bound int) (int, int) {
	if w >= h {
		scaled := int(float64(h)*float64(bound)/float64(w) + 0.5)
		if scaled < 1 {
			scaled = 1
		}
		return bound, scaled
	}
	scaled := int(float64(w)*float64(bound)/float64(h) + 0.5)
	if scaled < 1 {
		scaled = 1
	}
	return scaled, bound
}
