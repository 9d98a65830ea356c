package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// JobStatus enumerates the lifecycle states of a generation job. A job that
// succeeds is removed from the queue entirely, so there is no terminal
// success state.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusFailed     JobStatus = "failed"
)

// Resolution selects the output resolution tier requested from the model.
type Resolution string

const (
	Resolution1K Resolution = "1K"
	Resolution2K Resolution = "2K"
	Resolution4K Resolution = "4K"
)

// StyleNone and CameraAngleNone are the sentinel values meaning "leave the
// prompt alone"; any other value is appended to the prompt as a clause.
const (
	StyleNone       = "None"
	CameraAngleNone = "None"
)

// AspectRatios lists the ratios the image API accepts.
var AspectRatios = []string{"1:1", "3:4", "4:3", "9:16", "16:9"}

// Settings is the user-selected generation configuration. Jobs hold a copy
// taken at enqueue time, so changing settings in the editor never alters a
// job that is already queued.
type Settings struct {
	AspectRatio string     `json:"aspect_ratio"`
	Resolution  Resolution `json:"resolution"`
	ProOverride bool       `json:"pro_override"`
	Style       string     `json:"style"`
	CameraAngle string     `json:"camera_angle"`
}

// DefaultSettings returns the configuration a fresh editor session starts with.
func DefaultSettings() Settings {
	return Settings{
		AspectRatio: "1:1",
		Resolution:  Resolution1K,
		Style:       StyleNone,
		CameraAngle: CameraAngleNone,
	}
}

// Normalize fills unset fields with their defaults.
func (s *Settings) Normalize() {
	def := DefaultSettings()
	if strings.TrimSpace(s.AspectRatio) == "" {
		s.AspectRatio = def.AspectRatio
	}
	if strings.TrimSpace(string(s.Resolution)) == "" {
		s.Resolution = def.Resolution
	}
	if strings.TrimSpace(s.Style) == "" {
		s.Style = def.Style
	}
	if strings.TrimSpace(s.CameraAngle) == "" {
		s.CameraAngle = def.CameraAngle
	}
}

// Validate reports whether the settings combination can be sent to the model.
func (s Settings) Validate() error {
	valid := false
	for _, ratio := range AspectRatios {
		if s.AspectRatio == ratio {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: aspect ratio %q", ErrInvalidSettings, s.AspectRatio)
	}
	switch s.Resolution {
	case Resolution1K, Resolution2K, Resolution4K:
	default:
		return fmt.Errorf("%w: resolution %q", ErrInvalidSettings, s.Resolution)
	}
	return nil
}

// SourceImage is one encoded reference image attached to a job.
type SourceImage struct {
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

// Clone returns a deep copy so a job's snapshot cannot alias live editor state.
func (s SourceImage) Clone() SourceImage {
	return SourceImage{MIME: s.MIME, Data: append([]byte(nil), s.Data...)}
}

// CloneSourceImages deep-copies a slice of source images.
func CloneSourceImages(images []SourceImage) []SourceImage {
	if len(images) == 0 {
		return nil
	}
	out := make([]SourceImage, len(images))
	for i, img := range images {
		out[i] = img.Clone()
	}
	return out
}

// DataURL renders the image as a self-contained data URL.
func (s SourceImage) DataURL() string {
	mime := s.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(s.Data)
}

// ParseDataURL decodes a base64 data URL into a SourceImage.
func ParseDataURL(raw string) (SourceImage, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "data:") {
		return SourceImage{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidImage)
	}
	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return SourceImage{}, fmt.Errorf("%w: missing payload separator", ErrInvalidImage)
	}
	meta := raw[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return SourceImage{}, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidImage)
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "image/jpeg"
	}
	data, err := base64.StdEncoding.DecodeString(raw[comma+1:])
	if err != nil {
		return SourceImage{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return SourceImage{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	return SourceImage{MIME: mime, Data: data}, nil
}

// Job is one queued generation request. Settings and SourceImages are
// snapshots taken at enqueue time and never change afterwards; status
// transitions happen only inside the scheduler.
type Job struct {
	ID           string        `json:"id"`
	Seq          uint64        `json:"-"`
	Prompt       string        `json:"prompt"`
	Settings     Settings      `json:"settings"`
	SourceImages []SourceImage `json:"-"`
	Status       JobStatus     `json:"status"`
	Error        string        `json:"error,omitempty"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    time.Time     `json:"started_at,omitzero"`
}

// Clone returns a deep copy of the job.
func (j Job) Clone() Job {
	out := j
	out.SourceImages = CloneSourceImages(j.SourceImages)
	return out
}

// GeneratedResult is one output image in the gallery. DataURL is
// self-contained; Prompt records the originating job's prompt so the editor
// can copy it back.
type GeneratedResult struct {
	ID        string    `json:"id"`
	DataURL   string    `json:"url"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
}
