package camera

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ContentTypeJPEG is the only encoding produced by Encoder.
const ContentTypeJPEG = "image/jpeg"

// Photo is one captured still image.
type Photo struct {
	ID          string    `json:"id"`
	Data        []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Facing      Facing    `json:"facing"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Size returns the encoded payload size in bytes.
func (p Photo) Size() int {
	return len(p.Data)
}

// DataURL returns the photo as a data: URL, the form verification
// records store photos in.
func (p Photo) DataURL() string {
	return "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Encoder turns frames into JPEG photos.
type Encoder struct {
	Quality int

	// MaxSize bounds the longest side of the output. Zero keeps the
	// native resolution.
	MaxSize int
}

// NewEncoder returns an encoder at the given JPEG quality, clamped to 1-100.
func NewEncoder(quality int) *Encoder {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return &Encoder{Quality: quality}
}

// Encode draws frame into an off-screen bitmap at its native resolution
// and JPEG-encodes the bitmap.
func (e *Encoder) Encode(frame image.Image, facing Facing) (Photo, error) {
	if frame == nil {
		return Photo{}, fmt.Errorf("camera: encode: nil frame")
	}
	b := frame.Bounds()
	if b.Empty() {
		return Photo{}, fmt.Errorf("camera: encode: empty frame")
	}

	// Detach from the device buffer, which the backend may reuse.
	var bitmap *image.NRGBA
	if e.MaxSize > 0 && (b.Dx() > e.MaxSize || b.Dy() > e.MaxSize) {
		bitmap = imaging.Fit(frame, e.MaxSize, e.MaxSize, imaging.Linear)
	} else {
		bitmap = imaging.Clone(frame)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, bitmap, imaging.JPEG, imaging.JPEGQuality(e.Quality)); err != nil {
		return Photo{}, fmt.Errorf("camera: encode jpeg (q=%d): %w", e.Quality, err)
	}

	return Photo{
		ID:          uuid.NewString(),
		Data:        buf.Bytes(),
		ContentType: ContentTypeJPEG,
		Width:       bitmap.Bounds().Dx(),
		Height:      bitmap.Bounds().Dy(),
		Facing:      facing,
		CapturedAt:  time.Now().UTC(),
	}, nil
}
