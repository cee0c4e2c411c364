package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

type encodeProfile struct {
	maxHeight   int
	png         bool
	jpegQuality int
}

// Upload profiles: high keeps PNG, the others re-encode as JPEG.
var uploadProfiles = map[Quality]encodeProfile{
	QualityHigh:   {maxHeight: 1200, png: true},
	QualityMedium: {maxHeight: 800, jpegQuality: 85},
	QualityLow:    {maxHeight: 600, jpegQuality: 70},
}

// Background removal output keeps transparency-friendly PNG except for low.
var cutoutProfiles = map[Quality]encodeProfile{
	QualityHigh:   {maxHeight: 1200, png: true},
	QualityMedium: {maxHeight: 800, png: true},
	QualityLow:    {maxHeight: 600, jpegQuality: 75},
}

func ParseQuality(value string) Quality {
	switch Quality(value) {
	case QualityHigh, QualityLow:
		return Quality(value)
	}
	return QualityMedium
}

type ProcessedImage struct {
	Bytes       []byte
	ContentType string
	Extension   string
}

func decodeImage(imageBytes []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func encodeImage(img image.Image, profile encodeProfile) (*ProcessedImage, error) {
	if img.Bounds().Dy() > profile.maxHeight {
		img = imaging.Resize(img, 0, profile.maxHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if profile.png {
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		return &ProcessedImage{Bytes: buf.Bytes(), ContentType: "image/png", Extension: "png"}, nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: profile.jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return &ProcessedImage{Bytes: buf.Bytes(), ContentType: "image/jpeg", Extension: "jpg"}, nil
}

// OptimizeImage bounds the height for the given quality and re-encodes.
func OptimizeImage(imageBytes []byte, quality Quality) (*ProcessedImage, error) {
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, err
	}
	return encodeImage(img, uploadProfiles[ParseQuality(string(quality))])
}

// RemoveBackground whitens a bright studio background behind a garment
// and re-encodes the cutout for the given quality.
func RemoveBackground(imageBytes []byte, quality Quality) (*ProcessedImage, error) {
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, err
	}
	whitened := whitenSmooth(img, 240, 4.0)
	return encodeImage(whitened, cutoutProfiles[ParseQuality(string(quality))])
}

// whitenSmooth composites img over white using a blurred luminance mask so
// the subject edge fades instead of stepping.
func whitenSmooth(img image.Image, threshold uint8, blurSigma float64) *image.NRGBA {
	src := imaging.Clone(img)
	bounds := src.Bounds()
	mask := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := src.NRGBAAt(x, y)
			if luminance(c.R, c.G, c.B) >= float64(threshold) {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	soft := imaging.Blur(mask, blurSigma)

	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := src.NRGBAAt(x, y)
			// soft is 0-based NRGBA with grey in every channel
			background := float64(soft.NRGBAAt(x-bounds.Min.X, y-bounds.Min.Y).R) / 255.0
			out.SetNRGBA(x, y, color.NRGBA{
				R: blend(c.R, background),
				G: blend(c.G, background),
				B: blend(c.B, background),
				A: c.A,
			})
		}
	}
	return out
}

// WhitenBackgroundFeathered pushes pixels towards white by brightness:
// untouched at or below lower, pure white at or above upper, linear in
// between. The centred area covered by centralProtectionRatio is kept.
// Output is PNG.
func WhitenBackgroundFeathered(imageBytes []byte, lower, upper uint8, centralProtectionRatio float64) ([]byte, error) {
	if lower >= upper {
		return nil, fmt.Errorf("lower threshold must be less than upper threshold")
	}
	if centralProtectionRatio < 0.0 || centralProtectionRatio > 1.0 {
		return nil, fmt.Errorf("centralProtectionRatio must be between 0.0 and 1.0")
	}
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, err
	}
	out := imaging.Clone(img)
	width, height := out.Bounds().Dx(), out.Bounds().Dy()

	protectedW := int(float64(width) * centralProtectionRatio)
	protectedH := int(float64(height) * centralProtectionRatio)
	x0, y0 := (width-protectedW)/2, (height-protectedH)/2
	x1, y1 := x0+protectedW, y0+protectedH
	span := float64(upper - lower)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				continue
			}
			c := out.NRGBAAt(x, y)
			l := luminance(c.R, c.G, c.B)
			switch {
			case l <= float64(lower):
			case l >= float64(upper):
				out.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: c.A})
			default:
				factor := (l - float64(lower)) / span
				out.SetNRGBA(x, y, color.NRGBA{
					R: blend(c.R, factor),
					G: blend(c.G, factor),
					B: blend(c.B, factor),
					A: c.A,
				})
			}
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image to png: %w", err)
	}
	return buf.Bytes(), nil
}

func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// blend moves v towards white by factor in [0, 1].
func blend(v uint8, factor float64) uint8 {
	return uint8(math.Round(float64(v)*(1.0-factor) + 255.0*factor))
}
