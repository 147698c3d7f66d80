package segmentation

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Compose applies the matte to src and encodes the selected output.
// The matte is rescaled to the source dimensions first; models predict
// at their own fixed resolution.
func Compose(src image.Image, matte *image.Gray, out Output) (*Result, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scaled := scaleMatte(matte, w, h)
	if out.Feather > 0 {
		scaled = featherMatte(scaled, out.Feather)
	}

	var composed image.Image
	switch out.Type {
	case OutputForeground:
		composed = applyAlpha(src, scaled, false)
	case OutputBackground:
		composed = applyAlpha(src, scaled, true)
	case OutputMask:
		composed = scaled
	default:
		return nil, fmt.Errorf("unknown output type %q", out.Type)
	}

	data, mediaType, err := encode(composed, out.Format, out.Quality)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:      data,
		MediaType: mediaType,
		Width:     w,
		Height:    h,
	}, nil
}

func scaleMatte(matte *image.Gray, w, h int) *image.Gray {
	if matte.Bounds().Dx() == w && matte.Bounds().Dy() == h {
		return matte
	}

	scaled := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), matte, matte.Bounds(), xdraw.Over, nil)
	return scaled
}

func featherMatte(matte *image.Gray, radius float64) *image.Gray {
	blurred := blur.Gaussian(matte, radius)

	soft := image.NewGray(matte.Bounds())
	for y := soft.Bounds().Min.Y; y < soft.Bounds().Max.Y; y++ {
		for x := soft.Bounds().Min.X; x < soft.Bounds().Max.X; x++ {
			r, _, _, _ := blurred.At(x, y).RGBA()
			soft.SetGray(x, y, color.Gray{Y: uint8(r >> 8)})
		}
	}

	return soft
}

func applyAlpha(src image.Image, matte *image.Gray, invert bool) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			alpha := matte.GrayAt(x, y).Y
			if invert {
				alpha = 255 - alpha
			}

			c.A = alpha
			dst.SetNRGBA(x, y, c)
		}
	}

	return dst
}

func encode(img image.Image, format string, quality float64) ([]byte, string, error) {
	var buf bytes.Buffer

	switch format {
	case FormatJPEG:
		// JPEG has no alpha channel; flatten onto white.
		flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
		flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

		q := int(quality * 100)
		if q < 1 {
			q = 1
		} else if q > 100 {
			q = 100
		}

		if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return nil, "", fmt.Errorf("failed to encode jpeg: %w", err)
		}

		return buf.Bytes(), FormatJPEG, nil

	case FormatPNG, FormatWebP:
		// WebP is accepted on input only; no maintained Go encoder
		// exists, so requests for it get lossless PNG back.
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", fmt.Errorf("failed to encode png: %w", err)
		}

		return buf.Bytes(), FormatPNG, nil

	default:
		return nil, "", fmt.Errorf("unsupported output format %q", format)
	}
}
