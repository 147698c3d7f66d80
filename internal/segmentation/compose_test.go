package segmentation

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// halfMatte is opaque on the left half, transparent on the right.
func halfMatte(w, h int) *image.Gray {
	matte := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				matte.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return matte
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img
}

func TestComposeForeground(t *testing.T) {
	src := solidImage(10, 10, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	out := Output{Format: FormatPNG, Quality: 0.8, Type: OutputForeground}

	result, err := Compose(src, halfMatte(10, 10), out)
	if err != nil {
		t.Fatal(err)
	}

	if result.MediaType != FormatPNG {
		t.Fatalf("expected png, got %s", result.MediaType)
	}

	img := decodePNG(t, result.Data)
	_, _, _, left := img.At(2, 5).RGBA()
	_, _, _, right := img.At(8, 5).RGBA()

	if left == 0 {
		t.Error("foreground pixel should be opaque")
	}
	if right != 0 {
		t.Error("background pixel should be transparent")
	}
}

func TestComposeBackground(t *testing.T) {
	src := solidImage(10, 10, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	out := Output{Format: FormatPNG, Quality: 0.8, Type: OutputBackground}

	result, err := Compose(src, halfMatte(10, 10), out)
	if err != nil {
		t.Fatal(err)
	}

	img := decodePNG(t, result.Data)
	_, _, _, left := img.At(2, 5).RGBA()
	_, _, _, right := img.At(8, 5).RGBA()

	if left != 0 {
		t.Error("foreground pixel should be transparent in background mode")
	}
	if right == 0 {
		t.Error("background pixel should be opaque in background mode")
	}
}

func TestComposeMask(t *testing.T) {
	src := solidImage(10, 10, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	out := Output{Format: FormatPNG, Quality: 0.8, Type: OutputMask}

	result, err := Compose(src, halfMatte(10, 10), out)
	if err != nil {
		t.Fatal(err)
	}

	img := decodePNG(t, result.Data)
	r, g, b, _ := img.At(2, 5).RGBA()
	if r != g || g != b {
		t.Error("mask output should be grayscale")
	}
	if r>>8 != 255 {
		t.Errorf("foreground mask value should be 255, got %d", r>>8)
	}
}

func TestComposeScalesMatte(t *testing.T) {
	src := solidImage(20, 12, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	out := Output{Format: FormatPNG, Quality: 0.8, Type: OutputForeground}

	// Matte at the network's own resolution, not the source's.
	result, err := Compose(src, halfMatte(8, 8), out)
	if err != nil {
		t.Fatal(err)
	}

	if result.Width != 20 || result.Height != 12 {
		t.Errorf("result should match the source size, got %dx%d", result.Width, result.Height)
	}
}

func TestComposeJPEGHasNoAlpha(t *testing.T) {
	src := solidImage(10, 10, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	out := Output{Format: FormatJPEG, Quality: 0.9, Type: OutputForeground}

	result, err := Compose(src, halfMatte(10, 10), out)
	if err != nil {
		t.Fatal(err)
	}

	if result.MediaType != FormatJPEG {
		t.Fatalf("expected jpeg, got %s", result.MediaType)
	}

	// JFIF magic.
	if len(result.Data) < 2 || result.Data[0] != 0xFF || result.Data[1] != 0xD8 {
		t.Error("output does not look like a jpeg")
	}
}

func TestComposeWebPFallsBackToPNG(t *testing.T) {
	src := solidImage(4, 4, color.RGBA{A: 255})
	out := Output{Format: FormatWebP, Quality: 0.8, Type: OutputForeground}

	result, err := Compose(src, halfMatte(4, 4), out)
	if err != nil {
		t.Fatal(err)
	}

	if result.MediaType != FormatPNG {
		t.Errorf("webp requests should produce png, got %s", result.MediaType)
	}
}

func TestComposeFeatherSoftensEdge(t *testing.T) {
	src := solidImage(16, 16, color.RGBA{R: 255, A: 255})

	sharp, err := Compose(src, halfMatte(16, 16), Output{Format: FormatPNG, Quality: 0.8, Type: OutputForeground})
	if err != nil {
		t.Fatal(err)
	}

	soft, err := Compose(src, halfMatte(16, 16), Output{Format: FormatPNG, Quality: 0.8, Type: OutputForeground, Feather: 2})
	if err != nil {
		t.Fatal(err)
	}

	sharpImg := decodePNG(t, sharp.Data)
	softImg := decodePNG(t, soft.Data)

	// Right at the matte edge the feathered alpha must sit strictly
	// between fully opaque and fully transparent.
	_, _, _, sharpA := sharpImg.At(8, 8).RGBA()
	_, _, _, softA := softImg.At(8, 8).RGBA()

	if sharpA != 0 {
		t.Fatalf("unexpected sharp edge alpha %d", sharpA)
	}
	if softA == 0 || softA == 0xFFFF {
		t.Errorf("feathered edge alpha should be partial, got %d", softA)
	}
}

func TestComposeUnknownOutputType(t *testing.T) {
	src := solidImage(4, 4, color.RGBA{A: 255})
	if _, err := Compose(src, halfMatte(4, 4), Output{Format: FormatPNG, Type: "outline"}); err == nil {
		t.Fatal("expected error for unknown output type")
	}
}
