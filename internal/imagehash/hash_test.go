package imagehash

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// patternImage draws a deterministic block pattern scaled by factor.
func patternImage(factor int, invert bool) *image.RGBA {
	size := GridSize * factor
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cx, cy := x/factor, y/factor
			dark := (cx/8+cy/8)%2 == 0 || cx < 6
			if invert {
				dark = !dark
			}
			c := color.RGBA{R: 230, G: 220, B: 210, A: 255}
			if dark {
				c = color.RGBA{R: 20, G: 30, B: 40, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestHashBytesDeterministic(t *testing.T) {
	data := encodePNG(t, patternImage(3, false))
	first, err := HashBytes(data)
	if err != nil {
		t.Fatalf("HashBytes: %v", err)
	}
	second, err := HashBytes(data)
	if err != nil {
		t.Fatalf("HashBytes: %v", err)
	}
	if first != second {
		t.Fatalf("hash not deterministic: %s vs %s", first, second)
	}
	if NormalizedHammingDistance(first, second) != 0 {
		t.Fatal("expected zero distance for identical hashes")
	}
}

func TestComputeIndependentOfResolution(t *testing.T) {
	small := Compute(patternImage(1, false))
	large := Compute(patternImage(4, false))
	if small != large {
		t.Fatalf("expected integer upscale to hash identically, distance=%d", Distance(small, large))
	}
}

func TestComputeNonIntegerScaleStaysSimilar(t *testing.T) {
	base := patternImage(2, false)
	odd := image.NewRGBA(image.Rect(0, 0, 77, 91))
	for y := 0; y < 91; y++ {
		for x := 0; x < 77; x++ {
			odd.Set(x, y, base.At(x*64/77, y*64/91))
		}
	}
	if !Similar(Compute(base), Compute(odd)) {
		t.Fatalf("expected rescaled cover to be similar, distance=%v",
			NormalizedHammingDistance(Compute(base), Compute(odd)))
	}
}

func TestInvertedImageIsDissimilar(t *testing.T) {
	a := Compute(patternImage(2, false))
	b := Compute(patternImage(2, true))
	if Similar(a, b) {
		t.Fatalf("expected inverted cover to differ, distance=%v", NormalizedHammingDistance(a, b))
	}
}

func TestBitMappingRowMajor(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, GridSize, GridSize))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	// Darken the pixel at row 1, column 2 -> bit index 34.
	img.SetGray(2, 1, color.Gray{Y: 0})

	h := Compute(img)
	if !h.Bit(34) {
		t.Fatal("expected bit 34 set")
	}
	if Distance(h, Hash{}) != 1 {
		t.Fatalf("expected exactly one bit set, got %d", Distance(h, Hash{}))
	}
}

func TestUniformImageHasNoBits(t *testing.T) {
	img := image.NewUniform(color.RGBA{A: 255})
	bounded := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			bounded.Set(x, y, img.At(x, y))
		}
	}
	if h := Compute(bounded); h != (Hash{}) {
		t.Fatalf("expected empty hash, got %s", h)
	}
}

func TestCompareImages(t *testing.T) {
	a := encodePNG(t, patternImage(2, false))
	b := encodePNG(t, patternImage(3, false))
	same, err := CompareImages(a, b)
	if err != nil {
		t.Fatalf("CompareImages: %v", err)
	}
	if !same {
		t.Fatal("expected same cover")
	}
	if _, err := CompareImages(a, []byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDownsampleWeightsPartialPixels(t *testing.T) {
	// 48px onto 32 cells: each cell spans 1.5 source pixels, so the lit
	// column 1 contributes half its footprint to cells 0 and 1.
	size := GridSize * 3 / 2
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		img.Set(1, y, color.White)
	}

	cells := downsampleLuma(img)
	want := []float64{85, 85, 0}
	for i, w := range want {
		if got := cells[i]; got < w-1e-6 || got > w+1e-6 {
			t.Fatalf("cell %d luma = %v, want %v", i, got, w)
		}
	}
}
