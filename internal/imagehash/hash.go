package imagehash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"

	_ "golang.org/x/image/webp"
)

const (
	// GridSize is the edge length of the downsampled luma grid.
	GridSize = 32
	// Bits is the number of bits in a Hash.
	Bits = GridSize * GridSize
	// SimilarityThreshold is the maximum normalized distance for two covers
	// to count as the same image.
	SimilarityThreshold = 0.10

	words = Bits / 64
)

// Hash is a 1024-bit average hash. Bit i (row-major pixel index) lives in
// word i/64 at position i%64.
type Hash [words]uint64

// Bit reports whether bit i is set.
func (h Hash) Bit(i int) bool {
	return h[i/64]&(1<<(uint(i)%64)) != 0
}

func (h *Hash) set(i int) {
	h[i/64] |= 1 << (uint(i) % 64)
}

// String renders the hash as hex, most significant word first.
func (h Hash) String() string {
	var buf bytes.Buffer
	for i := words - 1; i >= 0; i-- {
		fmt.Fprintf(&buf, "%016x", h[i])
	}
	return buf.String()
}

// Decode decodes JPEG, PNG, GIF or WebP bytes.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode image: empty input")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Compute returns the average hash of img.
func Compute(img image.Image) Hash {
	luma := downsampleLuma(img)

	var sum float64
	for _, v := range luma {
		sum += v
	}
	mean := sum / Bits

	var h Hash
	for i, v := range luma {
		if v < mean {
			h.set(i)
		}
	}
	return h
}

// HashBytes decodes data and returns its average hash.
func HashBytes(data []byte) (Hash, error) {
	img, err := Decode(data)
	if err != nil {
		return Hash{}, err
	}
	return Compute(img), nil
}

// Distance returns the number of differing bits.
func Distance(a, b Hash) int {
	n := 0
	for i := range a {
		n += bits.OnesCount64(a[i] ^ b[i])
	}
	return n
}

// NormalizedHammingDistance returns Distance(a, b) / Bits, in [0, 1].
func NormalizedHammingDistance(a, b Hash) float64 {
	return float64(Distance(a, b)) / Bits
}

// Similar reports whether two hashes fall within SimilarityThreshold.
func Similar(a, b Hash) bool {
	return NormalizedHammingDistance(a, b) <= SimilarityThreshold
}

// CompareImages decodes and hashes both inputs and reports whether they are
// the same cover.
func CompareImages(a, b []byte) (bool, error) {
	ha, err := HashBytes(a)
	if err != nil {
		return false, err
	}
	hb, err := HashBytes(b)
	if err != nil {
		return false, err
	}
	return Similar(ha, hb), nil
}
