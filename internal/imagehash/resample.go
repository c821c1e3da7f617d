package imagehash

import (
	"image"
	"math"
)

// downsampleLuma resamples img onto a GridSize x GridSize grid with an area
// filter and returns per-cell luma in row-major order. Each source pixel
// contributes to a cell in proportion to the overlap of its footprint, so the
// result does not depend on the source resolution.
func downsampleLuma(img image.Image) []float64 {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	out := make([]float64, Bits)
	if srcW <= 0 || srcH <= 0 {
		return out
	}

	scaleX := float64(srcW) / GridSize
	scaleY := float64(srcH) / GridSize

	for gy := 0; gy < GridSize; gy++ {
		y0 := float64(gy) * scaleY
		y1 := y0 + scaleY
		for gx := 0; gx < GridSize; gx++ {
			x0 := float64(gx) * scaleX
			x1 := x0 + scaleX

			var r, g, b, area float64
			for sy := int(math.Floor(y0)); sy < int(math.Ceil(y1)) && sy < srcH; sy++ {
				wy := overlap(y0, y1, float64(sy))
				if wy <= 0 {
					continue
				}
				for sx := int(math.Floor(x0)); sx < int(math.Ceil(x1)) && sx < srcW; sx++ {
					wx := overlap(x0, x1, float64(sx))
					if wx <= 0 {
						continue
					}
					w := wx * wy
					pr, pg, pb, _ := img.At(bounds.Min.X+sx, bounds.Min.Y+sy).RGBA()
					r += w * float64(pr>>8)
					g += w * float64(pg>>8)
					b += w * float64(pb>>8)
					area += w
				}
			}
			if area == 0 {
				continue
			}
			out[gy*GridSize+gx] = luma(r/area, g/area, b/area)
		}
	}
	return out
}

// overlap returns the length of [lo, hi) covered by the unit pixel starting at p.
func overlap(lo, hi, p float64) float64 {
	return math.Min(hi, p+1) - math.Max(lo, p)
}

func luma(r, g, b float64) float64 {
	return math.Min(0.299*r+0.587*g+0.114*b, 255)
}
