package detection

import (
	"image"
)

// Histogram counts the 256 intensity levels of g.
func Histogram(g *image.Gray) [256]int {
	var hist [256]int
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride : (y-b.Min.Y)*g.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

// Otsu returns the threshold level that maximises the between-class
// variance of hist, where the two classes are [0, level] and
// (level, 255]. separability is σ²_B / σ²_T at that level: 1 for a
// perfectly bimodal histogram, 0 for a flat image.
func Otsu(hist [256]int) (level uint8, separability float64) {
	var total, sum float64
	for i, n := range hist {
		total += float64(n)
		sum += float64(i) * float64(n)
	}
	if total == 0 {
		return 0, 0
	}

	mean := sum / total
	var variance float64
	for i, n := range hist {
		d := float64(i) - mean
		variance += d * d * float64(n)
	}
	variance /= total
	if variance == 0 {
		return 0, 0
	}

	var wB, sumB, best float64
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := (wB / total) * (wF / total) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level, best / variance
}
