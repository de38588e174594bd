package detection

import (
	"sort"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive).
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Component is one 8-connected foreground region.
type Component struct {
	// Bounds is the tight bounding box of the region.
	Bounds Bounds `json:"bounds"`

	// Area is the number of pixels in the region.
	Area int `json:"area"`

	// Pixels holds the row-major indices (y*width + x) of the region.
	Pixels []int `json:"-"`
}

// Plane returns the component as a row-major occupancy plane of the given
// size.
func (c Component) Plane(width, height int) []bool {
	out := make([]bool, width*height)
	for _, idx := range c.Pixels {
		out[idx] = true
	}
	return out
}

// Components finds the 8-connected regions of fg, a row-major plane of
// width*height pixels. Regions smaller than minArea are discarded as noise.
// The result is sorted by area, largest first; ties keep scan order.
func Components(fg []bool, width, height, minArea int) []Component {
	if width <= 0 || height <= 0 || len(fg) < width*height {
		return nil
	}

	visited := make([]bool, width*height)
	var comps []Component

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if !fg[idx] || visited[idx] {
				continue
			}
			c := floodFill(fg, visited, x, y, width, height)
			if c.Area >= minArea {
				comps = append(comps, c)
			}
		}
	}

	sort.SliceStable(comps, func(i, j int) bool {
		return comps[i].Area > comps[j].Area
	})
	return comps
}

// Largest returns the biggest component of fg, or false when fg has no
// foreground pixels.
func Largest(fg []bool, width, height int) (Component, bool) {
	comps := Components(fg, width, height, 1)
	if len(comps) == 0 {
		return Component{}, false
	}
	return comps[0], true
}

// floodFill collects the region containing (startX, startY).
//
// Uses an explicit stack rather than recursion so large regions cannot
// overflow the goroutine stack.
func floodFill(fg, visited []bool, startX, startY, width, height int) Component {
	c := Component{Bounds: Bounds{X1: startX, Y1: startY, X2: startX + 1, Y2: startY + 1}}
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		idx := p.Y*width + p.X
		if visited[idx] || !fg[idx] {
			continue
		}

		visited[idx] = true
		c.Pixels = append(c.Pixels, idx)
		c.Area++
		c.Bounds.X1 = min(c.Bounds.X1, p.X)
		c.Bounds.Y1 = min(c.Bounds.Y1, p.Y)
		c.Bounds.X2 = max(c.Bounds.X2, p.X+1)
		c.Bounds.Y2 = max(c.Bounds.Y2, p.Y+1)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return c
}
