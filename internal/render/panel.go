package render

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
)

// DefaultPanelLimit is the number of class cells drawn next to the image.
const DefaultPanelLimit = 4

// captionHeight is the strip above each cell that holds its caption.
const captionHeight = 16

// MaskPanel lays out img followed by one cell per class present in masks,
// most covered class first, up to limit cells. Each cell shows the union
// of that class's planes in its Palette colour. Missing classes leave a
// black cell captioned "-".
func MaskPanel(img image.Image, masks dataset.MaskStack, className func(int32) string, limit int) *image.NRGBA {
	if limit <= 0 {
		limit = DefaultPanelLimit
	}
	w, h := masks.Width, masks.Height

	type classArea struct {
		id   int32
		area int
	}
	areas := map[int32]int{}
	for i, plane := range masks.Planes {
		for _, on := range plane {
			if on {
				areas[masks.ClassIDs[i]]++
			}
		}
	}
	for _, id := range masks.ClassIDs {
		if _, ok := areas[id]; !ok {
			areas[id] = 0
		}
	}
	ranked := make([]classArea, 0, len(areas))
	for id, a := range areas {
		ranked = append(ranked, classArea{id, a})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].area != ranked[j].area {
			return ranked[i].area > ranked[j].area
		}
		return ranked[i].id < ranked[j].id
	})

	cellH := h + captionHeight
	out := imaging.New(w*(limit+1), cellH, color.Black)
	out = imaging.Paste(out, img, image.Pt(0, captionHeight))
	DrawLabel(out, fmt.Sprintf("H x W=%dx%d", h, w), 2, captionHeight-4, colorful.Color{R: 1, G: 1, B: 1})

	palette := Palette(limit)
	for cell := 0; cell < limit; cell++ {
		x0 := w * (cell + 1)
		caption := "-"
		if cell < len(ranked) {
			id := ranked[cell].id
			caption = className(id)
			fill := toNRGBA(palette[cell])
			for i, plane := range masks.Planes {
				if masks.ClassIDs[i] != id {
					continue
				}
				for p, on := range plane {
					if on {
						out.SetNRGBA(x0+p%w, captionHeight+p/w, fill)
					}
				}
			}
		}
		DrawLabel(out, caption, x0+2, captionHeight-4, colorful.Color{R: 1, G: 1, B: 1})
	}
	return out
}
