package types

import "image"

// Box represents a normalized bounding box with coordinates in [0,1] range,
// as returned by vision models.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect converts the normalized box to pixel coordinates on a w×h image.
func (b Box) Rect(w, h int) image.Rectangle {
	x0 := int(clamp(b.X, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(b.Y, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(b.X+b.W, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(b.Y+b.H, 0, 1)*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}

// Empty reports whether the box has no usable area.
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// PlateDetection is the result of locating a license plate in an image.
type PlateDetection struct {
	Found      bool    `json:"found"`
	Plate      Box     `json:"plate"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
