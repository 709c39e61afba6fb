package render

// Camera is the visible window in world coordinates.
type Camera struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// NewCamera centres a width x height view on the origin.
func NewCamera(width, height float64) Camera {
	return Camera{
		Xmin: -width / 2,
		Xmax: width / 2,
		Ymin: -height / 2,
		Ymax: height / 2,
	}
}

// InRange reports whether (x, y) is inside the visible window.
func (c Camera) InRange(x, y float64) bool {
	return x >= c.Xmin && x <= c.Xmax && y >= c.Ymin && y <= c.Ymax
}

func (c Camera) Width() float64  { return c.Xmax - c.Xmin }
func (c Camera) Height() float64 { return c.Ymax - c.Ymin }
