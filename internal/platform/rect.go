package platform

import "sort"

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the rect has no area and no origin.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// HasOverlapX reports whether r and o overlap on the horizontal axis.
func (r Rect) HasOverlapX(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width
}

// HasOverlapY reports whether r and o overlap on the vertical axis.
func (r Rect) HasOverlapY(o Rect) bool {
	return r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// TranslateToCenter keeps the size of r and moves it to the center of o.
func (r Rect) TranslateToCenter(o Rect) Rect {
	return Rect{
		X:      o.X + (o.Width-r.Width)/2,
		Y:      o.Y + (o.Height-r.Height)/2,
		Width:  r.Width,
		Height: r.Height,
	}
}

// Inset shrinks r by the given edge amounts. Width and height never drop
// below 1.
func (r Rect) Inset(top, right, bottom, left int) Rect {
	adjusted := Rect{
		X:      r.X + left,
		Y:      r.Y + top,
		Width:  r.Width - left - right,
		Height: r.Height - top - bottom,
	}
	if adjusted.Width < 1 {
		adjusted.Width = 1
	}
	if adjusted.Height < 1 {
		adjusted.Height = 1
	}
	return adjusted
}

// SortMonitors orders monitors by position, left to right then top to
// bottom.
func SortMonitors(monitors []NativeMonitor) {
	sort.SliceStable(monitors, func(i, j int) bool {
		a, b := monitors[i].Bounds, monitors[j].Bounds
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
}
