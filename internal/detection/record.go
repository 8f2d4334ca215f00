package detection

import (
	"errors"
	"fmt"
)

// ErrDimensionsUnavailable reports that the video's pixel size could not be
// determined, so no pixel box can be derived for it.
var ErrDimensionsUnavailable = errors.New("video dimensions unavailable")

// Dimensions is the pixel size of the source video frame.
type Dimensions struct {
	Width  int
	Height int
}

// Validate returns ErrDimensionsUnavailable unless both sides are positive.
func (d Dimensions) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrDimensionsUnavailable, d.Width, d.Height)
	}
	return nil
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Record is one detection line from one frame's label file.
type Record struct {
	Frame   int
	ClassID int
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
	Track   TrackID
}

// PixelBox projects the record onto a frame of the given size. Values are
// truncated toward zero. The origin is top-left with y growing downward, so
// Y1 is the top edge and Y2 the bottom edge for non-negative extents.
func (r Record) PixelBox(dims Dimensions) PixelBox {
	w := float64(dims.Width)
	h := float64(dims.Height)
	return PixelBox{
		X1: int((r.XCenter - r.Width*0.5) * w),
		X2: int((r.XCenter + r.Width*0.5) * w),
		Y1: int((r.YCenter - r.Height*0.5) * h),
		Y2: int((r.YCenter + r.Height*0.5) * h),
	}
}

// PixelBox is a detection in pixel coordinates. Corner order is not
// guaranteed; use Rect before any geometric comparison.
type PixelBox struct {
	X1, X2 int
	Y1, Y2 int
}

// Area returns |x2-x1| * |y2-y1|.
func (b PixelBox) Area() int {
	return absInt(b.X2-b.X1) * absInt(b.Y2-b.Y1)
}

// Center returns the midpoint of the box.
func (b PixelBox) Center() (float64, float64) {
	return float64(b.X1+b.X2) / 2, float64(b.Y1+b.Y2) / 2
}

// Rect returns the box with ordered edges.
func (b PixelBox) Rect() Rect {
	return Rect{
		Left:   min(b.X1, b.X2),
		Right:  max(b.X1, b.X2),
		Top:    min(b.Y1, b.Y2),
		Bottom: max(b.Y1, b.Y2),
	}
}

// Rect is an axis-aligned rectangle with Left <= Right and Top <= Bottom.
type Rect struct {
	Left, Right int
	Top, Bottom int
}

// IntersectionArea returns the overlapping area of r and o, or 0 when they
// do not overlap on both axes. Touching edges do not count as overlap.
func (r Rect) IntersectionArea(o Rect) int {
	left := max(r.Left, o.Left)
	right := min(r.Right, o.Right)
	top := max(r.Top, o.Top)
	bottom := min(r.Bottom, o.Bottom)
	if right > left && bottom > top {
		return (right - left) * (bottom - top)
	}
	return 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
