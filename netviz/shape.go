package netviz

import (
	"strconv"
	"strings"
)

// Dim is a single tensor extent. UnknownDim marks a variadic axis (usually batch).
type Dim int

const UnknownDim Dim = -1

// Shape is an ordered list of tensor extents.
type Shape []Dim

func NewShape(dims ...int) Shape {
	s := make(Shape, len(dims))
	for i, d := range dims {
		s[i] = Dim(d)
	}
	return s
}

// String renders the shape the way Python prints a tuple, e.g. "(None, 28, 28, 1)".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		if d < 0 {
			parts[i] = "None"
		} else {
			parts[i] = strconv.Itoa(int(d))
		}
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// NumElements is the product of all extents. Unknown extents count as zero.
func (s Shape) NumElements() uint64 {
	n := uint64(1)
	for _, d := range s {
		if d < 0 {
			return 0
		}
		n *= uint64(d)
	}
	return n
}

func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	c := make(Shape, len(s))
	copy(c, s)
	return c
}

// ChannelsLast reorders a 4D (batch, channel, height, width) shape into
// (batch, height, width, channel). Other ranks are returned unchanged.
// The result never aliases s.
func (s Shape) ChannelsLast() Shape {
	if len(s) != 4 {
		return s.Clone()
	}
	return Shape{s[0], s[2], s[3], s[1]}
}

// Ints converts the shape to plain ints, mostly for JSON packets.
func (s Shape) Ints() []int {
	ints := make([]int, len(s))
	for i, d := range s {
		ints[i] = int(d)
	}
	return ints
}
