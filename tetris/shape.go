package tetris

import (
	"fmt"
	"strings"
)

// Shape identifies one of the seven tetrominoes.
type Shape uint8

const (
	I Shape = iota
	J
	L
	O
	S
	T
	Z
)

// NumShapes is the number of distinct tetrominoes.
const NumShapes = 7

// AllShapes lists every shape in canonical order.
var AllShapes = [NumShapes]Shape{I, J, L, O, S, T, Z}

var shapeNames = [NumShapes]string{"I", "J", "L", "O", "S", "T", "Z"}

func (s Shape) String() string {
	if int(s) < NumShapes {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shape(%d)", uint8(s))
}

// Valid reports whether s is one of the seven tetrominoes.
func (s Shape) Valid() bool {
	return int(s) < NumShapes
}

// ParseShape converts a single letter name into a Shape.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}
