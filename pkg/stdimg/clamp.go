package stdimg

import "github.com/Fepozopo/darkroom/pkg/colormath"

// toByte rounds and clamps a 0..255 float to a channel value.
func toByte(v float64) uint8 { return colormath.ClampByte(v) }
