package colormath

// float32 twins of the helpers above, used by the fragment programs.

func Clamp01f(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func Lumaf(r, g, b float32) float32 {
	return LumaR*r + LumaG*g + LumaB*b
}

func RGBToHSLf(r, g, b float32) (h, s, l float32) {
	hh, ss, ll := RGBToHSL(float64(r), float64(g), float64(b))
	return float32(hh), float32(ss), float32(ll)
}
