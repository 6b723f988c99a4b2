package stadium

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ColorKind tags which of the three accepted forms a Color was written in.
type ColorKind uint8

const (
	ColorTransparent ColorKind = iota + 1
	ColorHex
	ColorRGB
)

// Color is the polymorphic colour used by stadium files: the literal
// "transparent", a six digit hex string, or an [r, g, b] triplet. The original
// form is kept so a stadium encodes back the way it was written.
type Color struct {
	Kind ColorKind
	hex  string
	rgb  [3]uint8
}

// Transparent returns the "transparent" colour.
func Transparent() Color {
	return Color{Kind: ColorTransparent}
}

// Hex builds a colour from a six digit hex string such as "FF00AA".
func Hex(s string) (Color, error) {
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{
		Kind: ColorHex,
		hex:  s,
		rgb:  [3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)},
	}, nil
}

// RGB builds a colour from its components.
func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, rgb: [3]uint8{r, g, b}}
}

// Components returns the red, green and blue parts. Transparent reports ok=false.
func (c Color) Components() (rgb [3]uint8, ok bool) {
	switch c.Kind {
	case ColorHex, ColorRGB:
		return c.rgb, true
	case ColorTransparent:
		return rgb, false
	default:
		return rgb, false
	}
}

// Int is the form the room API takes for disc colours: 0xRRGGBB, or -1.
func (c Color) Int() int {
	switch c.Kind {
	case ColorHex, ColorRGB:
		return int(c.rgb[0])<<16 | int(c.rgb[1])<<8 | int(c.rgb[2])
	default:
		return -1
	}
}

func (c Color) String() string {
	switch c.Kind {
	case ColorTransparent:
		return "transparent"
	case ColorHex:
		return c.hex
	case ColorRGB:
		return fmt.Sprintf("[%d,%d,%d]", c.rgb[0], c.rgb[1], c.rgb[2])
	default:
		return "<unset>"
	}
}

func (c Color) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ColorTransparent:
		return []byte(`"transparent"`), nil
	case ColorHex:
		return json.Marshal(c.hex)
	case ColorRGB:
		return json.Marshal([3]uint8{c.rgb[0], c.rgb[1], c.rgb[2]})
	default:
		return nil, fmt.Errorf("stadium: cannot encode unset color")
	}
}

func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("stadium: empty color")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "transparent" {
			*c = Transparent()
			return nil
		}
		parsed, err := Hex(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case '[':
		var parts []float64
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("stadium: color triplet: %w", err)
		}
		if len(parts) != 3 {
			return fmt.Errorf("stadium: color triplet has %d elements", len(parts))
		}
		var rgb [3]uint8
		for i, p := range parts {
			if p < 0 || p > 255 || p != float64(int(p)) {
				return fmt.Errorf("stadium: color component %v out of range", p)
			}
			rgb[i] = uint8(p)
		}
		*c = RGB(rgb[0], rgb[1], rgb[2])
		return nil
	}
	return fmt.Errorf("stadium: unsupported color %s", data)
}
