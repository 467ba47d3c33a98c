package celpack

import (
	"fmt"
	"strconv"
	"strings"
)

// fieldsOf splits line on whitespace. A line whose first non-blank
// character is "#" is a comment and yields no fields; leading whitespace
// before the "#" is permitted, matching the DSL's line-oriented,
// indentation-insensitive grammar (§4.1). A "#" later in the line is kept,
// since color tokens such as "#000" begin with it.
func fieldsOf(line string) []string {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return nil
	}
	return strings.Fields(line)
}

// parseColor parses a "#RGB" or "#RRGGBB" token into an RGB value.
// "#RGB" nybbles are doubled (0xA -> 0xAA), per §4.1.
func parseColor(tok string) (RGB, error) {
	if !strings.HasPrefix(tok, "#") {
		return RGB{}, fmt.Errorf("color %q must start with '#'", tok)
	}
	hex := tok[1:]
	switch len(hex) {
	case 3:
		v, err := strconv.ParseUint(hex, 16, 16)
		if err != nil {
			return RGB{}, fmt.Errorf("color %q: %w", tok, err)
		}
		r := byte((v >> 8) & 0xf)
		g := byte((v >> 4) & 0xf)
		b := byte(v & 0xf)
		return RGB{R: r*16 + r, G: g*16 + g, B: b*16 + b}, nil
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RGB{}, fmt.Errorf("color %q: %w", tok, err)
		}
		return RGB{R: byte(v >> 16), G: byte(v >> 8), B: byte(v)}, nil
	default:
		return RGB{}, fmt.Errorf("color %q must have 3 or 6 hex digits", tok)
	}
}

// parseIntOrHex parses a decimal integer, "$HEX", or "0xHEX" token.
func parseIntOrHex(tok string) (int64, error) {
	switch {
	case strings.HasPrefix(tok, "$"):
		v, err := strconv.ParseInt(tok[1:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("integer %q: %w", tok, err)
		}
		return v, nil
	case strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X"):
		v, err := strconv.ParseInt(tok[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("integer %q: %w", tok, err)
		}
		return v, nil
	default:
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("integer %q: %w", tok, err)
		}
		return v, nil
	}
}

// parseInt parses a plain decimal integer token, used for coordinates,
// rects, and ids where hex is not part of the grammar.
func parseInt(tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("integer %q: %w", tok, err)
	}
	return v, nil
}

func parseLoc(toks []string) (Loc, error) {
	if len(toks) < 2 {
		return Loc{}, fmt.Errorf("location requires 2 integers, got %d", len(toks))
	}
	x, err := parseInt(toks[0])
	if err != nil {
		return Loc{}, err
	}
	y, err := parseInt(toks[1])
	if err != nil {
		return Loc{}, err
	}
	return Loc{X: x, Y: y}, nil
}

func parseRect(toks []string) (Rect, error) {
	if len(toks) < 4 {
		return Rect{}, fmt.Errorf("rect requires 4 integers, got %d", len(toks))
	}
	vals := make([]int, 4)
	for i := 0; i < 4; i++ {
		v, err := parseInt(toks[i])
		if err != nil {
			return Rect{}, err
		}
		vals[i] = v
	}
	return Rect{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}, nil
}
