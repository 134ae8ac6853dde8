package utils

import (
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

const DefaultEmbedColor = "#5865F2"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Color variants shift the guild's base color toward white or black.
const (
	ColorPrimary = "primary"
	ColorInfo    = "info"
	ColorSuccess = "success"
	ColorWarning = "warning"
	ColorDanger  = "danger"
	ColorNeutral = "neutral"
)

var variantShift = map[string]float64{
	ColorPrimary: 0,
	ColorInfo:    -0.12,
	ColorSuccess: 0.08,
	ColorWarning: 0.16,
	ColorDanger:  -0.2,
	ColorNeutral: -0.28,
}

// NormalizeHexColor returns "#RRGGBB" in upper case, or the default color
// when input is not a six-digit hex color.
func NormalizeHexColor(input string) string {
	hex := strings.TrimSpace(input)
	if !hexColor.MatchString(hex) {
		return DefaultEmbedColor
	}
	return strings.ToUpper(hex)
}

// ParseHexColor parses a hex color string (like "#FACF24") into an integer for Discord embeds.
func ParseHexColor(input string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(NormalizeHexColor(input), "#"), 16, 64)
	if err != nil {
		return 0x5865F2
	}
	return int(v)
}

// ResolveEmbedColor applies a variant shift to the configured color.
func ResolveEmbedColor(embedColor, variant string) int {
	value := ParseHexColor(embedColor)
	amount := variantShift[variant]
	adjust := func(channel int) int {
		v := int(math.Round(float64(channel) + 255*amount))
		return max(0, min(255, v))
	}
	r := adjust((value >> 16) & 0xff)
	g := adjust((value >> 8) & 0xff)
	b := adjust(value & 0xff)
	return r<<16 | g<<8 | b
}

// RandomColor is used for log embeds.
func RandomColor() int {
	return rand.Intn(0xffffff)
}
