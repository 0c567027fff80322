package app

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme is a predefined elevation color scheme
type ColorTheme string

const (
	TerrainTheme   ColorTheme = "terrain"   // green lowlands to brown to white peaks
	ClassicTheme   ColorTheme = "classic"   // blue to red
	GrayscaleTheme ColorTheme = "grayscale" // black to white
	MarineTheme    ColorTheme = "marine"    // deep blue to cyan

	DefaultColorMapSize = 256
)

var validThemes = map[ColorTheme]struct{}{
	TerrainTheme:   {},
	ClassicTheme:   {},
	GrayscaleTheme: {},
	MarineTheme:    {},
}

// NoElevationColor marks placed frames without an altitude.
var NoElevationColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

// ColorMapper maps elevations onto a precomputed gradient
type ColorMapper struct {
	colorMap     []color.Color
	size         int
	boundsMin    float64
	boundsRange  float64
	metersPerIdx float64
}

func NewColorMapper(theme ColorTheme, bounds ElevationBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

func NewColorMapperWithSize(theme ColorTheme, bounds ElevationBounds, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}

	gradient := getColorTheme(theme)
	cm := &ColorMapper{
		colorMap:    make([]color.Color, size),
		size:        size,
		boundsMin:   bounds.Min,
		boundsRange: bounds.Max - bounds.Min,
	}
	cm.metersPerIdx = cm.boundsRange / float64(size-1)

	for i := 0; i < size; i++ {
		cm.colorMap[i] = gradient(float64(i) / float64(size-1)).Clamped()
	}
	return cm
}

// GetColor returns the color of an elevation, clamped to the bounds.
func (cm *ColorMapper) GetColor(elevation *float64) color.Color {
	if elevation == nil {
		return NoElevationColor
	}
	if cm.boundsRange <= 0 {
		return cm.colorMap[cm.size/2]
	}

	index := int(math.Round((*elevation - cm.boundsMin) / cm.metersPerIdx))
	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

// At returns the gradient color at t in [0, 1].
func (cm *ColorMapper) At(t float64) color.Color {
	t = math.Max(0, math.Min(1, t))
	return cm.colorMap[int(math.Round(t*float64(cm.size-1)))]
}

func (cm *ColorMapper) Size() int {
	return cm.size
}

// stops interpolates between colors in HCL space at evenly spaced positions
func stops(colors ...colorful.Color) func(float64) colorful.Color {
	return func(t float64) colorful.Color {
		if t <= 0 {
			return colors[0]
		}
		if t >= 1 {
			return colors[len(colors)-1]
		}
		segment := t * float64(len(colors)-1)
		i := int(segment)
		return colors[i].BlendHcl(colors[i+1], segment-float64(i))
	}
}

func getColorTheme(theme ColorTheme) func(float64) colorful.Color {
	switch theme {
	case ClassicTheme:
		return func(t float64) colorful.Color {
			return colorful.Hsv(240-(t*240), 0.9+(t*0.1), 0.9)
		}

	case GrayscaleTheme:
		return func(t float64) colorful.Color {
			v := math.Pow(t, 0.7)
			return colorful.Color{R: v, G: v, B: v}
		}

	case MarineTheme:
		return func(t float64) colorful.Color {
			return colorful.Hsv(240-(t*60), 1.0-(t*0.8), 0.3+(math.Pow(t, 0.6)*0.7))
		}

	default:
		return stops(
			colorful.Color{R: 0.13, G: 0.40, B: 0.16},
			colorful.Color{R: 0.62, G: 0.72, B: 0.30},
			colorful.Color{R: 0.55, G: 0.40, B: 0.22},
			colorful.Color{R: 0.95, G: 0.95, B: 0.95},
		)
	}
}
