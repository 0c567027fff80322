package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"
)

const (
	minArea      = 100
	markerRadius = 4
	crossSize    = 5

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 40
	defaultBottomBorder = 60
	defaultRightBorder  = 120

	defaultDatetimeFormat = time.DateTime
)

var (
	backgroundColor = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
	pathColor       = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
	failedColor     = color.RGBA{R: 0xe0, G: 0x20, B: 0x20, A: 0xff}
)

// BorderConfig defines the space around the track area
type BorderConfig struct {
	Top    int
	Left   int
	Bottom int // info bar
	Right  int // elevation legend
}

// RenderConfig holds the track visualization options
type RenderConfig struct {
	Width          int // track area
	Height         int
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	ColorTheme     ColorTheme
	NoAnnotations  bool
	BorderConfig   BorderConfig
}

// TrackRenderer draws the frames of a run as a map coloured by elevation
type TrackRenderer struct {
	config RenderConfig
}

func NewTrackRenderer(config RenderConfig) (*TrackRenderer, error) {
	if config.Width == 0 {
		config.Width = defaultWidth
	}
	if config.Height == 0 {
		config.Height = defaultHeight
	}
	if config.Width < minArea || config.Height < minArea {
		return nil, fmt.Errorf("track area must be at least %dx%d pixels", minArea, minArea)
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig == (BorderConfig{}) {
		config.BorderConfig = BorderConfig{
			Top:    defaultTopBorder,
			Left:   defaultLeftBorder,
			Bottom: defaultBottomBorder,
			Right:  defaultRightBorder,
		}
	}

	return &TrackRenderer{config: config}, nil
}

func (r *TrackRenderer) Render(track *TrackData) (*image.RGBA, error) {
	b := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0, r.config.Width+b.Left+b.Right, r.config.Height+b.Top+b.Bottom))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)

	area := image.Rect(b.Left, b.Top, b.Left+r.config.Width, b.Top+r.config.Height)

	bounds, _ := track.Elevation()
	colors := NewColorMapper(r.config.ColorTheme, bounds)

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(annotatorConfig{
			DatetimeFormat: r.config.DatetimeFormat,
			Location:       r.config.Location,
			FontSize:       r.config.FontSize,
			Borders:        b,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, area, track, colors, bounds); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderTrack(img, area, track, colors)
	return img, nil
}

func (r *TrackRenderer) renderTrack(img *image.RGBA, area image.Rectangle, track *TrackData, colors *ColorMapper) {
	if !track.Placed() {
		return
	}

	proj := newProjection(track, area.Inset(markerRadius+1))

	points := make([]image.Point, len(track.Points))
	for i, p := range track.Points {
		points[i] = proj.point(p.LatLng.Lat.Degrees(), p.LatLng.Lng.Degrees())
	}

	for i := 1; i < len(points); i++ {
		drawLine(img, points[i-1], points[i], pathColor)
	}

	// failed frames on top so they stay visible
	for i, p := range track.Points {
		if p.Status != "failed" {
			fillCircle(img, points[i], markerRadius, colors.GetColor(p.Elevation))
		}
	}
	for i, p := range track.Points {
		if p.Status == "failed" {
			drawCross(img, points[i], crossSize, failedColor)
		}
	}
}

// projection is an equirectangular projection of the track bounds onto an area,
// scaled uniformly and centred.
type projection struct {
	minLon, maxLat float64
	cosLat         float64
	scale          float64
	offset         image.Point
}

func newProjection(track *TrackData, area image.Rectangle) projection {
	midLat := (track.MinLat + track.MaxLat) / 2
	p := projection{
		minLon: track.MinLon,
		maxLat: track.MaxLat,
		cosLat: math.Cos(midLat * math.Pi / 180),
	}

	spanX := (track.MaxLon - track.MinLon) * p.cosLat
	spanY := track.MaxLat - track.MinLat
	w, h := float64(area.Dx()), float64(area.Dy())

	switch {
	case spanX > 0 && spanY > 0:
		p.scale = math.Min(w/spanX, h/spanY)
	case spanX > 0:
		p.scale = w / spanX
	case spanY > 0:
		p.scale = h / spanY
	}

	p.offset = image.Point{
		X: area.Min.X + int(math.Round((w-spanX*p.scale)/2)),
		Y: area.Min.Y + int(math.Round((h-spanY*p.scale)/2)),
	}
	return p
}

func (p projection) point(lat, lon float64) image.Point {
	return image.Point{
		X: p.offset.X + int(math.Round((lon-p.minLon)*p.cosLat*p.scale)),
		Y: p.offset.Y + int(math.Round((p.maxLat-lat)*p.scale)),
	}
}

func fillCircle(img *image.RGBA, c image.Point, radius int, col color.Color) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.Set(c.X+dx, c.Y+dy, col)
			}
		}
	}
}

func drawCross(img *image.RGBA, c image.Point, size int, col color.Color) {
	for d := -size; d <= size; d++ {
		img.Set(c.X+d, c.Y+d, col)
		img.Set(c.X+d, c.Y-d, col)
	}
}

// drawLine is Bresenham's line algorithm
func drawLine(img *image.RGBA, from, to image.Point, col color.Color) {
	dx := abs(to.X - from.X)
	dy := -abs(to.Y - from.Y)
	sx, sy := 1, 1
	if from.X > to.X {
		sx = -1
	}
	if from.Y > to.Y {
		sy = -1
	}

	err := dx + dy
	x, y := from.X, from.Y
	for {
		img.Set(x, y, col)
		if x == to.X && y == to.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
