package app

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi         = 96.0
	fontSize    = 11.0
	legendWidth = 16
	lineSpacing = 1.4
)

var textColor = image.NewUniform(color.RGBA{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff})

type annotatorConfig struct {
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(textColor)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, track *TrackData, colors *ColorMapper, bounds ElevationBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawTitle(track); err != nil {
		return fmt.Errorf("drawing title: %w", err)
	}
	if err := a.drawLegend(img, area, colors, bounds); err != nil {
		return fmt.Errorf("drawing legend: %w", err)
	}
	if err := a.drawInfoBar(img, track, bounds); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}
	return nil
}

func (a *annotator) lineHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) drawTitle(track *TrackData) error {
	run := track.Run
	if run == nil {
		return nil
	}

	title := fmt.Sprintf("Run %s, %s, %s", run.ID, run.TargetTool,
		run.StartedAt.In(a.config.Location).Format(a.config.DatetimeFormat))
	if run.Video != "" {
		title += ", " + run.Video
	}

	textY := (a.config.Borders.Top + a.lineHeight()) / 2
	_, err := a.context.DrawString(title, freetype.Pt(a.config.Borders.Left, textY))
	return err
}

// drawLegend draws the elevation gradient in the right border, highest at the top
func (a *annotator) drawLegend(img *image.RGBA, area image.Rectangle, colors *ColorMapper, bounds ElevationBounds) error {
	x0 := area.Max.X + a.config.Borders.Right/4
	height := area.Dy()
	for y := 0; y < height; y++ {
		c := colors.At(1 - float64(y)/float64(height-1))
		for x := x0; x < x0+legendWidth; x++ {
			img.Set(x, area.Min.Y+y, c)
		}
	}

	labelX := x0 + legendWidth + 4
	if _, err := a.context.DrawString(formatMeters(bounds.Max), freetype.Pt(labelX, area.Min.Y+a.lineHeight())); err != nil {
		return err
	}
	_, err := a.context.DrawString(formatMeters(bounds.Min), freetype.Pt(labelX, area.Max.Y))
	return err
}

func (a *annotator) drawInfoBar(img *image.RGBA, track *TrackData, bounds ElevationBounds) error {
	tagged, partial := 0, 0
	if track.Run != nil {
		tagged, partial = track.Run.Tagged, track.Run.Partial
	}
	lines := []string{fmt.Sprintf("Frames: %s (%s tagged, %s partial, %s failed, %s without position)",
		humanize.Comma(int64(track.Frames)),
		humanize.Comma(int64(tagged)),
		humanize.Comma(int64(partial)),
		humanize.Comma(int64(track.Failed)),
		humanize.Comma(int64(track.Unplaced)))}

	if track.Placed() {
		lines = append(lines, fmt.Sprintf("Track: %s; elevation %s to %s; lat %.6f to %.6f; lon %.6f to %.6f",
			humanize.SIWithDigits(track.Length, 2, "m"),
			formatMeters(bounds.Min), formatMeters(bounds.Max),
			track.MinLat, track.MaxLat, track.MinLon, track.MaxLon))
	}

	lh := a.lineHeight()
	y := img.Bounds().Max.Y - a.config.Borders.Bottom + lh + lh/2
	for _, line := range lines {
		if _, err := a.context.DrawString(line, freetype.Pt(a.config.Borders.Left, y)); err != nil {
			return fmt.Errorf("drawing info text: %w", err)
		}
		y += int(float64(lh) * lineSpacing)
	}
	return nil
}

func formatMeters(m float64) string {
	return fmt.Sprintf("%.1f m", m)
}
