package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"

	defaultWidth  = 1200
	defaultHeight = 900
)

type ImageFormat string

type Config struct {
	DBPath        string
	RunID         string // empty renders the latest run
	OutputFile    string
	Format        ImageFormat
	Theme         ColorTheme
	Status        string // only frames with this status, empty for all
	Width         int
	Height        int
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

var validStatuses = map[string]struct{}{
	"":        {},
	"tagged":  {},
	"partial": {},
	"failed":  {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		Theme:  TerrainTheme,
		Width:  defaultWidth,
		Height: defaultHeight,
	}
}

func NewConfigFromCLI() (*Config, error) {
	return ParseConfig(os.Args[1:])
}

// ParseConfig reads the configuration from command line arguments.
func ParseConfig(args []string) (*Config, error) {
	c := NewConfig()
	fs := flag.NewFlagSet("trackmap", flag.ContinueOnError)

	var imageFormat, theme string
	fs.StringVar(&c.DBPath, "db", "", "Path to the run ledger database")
	fs.StringVar(&c.RunID, "r", "", "Run ID, the latest run when empty")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", ImagePNG, "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", string(TerrainTheme), "Elevation color theme. [terrain, classic, grayscale, marine]")
	fs.StringVar(&c.Status, "status", "", "Only plot frames with this status. [tagged, partial, failed]")
	fs.IntVar(&c.Width, "width", defaultWidth, "Track area width in pixels")
	fs.IntVar(&c.Height, "height", defaultHeight, "Track area height in pixels")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable the info bar and elevation legend")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)
	if imageFormat == "jpg" {
		imageFormat = ImageJPEG
	}

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if _, ok := validThemes[ColorTheme(theme)]; !ok {
		err = fmt.Errorf("invalid color theme: %s", theme)
	} else if _, ok := validStatuses[c.Status]; !ok {
		err = fmt.Errorf("invalid frame status: %s", c.Status)
	} else if c.Width < minArea || c.Height < minArea {
		err = fmt.Errorf("track area must be at least %dx%d pixels", minArea, minArea)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.Theme = ColorTheme(theme)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
