package exiftool

import (
	"fmt"
	"os"
	"strings"

	"github.com/theohartsook/go-forth-and-measure/internal/tagging"
	"github.com/theohartsook/go-forth-and-measure/internal/toolchain"
)

/*
Example: Pix4D frame with embedded orientation
    cfg := exiftool.Config{ConfigFile: "pix4d.config", OverwriteOriginal: true}
    // Executes: exiftool -config pix4d.config -GPSLatitude=10.001 -GPSLatitudeRef=North
    //           ... -Pitch=90 -Roll=0 -Yaw=0 -overwrite_original frame_000031.jpg
    // -config must come first, exiftool reads it before anything else
*/

// Config is the `exiftool` invocation configuration
type Config struct {
	Binary            string             `yaml:"binary" json:"binary"`                       // path to exiftool, looked up in PATH when empty
	OverwriteOriginal bool               `yaml:"overwriteOriginal" json:"overwriteOriginal"` // -overwrite_original, no *_original backup
	Timeout           toolchain.Duration `yaml:"timeout" json:"timeout"`                     // per frame, 0 means none

	// ConfigFile is the tag-schema definition for the custom orientation tags. It is
	// taken from the pipeline section, not from this one.
	ConfigFile string `yaml:"-" json:"-"`
}

func (c *Config) Validate() error {
	if err := c.Timeout.Validate(); err != nil {
		return fmt.Errorf("exiftool.Config: invalid timeout: %w", err)
	}

	if c.ConfigFile != "" {
		stat, err := os.Stat(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("exiftool.Config: config file: %w", err)
		}
		if stat.IsDir() {
			return fmt.Errorf("exiftool.Config: config file is a directory: %s", c.ConfigFile)
		}
	}

	return nil
}

// Args returns the command line arguments writing tags into path
func (c *Config) Args(path string, tags []tagging.Tag) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("exiftool.Config: no file to tag")
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("exiftool.Config: no tags for %s", path)
	}

	var args []string
	if c.ConfigFile != "" {
		args = append(args, "-config", c.ConfigFile)
	}

	for _, tag := range tags {
		if tag.Name == "" || strings.ContainsAny(tag.Name, "= ") {
			return nil, fmt.Errorf("exiftool.Config: invalid tag name: %q", tag.Name)
		}
		args = append(args, fmt.Sprintf("-%s=%s", tag.Name, tag.Value))
	}

	if c.OverwriteOriginal {
		args = append(args, "-overwrite_original")
	}

	args = append(args, path)

	return args, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (config file %q, overwrite original %t)", Runtime, c.ConfigFile, c.OverwriteOriginal)
}
