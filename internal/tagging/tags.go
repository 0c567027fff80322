package tagging

import (
	"math"
	"strconv"
)

// Tag names understood by the metadata writer.
const (
	TagGPSLatitude      = "GPSLatitude"
	TagGPSLatitudeRef   = "GPSLatitudeRef"
	TagGPSLongitude     = "GPSLongitude"
	TagGPSLongitudeRef  = "GPSLongitudeRef"
	TagGPSAltitude      = "GPSAltitude"
	TagGPSAltitudeRef   = "GPSAltitudeRef"
	TagPitch            = "Pitch"
	TagRoll             = "Roll"
	TagYaw              = "Yaw"
	TagDateTimeOriginal = "DateTimeOriginal"

	RefNorth = "North"
	RefSouth = "South"
	RefEast  = "East"
	RefWest  = "West"

	AltitudeAbove = "Above Sea Level"
	AltitudeBelow = "Below Sea Level"
)

// Tag is one metadata assignment.
type Tag struct {
	Name  string
	Value string
}

// TagSet is the ordered set of tags computed for one frame. Setting a tag twice
// replaces its value in place.
type TagSet struct {
	tags []Tag
}

func (t *TagSet) Set(name, value string) {
	for i := range t.tags {
		if t.tags[i].Name == name {
			t.tags[i].Value = value
			return
		}
	}
	t.tags = append(t.tags, Tag{Name: name, Value: value})
}

func (t *TagSet) SetFloat(name string, value float64) {
	t.Set(name, strconv.FormatFloat(value, 'f', -1, 64))
}

func (t TagSet) Get(name string) (string, bool) {
	for _, tag := range t.tags {
		if tag.Name == name {
			return tag.Value, true
		}
	}
	return "", false
}

// Tags returns a copy of the tags in insertion order.
func (t TagSet) Tags() []Tag {
	return append([]Tag(nil), t.tags...)
}

func (t TagSet) Len() int {
	return len(t.tags)
}

// SetPosition writes a GPS fix as unsigned magnitudes with hemisphere references
// taken from the configured hemisphere flags.
func (t *TagSet) SetPosition(lat, lon, alt float64, northHem, westHem bool) {
	t.SetFloat(TagGPSLatitude, math.Abs(lat))
	if northHem {
		t.Set(TagGPSLatitudeRef, RefNorth)
	} else {
		t.Set(TagGPSLatitudeRef, RefSouth)
	}

	t.SetFloat(TagGPSLongitude, math.Abs(lon))
	if westHem {
		t.Set(TagGPSLongitudeRef, RefWest)
	} else {
		t.Set(TagGPSLongitudeRef, RefEast)
	}

	t.SetFloat(TagGPSAltitude, math.Abs(alt))
	if alt < 0 {
		t.Set(TagGPSAltitudeRef, AltitudeBelow)
	} else {
		t.Set(TagGPSAltitudeRef, AltitudeAbove)
	}
}
