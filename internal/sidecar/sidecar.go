// Package sidecar writes RealityCapture XMP sidecar files next to frames. The frame
// itself is never modified.
package sidecar

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
)

const (
	Extension = ".xmp"

	xmpMetaNS = "adobe:ns:meta/"
	rdfNS     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xcrNS     = "http://www.capturingreality.com/ns/xcr/1.1#"
	exifNS    = "http://ns.adobe.com/exif/1.0/"

	xcrVersion = "3"
)

var ErrZeroGravity = errors.New("sidecar: zero gravity vector")

// GPS is a position written as unsigned magnitudes with hemisphere references.
type GPS struct {
	Latitude    float64 // degrees, unsigned
	LatitudeRef string  // "N" or "S"
	Longitude   float64 // degrees, unsigned
	LongRef     string  // "E" or "W"
	Altitude    float64 // meters
}

// Record is the content of one sidecar.
type Record struct {
	Gravity *r3.Vector
	GPS     *GPS
}

type xmpMeta struct {
	XMLName xml.Name `xml:"x:xmpmeta"`
	XmlnsX  string   `xml:"xmlns:x,attr"`
	RDF     xmpRDF   `xml:"rdf:RDF"`
}

type xmpRDF struct {
	XmlnsRDF    string         `xml:"xmlns:rdf,attr"`
	Description xmpDescription `xml:"rdf:Description"`
}

type xmpDescription struct {
	XmlnsXCR         string `xml:"xmlns:xcr,attr"`
	XmlnsExif        string `xml:"xmlns:exif,attr,omitempty"`
	Version          string `xml:"xcr:Version,attr"`
	PosePrior        string `xml:"xcr:PosePrior,attr"`
	Coordinates      string `xml:"xcr:Coordinates,attr"`
	CalibrationPrior string `xml:"xcr:CalibrationPrior,attr"`
	InMeshing        string `xml:"xcr:InMeshing,attr"`
	InTexturing      string `xml:"xcr:InTexturing,attr"`

	GPSVersionID   string `xml:"exif:GPSVersionID,attr,omitempty"`
	GPSLatitude    string `xml:"exif:GPSLatitude,attr,omitempty"`
	GPSLongitude   string `xml:"exif:GPSLongitude,attr,omitempty"`
	GPSAltitude    string `xml:"exif:GPSAltitude,attr,omitempty"`
	GPSAltitudeRef string `xml:"exif:GPSAltitudeRef,attr,omitempty"`

	Gravity string `xml:"xcr:Gravity,omitempty"`
}

// FormatGravity renders the vector the way the xcr:Gravity element expects it.
func FormatGravity(v r3.Vector) string {
	return fmt.Sprintf("%.4f %.4f %.4f", v.X, v.Y, v.Z)
}

// Path returns the sidecar path for a frame: same directory and base name, .xmp extension.
func Path(framePath string) string {
	return strings.TrimSuffix(framePath, filepath.Ext(framePath)) + Extension
}

// Marshal renders a record as an XMP packet.
func Marshal(rec Record) ([]byte, error) {
	desc := xmpDescription{
		XmlnsXCR:         xcrNS,
		Version:          xcrVersion,
		PosePrior:        "initial",
		Coordinates:      "absolute",
		CalibrationPrior: "initial",
		InMeshing:        "1",
		InTexturing:      "1",
	}

	if rec.Gravity != nil {
		g := *rec.Gravity
		if math.IsNaN(g.X) || math.IsNaN(g.Y) || math.IsNaN(g.Z) || g.Norm() == 0 {
			return nil, fmt.Errorf("%w: %v", ErrZeroGravity, g)
		}
		desc.Gravity = FormatGravity(g)
	}

	if rec.GPS != nil {
		desc.XmlnsExif = exifNS
		desc.GPSVersionID = "2.2.0.0"
		desc.GPSLatitude = formatCoordinate(rec.GPS.Latitude, rec.GPS.LatitudeRef)
		desc.GPSLongitude = formatCoordinate(rec.GPS.Longitude, rec.GPS.LongRef)
		desc.GPSAltitude = fmt.Sprintf("%d/1000", int64(math.Round(math.Abs(rec.GPS.Altitude)*1000)))
		desc.GPSAltitudeRef = "0"
		if rec.GPS.Altitude < 0 {
			desc.GPSAltitudeRef = "1"
		}
	}

	meta := xmpMeta{
		XmlnsX: xmpMetaNS,
		RDF: xmpRDF{
			XmlnsRDF:    rdfNS,
			Description: desc,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("encoding xmp: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// formatCoordinate renders an XMP GPSCoordinate, "DDD,MM.mmmmmmmmR".
func formatCoordinate(deg float64, ref string) string {
	deg = math.Abs(deg)
	whole := math.Floor(deg)
	minutes := (deg - whole) * 60
	return fmt.Sprintf("%d,%.8f%s", int(whole), minutes, ref)
}

// Writer writes sidecars atomically: the packet goes to a temporary file in the
// frame's directory and is renamed into place once complete.
type Writer struct {
	perm os.FileMode
}

func NewWriter() *Writer {
	return &Writer{perm: 0o644}
}

// Write stores the record next to framePath and returns the sidecar path.
func (w *Writer) Write(framePath string, rec Record) (path string, err error) {
	if _, err = os.Stat(framePath); err != nil {
		return "", fmt.Errorf("frame %s: %w", framePath, err)
	}

	data, err := Marshal(rec)
	if err != nil {
		return "", err
	}

	path = Path(framePath)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temporary sidecar: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing sidecar: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("syncing sidecar: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("closing sidecar: %w", err)
	}
	if err = os.Chmod(tmp.Name(), w.perm); err != nil {
		return "", fmt.Errorf("setting sidecar permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming sidecar into place: %w", err)
	}

	return path, nil
}
