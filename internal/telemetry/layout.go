package telemetry

import (
	"fmt"
	"strconv"
)

// Layout describes how the packed value column of a stream splits into named fields.
type Layout struct {
	Fields   []string        // packed field order
	Optional int             // trailing fields that may be absent
	Negate   map[string]bool // fields whose sign is inverted on read
}

// The packed field orders encode the sensor-to-world axis mapping of the camera
// and are kept exactly as the extractor emits them.
var layouts = map[StreamType]Layout{
	StreamGPS: {
		Fields:   []string{ColLat, ColLon, ColElev, ColSpeed2D, ColSpeed3D},
		Optional: 2,
	},
	StreamGYRO: {
		Fields: []string{ColRY, ColRX, ColRZ},
	},
	StreamGRAV: {
		Fields: []string{ColY, ColX, ColZ},
		Negate: map[string]bool{ColX: true},
	},
	StreamCORI: {
		Fields: []string{ColW, ColX, ColZ, ColY},
	},
	StreamIORI: {
		Fields: []string{ColW, ColX, ColZ, ColY},
	},
	StreamACCL: {
		Fields: []string{ColAY, ColAX, ColAZ},
	},
}

func LayoutFor(t StreamType) (Layout, error) {
	l, ok := layouts[t]
	if !ok {
		return Layout{}, fmt.Errorf("no field layout for stream %q", t)
	}
	return l, nil
}

// fieldsFor returns the field names for a packed value with n fields. Optional
// trailing fields are either all present or all absent.
func (l Layout) fieldsFor(n int) ([]string, bool) {
	switch n {
	case len(l.Fields):
		return l.Fields, true
	case len(l.Fields) - l.Optional:
		return l.Fields[:n], true
	}
	return nil, false
}

func (l Layout) want() string {
	if l.Optional == 0 {
		return strconv.Itoa(len(l.Fields))
	}
	return fmt.Sprintf("%d or %d", len(l.Fields)-l.Optional, len(l.Fields))
}
