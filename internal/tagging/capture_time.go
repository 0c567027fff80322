package tagging

import (
	"strings"
	"time"
)

const (
	// exifDateTime is the EXIF DateTimeOriginal layout.
	exifDateTime = "2006:01:02 15:04:05"
	// jsDate is the leading part of a JavaScript Date.toString() value, the zone is dropped.
	jsDate = "Mon Jan 02 2006 15:04:05"
)

// CaptureTime converts a GPS date string to an EXIF timestamp. Both the extractor's
// JavaScript form ("Sat Oct 16 2021 18:32:10 GMT-0700 (...)") and RFC 3339 are
// accepted; the wall-clock time is kept as written.
func CaptureTime(date string) (string, error) {
	date = strings.TrimSpace(date)

	if t, err := time.Parse(time.RFC3339Nano, date); err == nil {
		return t.Format(exifDateTime), nil
	}

	if fields := strings.Fields(date); len(fields) >= 5 {
		if t, err := time.Parse(jsDate, strings.Join(fields[:5], " ")); err == nil {
			return t.Format(exifDateTime), nil
		}
	}

	return "", &TimestampParseError{Value: date}
}
