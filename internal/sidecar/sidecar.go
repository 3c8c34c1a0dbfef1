// Package sidecar parses the per-item JSON metadata files a Google Photos
// Takeout export places alongside media files.
package sidecar

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"takeoutfix/internal/errmark"
)

// Metadata holds the normalized fields from one sidecar. Pointer fields are
// nil when the sidecar does not carry a usable value.
type Metadata struct {
	Title       string
	Description string
	TakenAt     *time.Time
	CreatedAt   *time.Time
	Latitude    *float64
	Longitude   *float64
	Altitude    *float64
	Favorited   bool
}

// HasGPS reports whether usable coordinates are present. Latitude and
// longitude are always set together.
func (m *Metadata) HasGPS() bool {
	return m != nil && m.Latitude != nil && m.Longitude != nil
}

// HasDate reports whether a capture timestamp is present.
func (m *Metadata) HasDate() bool {
	return m != nil && m.TakenAt != nil
}

// Empty reports whether the record carries nothing worth writing.
func (m *Metadata) Empty() bool {
	return m == nil || (!m.HasDate() && !m.HasGPS() && m.Description == "")
}

type document struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	PhotoTakenTime timestampObject `json:"photoTakenTime"`
	CreationTime   timestampObject `json:"creationTime"`
	GeoData        geoObject       `json:"geoData"`
	Favorited      json.RawMessage `json:"favorited"`
}

type timestampObject struct {
	Timestamp string `json:"timestamp"`
}

type geoObject struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
}

// Parse reads and decodes one sidecar file. Failures are tagged with
// errmark.ErrParse so callers can skip the pair without aborting the batch.
func Parse(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errmark.Wrap(errmark.ErrParse, "sidecar", fmt.Sprintf("read %s", path), err)
	}
	md, err := Decode(raw)
	if err != nil {
		return nil, errmark.Wrap(errmark.ErrParse, "sidecar", fmt.Sprintf("decode %s", path), err)
	}
	return md, nil
}

// Decode normalizes one sidecar document. It is pure: malformed timestamps
// or geo values leave the corresponding field absent instead of failing.
func Decode(raw []byte) (*Metadata, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	md := &Metadata{Title: doc.Title}

	if desc := strings.TrimSpace(doc.Description); desc != "" {
		md.Description = desc
	}

	md.TakenAt = parseTimestamp(doc.PhotoTakenTime.Timestamp)
	md.CreatedAt = parseTimestamp(doc.CreationTime.Timestamp)

	lat, lon, alt := doc.GeoData.Latitude, doc.GeoData.Longitude, doc.GeoData.Altitude
	if lat != nil && lon != nil {
		// Takeout writes (0, 0) when no location was recorded.
		if *lat != 0 || *lon != 0 {
			md.Latitude = lat
			md.Longitude = lon
			// Altitude 0.0 is indistinguishable from unset in the export.
			if alt != nil && *alt != 0 {
				md.Altitude = alt
			}
		}
	}

	if len(doc.Favorited) > 0 {
		var favorited bool
		if err := json.Unmarshal(doc.Favorited, &favorited); err == nil {
			md.Favorited = favorited
		}
	}

	return md, nil
}

func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	ts := time.Unix(seconds, 0).UTC()
	return &ts
}
