package processor

import (
	"fmt"
	"math"
	"strconv"

	"takeoutfix/internal/exiftool"
	"takeoutfix/internal/sidecar"
)

// exifTimeLayout is the 19-character tag representation of a timestamp.
const exifTimeLayout = "2006:01:02 15:04:05"

// gpsTolerance is the acceptable coordinate drift between the written value
// and the magnitude the engine reads back.
const gpsTolerance = 0.0001

// Read-side key priority. Values are grouped (-G); ungrouped fallbacks come
// last. First present key wins.
var (
	dateReadKeys = []string{
		"EXIF:DateTimeOriginal",
		"XMP:DateTimeOriginal",
		"QuickTime:DateTimeOriginal",
		"QuickTime:CreateDate",
		"DateTimeOriginal",
	}
	latitudeReadKeys  = []string{"EXIF:GPSLatitude", "XMP:GPSLatitude", "Composite:GPSLatitude", "GPSLatitude"}
	longitudeReadKeys = []string{"EXIF:GPSLongitude", "XMP:GPSLongitude", "Composite:GPSLongitude", "GPSLongitude"}
	descriptionReadKeys = []string{
		"EXIF:ImageDescription",
		"ImageDescription",
		"XMP:Description",
		"IPTC:Caption-Abstract",
	}
)

// tagFields translates normalized metadata into the engine's field
// vocabulary. GPS values are written as magnitudes with hemisphere
// references; the description lands in three redundant fields so any
// downstream viewer can recover it.
func tagFields(md *sidecar.Metadata) map[string]string {
	fields := make(map[string]string)

	if md.HasDate() {
		stamp := md.TakenAt.UTC().Format(exifTimeLayout)
		fields["DateTimeOriginal"] = stamp
		fields["CreateDate"] = stamp
		fields["ModifyDate"] = stamp
		// Zeroed so repeated writes stay deterministic.
		fields["SubSecTimeOriginal"] = "00"
		fields["SubSecCreateDate"] = "00"
		fields["SubSecModifyDate"] = "00"
	}

	if md.HasGPS() {
		fields["GPSLatitude"] = formatCoordinate(math.Abs(*md.Latitude))
		fields["GPSLongitude"] = formatCoordinate(math.Abs(*md.Longitude))
		if *md.Latitude >= 0 {
			fields["GPSLatitudeRef"] = "N"
		} else {
			fields["GPSLatitudeRef"] = "S"
		}
		if *md.Longitude >= 0 {
			fields["GPSLongitudeRef"] = "E"
		} else {
			fields["GPSLongitudeRef"] = "W"
		}
		if md.Altitude != nil {
			fields["GPSAltitude"] = formatCoordinate(math.Abs(*md.Altitude))
			if *md.Altitude >= 0 {
				fields["GPSAltitudeRef"] = "0"
			} else {
				fields["GPSAltitudeRef"] = "1"
			}
		}
	}

	if md.Description != "" {
		fields["ImageDescription"] = md.Description
		fields["XMP:Description"] = md.Description
		fields["IPTC:Caption-Abstract"] = md.Description
	}

	return fields
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// comparison is one target's field-by-field verification.
type comparison struct {
	date        bool
	gps         bool
	description bool
	readFailed  bool
	issues      []string
}

func (c comparison) failedFields() []string {
	var fields []string
	if !c.date {
		fields = append(fields, "date")
	}
	if !c.gps {
		fields = append(fields, "GPS")
	}
	if !c.description {
		fields = append(fields, "description")
	}
	return fields
}

// compareFields checks the engine's tag map against the expected metadata.
// Fields with no expectation match vacuously.
func compareFields(md *sidecar.Metadata, fields exiftool.Fields) comparison {
	cmp := comparison{date: true, gps: true, description: true}

	if md.HasDate() {
		expected := md.TakenAt.UTC().Format(exifTimeLayout)
		actual, ok := fields.String(dateReadKeys...)
		if !ok {
			cmp.date = false
			cmp.issues = append(cmp.issues, "capture date not found in file")
		} else {
			// Trailing timezone text is ignored; only the 19-character
			// date-time portion is compared.
			clean := actual
			if len(clean) > len(exifTimeLayout) {
				clean = clean[:len(exifTimeLayout)]
			}
			if clean != expected {
				cmp.date = false
				cmp.issues = append(cmp.issues, fmt.Sprintf("date mismatch: expected %s, got %s", expected, clean))
			}
		}
	}

	if md.HasGPS() {
		lat, latOK := fields.Float(latitudeReadKeys...)
		lon, lonOK := fields.Float(longitudeReadKeys...)
		if !latOK || !lonOK {
			cmp.gps = false
			cmp.issues = append(cmp.issues, "GPS coordinates not found in file")
		} else {
			// Comparison uses magnitudes; sign lives in the reference
			// letter on both sides.
			latDiff := math.Abs(math.Abs(lat) - math.Abs(*md.Latitude))
			lonDiff := math.Abs(math.Abs(lon) - math.Abs(*md.Longitude))
			if latDiff >= gpsTolerance || lonDiff >= gpsTolerance {
				cmp.gps = false
				cmp.issues = append(cmp.issues, fmt.Sprintf(
					"GPS mismatch: expected (%v, %v), got (%v, %v)",
					*md.Latitude, *md.Longitude, lat, lon))
			}
		}
	}

	if md.Description != "" {
		actual, ok := fields.String(descriptionReadKeys...)
		if !ok || actual != md.Description {
			cmp.description = false
			cmp.issues = append(cmp.issues, "description mismatch")
		}
	}

	return cmp
}
