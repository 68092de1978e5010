package codec

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Metadata is the subset of EXIF shown by the info command.
type Metadata struct {
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	LensModel    string    `json:"lens_model,omitempty"`
	Software     string    `json:"software,omitempty"`
	Orientation  int       `json:"orientation,omitempty"`
	Taken        time.Time `json:"taken,omitempty"`
	ExposureTime string    `json:"exposure_time,omitempty"`
	FNumber      float64   `json:"f_number,omitempty"`
	ISO          int       `json:"iso,omitempty"`
	FocalLength  float64   `json:"focal_length_mm,omitempty"`
	Latitude     float64   `json:"lat,omitempty"`
	Longitude    float64   `json:"lon,omitempty"`
	HasGPS       bool      `json:"has_gps,omitempty"`
}

// ReadMetadata extracts EXIF metadata from the file at path.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	return ParseMetadata(data)
}

// ParseMetadata extracts EXIF metadata from an encoded image.
func ParseMetadata(data []byte) (Metadata, error) {
	var m Metadata
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return m, fmt.Errorf("read exif: %w", err)
	}
	m.Make = stringTag(x, exif.Make)
	m.Model = stringTag(x, exif.Model)
	m.LensModel = stringTag(x, exif.LensModel)
	m.Software = stringTag(x, exif.Software)
	m.Orientation = Orientation(data)
	if t, err := x.DateTime(); err == nil {
		m.Taken = t
	}
	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			m.ExposureTime = fmt.Sprintf("%d/%d", num, den)
		}
	}
	m.FNumber = ratTag(x, exif.FNumber)
	m.FocalLength = ratTag(x, exif.FocalLength)
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := tag.Int(0); err == nil {
			m.ISO = v
		}
	}
	if lat, lon, err := x.LatLong(); err == nil {
		m.Latitude, m.Longitude, m.HasGPS = lat, lon, true
	}
	return m, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.StringVal {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

func ratTag(x *exif.Exif, name exif.FieldName) float64 {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
