package derive

import (
	"bytes"
	"math"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/starford/sideload/internal/models"
)

// readExif summarizes the EXIF block of data. It returns nil when the
// image carries none.
func readExif(data []byte) *models.ImageMeta {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	m := &models.ImageMeta{Orientation: 1}
	maker, model := tagString(x, exif.Make), tagString(x, exif.Model)
	switch {
	case model == "":
		m.Camera = maker
	case maker == "" || strings.HasPrefix(model, maker):
		m.Camera = model
	default:
		m.Camera = maker + " " + model
	}

	if dt, err := x.DateTime(); err == nil {
		m.CreatedAt = &dt
	}
	if lat, lon, err := x.LatLong(); err == nil && !math.IsNaN(lat) && !math.IsNaN(lon) {
		m.Latitude = &lat
		m.Longitude = &lon
	}
	if o, err := x.Get(exif.Orientation); err == nil {
		if v, err := o.Int(0); err == nil && v >= 1 && v <= 8 {
			m.Orientation = v
		}
	}
	return m
}

func tagString(x *exif.Exif, f exif.FieldName) string {
	tag, err := x.Get(f)
	if err != nil {
		return ""
	}
	if tag.Format() == tiff.StringVal {
		s, _ := tag.StringVal()
		return s
	}
	return tag.String()
}
