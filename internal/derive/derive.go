// Package derive generates dimensions, EXIF summaries and resized copies
// of image assets after they are registered.
package derive

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/starford/sideload/internal/library"
	"github.com/starford/sideload/internal/models"
)

// Size is one rendition generated for every image.
type Size struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// Crop fills the box exactly; otherwise the image is fit inside it.
	Crop bool `yaml:"crop"`
}

// DefaultSizes mirrors the usual media library renditions.
var DefaultSizes = []Size{
	{Name: "thumbnail", Width: 150, Height: 150, Crop: true},
	{Name: "medium", Width: 300, Height: 300},
	{Name: "large", Width: 1024, Height: 1024},
}

// maxDecodeBytes bounds how much of a file is read for decoding.
const maxDecodeBytes = 64 << 20

// Generator writes renditions next to the original in the library.
type Generator struct {
	lib    *library.Library
	sizes  []Size
	logger *slog.Logger
}

// New returns a Generator for sizes (DefaultSizes when empty).
func New(lib *library.Library, sizes []Size, logger *slog.Logger) *Generator {
	if len(sizes) == 0 {
		sizes = DefaultSizes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{lib: lib, sizes: sizes, logger: logger}
}

// Process returns the metadata of a. Non-image assets only get their size.
func (g *Generator) Process(ctx context.Context, a *models.Asset) (models.AssetMetadata, error) {
	meta := models.AssetMetadata{FileSize: a.Size}
	format, err := imaging.FormatFromFilename(a.StoragePath)
	if err != nil || !strings.HasPrefix(a.MimeType, "image/") {
		return meta, nil
	}

	data, err := g.read(a.StoragePath)
	if err != nil {
		return meta, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return meta, fmt.Errorf("derive: decode %s: %w", a.StoragePath, err)
	}

	if format == imaging.JPEG || format == imaging.TIFF {
		meta.ImageMeta = readExif(data)
	}
	if meta.ImageMeta != nil {
		img = applyOrientation(img, meta.ImageMeta.Orientation)
	}
	b := img.Bounds()
	meta.Width, meta.Height = b.Dx(), b.Dy()

	for _, s := range g.sizes {
		if err := ctx.Err(); err != nil {
			return meta, err
		}
		d, ok, err := g.render(img, format, a, s)
		if err != nil {
			g.logger.Warn("derived size failed",
				slog.String("asset", a.StoragePath), slog.String("size", s.Name), slog.String("error", err.Error()))
			continue
		}
		if !ok {
			continue
		}
		if meta.Sizes == nil {
			meta.Sizes = map[string]models.DerivedSize{}
		}
		meta.Sizes[s.Name] = d
	}
	return meta, nil
}

func (g *Generator) read(rel string) ([]byte, error) {
	f, err := g.lib.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("derive: open %s: %w", rel, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxDecodeBytes))
	if err != nil {
		return nil, fmt.Errorf("derive: read %s: %w", rel, err)
	}
	return data, nil
}

// render produces one rendition. Images already within the box are skipped.
func (g *Generator) render(img image.Image, format imaging.Format, a *models.Asset, s Size) (models.DerivedSize, bool, error) {
	b := img.Bounds()
	if b.Dx() <= s.Width && b.Dy() <= s.Height {
		return models.DerivedSize{}, false, nil
	}

	var out *image.NRGBA
	if s.Crop {
		out = imaging.Fill(img, min(s.Width, b.Dx()), min(s.Height, b.Dy()), imaging.Center, imaging.Lanczos)
	} else {
		out = imaging.Fit(img, s.Width, s.Height, imaging.Lanczos)
	}
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	ext := path.Ext(a.StoragePath)
	name := strings.TrimSuffix(path.Base(a.StoragePath), ext) + "-" + strconv.Itoa(w) + "x" + strconv.Itoa(h) + ext
	rel := path.Join(path.Dir(a.StoragePath), name)

	if !g.lib.Exists(rel) {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, out, format, imaging.JPEGQuality(82)); err != nil {
			return models.DerivedSize{}, false, err
		}
		if _, err := g.lib.Store(rel, &buf); err != nil {
			return models.DerivedSize{}, false, err
		}
	}
	return models.DerivedSize{File: name, Width: w, Height: h, MimeType: a.MimeType}, true, nil
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
