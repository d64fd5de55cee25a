// Package image handles upload processing for user photos and tour images.
// Everything is normalized to JPEG at a fixed size before it reaches disk.
package image

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Processor resizes uploaded images and writes them under Dir.
type Processor struct {
	Dir string
}

func NewProcessor(dir string) *Processor { return &Processor{Dir: dir} }

// Save decodes the upload, crops it to exactly width x height around the
// center and writes it as JPEG under the given filename. Returns the path
// relative to Dir, which is what gets stored on the record.
func (p *Processor) Save(fh *multipart.FileHeader, filename string, width, height int) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dst := filepath.Join(p.Dir, filename)
	if err := imaging.Save(resized, dst, imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return filename, nil
}
