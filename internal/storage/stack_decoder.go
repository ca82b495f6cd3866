package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// DefaultStackID names stacks whose source gives no usable name.
const DefaultStackID = "sampled_sequence"

// maxReadFactor caps how many times over its input a TIFF decode may read.
const maxReadFactor = 8

var frameExtensions = map[string]bool{
	".tif": true, ".tiff": true, ".png": true,
	".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
}

// StackIDFromName derives a stack id from a file or blob name.
func StackIDFromName(name string) string {
	base := filepath.Base(name)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	if id == "" || id == "." || id == "/" {
		return DefaultStackID
	}
	return id
}

// IsTIFF reports whether data starts with a classic TIFF header.
func IsTIFF(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	return bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*"))
}

// DecodeStack turns fetched bytes into a stack. TIFF input yields one frame
// per page; any other format imaging can read yields a single frame.
func DecodeStack(id string, obj *Object) (*models.Stack, *models.StackMetadata, error) {
	if obj == nil || len(obj.Data) == 0 {
		return nil, nil, apperrors.NewValidationError("empty stack data", nil)
	}
	if id == "" {
		id = StackIDFromName(obj.Name)
	}

	var images []image.Image
	format := "tiff"
	if IsTIFF(obj.Data) {
		pages, err := DecodeTIFFPages(obj.Data)
		if err != nil {
			return nil, nil, err
		}
		images = pages
	} else {
		img, err := imaging.Decode(bytes.NewReader(obj.Data))
		if err != nil {
			return nil, nil, apperrors.NewProcessingError("failed to decode stack image", err)
		}
		_, format, _ = image.DecodeConfig(bytes.NewReader(obj.Data))
		images = []image.Image{img}
	}

	stack := framesToStack(id, images)
	meta := &models.StackMetadata{
		Source:        obj.Name,
		ContentType:   obj.ContentType,
		ContentLength: int64(len(obj.Data)),
		Frames:        stack.Len(),
		Format:        format,
	}
	if stack.Len() > 0 {
		meta.Width = stack.Frames[0].Image.Width
		meta.Height = stack.Frames[0].Image.Height
	}
	return stack, meta, nil
}

// LoadFrameDir reads every image file in dir, ordered by file name, as one
// stack.
func LoadFrameDir(id, dir string) (*models.Stack, *models.StackMetadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("cannot read frame directory %s", dir), err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("no frame images in %s", dir), nil)
	}
	sort.Strings(names)

	images := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, apperrors.NewProcessingError(fmt.Sprintf("failed to decode frame %s", name), err)
		}
		images = append(images, img)
	}

	if id == "" {
		id = StackIDFromName(filepath.Clean(dir))
	}
	stack := framesToStack(id, images)
	return stack, &models.StackMetadata{
		Source: dir,
		Frames: stack.Len(),
		Width:  stack.Frames[0].Image.Width,
		Height: stack.Frames[0].Image.Height,
		Format: "directory",
	}, nil
}

func framesToStack(id string, images []image.Image) *models.Stack {
	stack := &models.Stack{ID: id, Frames: make([]models.Frame, len(images))}
	for i, img := range images {
		stack.Frames[i] = models.Frame{StackID: id, Num: i, Image: models.RasterFromImage(img)}
	}
	return stack
}

// DecodeTIFFPages decodes the main image of every page of a multi-page
// TIFF. Sub-IFDs such as thumbnails are skipped.
func DecodeTIFFPages(data []byte) ([]image.Image, error) {
	if !IsTIFF(data) {
		return nil, apperrors.NewValidationError("not a TIFF file", nil)
	}

	r, err := tiff.OpenReader(newBoundedReader(data))
	if err != nil {
		return nil, apperrors.NewValidationError("malformed TIFF", err)
	}
	defer r.Close()

	if r.ImageNum() == 0 {
		return nil, apperrors.NewValidationError("TIFF has no pages", nil)
	}
	pages := make([]image.Image, 0, r.ImageNum())
	for i := 0; i < r.ImageNum(); i++ {
		img, err := r.DecodeImage(i, 0)
		if err != nil {
			return nil, apperrors.NewProcessingError(fmt.Sprintf("failed to decode TIFF page %d", i), err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// boundedReader stops serving bytes once the decoder has read the input
// maxReadFactor times over, which is how an IFD chain that loops back on
// itself surfaces.
type boundedReader struct {
	*bytes.Reader
	left int64
}

func newBoundedReader(data []byte) *boundedReader {
	return &boundedReader{Reader: bytes.NewReader(data), left: int64(len(data))*maxReadFactor + 4096}
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if b.left <= 0 {
		return 0, errors.New("TIFF IFD chain loops")
	}
	if int64(len(p)) > b.left {
		p = p[:b.left]
	}
	n, err := b.Reader.Read(p)
	b.left -= int64(n)
	return n, err
}
