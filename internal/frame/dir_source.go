package frame

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Decoders for every extension DirSource accepts.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// DirSource reads a directory of still images as a frame sequence. Files
// are ordered by name, so exporters should zero-pad their frame numbers
// (frame_00001.png). Image directories carry no timing, so the frame rate
// must be supplied by the caller.
type DirSource struct {
	dir       string
	files     []string
	frameRate float64
	next      int
}

// NewDirSource lists the image files in dir. Files with other extensions
// and subdirectories are ignored.
func NewDirSource(dir string, frameRate float64) (*DirSource, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("image directory %s: %w", dir, ErrInvalidFrameRate)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return &DirSource{dir: dir, files: files, frameRate: frameRate}, nil
}

func (s *DirSource) FrameRate() float64 { return s.frameRate }
func (s *DirSource) FrameCount() int    { return len(s.files) }

// Next decodes the next image in name order.
func (s *DirSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.next >= len(s.files) {
		return Frame{}, io.EOF
	}
	idx := s.next
	path := filepath.Join(s.dir, s.files[idx])
	img, err := decodeFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("frame %d (%s): %w", idx, s.files[idx], err)
	}
	s.next++
	return Frame{
		Index: idx,
		TimeS: Timestamp(idx, s.frameRate),
		Image: ToRGBA(img),
	}, nil
}

func (s *DirSource) Close() error { return nil }

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
