package detect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/sprint.report/internal/httputil"
)

// HTTPDetector calls a remote inference service. Each call POSTs the frame
// as PNG to BaseURL+"/detect/objects" or BaseURL+"/detect/poses" and
// decodes a JSON body of {"boxes": [...]} or {"poses": [...]}.
type HTTPDetector struct {
	BaseURL string
	Client  httputil.HTTPClient
}

// NewHTTPDetector returns a detector for baseURL. A nil client uses
// httputil.NewStandardClient(nil).
func NewHTTPDetector(baseURL string, client httputil.HTTPClient) *HTTPDetector {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &HTTPDetector{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// DetectObjects implements ObjectDetector.
func (d *HTTPDetector) DetectObjects(ctx context.Context, img image.Image) ([]Box, error) {
	var out struct {
		Boxes []Box `json:"boxes"`
	}
	if err := d.post(ctx, "/detect/objects", img, &out); err != nil {
		return nil, err
	}
	return out.Boxes, nil
}

// DetectPoses implements PoseDetector.
func (d *HTTPDetector) DetectPoses(ctx context.Context, img image.Image) ([]Pose, error) {
	var out struct {
		Poses []Pose `json:"poses"`
	}
	if err := d.post(ctx, "/detect/poses", img, &out); err != nil {
		return nil, err
	}
	return out.Poses, nil
}

func (d *HTTPDetector) post(ctx context.Context, path string, img image.Image, v interface{}) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")
	if i, ok := FrameIndex(ctx); ok {
		req.Header.Set("X-Frame-Index", strconv.Itoa(i))
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := httputil.DecodeJSON(resp, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
