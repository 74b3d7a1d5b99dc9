package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
)

// maxScriptSize caps detection files read by LoadScript.
const maxScriptSize = 64 << 20

// Script replays detections recorded by an external model run. Detections
// are keyed by frame index, which callers supply with WithFrameIndex.
// Frames with no entry yield no detections. Coordinates are in the space of
// the image handed to the detector.
type Script struct {
	Objects map[int][]Box
	Poses   map[int][]Pose
}

type scriptFile struct {
	Objects map[string][]Box  `json:"objects"`
	Poses   map[string][]Pose `json:"poses"`
}

// NewScript returns an empty Script.
func NewScript() *Script {
	return &Script{Objects: map[int][]Box{}, Poses: map[int][]Pose{}}
}

// LoadScript reads a JSON detection file of the form
//
//	{"objects": {"0": [{"x1":..,"y1":..,"x2":..,"y2":..}]},
//	 "poses":   {"0": [{"keypoints": [{"x":..,"y":..,"conf":..}]}]}}
func LoadScript(path string) (*Script, error) {
	if filepath.Ext(path) != ".json" {
		return nil, fmt.Errorf("detection file must be .json: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxScriptSize {
		return nil, fmt.Errorf("detection file too large: %d bytes", info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// ParseScript decodes the JSON form accepted by LoadScript.
func ParseScript(data []byte) (*Script, error) {
	var raw scriptFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse detections: %w", err)
	}
	s := NewScript()
	for k, boxes := range raw.Objects {
		i, err := parseFrameKey(k)
		if err != nil {
			return nil, fmt.Errorf("objects: %w", err)
		}
		s.Objects[i] = boxes
	}
	for k, poses := range raw.Poses {
		i, err := parseFrameKey(k)
		if err != nil {
			return nil, fmt.Errorf("poses: %w", err)
		}
		s.Poses[i] = poses
	}
	return s, nil
}

func parseFrameKey(k string) (int, error) {
	i, err := strconv.Atoi(k)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid frame index %q", k)
	}
	return i, nil
}

// DetectObjects returns the boxes scripted for the frame in ctx.
func (s *Script) DetectObjects(ctx context.Context, _ image.Image) ([]Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := FrameIndex(ctx)
	if !ok {
		return nil, ErrNoFrameIndex
	}
	return s.Objects[i], nil
}

// DetectPoses returns the poses scripted for the frame in ctx.
func (s *Script) DetectPoses(ctx context.Context, _ image.Image) ([]Pose, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := FrameIndex(ctx)
	if !ok {
		return nil, ErrNoFrameIndex
	}
	return s.Poses[i], nil
}

// HipPose builds a pose whose hip keypoints straddle x. Other keypoints sit
// at the same position.
func HipPose(x float64) Pose {
	kps := make([]Keypoint, RightHip+1)
	for i := range kps {
		kps[i] = Keypoint{X: x, Y: 0, Conf: 1}
	}
	kps[LeftHip] = Keypoint{X: x - 5, Y: 0, Conf: 1}
	kps[RightHip] = Keypoint{X: x + 5, Y: 0, Conf: 1}
	return Pose{Keypoints: kps}
}
