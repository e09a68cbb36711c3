// Package yolo runs YOLOv8/YOLO11 ONNX models through the OpenCV DNN module.
package yolo

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/detection"
	"gocv.io/x/gocv"
)

// Detector uses a YOLO ONNX export for general object detection
type Detector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
	logger    *slog.Logger
}

// Config holds YOLO detector configuration
type Config struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
	UseCUDA          bool // Run on the CUDA backend (Jetson, desktop GPU)

	// Classes restricts decoding to these class ids before NMS, so an
	// overlapping box of another class cannot suppress a wanted one.
	// Empty keeps every class.
	Classes []int
}

// DefaultConfig returns production defaults for YOLO11n
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolo11n.onnx",
		ConfidenceThresh: 0.35,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
		Classes:          []int{0},
	}
}

// New creates a new YOLO object detector
func New(cfg Config, logger *slog.Logger) (*Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "yolo")

	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	if cfg.UseCUDA {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
		logger.Info("using CUDA backend")
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		logger.Info("using CPU backend")
	}

	logger.Info("model loaded", "path", cfg.ModelPath)
	return &Detector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
		logger:    logger,
	}, nil
}

// Detect finds objects in a BGR frame
func (d *Detector) Detect(frame camera.Frame) ([]detection.Detection, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	img, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("frame to mat: %w", err)
	}
	defer img.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	detections, err := d.parseOutput(output, float32(frame.Width), float32(frame.Height))
	if err != nil {
		return nil, err
	}

	d.logger.Debug("inference done", "seq", frame.Seq, "objects", len(detections))
	return detections, nil
}

// parseOutput decodes the [1, 4+classes, anchors] output tensor.
// Each anchor carries (cx, cy, w, h) in model input pixels followed by one
// score per class. Only the configured classes are scored, and NMS runs
// separately for each class.
func (d *Detector) parseOutput(output gocv.Mat, imgW, imgH float32) ([]detection.Detection, error) {
	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	attrs := dims[1]
	anchors := dims[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	classIDs := d.config.Classes
	if len(classIDs) == 0 {
		classIDs = make([]int, attrs-4)
		for i := range classIDs {
			classIDs[i] = i
		}
	}

	scaleX := imgW / float32(d.config.InputWidth)
	scaleY := imgH / float32(d.config.InputHeight)

	type candidates struct {
		boxes       []image.Rectangle
		confidences []float32
	}
	byClass := make(map[int]*candidates)
	var order []int

	for i := 0; i < anchors; i++ {
		maxScore := float32(0)
		maxClassID := -1
		for _, id := range classIDs {
			if id < 0 || 4+id >= attrs {
				continue
			}
			if score := data[(4+id)*anchors+i]; score > maxScore {
				maxScore = score
				maxClassID = id
			}
		}

		if maxClassID < 0 || maxScore < d.config.ConfidenceThresh {
			continue
		}

		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		x1 := int((cx - w/2) * scaleX)
		y1 := int((cy - h/2) * scaleY)
		x2 := int((cx + w/2) * scaleX)
		y2 := int((cy + h/2) * scaleY)

		c, ok := byClass[maxClassID]
		if !ok {
			c = &candidates{}
			byClass[maxClassID] = c
			order = append(order, maxClassID)
		}
		c.boxes = append(c.boxes, image.Rect(x1, y1, x2, y2))
		c.confidences = append(c.confidences, maxScore)
	}

	var detections []detection.Detection
	for _, id := range order {
		c := byClass[id]
		for _, idx := range gocv.NMSBoxes(c.boxes, c.confidences, d.config.ConfidenceThresh, d.config.NMSThresh) {
			box := c.boxes[idx]
			detections = append(detections, detection.Detection{
				Left:       float64(box.Min.X),
				Top:        float64(box.Min.Y),
				Right:      float64(box.Max.X),
				Bottom:     float64(box.Max.Y),
				Label:      ClassName(id),
				Confidence: float64(c.confidences[idx]),
			})
		}
	}

	return detections, nil
}

// Close releases the detector resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
