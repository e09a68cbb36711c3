package yolo

import (
	"fmt"
	"slices"
	"strconv"
)

// COCOClasses contains the 80 COCO class names in model output order
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// ClassName returns the COCO name for id, or "class_<id>" for models
// trained on a different label set.
func ClassName(id int) string {
	if id >= 0 && id < len(COCOClasses) {
		return COCOClasses[id]
	}
	return "class_" + strconv.Itoa(id)
}

// ClassIDs maps class names to COCO ids. It fails on the first name that
// is not a COCO class.
func ClassIDs(names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id := slices.Index(COCOClasses, name)
		if id < 0 {
			return nil, fmt.Errorf("yolo: unknown class %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
