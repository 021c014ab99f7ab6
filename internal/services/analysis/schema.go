package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"genai-yolo-go/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// wireBox mirrors the response schema; pointers let the validator tell missing from zero
type wireBox struct {
	YMin *float64 `json:"ymin" validate:"required"`
	XMin *float64 `json:"xmin" validate:"required"`
	YMax *float64 `json:"ymax" validate:"required"`
	XMax *float64 `json:"xmax" validate:"required"`
}

type wireDetection struct {
	Label      *string  `json:"label" validate:"required,min=1"`
	Confidence *float64 `json:"confidence" validate:"required"`
	Box        *wireBox `json:"box_2d" validate:"required"`
}

// wireEnvelope is the shape used by HTTP inference services that wrap the array
type wireEnvelope struct {
	Detections []wireDetection `json:"detections"`
}

// parseDetections decodes and validates a detector payload. An empty payload is
// zero detections; any element failing the schema rejects the whole payload.
func parseDetections(body []byte) ([]models.DetectionObject, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []models.DetectionObject{}, nil
	}

	var wire []wireDetection
	if body[0] == '{' {
		var env wireEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode detection envelope: %w", err)
		}
		wire = env.Detections
	} else if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}

	detections := make([]models.DetectionObject, 0, len(wire))
	for i := range wire {
		if err := validate.Struct(&wire[i]); err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		detections = append(detections, wire[i].toModel())
	}

	return detections, nil
}

func (w wireDetection) toModel() models.DetectionObject {
	return models.DetectionObject{
		Label:      *w.Label,
		Confidence: math.Min(math.Max(*w.Confidence, 0), 1),
		Box: models.BoundingBox{
			YMin: int(math.Round(*w.Box.YMin)),
			XMin: int(math.Round(*w.Box.XMin)),
			YMax: int(math.Round(*w.Box.YMax)),
			XMax: int(math.Round(*w.Box.XMax)),
		},
	}
}
