package codec

import (
	"encoding/json"
	"fmt"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
)

// Serialize a result as a JSON record with the intersections and
// triangles_hit fields.
func EncodeResult(res *tracer.Result) ([]byte, error) {
	if len(res.Ids) != len(res.Distances) {
		return nil, fmt.Errorf("%w: %d ids but %d distances", ErrMalformedResult, len(res.Ids), len(res.Distances))
	}

	// Always emit arrays, even for empty results.
	out := *res
	if out.Ids == nil {
		out.Ids = []int32{}
	}
	if out.Distances == nil {
		out.Distances = []float64{}
	}
	return json.Marshal(&out)
}

// Parse a JSON result record.
func DecodeResult(payload []byte) (*tracer.Result, error) {
	var raw struct {
		Ids       *[]int32   `json:"triangles_hit"`
		Distances *[]float64 `json:"intersections"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if raw.Ids == nil || raw.Distances == nil {
		return nil, fmt.Errorf("%w: missing triangles_hit or intersections field", ErrMalformedResult)
	}
	if len(*raw.Ids) != len(*raw.Distances) {
		return nil, fmt.Errorf("%w: %d ids but %d distances", ErrMalformedResult, len(*raw.Ids), len(*raw.Distances))
	}
	return &tracer.Result{Ids: *raw.Ids, Distances: *raw.Distances}, nil
}
