package tracer

const (
	// Triangle id reported for rays that do not hit any triangle.
	MissId int32 = -1

	// Distance reported for rays that do not hit any triangle.
	MissDistance = MaxDistance
)

// The Result of an intersection run. Entry i of each slice describes ray i.
type Result struct {
	Ids       []int32   `json:"triangles_hit"`
	Distances []float64 `json:"intersections"`
}

// Create a result for numRays rays where every ray is a miss.
func NewMissResult(numRays int) *Result {
	res := &Result{
		Ids:       make([]int32, numRays),
		Distances: make([]float64, numRays),
	}
	for i := 0; i < numRays; i++ {
		res.Ids[i] = MissId
		res.Distances[i] = MissDistance
	}
	return res
}

// Get the number of rays described by the result.
func (r *Result) Len() int {
	return len(r.Ids)
}

// Check whether the i-th ray hit a triangle.
func (r *Result) Hit(i int) bool {
	return r.Ids[i] != MissId
}

// Concatenate results preserving their order.
func Concat(results ...*Result) *Result {
	var total int
	for _, res := range results {
		total += res.Len()
	}

	out := &Result{
		Ids:       make([]int32, 0, total),
		Distances: make([]float64, 0, total),
	}
	for _, res := range results {
		out.Ids = append(out.Ids, res.Ids...)
		out.Distances = append(out.Distances, res.Distances...)
	}
	return out
}
