package tracer

import (
	"errors"
	"reflect"
	"testing"
)

func TestBatchSlice(t *testing.T) {
	batch := &Batch{
		Rays:        []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 1, 2, 2, 2, 0, 0, 1},
		TriangleIds: []int32{0},
		Triangles:   make([]float64, 9),
	}

	sub := batch.Slice(1, 3)
	if sub.NumRays() != 2 {
		t.Fatalf("expected 2 rays; got %d", sub.NumRays())
	}
	if sub.Rays[0] != 1 || sub.Rays[6] != 2 {
		t.Fatalf("expected slice to start at ray 1; got %v", sub.Rays)
	}
	if sub.NumTriangles() != 1 {
		t.Fatalf("expected slice to share the triangle list")
	}

	if empty := batch.Slice(3, 3); empty.NumRays() != 0 {
		t.Fatalf("expected empty slice; got %d rays", empty.NumRays())
	}
}

func TestBatchValidate(t *testing.T) {
	type spec struct {
		batch  *Batch
		expErr bool
	}
	specs := []spec{
		{&Batch{}, false},
		{&Batch{Rays: make([]float64, 12), TriangleIds: []int32{0, 1}, Triangles: make([]float64, 18)}, false},
		{&Batch{Rays: make([]float64, 7)}, true},
		{&Batch{TriangleIds: []int32{0}, Triangles: make([]float64, 8)}, true},
	}

	for index, s := range specs {
		err := s.batch.Validate()
		if s.expErr && !errors.Is(err, ErrMalformedBatch) {
			t.Fatalf("[spec %d] expected ErrMalformedBatch; got %v", index, err)
		}
		if !s.expErr && err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
	}
}

func TestConcat(t *testing.T) {
	a := &Result{Ids: []int32{1, 2}, Distances: []float64{1, 2}}
	b := NewMissResult(1)
	c := &Result{Ids: []int32{5}, Distances: []float64{5}}

	out := Concat(a, b, c)
	expIds := []int32{1, 2, MissId, 5}
	expDist := []float64{1, 2, MissDistance, 5}
	if !reflect.DeepEqual(out.Ids, expIds) {
		t.Fatalf("expected ids %v; got %v", expIds, out.Ids)
	}
	if !reflect.DeepEqual(out.Distances, expDist) {
		t.Fatalf("expected distances %v; got %v", expDist, out.Distances)
	}
	if out.Hit(2) {
		t.Fatal("expected entry 2 to be a miss")
	}
}
