package renderer

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"
)

func TestRender(t *testing.T) {
	sc := makeScene(t, 2, 2)
	res := &tracer.Result{
		Ids:       []int32{0, tracer.MissId, tracer.MissId, 0},
		Distances: []float64{7, tracer.MissDistance, tracer.MissDistance, 7},
	}

	opts := DefaultOptions()
	opts.Background = types.XYZ(0, 0, 1)
	r := New(opts)

	img, err := r.Render(sc, res)
	if err != nil {
		t.Fatal(err)
	}

	if got := img.RGBAAt(1, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Fatalf("expected background color for pixel (1, 0); got %v", got)
	}

	// The default material is magenta, so hits have no green component.
	hit := img.RGBAAt(0, 0)
	if hit.R == 0 || hit.G != 0 || hit.B == 0 {
		t.Fatalf("expected a magenta tint for pixel (0, 0); got %v", hit)
	}
	if img.RGBAAt(1, 1).R == 0 {
		t.Fatal("expected pixel (1, 1) to be shaded")
	}

	stats := r.Stats()
	if stats.Hits != 2 || stats.Misses != 2 {
		t.Fatalf("expected 2 hits and 2 misses; got %+v", stats)
	}
}

func TestRenderErrors(t *testing.T) {
	sc := makeScene(t, 2, 1)
	r := New(DefaultOptions())

	if _, err := r.Render(sc, tracer.NewMissResult(3)); !errors.Is(err, ErrResultLength) {
		t.Fatalf("expected ErrResultLength; got %v", err)
	}

	res := &tracer.Result{Ids: []int32{5, -1}, Distances: []float64{1, tracer.MissDistance}}
	if _, err := r.Render(sc, res); !errors.Is(err, scene.ErrInvalidTriangleId) {
		t.Fatalf("expected ErrInvalidTriangleId; got %v", err)
	}

	sc.Camera = nil
	if _, err := r.Render(sc, tracer.NewMissResult(2)); !errors.Is(err, ErrCameraNotDefined) {
		t.Fatalf("expected ErrCameraNotDefined; got %v", err)
	}
}

func TestWritePNG(t *testing.T) {
	sc := makeScene(t, 3, 2)
	img, err := New(DefaultOptions()).Render(sc, tracer.NewMissResult(6))
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "out.png")
	if err = WritePNG(out, img); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := decoded.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("expected 3x2 image; got %v", b)
	}
}

func makeScene(t *testing.T, hres, vres int) *scene.Scene {
	tris := []*scene.Triangle{
		scene.NewTriangle(0, types.XYZ(-10, -10, 0), types.XYZ(10, -10, 0), types.XYZ(0, 10, 0)),
	}
	sc, err := scene.NewScene(tris)
	if err != nil {
		t.Fatal(err)
	}
	cam, err := scene.NewCamera(hres, vres, scene.DefaultEye, scene.DefaultLookAt, scene.DefaultUp, scene.DefaultDistance, 1)
	if err != nil {
		t.Fatal(err)
	}
	sc.SetCamera(cam)
	return sc
}
