package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"
)

// The Renderer reconstructs an image from the intersection results of a
// scene's camera rays.
type Renderer struct {
	logger log.Logger
	opts   Options
	stats  FrameStats
}

// Create a new renderer.
func New(opts Options) *Renderer {
	if opts.Exposure <= 0 {
		opts.Exposure = 1
	}
	return &Renderer{
		logger: log.New("renderer"),
		opts:   opts,
	}
}

// Shade every pixel of the scene camera using res. Entry i of res describes
// the ray of pixel i in row-major order.
func (r *Renderer) Render(sc *scene.Scene, res *tracer.Result) (*image.RGBA, error) {
	cam := sc.Camera
	if cam == nil {
		return nil, ErrCameraNotDefined
	}
	if res.Len() != cam.NumRays() {
		return nil, fmt.Errorf("%w: %d results for a %dx%d frame", ErrResultLength, res.Len(), cam.HRes, cam.VRes)
	}

	start := time.Now()
	r.stats = FrameStats{}
	img := image.NewRGBA(image.Rect(0, 0, cam.HRes, cam.VRes))
	bg := toRGBA(r.opts.Background)

	for index := 0; index < res.Len(); index++ {
		x, y := index%cam.HRes, index/cam.HRes
		if !res.Hit(index) {
			r.stats.Misses++
			img.SetRGBA(x, y, bg)
			continue
		}

		tri, err := sc.Triangle(res.Ids[index])
		if err != nil {
			return nil, fmt.Errorf("renderer: pixel (%d, %d): %w", x, y, err)
		}

		col := sc.Material.Shade(cam.Ray(x, y), res.Distances[index], tri.Normal, sc.Lights)
		img.SetRGBA(x, y, toRGBA(col.Mul(r.opts.Exposure)))
		r.stats.Hits++
	}

	r.stats.RenderTime = time.Since(start)
	r.logger.Infof("shaded %dx%d frame (%d hits, %d misses) in %s", cam.HRes, cam.VRes, r.stats.Hits, r.stats.Misses, r.stats.RenderTime)
	return img, nil
}

// Get statistics for the last rendered frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Encode img as a PNG file.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("renderer: could not encode %s: %w", path, err)
	}
	return f.Close()
}

func toRGBA(col types.Vec3) color.RGBA {
	col = col.Clamp(0, 1)
	return color.RGBA{
		R: uint8(math.Floor(col[0] * 255)),
		G: uint8(math.Floor(col[1] * 255)),
		B: uint8(math.Floor(col[2] * 255)),
		A: 255,
	}
}
