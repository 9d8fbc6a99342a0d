package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/asset"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/log"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/types"
)

type wavefrontReader struct {
	logger log.Logger

	// Parsed triangles; ids match their position.
	triangles []*scene.Triangle

	// Vertex positions in definition order.
	vertexList []types.Vec3

	// Number of faces split into more than one triangle.
	fanned int

	// An error stack that provides additional error information when
	// mesh files include other files.
	errStack []string
}

func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:     log.New("wavefront reader"),
		triangles:  make([]*scene.Triangle, 0),
		vertexList: make([]types.Vec3, 0),
		errStack:   make([]string, 0),
	}
}

// Read a wavefront mesh and return its triangles.
func (r *wavefrontReader) Read(res *asset.Resource) ([]*scene.Triangle, error) {
	r.logger.Infof("parsing mesh from %s", res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}

	if r.fanned > 0 {
		r.logger.Noticef("triangulated %d polygonal faces", r.fanned)
	}
	r.logger.Infof("parsed %d vertices and %d triangles in %d ms", len(r.vertexList), len(r.triangles), time.Since(start).Milliseconds())
	return r.triangles, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	errMsg := strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	)
	return fmt.Errorf("%w: %s", ErrMalformedMesh, errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront mesh data. Only vertex positions and faces are used;
// texture coordinates, normals, groups and materials are skipped.
func (r *wavefrontReader) parse(res *asset.Resource) error {
	lineNum := 0

	scanner := bufio.NewScanner(res)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for '%s'; expected 1 argument; got %d", lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "f":
			if err := r.parseFace(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reader: could not read %s: %w", res.Path(), err)
	}
	return nil
}

// Parse a face definition. Each face argument has the format
// vertex_index[/[uv_index][/normal_index]]; only the vertex index is used.
// Faces with more than 3 vertices are split into a triangle fan.
func (r *wavefrontReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf("unsupported syntax for 'f'; expected at least 3 arguments; got %d", len(lineTokens)-1)
	}

	vertices := make([]types.Vec3, len(lineTokens)-1)
	for arg := range vertices {
		vToken, _, _ := strings.Cut(lineTokens[arg+1], "/")
		if vToken == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vToken, len(r.vertexList))
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]
	}

	if len(vertices) > 3 {
		r.fanned++
	}
	for i := 1; i+1 < len(vertices); i++ {
		r.triangles = append(r.triangles, scene.NewTriangle(len(r.triangles), vertices[0], vertices[i], vertices[i+1]))
	}
	return nil
}

// Given a vertex index token calculate the offset into the vertex list.
// Wavefront indices are 1-based; negative indices reference elements from
// the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row. Extra components (e.g. vertex weights) are ignored.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf("unsupported syntax for '%s'; expected 3 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 64)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = coord
	}
	return v, nil
}
