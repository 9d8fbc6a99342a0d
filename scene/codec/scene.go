package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/tracer"
)

// Encode a batch using the scene token layout.
func EncodeBatch(w io.Writer, batch *tracer.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	return EncodeScene(w, batch.TriangleIds, batch.Triangles, batch.Rays)
}

// Write the scene as whitespace separated tokens: a header line with the
// triangle and ray counts, the triangle ids, 9 coordinates per triangle and
// 6 coordinates per ray.
func EncodeScene(w io.Writer, triangleIds []int32, triangles []float64, rays []float64) error {
	if len(triangles) != len(triangleIds)*tracer.TriangleAttrs {
		return fmt.Errorf("%w: %d triangle ids but %d triangle coordinates", ErrMalformedScene, len(triangleIds), len(triangles))
	}
	if len(rays)%tracer.RayAttrs != 0 {
		return fmt.Errorf("%w: ray data length %d is not a multiple of %d", ErrMalformedScene, len(rays), tracer.RayAttrs)
	}

	bw := bufio.NewWriter(w)
	scratch := make([]byte, 0, 32)

	scratch = strconv.AppendInt(scratch[:0], int64(len(triangleIds)), 10)
	scratch = append(scratch, ' ')
	scratch = strconv.AppendInt(scratch, int64(len(rays)/tracer.RayAttrs), 10)
	scratch = append(scratch, '\n')
	bw.Write(scratch)

	for _, id := range triangleIds {
		scratch = strconv.AppendInt(scratch[:0], int64(id), 10)
		bw.Write(append(scratch, ' '))
	}
	bw.WriteByte('\n')

	writeFloats(bw, triangles, tracer.TriangleAttrs, scratch)
	writeFloats(bw, rays, tracer.RayAttrs, scratch)

	return bw.Flush()
}

// Write values, perLine tokens per line.
func writeFloats(bw *bufio.Writer, values []float64, perLine int, scratch []byte) {
	for i, v := range values {
		scratch = strconv.AppendFloat(scratch[:0], v, 'g', -1, 64)
		if (i+1)%perLine == 0 {
			scratch = append(scratch, '\n')
		} else {
			scratch = append(scratch, ' ')
		}
		bw.Write(scratch)
	}
}

// Decode a scene payload into a batch. The number of tokens must match the
// counts declared in the header exactly.
func DecodeScene(payload []byte) (*tracer.Batch, error) {
	tokens := bytes.Fields(payload)
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: missing triangle/ray count header", ErrMalformedScene)
	}

	numTris, err := parseCount(tokens[0], "triangle")
	if err != nil {
		return nil, err
	}
	numRays, err := parseCount(tokens[1], "ray")
	if err != nil {
		return nil, err
	}

	expTokens := 2 + uint64(numTris)*(1+tracer.TriangleAttrs) + uint64(numRays)*tracer.RayAttrs
	if uint64(len(tokens)) != expTokens {
		return nil, fmt.Errorf("%w: header declares %d triangles and %d rays (%d tokens); payload has %d tokens", ErrMalformedScene, numTris, numRays, expTokens, len(tokens))
	}

	batch := &tracer.Batch{
		TriangleIds: make([]int32, numTris),
		Triangles:   make([]float64, numTris*tracer.TriangleAttrs),
		Rays:        make([]float64, numRays*tracer.RayAttrs),
	}

	offset := 2
	for i := range batch.TriangleIds {
		id, err := strconv.ParseInt(string(tokens[offset+i]), 10, 32)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("%w: invalid triangle id %q at token %d", ErrMalformedScene, tokens[offset+i], offset+i)
		}
		batch.TriangleIds[i] = int32(id)
	}
	offset += numTris

	if err = parseFloats(tokens[offset:], batch.Triangles, offset); err != nil {
		return nil, err
	}
	offset += len(batch.Triangles)

	if err = parseFloats(tokens[offset:], batch.Rays, offset); err != nil {
		return nil, err
	}

	return batch, nil
}

func parseCount(token []byte, what string) (int, error) {
	// Counts fit in 32 bits so the token count arithmetic in uint64 cannot
	// overflow.
	count, err := strconv.ParseInt(string(token), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s count %q", ErrMalformedScene, what, token)
	}
	if count < 0 {
		return 0, fmt.Errorf("%w: negative %s count %d", ErrMalformedScene, what, count)
	}
	return int(count), nil
}

func parseFloats(tokens [][]byte, out []float64, offset int) error {
	for i := range out {
		v, err := strconv.ParseFloat(string(tokens[i]), 64)
		if err != nil {
			return fmt.Errorf("%w: invalid number %q at token %d", ErrMalformedScene, tokens[i], offset+i)
		}
		out[i] = v
	}
	return nil
}
