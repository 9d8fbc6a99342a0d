package reader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/asset"
	"github.com/adriannosampaio/heterogeneous-raytracing-pynq/scene"
)

var (
	ErrMalformedMesh     = errors.New("reader: malformed mesh")
	ErrUnsupportedFormat = errors.New("reader: unsupported mesh format")
)

// Read the triangles of the mesh at path (a local file or an http(s) URL).
// Triangle ids are assigned in file order starting at zero.
func ReadMesh(path string) ([]*scene.Triangle, error) {
	res, err := asset.NewResource(path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res)
}

// Read the triangles of a mesh resource.
func Read(res *asset.Resource) ([]*scene.Triangle, error) {
	switch ext := strings.ToLower(filepath.Ext(res.Name())); ext {
	case ".obj":
		return newWavefrontReader().Read(res)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
