// Package cache keeps local copies of BEA responses under the directory
// named by BEA_DATA.
package cache

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/bea-cli/pkg/bea"
)

// File names written by SaveDatasets.
const (
	DatasetsJSON = "datasets.json"
	DatasetsBin  = "datasets.bin"
)

// EnvDataDir names the cache directory.
const EnvDataDir = "BEA_DATA"

// Dir is a cache directory.
type Dir struct {
	path string
}

// New returns a cache rooted at path, creating it if needed.
func New(path string) (*Dir, error) {
	if strings.TrimSpace(path) == "" {
		return nil, bea.EnvError(EnvDataDir)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, bea.IOError("cache: create dir", path, err)
	}
	return &Dir{path: path}, nil
}

// FromEnv returns the cache named by BEA_DATA.
func FromEnv() (*Dir, error) {
	return New(os.Getenv(EnvDataDir))
}

// Path returns the full path of name inside the cache.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.path, name)
}

// WriteJSON stores a raw response body. The body must be valid JSON.
func (d *Dir) WriteJSON(name string, body []byte) error {
	if !gjson.ValidBytes(body) {
		return bea.SerializationError("cache: write json", eris.Errorf("%s: body is not valid JSON", name))
	}
	return d.write(name, body)
}

// ReadJSON returns a stored response body.
func (d *Dir) ReadJSON(name string) ([]byte, error) {
	p := d.Path(name)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, bea.IOError("cache: read json", p, err)
	}
	return b, nil
}

// WriteBinary gob-encodes v into name.
func (d *Dir) WriteBinary(name string, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return bea.SerializationError("cache: encode "+name, err)
	}
	return d.write(name, buf.Bytes())
}

// ReadBinary decodes name into v, which must be a pointer.
func (d *Dir) ReadBinary(name string, v any) error {
	p := d.Path(name)
	f, err := os.Open(p)
	if err != nil {
		return bea.IOError("cache: read binary", p, err)
	}
	defer f.Close() //nolint:errcheck

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return bea.SerializationError("cache: decode "+name, err)
	}
	return nil
}

// SaveDatasets writes the raw GetDataSetList body to datasets.json and the
// parsed list to datasets.bin.
func (d *Dir) SaveDatasets(body []byte, list bea.DatasetList) error {
	if err := d.WriteJSON(DatasetsJSON, body); err != nil {
		return err
	}
	if err := d.WriteBinary(DatasetsBin, list); err != nil {
		return err
	}
	zap.L().Info("cache: saved dataset list",
		zap.String("dir", d.path),
		zap.Int("datasets", len(list.Datasets)),
	)
	return nil
}

// LoadDatasetsJSON parses datasets.json.
func (d *Dir) LoadDatasetsJSON(opts ...bea.LoadOption) (bea.DatasetList, error) {
	body, err := d.ReadJSON(DatasetsJSON)
	if err != nil {
		return bea.DatasetList{}, err
	}
	resp, err := bea.ParseDatasetList(body, opts...)
	if err != nil {
		return bea.DatasetList{}, err
	}
	return resp.Results, nil
}

// LoadDatasetsBinary decodes datasets.bin.
func (d *Dir) LoadDatasetsBinary() (bea.DatasetList, error) {
	var list bea.DatasetList
	if err := d.ReadBinary(DatasetsBin, &list); err != nil {
		return bea.DatasetList{}, err
	}
	return list, nil
}

// write replaces name atomically so readers never see a partial file.
func (d *Dir) write(name string, data []byte) error {
	p := d.Path(name)
	tmp, err := os.CreateTemp(d.path, "."+name+".*")
	if err != nil {
		return bea.IOError("cache: create temp", d.path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return bea.IOError("cache: write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return bea.IOError("cache: close", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return bea.IOError("cache: rename", p, err)
	}
	return nil
}
