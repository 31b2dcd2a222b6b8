// Package file implements a DataSource over files on a shared or local
// filesystem. Each file matching the glob becomes one partition, located
// by its path; workers re-open paths directly, so in a distributed
// deployment the files must be visible to every worker.
package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/internal/exec"
)

func init() {
	exec.RegisterSource("file", func(locator string) (io.ReadCloser, error) {
		return os.Open(locator)
	})
}

// DataSource is a set of files, matched by glob, containing data which
// will be manipulated according to a DataFrame
type DataSource struct {
	glob string
}

// CreateDataSource is a factory for file DataSources
func CreateDataSource(glob string) *DataSource {
	return &DataSource{glob: glob}
}

// Kind returns the registered name of this source type
func (fs *DataSource) Kind() string {
	return "file"
}

// Analyze matches the glob, producing one PartitionLoader per file
func (fs *DataSource) Analyze() ([]loom.PartitionLoader, error) {
	matches, err := filepath.Glob(fs.glob)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("glob %s produced 0 files", fs.glob)
	}
	loaders := make([]loom.PartitionLoader, len(matches))
	for i, path := range matches {
		loaders[i] = &PartitionLoader{path: path}
	}
	return loaders, nil
}

// PartitionLoader loads one partition of data from a single file
type PartitionLoader struct {
	path string
}

// Locator returns the path of this loader's file
func (pl *PartitionLoader) Locator() string {
	return pl.path
}

// Open opens the underlying file for reading
func (pl *PartitionLoader) Open() (io.ReadCloser, error) {
	return os.Open(pl.path)
}

// ToString returns a string representation of this PartitionLoader
func (pl *PartitionLoader) ToString() string {
	return fmt.Sprintf("File loader filename: %s", pl.path)
}
