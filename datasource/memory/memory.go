// Package memory implements an in-memory DataSource, primarily useful for
// testing. Data chunks are registered under a name in a process-wide
// registry; each chunk becomes one partition. Because locators only
// resolve within the registering process, memory sources are limited to
// in-process workers.
package memory

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"strconv"
	"strings"
	"sync"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/internal/exec"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string][][]byte)
)

func init() {
	exec.RegisterSource("memory", func(locator string) (io.ReadCloser, error) {
		sep := strings.LastIndex(locator, "/")
		if sep < 0 {
			return nil, fmt.Errorf("malformed memory locator %q", locator)
		}
		name, rawIdx := locator[:sep], locator[sep+1:]
		idx, err := strconv.Atoi(rawIdx)
		if err != nil {
			return nil, fmt.Errorf("malformed memory locator %q", locator)
		}
		registryMu.RLock()
		chunks, ok := registry[name]
		registryMu.RUnlock()
		if !ok || idx < 0 || idx >= len(chunks) {
			return nil, fmt.Errorf("no registered memory data for locator %q", locator)
		}
		return ioutil.NopCloser(bytes.NewReader(chunks[idx])), nil
	})
}

// DataSource is named in-memory data which will be manipulated according
// to a DataFrame, one partition per registered chunk
type DataSource struct {
	name string
}

// CreateDataSource registers data chunks under a name and returns a
// DataSource over them, replacing any chunks previously registered under
// the same name
func CreateDataSource(name string, chunks [][]byte) *DataSource {
	registryMu.Lock()
	registry[name] = chunks
	registryMu.Unlock()
	return &DataSource{name: name}
}

// Remove drops the chunks registered under a name
func Remove(name string) {
	registryMu.Lock()
	delete(registry, name)
	registryMu.Unlock()
}

// Kind returns the registered name of this source type
func (ms *DataSource) Kind() string {
	return "memory"
}

// Analyze produces one PartitionLoader per registered chunk
func (ms *DataSource) Analyze() ([]loom.PartitionLoader, error) {
	registryMu.RLock()
	chunks, ok := registry[ms.name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no memory data registered under %q", ms.name)
	}
	loaders := make([]loom.PartitionLoader, len(chunks))
	for i := range chunks {
		loaders[i] = &PartitionLoader{name: ms.name, idx: i}
	}
	return loaders, nil
}

// PartitionLoader loads one registered chunk of in-memory data
type PartitionLoader struct {
	name string
	idx  int
}

// Locator returns the registry name and chunk index of this loader
func (pl *PartitionLoader) Locator() string {
	return fmt.Sprintf("%s/%d", pl.name, pl.idx)
}

// Open opens the underlying chunk for reading
func (pl *PartitionLoader) Open() (io.ReadCloser, error) {
	registryMu.RLock()
	chunks, ok := registry[pl.name]
	registryMu.RUnlock()
	if !ok || pl.idx >= len(chunks) {
		return nil, fmt.Errorf("no registered memory data for %q", pl.Locator())
	}
	return ioutil.NopCloser(bytes.NewReader(chunks[pl.idx])), nil
}

// ToString returns a string representation of this PartitionLoader
func (pl *PartitionLoader) ToString() string {
	return fmt.Sprintf("Memory loader chunk: %s", pl.Locator())
}
