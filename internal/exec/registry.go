package exec

import (
	"fmt"
	"io"
	"sync"

	"github.com/loomdata/loom"
)

// SourceOpener re-opens a partition's underlying data on a worker from its
// locator string
type SourceOpener func(locator string) (io.ReadCloser, error)

// ParserFactory reconstructs a parser on a worker from its encoded conf
type ParserFactory func(conf []byte) (loom.DataSourceParser, error)

var (
	registryMu sync.RWMutex
	sources    = make(map[string]SourceOpener)
	parsers    = make(map[string]ParserFactory)
)

// RegisterSource registers a SourceOpener under a source kind name.
// DataSource implementations register themselves from an init function so
// that any process importing them (including worker binaries) can load
// their partitions.
func RegisterSource(kind string, opener SourceOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	sources[kind] = opener
}

// RegisterParser registers a ParserFactory under a parser kind name
func RegisterParser(kind string, factory ParserFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	parsers[kind] = factory
}

func openSource(kind, locator string) (io.ReadCloser, error) {
	registryMu.RLock()
	opener, ok := sources[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no registered data source of kind %s (missing import?)", kind)
	}
	return opener(locator)
}

func parserFor(kind string, conf []byte) (loom.DataSourceParser, error) {
	registryMu.RLock()
	factory, ok := parsers[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no registered parser of kind %s (missing import?)", kind)
	}
	return factory(conf)
}
