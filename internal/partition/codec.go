package partition

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/schema"
	"github.com/pierrec/lz4"
)

func init() {
	// concrete column value types crossing the gob boundary
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register("")
	gob.Register([]byte(nil))
	gob.Register(time.Time{})
}

// wirePartition is the serialized form of a Partition
type wirePartition struct {
	ID     string
	Schema []byte
	Rows   [][]interface{}
}

// ToBytes serializes a Partition as lz4-compressed gob, for network
// transfer between workers and the coordinator
func ToBytes(p loom.Partition) ([]byte, error) {
	encodedSchema, err := schema.Encode(p.GetSchema())
	if err != nil {
		return nil, err
	}
	wire := &wirePartition{
		ID:     p.ID(),
		Schema: encodedSchema,
		Rows:   RawValues(p),
	}
	var buf bytes.Buffer
	compressor := lz4.NewWriter(&buf)
	if err := gob.NewEncoder(compressor).Encode(wire); err != nil {
		return nil, err
	}
	if err := compressor.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromBytes deserializes a Partition produced by ToBytes
func FromBytes(buf []byte) (loom.Partition, error) {
	decompressor := lz4.NewReader(bytes.NewReader(buf))
	var wire wirePartition
	if err := gob.NewDecoder(decompressor).Decode(&wire); err != nil {
		return nil, err
	}
	decodedSchema, err := schema.Decode(wire.Schema)
	if err != nil {
		return nil, err
	}
	return createPartitionWithID(wire.ID, wire.Rows, decodedSchema), nil
}
