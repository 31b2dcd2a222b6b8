package csv

import (
	"fmt"
	"io"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/schema"
)

// InferSchema derives a Schema from a sample of CSV data. With
// HeaderLines > 0 the first line supplies column names; otherwise columns
// are named c0, c1, and so on. At most sampleRows rows are examined, and
// inference is conservative: values outside the sample which fail to
// match the chosen type surface as SchemaInferenceErrors at compute time.
func InferSchema(r io.Reader, conf *ParserConf, sampleRows int) (loom.Schema, error) {
	p := CreateParser(conf)
	reader := p.reader(r, -1)
	var names []string
	if conf.HeaderLines > 0 {
		header, err := reader.Read()
		if err != nil {
			return nil, err
		}
		names = append(names, header...)
		for i := 1; i < conf.HeaderLines; i++ {
			if _, err := reader.Read(); err != nil {
				return nil, err
			}
		}
	}
	var sample [][]string
	for len(sample) < sampleRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]string, len(record))
		copy(row, record)
		sample = append(sample, row)
	}
	if names == nil {
		if len(sample) == 0 {
			return nil, fmt.Errorf("cannot infer a schema from empty data without a header")
		}
		for i := range sample[0] {
			names = append(names, fmt.Sprintf("c%d", i))
		}
	}
	return schema.Infer(names, sample, &schema.InferConf{NilValue: conf.NilValue})
}
