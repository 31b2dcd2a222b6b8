package dataframe

import (
	"context"
	"fmt"

	"github.com/loomdata/loom"
	"github.com/loomdata/loom/aggregate"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/internal/partition"
)

// Compute materializes the given frames together in one scheduling pass
// and returns one Table per frame, in argument order. Because frames
// built against one Session share graph tasks by fingerprint, computing
// related frames together executes their common prefix once; separate
// Compute calls share only results still resident on workers.
func Compute(ctx context.Context, frames ...*DataFrame) ([]*loom.Table, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	sess := frames[0].sess
	var targets []*graph.Task
	for _, df := range frames {
		if df.sess != sess {
			return nil, errors.GraphConstructionError{Reason: "cannot compute frames from different sessions together"}
		}
		targets = append(targets, df.targets()...)
	}
	results, err := sess.Compute(ctx, targets...)
	if err != nil {
		return nil, err
	}
	tables := make([]*loom.Table, len(frames))
	offset := 0
	for i, df := range frames {
		n := len(df.targets())
		tables[i], err = df.assemble(results[offset : offset+n])
		if err != nil {
			return nil, err
		}
		offset += n
	}
	return tables, nil
}

// Compute materializes this frame and returns its rows as a Table
func (df *DataFrame) Compute(ctx context.Context) (*loom.Table, error) {
	tables, err := Compute(ctx, df)
	if err != nil {
		return nil, err
	}
	return tables[0], nil
}

// assemble turns this frame's fetched task results into a Table
func (df *DataFrame) assemble(results []*exec.Result) (*loom.Table, error) {
	if df.aggRoot != nil {
		return df.assembleScalar(results[0])
	}
	parts := make([]loom.Partition, 0, len(results))
	for _, res := range results {
		if len(res.Parts) != 1 {
			return nil, fmt.Errorf("expected a single-partition result per frame partition, got %d", len(res.Parts))
		}
		parts = append(parts, res.Parts[0])
	}
	return loom.CreateTable(df.schema, parts), nil
}

// assembleScalar decodes a reduction's final aggregation state into a
// one-row, one-column Table
func (df *DataFrame) assembleScalar(res *exec.Result) (*loom.Table, error) {
	if res.Agg == nil {
		return nil, fmt.Errorf("scalar frame result carries no aggregation state")
	}
	proto, err := aggregate.ForKind(res.Agg.Kind, res.Agg.Col)
	if err != nil {
		return nil, err
	}
	agg, err := proto.FromBytes(res.Agg.State)
	if err != nil {
		return nil, err
	}
	part := partition.CreatePartition(df.schema.Clone())
	partition.AppendRawRow(part, []interface{}{agg.Value()})
	return loom.CreateTable(df.schema, []loom.Partition{part}), nil
}
