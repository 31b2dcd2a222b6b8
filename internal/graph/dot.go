package graph

import (
	"fmt"
	"io"
)

// WriteDOT emits the closure of the target Tasks as a graphviz digraph,
// for diagnostic visualization of what a computation will run.
func WriteDOT(w io.Writer, targets []*Task) error {
	if _, err := fmt.Fprintln(w, "digraph loom {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  rankdir=BT;"); err != nil {
		return err
	}
	isTarget := make(map[uint64]bool, len(targets))
	for _, t := range targets {
		isTarget[t.fp] = true
	}
	for _, t := range TopoOrder(targets) {
		shape := "box"
		if isTarget[t.fp] {
			shape = "doubleoctagon"
		}
		if _, err := fmt.Fprintf(w, "  %q [label=%q shape=%s];\n", t.Name(), t.Name(), shape); err != nil {
			return err
		}
		for _, in := range t.inputs {
			if _, err := fmt.Fprintf(w, "  %q -> %q;\n", in.Name(), t.Name()); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
