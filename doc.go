// Package loom defines the public types and interfaces for loom, a minimal
// distributed dataframe engine. Data is split into Partitions which are
// manipulated lazily: dataframe operations record Tasks in a deduplicated
// computation graph, and nothing is read or computed until a result is
// requested via Compute or Persist. Implementations of these interfaces
// live in loom's subpackages - client code generally starts with
// cluster.Connect and a DataSource from the datasource subpackages.
package loom
