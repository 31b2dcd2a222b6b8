package graph

// Operation is a serializable descriptor of a deferred computation over
// zero or more input task results. Operations carry no closures - workers
// interpret them by Kind - so any operation can be dispatched across the
// network boundary, and its canonical encoding can be fingerprinted.
type Operation struct {
	Kind  string `json:"kind"`
	Attrs []Attr `json:"attrs,omitempty"`
}

// Attr is a single key/value attribute of an Operation. Attribute order is
// part of the operation's canonical encoding, so constructors must emit
// attributes in a fixed order.
type Attr struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

// Attr returns the value of the named attribute, or "" if unset
func (o Operation) Attr(key string) string {
	for _, a := range o.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
