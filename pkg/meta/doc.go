// Package meta is the runtime type system behind the nodeflow codecs.
//
// A [Registry] maps human-readable type names to Go types and classifies
// every type into exactly one [Kind]. For struct types it derives a
// descriptor: the ordered list of named, typed [Property] values that can be
// read and written independently of the static type, and the subset of them
// that is worth persisting.
//
// # Kinds
//
// Classification follows a fixed priority:
//
//	KindScalar      text round trip (encoding.TextMarshaler, basic kinds, []byte, time.Duration)
//	KindStringList  slice of string kind registered under an element-safe name
//	KindList        other slices and arrays
//	KindMap         maps with string keys
//	KindEntity      pointers to structs (reference identity)
//	KindRecord      structs (value types)
//	KindDynamic     interface slots; values always carry their dynamic type
//	KindOpaque      everything else, or anything registered with [AsOpaque]
//
// # Descriptors
//
// Exported struct fields are properties. A field tag controls naming and
// persistence:
//
//	type Display struct {
//	    Label     string  `nodeflow:"label"`
//	    Precision int     `nodeflow:"precision"`
//	    Cursor    int     `nodeflow:"cursor,transient"` // not persisted
//	    cache     []byte                               // unexported, ignored
//	    Scratch   any     `nodeflow:"-"`               // ignored
//	}
//
// Embedded structs are flattened into the outer descriptor.
//
// # Values
//
// A [Value] pairs a payload with its [Type]. The zero Value is invalid.
// Use [Registry.ValueOf] to wrap arbitrary Go values; unregistered types are
// registered on first use under their Go type string.
//
// # Concurrency
//
// A Registry is safe for concurrent use. Registration is expected to happen
// at start-up, before documents are saved or loaded.
package meta
