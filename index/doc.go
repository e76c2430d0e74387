// Package index provides process-wide identity handles for Go types.
//
// An Index is a small integer assigned the first time a reflect.Type is seen.
// Indices are never reused or destroyed, compare by identity and are cheap to
// hash. Index 0 is the empty Index and stands for "no type" or "any type"
// depending on context.
//
// A Qualifier describes how a value is held:
//
//	Value    owned value; may be copied or moved from
//	Const    read-only reference; may be read or copied from
//	Mutable  writable reference; may be read, written, or moved with permission
//	Rvalue   expiring temporary; behaves like Mutable and licenses destructive moves
//
// Tag packs a Qualifier into the two low bits of an Index so that the pair
// travels as one word:
//
//	t := index.Tag(index.For[int](), index.Const)
//	i, q := t.Untag()
package index
