package index

// Qualifier describes ownership and access of a held value.
type Qualifier uint8

const (
	Value Qualifier = iota
	Const
	Mutable
	Rvalue
)

var qualifierNames = [...]string{"value", "const", "mutable", "rvalue"}

func (q Qualifier) String() string {
	if int(q) < len(qualifierNames) {
		return qualifierNames[q]
	}
	return "invalid"
}

// CanRead is true for every qualifier.
func (q Qualifier) CanRead() bool { return q <= Rvalue }

// CanWrite reports whether in-place mutation is allowed.
func (q Qualifier) CanWrite() bool { return q == Value || q == Mutable || q == Rvalue }

// CanMove reports whether the referent may be moved from without permission.
func (q Qualifier) CanMove() bool { return q == Value || q == Rvalue }

// Satisfies reports whether a reference held as q can be used where want is required.
// Const is satisfied by everything, Mutable by any writable qualifier, Rvalue only
// by movable ones, and Value only by Value.
func (q Qualifier) Satisfies(want Qualifier) bool {
	switch want {
	case Const:
		return q.CanRead()
	case Mutable:
		return q.CanWrite()
	case Rvalue:
		return q.CanMove()
	case Value:
		return q == Value
	default:
		return false
	}
}

const (
	tagBits  = 2
	tagMask  = 1<<tagBits - 1
	maxIndex = 1<<(32-tagBits) - 1
)

// Tagged is an Index with a Qualifier packed into its low bits.
type Tagged uint32

// Tag packs i and q into a single word.
func Tag(i Index, q Qualifier) Tagged {
	return Tagged(uint32(i)<<tagBits | uint32(q&tagMask))
}

// Untag is the exact inverse of Tag.
func (t Tagged) Untag() (Index, Qualifier) {
	return Index(uint32(t) >> tagBits), Qualifier(uint32(t) & tagMask)
}

// Index returns the untagged Index.
func (t Tagged) Index() Index {
	return Index(uint32(t) >> tagBits)
}

// Qualifier returns the tag.
func (t Tagged) Qualifier() Qualifier {
	return Qualifier(uint32(t) & tagMask)
}

// IsZero reports whether the Index part is empty.
func (t Tagged) IsZero() bool {
	return t.Index() == Zero
}

func (t Tagged) String() string {
	return t.Index().Name() + " " + t.Qualifier().String()
}
