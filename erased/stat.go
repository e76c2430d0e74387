package erased

// Stat is the outcome of writing into a Target.
type Stat uint8

const (
	StatNone Stat = iota
	StatStack
	StatHeap
	StatRead
	StatWrite
	StatIndex
	StatImpossible
	StatWrongNumber
	StatWrongType
	StatWrongReturn
	StatOutOfMemory
	StatException
)

var statNames = [...]string{
	"none", "stack", "heap", "read", "write", "index",
	"impossible", "wrong_number", "wrong_type", "wrong_return", "out_of_memory", "exception",
}

func (s Stat) String() string {
	if int(s) < len(statNames) {
		return statNames[s]
	}
	return "invalid"
}

// OK reports whether s is a success outcome.
func (s Stat) OK() bool { return s <= StatIndex }

// Recoverable reports whether s is an argument or shape mismatch that a
// caller may answer by trying another callee.
func (s Stat) Recoverable() bool {
	return s == StatImpossible || s == StatWrongNumber || s == StatWrongType
}

// Owned reports whether the Target owns a payload that Release must destroy.
func (s Stat) Owned() bool { return s == StatStack || s == StatHeap }

// Shape is a bitmask of result forms a Target accepts.
type Shape uint8

const (
	ShapeStack Shape = 1 << iota
	ShapeHeap
	ShapeRead
	ShapeWrite
	ShapeIndex

	ShapeNone  Shape = 0
	ShapeValue       = ShapeStack | ShapeHeap
	ShapeRef         = ShapeRead | ShapeWrite
	ShapeAny         = ShapeValue | ShapeRef | ShapeIndex
)

func (s Shape) Has(o Shape) bool { return s&o != 0 }
