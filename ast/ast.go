// Package ast holds the tagged command/test tree produced by the
// parser (§4.2) and consumed by the bytecode compiler (§4.3). Nodes
// are arena-owned: the whole tree is discarded as a unit after
// compilation, so no per-node free bookkeeping is kept.
package ast

// Match is the match-type enumeration (§3).
type Match int

const (
	MatchIs Match = iota
	MatchContains
	MatchMatches
	MatchRegex
	MatchCount
	MatchValue
)

// Relation is used by :count and :value matches.
type Relation int

const (
	RelGT Relation = iota
	RelGE
	RelLT
	RelLE
	RelEQ
	RelNE
)

// Comparator names a string-comparison discipline.
type Comparator int

const (
	ComparatorAsciiCasemap Comparator = iota
	ComparatorOctet
	ComparatorAsciiNumeric
)

// AddressPart selects which piece of an address is matched.
type AddressPart int

const (
	AddrAll AddressPart = iota
	AddrLocalpart
	AddrDomain
	AddrUser
	AddrDetail
)

// SizeOp selects the :over/:under direction of a size test.
type SizeOp int

const (
	SizeOver SizeOp = iota
	SizeUnder
)

// Priority is the notify/denotify priority enumeration.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityAny
)

// Transform selects how a body test's content is extracted.
type Transform int

const (
	TransformRaw Transform = iota
	TransformText
	TransformContent
)

// IncludeLocation distinguishes personal from global included scripts.
type IncludeLocation int

const (
	IncludePersonal IncludeLocation = iota
	IncludeGlobal
)

// Script is the ordered sequence of top-level commands (§3).
type Script struct {
	Require  []string
	Commands []Command
}

// Command is any of the action/control-flow nodes in §3. Every
// concrete type below implements it as a marker.
type Command interface {
	commandNode()
	Line() int
}

type base struct {
	line int
}

func (b base) Line() int { return b.line }

func NewBase(line int) base { return base{line: line} }

type Stop struct{ base }
type Keep struct{ base }
type Discard struct{ base }

type Reject struct {
	base
	Message string
}

type FileInto struct {
	base
	Copy     bool
	Mailbox  string
	ImapFlags []string
}

type Redirect struct {
	base
	Copy    bool
	Address string
}

type Mark struct{ base }
type Unmark struct{ base }

type AddFlag struct {
	base
	Flags []string
}
type SetFlag struct {
	base
	Flags []string
}
type RemoveFlag struct {
	base
	Flags []string
}

type Notify struct {
	base
	Method   string
	ID       string // empty means absent
	HasID    bool
	Options  []string
	Priority Priority
	Message  string
}

type Denotify struct {
	base
	Priority Priority
	Match    Match
	Relation Relation
	Pattern  string
	HasPattern bool
}

type Vacation struct {
	base
	Addresses []string
	Subject   string
	HasSubject bool
	Message   string
	Days      int64
	Mime      bool
	From      string
	HasFrom   bool
	Handle    string
	HasHandle bool
}

type Include struct {
	base
	Location IncludeLocation
	Path     string
}

type Return struct{ base }

type If struct {
	base
	Test Test
	Then []Command
	Else []Command // nil if no else branch
}

func (Stop) commandNode()     {}
func (Keep) commandNode()     {}
func (Discard) commandNode()  {}
func (Reject) commandNode()   {}
func (FileInto) commandNode() {}
func (Redirect) commandNode() {}
func (Mark) commandNode()     {}
func (Unmark) commandNode()   {}
func (AddFlag) commandNode()    {}
func (SetFlag) commandNode()    {}
func (RemoveFlag) commandNode() {}
func (Notify) commandNode()     {}
func (Denotify) commandNode()   {}
func (Vacation) commandNode()   {}
func (Include) commandNode()    {}
func (Return) commandNode()     {}
func (If) commandNode()         {}

// Test is any of the boolean test nodes in §3.
type Test interface {
	testNode()
	Line() int
}

type True struct{ base }
type False struct{ base }

type Not struct {
	base
	Sub Test
}

type AllOf struct {
	base
	Tests []Test
}

type AnyOf struct {
	base
	Tests []Test
}

type Exists struct {
	base
	Headers []string
}

type Size struct {
	base
	Op SizeOp
	N  int64
}

type Header struct {
	base
	Match      Match
	Relation   Relation
	Comparator Comparator
	Headers    []string
	Patterns   []string
}

type Address struct {
	base
	Match      Match
	Relation   Relation
	Comparator Comparator
	Part       AddressPart
	Headers    []string
	Patterns   []string
}

type Envelope struct {
	base
	Match      Match
	Relation   Relation
	Comparator Comparator
	Part       AddressPart
	Fields     []string
	Patterns   []string
}

type Body struct {
	base
	Match        Match
	Relation     Relation
	Comparator   Comparator
	Transform    Transform
	ContentTypes []string
	Patterns     []string
}

func (True) testNode()     {}
func (False) testNode()    {}
func (Not) testNode()      {}
func (AllOf) testNode()    {}
func (AnyOf) testNode()    {}
func (Exists) testNode()   {}
func (Size) testNode()     {}
func (Header) testNode()   {}
func (Address) testNode()  {}
func (Envelope) testNode() {}
func (Body) testNode()     {}
