package types

// NodeKind enumerates every shape an AST Node can take. A Node is a
// variant record: its Kind selects which of the Node's payload fields
// are meaningful.
type NodeKind int

const (
	NodeProgram NodeKind = iota
	NodeBlock

	NodeIf
	NodeWhile
	NodeUntil
	NodeFor
	NodeForeach
	NodeStatementModifier

	NodeSubroutine
	NodeMethod
	NodeClass
	NodePackage
	NodeUse
	NodeNo
	NodeField

	NodeVariableDeclaration
	NodeVariable

	NodeBinary
	NodeUnary
	NodeTernary
	NodeAssignment
	NodeRange

	NodeFunctionCall
	NodeMethodCall
	NodeDereference

	NodeSubscript
	NodeHashSubscript

	NodeArrayLiteral
	NodeHashLiteral
	NodeListExpr

	NodeString
	NodeInterpolatedString
	NodeNumber
	NodeQwList

	NodeRegex
	NodeMatch
	NodeSubstitution
	NodeTransliteration

	NodeHeredoc
	NodePodBlock
	NodeDataSection

	NodeTry
	NodeCatch

	NodeGiven
	NodeWhen
	NodeDefault

	NodeReturn
	NodeLoopControl // last/next/redo, optionally labeled

	NodeLabel
	NodeLocalDeclaration // local EXPR (dynamic scoping, distinct from VariableDeclaration)

	NodeAnonSub
	NodeSignatureParam

	NodeIdentifier
	NodeBareword

	NodeSourceFilter // use Filter::...
	NodeFormat       // format NAME = ... . (format body)

	NodeError
)

var nodeKindNames = map[NodeKind]string{
	NodeProgram:             "Program",
	NodeBlock:               "Block",
	NodeIf:                  "If",
	NodeWhile:               "While",
	NodeUntil:               "Until",
	NodeFor:                 "For",
	NodeForeach:             "Foreach",
	NodeStatementModifier:   "StatementModifier",
	NodeSubroutine:          "Subroutine",
	NodeMethod:              "Method",
	NodeClass:               "Class",
	NodePackage:             "Package",
	NodeUse:                 "Use",
	NodeNo:                  "No",
	NodeField:               "Field",
	NodeVariableDeclaration: "VariableDeclaration",
	NodeVariable:            "Variable",
	NodeBinary:              "Binary",
	NodeUnary:               "Unary",
	NodeTernary:             "Ternary",
	NodeAssignment:          "Assignment",
	NodeRange:               "Range",
	NodeFunctionCall:        "FunctionCall",
	NodeMethodCall:          "MethodCall",
	NodeDereference:         "Dereference",
	NodeSubscript:           "Subscript",
	NodeHashSubscript:       "HashSubscript",
	NodeArrayLiteral:        "ArrayLiteral",
	NodeHashLiteral:         "HashLiteral",
	NodeListExpr:            "ListExpr",
	NodeString:              "String",
	NodeInterpolatedString:  "InterpolatedString",
	NodeNumber:              "Number",
	NodeQwList:              "QwList",
	NodeRegex:               "Regex",
	NodeMatch:               "Match",
	NodeSubstitution:        "Substitution",
	NodeTransliteration:     "Transliteration",
	NodeHeredoc:             "Heredoc",
	NodePodBlock:            "PodBlock",
	NodeDataSection:         "DataSection",
	NodeTry:                 "Try",
	NodeCatch:               "Catch",
	NodeGiven:               "Given",
	NodeWhen:                "When",
	NodeDefault:             "Default",
	NodeReturn:              "Return",
	NodeLoopControl:         "LoopControl",
	NodeLabel:               "Label",
	NodeLocalDeclaration:    "LocalDeclaration",
	NodeAnonSub:             "AnonSub",
	NodeSignatureParam:      "SignatureParam",
	NodeIdentifier:          "Identifier",
	NodeBareword:            "Bareword",
	NodeSourceFilter:        "SourceFilter",
	NodeFormat:              "Format",
	NodeError:               "Error",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// NodeID indexes into an arena of Nodes belonging to one parse. Arena
// indexing (rather than pointers) lets the incremental engine clone
// subtrees by copying a contiguous ID range.
type NodeID int

const InvalidNodeID NodeID = -1

// Node is one AST node. Kind selects which payload fields are
// meaningful; unused fields are left at their zero value. Children are
// referenced by NodeID into the owning Tree's arena so that subtrees can
// be shared by reference between an old tree and its incremental
// successor.
type Node struct {
	Kind     NodeKind
	Location SourceLocation

	// Shared payload fields, reused across several NodeKinds.
	Name       string   // identifier/package/sub/class/label name
	Sigil      Sigil    // Variable, VariableDeclaration
	Operator   string   // Binary, Unary, Assignment operator text
	Children   []NodeID // homogeneous child lists: stmts, elems, args, pairs
	Left       NodeID
	Right      NodeID
	Cond       NodeID
	Then       NodeID
	Else       NodeID
	Body       NodeID
	Object     NodeID // MethodCall receiver, Dereference base
	Init       NodeID // VariableDeclaration initializer, for-loop init
	Update     NodeID // for-loop update clause
	Value      string  // String/Number literal text, Bareword text
	Interpolated bool  // String: contains variable interpolation

	Declaration DeclarationKind // VariableDeclaration, LocalDeclaration
	Attributes  []string        // field/sub attributes (:param, :reader, ...)

	Elsifs       []ElsifClause   // If
	CatchBlocks  []CatchClause   // Try
	Finally      NodeID          // Try; set explicitly to InvalidNodeID when absent (the zero value aliases node 0, it does not mean "absent")
	Params       []NodeID        // Subroutine/Method signature params
	Label        string          // LoopControl target label, statement Label

	Partial bool   // Error: true if a best-effort child was attached
	Message string // Error: human-readable description of the failure
}

// ElsifClause is one `elsif (cond) { then }` arm of an If node.
type ElsifClause struct {
	Cond NodeID
	Then NodeID
}

// CatchClause is one `catch ($var?) { body }` arm of a Try node.
type CatchClause struct {
	Variable string // empty when the catch omits a binding
	Body     NodeID
}

// Tree is an arena of Nodes produced by one parse. Root is the
// NodeProgram node's ID. The parser appends children before their
// parents, so in a parsed tree Root is the last node.
type Tree struct {
	Nodes []Node
	Root  NodeID
}

// NewTree returns an empty arena.
func NewTree() *Tree {
	return &Tree{}
}

// Add appends n to the arena and returns its freshly assigned ID.
func (t *Tree) Add(n Node) NodeID {
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, n)
	return id
}

// Node dereferences id. Callers must not hold the returned pointer
// across a further Add, which may reallocate the backing slice.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}
