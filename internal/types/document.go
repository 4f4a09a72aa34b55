package types

// Edit describes a single text replacement, in both byte-offset and
// line/column forms so the lexer (bytes) and the document store
// (UTF-16 positions) can each work in their native coordinate space
// without re-deriving the other.
type Edit struct {
	OldByteStart int
	OldByteEnd   int
	NewByteEnd   int
	OldStartPos  Position
	OldEndPos    Position
	NewEndPos    Position
}

// ContentChangeEvent mirrors a single LSP
// TextDocumentContentChangeEvent: a range replacement, or a full
// document replace when Range is nil.
type ContentChangeEvent struct {
	Range *Range
	Text  string
}

// ReuseMetrics summarizes one incremental reparse: how much of the
// prior tree survived unchanged versus how much had to be re-lexed and
// re-parsed.
type ReuseMetrics struct {
	NodesReused   int
	NodesReparsed int
	ElapsedNanos  int64
}

// ParseResult is the outcome of parsing or reparsing one source buffer:
// a best-effort tree plus every recoverable error encountered along the
// way. Errors is never nil; it is empty on a clean parse.
type ParseResult struct {
	Tree   *Tree
	Errors []ParseDiagnostic
}

// ParseDiagnostic is a recoverable parser diagnostic anchored to a
// source location, distinct from the typed errors in package errors
// (which wrap unrecoverable conditions). It is the element type of
// ParseResult.Errors.
type ParseDiagnostic struct {
	Kind     string
	Location SourceLocation
	Message  string
}

// DocumentSnapshot is an immutable view of one open document handed to
// readers. Callers must not mutate Text or AST; a new edit produces a
// new snapshot rather than mutating this one in place.
type DocumentSnapshot struct {
	URI         string
	Text        string
	Version     int32
	Generation  uint32
	AST         *Tree
	ParseErrors []ParseDiagnostic
	LineStarts  []int // byte offset of the start of each line
}

// WorkspaceIndex tracks every indexed file's symbol set plus the
// coordinator's current state and in-flight change set.
type WorkspaceIndex struct {
	Files          map[string][]Symbol
	State          IndexState
	PendingChanges map[string]struct{}
}

// NewWorkspaceIndex returns an index in the Uninitialized state.
func NewWorkspaceIndex() *WorkspaceIndex {
	return &WorkspaceIndex{
		Files:          make(map[string][]Symbol),
		State:          IndexState{Kind: IndexUninitialized},
		PendingChanges: make(map[string]struct{}),
	}
}
