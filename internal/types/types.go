// Package types holds the core value types shared across the lexer,
// parser, incremental engine, symbol extractor, document store, and
// workspace coordinator.
package types

import "fmt"

// SourceLocation is a half-open byte-offset span into a UTF-8 source
// buffer. Every AST node carries one.
type SourceLocation struct {
	Start int
	End   int
}

// Contains reports whether loc fully encloses other (closed interval:
// other.Start/End fall within loc.Start/End inclusive).
func (loc SourceLocation) Contains(other SourceLocation) bool {
	return loc.Start <= other.Start && other.End <= loc.End
}

// Intersects reports whether loc and other share any byte.
func (loc SourceLocation) Intersects(other SourceLocation) bool {
	return loc.Start < other.End && other.Start < loc.End
}

func (loc SourceLocation) String() string {
	return fmt.Sprintf("[%d,%d)", loc.Start, loc.End)
}

// Position is an LSP-style line/character pair. Character is a count of
// UTF-16 code units from the start of the line, not bytes or runes.
type Position struct {
	Line      uint32
	Character uint32
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Less reports whether p sorts before other in document order.
func (p Position) Less(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Range is a pair of Positions, start inclusive and end exclusive.
type Range struct {
	Start Position
	End   Position
}

// TokenKind enumerates lexer token classes, including Perl-specific
// compound tokens.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenUnknown

	TokenIdentifier
	TokenNumber
	TokenString
	TokenInterpolatedStringStart
	TokenInterpolatedStringPart
	TokenInterpolatedStringEnd

	TokenScalarSigil // $
	TokenArraySigil  // @
	TokenHashSigil   // %
	TokenSubSigil    // &
	TokenGlobSigil   // *

	TokenArrow    // ->
	TokenFatArrow // =>

	TokenHeredocStart
	TokenHeredocBody
	TokenHeredocDynamicStart // <<$var: terminator is a runtime expression

	TokenRegexStart
	TokenRegexBody
	TokenQwList
	TokenQuoteLike // q, qq, qx, qr, m, s, tr, y bodies

	TokenPodBlock
	TokenDataSectionMarker
	TokenDataSection

	TokenOperator
	TokenPunct // (){}[];,

	TokenComment
	TokenWhitespace
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenUnknown:
		return "Unknown"
	case TokenIdentifier:
		return "Identifier"
	case TokenNumber:
		return "Number"
	case TokenString:
		return "String"
	case TokenInterpolatedStringStart:
		return "InterpolatedStringStart"
	case TokenInterpolatedStringPart:
		return "InterpolatedStringPart"
	case TokenInterpolatedStringEnd:
		return "InterpolatedStringEnd"
	case TokenScalarSigil:
		return "ScalarSigil"
	case TokenArraySigil:
		return "ArraySigil"
	case TokenHashSigil:
		return "HashSigil"
	case TokenSubSigil:
		return "SubSigil"
	case TokenGlobSigil:
		return "GlobSigil"
	case TokenArrow:
		return "Arrow"
	case TokenFatArrow:
		return "FatArrow"
	case TokenHeredocStart:
		return "HeredocStart"
	case TokenHeredocBody:
		return "HeredocBody"
	case TokenHeredocDynamicStart:
		return "HeredocDynamicStart"
	case TokenRegexStart:
		return "RegexStart"
	case TokenRegexBody:
		return "RegexBody"
	case TokenQwList:
		return "QwList"
	case TokenQuoteLike:
		return "QuoteLike"
	case TokenPodBlock:
		return "PodBlock"
	case TokenDataSectionMarker:
		return "DataSectionMarker"
	case TokenDataSection:
		return "DataSection"
	case TokenOperator:
		return "Operator"
	case TokenPunct:
		return "Punct"
	case TokenComment:
		return "Comment"
	case TokenWhitespace:
		return "Whitespace"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token is a single lexeme: its kind, the source slice it covers, and
// its byte-offset span.
type Token struct {
	Kind      TokenKind
	Text      string
	Start     int
	End       int
}

func (t Token) Location() SourceLocation {
	return SourceLocation{Start: t.Start, End: t.End}
}

// Sigil identifies which of Perl's four variable sigils a reference
// uses.
type Sigil byte

const (
	SigilScalar Sigil = '$'
	SigilArray  Sigil = '@'
	SigilHash   Sigil = '%'
	SigilSub    Sigil = '&'
)

func (s Sigil) String() string {
	return string(rune(s))
}

// DeclarationKind identifies how a variable symbol was introduced.
type DeclarationKind int

const (
	DeclarationNone DeclarationKind = iota
	DeclarationMy
	DeclarationOur
	DeclarationLocal
	DeclarationState
)

func (d DeclarationKind) String() string {
	switch d {
	case DeclarationMy:
		return "my"
	case DeclarationOur:
		return "our"
	case DeclarationLocal:
		return "local"
	case DeclarationState:
		return "state"
	default:
		return "none"
	}
}

// SymbolKind classifies a declared name.
type SymbolKind int

const (
	SymbolScalarVar SymbolKind = iota
	SymbolArrayVar
	SymbolHashVar
	SymbolSubroutine
	SymbolPackage
	SymbolConstant
	SymbolLabel
	SymbolFormat
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolScalarVar:
		return "ScalarVar"
	case SymbolArrayVar:
		return "ArrayVar"
	case SymbolHashVar:
		return "HashVar"
	case SymbolSubroutine:
		return "Subroutine"
	case SymbolPackage:
		return "Package"
	case SymbolConstant:
		return "Constant"
	case SymbolLabel:
		return "Label"
	case SymbolFormat:
		return "Format"
	default:
		return fmt.Sprintf("SymbolKind(%d)", int(k))
	}
}

// ScopeKind classifies the lexical role of a Scope.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopePackage
	ScopeSubroutine
	ScopeBlock
	ScopeEval
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "Global"
	case ScopePackage:
		return "Package"
	case ScopeSubroutine:
		return "Subroutine"
	case ScopeBlock:
		return "Block"
	case ScopeEval:
		return "Eval"
	default:
		return fmt.Sprintf("ScopeKind(%d)", int(k))
	}
}

// ScopeID indexes into a SymbolTable's scope list. Scope 0 is always
// the global scope.
type ScopeID int

const GlobalScopeID ScopeID = 0

// Scope is one lexical nesting level.
type Scope struct {
	ID            ScopeID
	Parent        *ScopeID
	Kind          ScopeKind
	Location      SourceLocation
	DeclaredNames []string
}

// Symbol is a declared name: a variable, subroutine, package, constant,
// label, or format.
type Symbol struct {
	Name          string
	QualifiedName string
	Kind          SymbolKind
	Location      SourceLocation
	ScopeID       ScopeID
	Declaration   DeclarationKind
	Attributes    []string
	Documentation string

	// Container is the name of the enclosing package, or the enclosing
	// subroutine for a lexical (my) declaration, as surfaced in
	// WorkspaceSymbol.ContainerName.
	Container string
}

// SymbolReference is an occurrence of a name in expression position.
type SymbolReference struct {
	Name    string
	Kind    SymbolKind
	Location SourceLocation
	ScopeID ScopeID
	IsWrite bool
}

// SymbolTable is the result of extracting an AST: every declared symbol,
// every reference, and the scope tree they live in.
type SymbolTable struct {
	Symbols    map[string][]Symbol
	References map[string][]SymbolReference
	Scopes     []Scope
}

// NewSymbolTable returns an empty table seeded with the global scope.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Symbols:    make(map[string][]Symbol),
		References: make(map[string][]SymbolReference),
		Scopes:     []Scope{{ID: GlobalScopeID, Kind: ScopeGlobal}},
	}
}

// AddSymbol records a new symbol under its name.
func (t *SymbolTable) AddSymbol(sym Symbol) {
	t.Symbols[sym.Name] = append(t.Symbols[sym.Name], sym)
}

// AddReference records a new reference under its name.
func (t *SymbolTable) AddReference(ref SymbolReference) {
	t.References[ref.Name] = append(t.References[ref.Name], ref)
}

// PushScope appends a new scope with the given parent and kind,
// returning its freshly assigned, dense ID.
func (t *SymbolTable) PushScope(parent ScopeID, kind ScopeKind, loc SourceLocation) ScopeID {
	id := ScopeID(len(t.Scopes))
	p := parent
	t.Scopes = append(t.Scopes, Scope{ID: id, Parent: &p, Kind: kind, Location: loc})
	return id
}

// Scope returns the scope with the given id.
func (t *SymbolTable) Scope(id ScopeID) Scope {
	return t.Scopes[id]
}

// IsDescendant reports whether candidate is scope ancestor's descendant
// (or ancestor itself).
func (t *SymbolTable) IsDescendant(candidate, ancestor ScopeID) bool {
	for {
		if candidate == ancestor {
			return true
		}
		s := t.Scopes[candidate]
		if s.Parent == nil {
			return false
		}
		candidate = *s.Parent
	}
}

// FindSymbol walks the scope chain upward from fromScope, returning
// every symbol named name whose kind matches (kind is ignored when
// matchKind is false).
// our-declared symbols are additionally visible from any scope sharing
// their package, handled by the caller via QualifiedName lookups.
func (t *SymbolTable) FindSymbol(name string, fromScope ScopeID, kind SymbolKind, matchKind bool) []Symbol {
	var results []Symbol
	seen := map[ScopeID]bool{}
	scope := fromScope
	for {
		if seen[scope] {
			break
		}
		seen[scope] = true
		for _, sym := range t.Symbols[name] {
			if sym.ScopeID != scope {
				continue
			}
			if matchKind && sym.Kind != kind {
				continue
			}
			results = append(results, sym)
		}
		s := t.Scopes[scope]
		if s.Parent == nil {
			break
		}
		scope = *s.Parent
	}
	return results
}

// FindReferences returns every reference to name whose kind matches and
// whose scope descends from the symbol's declaring scope.
func (t *SymbolTable) FindReferences(sym Symbol) []SymbolReference {
	var results []SymbolReference
	for _, ref := range t.References[sym.Name] {
		if ref.Kind != sym.Kind {
			continue
		}
		if !t.IsDescendant(ref.ScopeID, sym.ScopeID) {
			continue
		}
		results = append(results, ref)
	}
	return results
}

// IndexPhase distinguishes the two sub-states of Building.
type IndexPhase int

const (
	PhaseIdle IndexPhase = iota
	PhaseScanning
)

func (p IndexPhase) String() string {
	if p == PhaseScanning {
		return "Scanning"
	}
	return "Idle"
}

// IndexStateKind names the top-level workspace index state.
type IndexStateKind int

const (
	IndexUninitialized IndexStateKind = iota
	IndexBuilding
	IndexReady
)

// IndexState is the workspace coordinator's state machine value:
// Uninitialized | Building{phase, files_seen, symbols_seen} |
// Ready{file_count, symbol_count}.
type IndexState struct {
	Kind         IndexStateKind
	Phase        IndexPhase // meaningful when Kind == IndexBuilding
	FilesSeen    int
	SymbolsSeen  int
	FileCount    int // meaningful when Kind == IndexReady
	SymbolCount  int // meaningful when Kind == IndexReady
}

func (s IndexState) String() string {
	switch s.Kind {
	case IndexUninitialized:
		return "Uninitialized"
	case IndexBuilding:
		return fmt.Sprintf("Building{%s, files_seen=%d, symbols_seen=%d}", s.Phase, s.FilesSeen, s.SymbolsSeen)
	case IndexReady:
		return fmt.Sprintf("Ready{files=%d, symbols=%d}", s.FileCount, s.SymbolCount)
	default:
		return "Unknown"
	}
}

// WorkspaceSymbol is a Symbol located in a specific document, as
// returned by find_symbols. Range holds the symbol's location converted
// to UTF-16 LSP positions; ContainerName is the enclosing package with
// Perl's legacy `'` package separator normalized to `::`. ID is a short
// opaque token identifying this declaration site, suitable for a host to
// round-trip as a resolve/cache key; it is stable only within one
// document generation, not across edits.
type WorkspaceSymbol struct {
	Symbol        Symbol
	URI           string
	Range         Range
	ContainerName string
	ID            string
}
