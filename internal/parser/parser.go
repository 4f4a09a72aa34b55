// Package parser implements a recursive-descent Perl parser. It
// consumes a lexer.Lexer token stream and produces a types.Tree with
// full source locations, alongside a list of recoverable errors.
package parser

import (
	"github.com/standardbeagle/plsc/internal/antipattern"
	"github.com/standardbeagle/plsc/internal/debug"
	"github.com/standardbeagle/plsc/internal/errors"
	"github.com/standardbeagle/plsc/internal/lexer"
	"github.com/standardbeagle/plsc/internal/types"
)

// syncKeywords are the structural keywords error recovery resumes at,
// in addition to statement-terminating punctuation.
var syncKeywords = map[string]bool{
	"sub": true, "package": true, "use": true, "if": true, "while": true,
	"for": true, "foreach": true, "my": true, "our": true, "local": true,
	"state": true, "return": true,
}

// phaseContext tracks the handful of enclosing constructs the
// anti-pattern detector needs to know about when it sees a heredoc.
type phaseContext int

const (
	ctxNone phaseContext = iota
	ctxBegin
	ctxFormatBody
	ctxEvalString
	ctxRegexCodeBlock
	ctxTiedHandleWrite
)

// Parser holds parse state for a single source buffer. It is not
// reused across buffers; construct a fresh Parser per parse via New.
type Parser struct {
	lex    *lexer.Lexer
	src    []byte
	tree   *types.Tree
	errs   []errors.ParseError
	diags  []antipattern.Diagnostic

	tok     types.Token
	peeked  *types.Token
	prevEnd int

	phaseStack []phaseContext
}

// New returns a Parser over src.
func New(src []byte) *Parser {
	p := &Parser{
		lex:  lexer.New(src),
		src:  src,
		tree: types.NewTree(),
	}
	p.advance()
	return p
}

// Parse runs New(source).ParseProgram and packages the result in the
// shape the external parse API expects. It returns an error only when
// no root node could be produced at all (e.g. a lexer collapse);
// ordinary syntax errors accumulate in the returned ParseResult.
func Parse(src []byte) (*types.ParseResult, error) {
	result, _, err := ParseWithAntiPatterns(src)
	return result, err
}

// ParseWithAntiPatterns is Parse plus the anti-pattern diagnostics
// raised during the parse, for hosts that degrade features on
// statically-unresolvable constructs rather than just reporting syntax
// errors.
func ParseWithAntiPatterns(src []byte) (*types.ParseResult, []antipattern.Diagnostic, error) {
	p := New(src)
	root := p.ParseProgram()
	p.tree.Root = root
	return &types.ParseResult{Tree: p.tree, Errors: p.diagnostics()}, p.diags, nil
}

func (p *Parser) diagnostics() []types.ParseDiagnostic {
	out := make([]types.ParseDiagnostic, 0, len(p.errs))
	for _, e := range p.errs {
		out = append(out, types.ParseDiagnostic{Kind: string(e.Kind), Location: types.SourceLocation{Start: e.At, End: e.End}, Message: e.Message})
	}
	return out
}

// Errors returns every recoverable error accumulated during the parse.
func (p *Parser) Errors() []errors.ParseError {
	return p.errs
}

// AntiPatterns returns every anti-pattern diagnostic raised while
// parsing heredocs in structurally sensitive positions.
func (p *Parser) AntiPatterns() []antipattern.Diagnostic {
	return p.diags
}

func (p *Parser) advance() {
	p.prevEnd = p.tok.End
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
	} else {
		p.tok = p.lex.Next()
	}
	if p.tok.Kind == types.TokenUnknown {
		debug.LogParse("unknown token %q at %d", p.tok.Text, p.tok.Start)
	}
}

// peekNext returns the token after the current one without consuming
// it, caching the lexer's result so it is only produced once.
func (p *Parser) peekNext() types.Token {
	if p.peeked == nil {
		tok := p.lex.Next()
		p.peeked = &tok
	}
	return *p.peeked
}

func (p *Parser) at(kind types.TokenKind) bool {
	return p.tok.Kind == kind
}

func (p *Parser) atPunct(text string) bool {
	return p.tok.Kind == types.TokenPunct && p.tok.Text == text
}

func (p *Parser) atOp(text string) bool {
	return (p.tok.Kind == types.TokenOperator || p.tok.Kind == types.TokenArrow || p.tok.Kind == types.TokenFatArrow) && p.tok.Text == text
}

func (p *Parser) atKeyword(word string) bool {
	return p.tok.Kind == types.TokenIdentifier && p.tok.Text == word
}

func (p *Parser) eof() bool {
	return p.tok.Kind == types.TokenEOF
}

func (p *Parser) errorAt(kind errors.ParseErrorKind, at, end int, msg string) {
	p.errs = append(p.errs, *errors.NewParseError(kind, at, end, msg))
}

// variableName strips the leading sigil from a compound sigil token's
// text, leaving the bare identifier the symbol table keys on. Special
// punctuation variables like $_ keep their single-character name.
func variableName(tokText string) string {
	if len(tokText) > 1 {
		return tokText[1:]
	}
	return tokText
}

// addNode is a thin convenience wrapper over tree.Add.
func (p *Parser) addNode(n types.Node) types.NodeID {
	return p.tree.Add(n)
}

// expectPunct consumes a punctuation token if present; otherwise
// records a missing-token error and does not advance, so the caller's
// recovery logic can decide the next move.
func (p *Parser) expectPunct(text string) bool {
	if p.atPunct(text) {
		p.advance()
		return true
	}
	p.errorAt(errors.ParseErrorMissingToken, p.tok.Start, p.tok.End, "expected '"+text+"'")
	return false
}

// expectOp consumes an operator token if present; otherwise records a
// missing-token error and does not advance.
func (p *Parser) expectOp(text string) bool {
	if p.atOp(text) {
		p.advance()
		return true
	}
	p.errorAt(errors.ParseErrorMissingToken, p.tok.Start, p.tok.End, "expected '"+text+"'")
	return false
}

// recover skips tokens until a statement boundary: `;`, `}` at the
// current nesting, or one of the structural sync keywords.
func (p *Parser) recover() {
	for !p.eof() {
		if p.atPunct(";") {
			p.advance()
			return
		}
		if p.atPunct("}") {
			return
		}
		if p.tok.Kind == types.TokenIdentifier && syncKeywords[p.tok.Text] {
			return
		}
		p.advance()
	}
}

func (p *Parser) errorNode(start int, partial bool, message string) types.NodeID {
	end := p.prevEnd
	if end < start {
		end = start
	}
	return p.addNode(types.Node{Kind: types.NodeError, Location: types.SourceLocation{Start: start, End: end}, Partial: partial, Message: message})
}

// ParseProgram parses `program = statement*` and returns the root
// Program node's ID.
func (p *Parser) ParseProgram() types.NodeID {
	start := p.tok.Start
	var stmts []types.NodeID
	for !p.eof() {
		stmts = append(stmts, p.parseStatement())
	}
	end := p.prevEnd
	if end < start {
		end = start
	}
	return p.addNode(types.Node{Kind: types.NodeProgram, Location: types.SourceLocation{Start: start, End: end}, Children: stmts})
}
