package parser

import (
	"strings"

	"github.com/standardbeagle/plsc/internal/antipattern"
	"github.com/standardbeagle/plsc/internal/errors"
	"github.com/standardbeagle/plsc/internal/types"
)

// hasRegexCodeBlockHeredoc reports whether a regex/match/substitution
// literal's raw text contains a (?{ ... }) code block with a heredoc
// introducer inside it. The literal is lexed as one opaque token, so this
// is a textual scan rather than a structural one: nothing re-parses the
// code block's contents.
func hasRegexCodeBlockHeredoc(text string) bool {
	idx := strings.Index(text, "(?{")
	if idx < 0 {
		return false
	}
	return strings.Contains(text[idx:], "<<")
}

// detectHeredocAntiPattern reports a diagnostic when a heredoc is lexed
// inside one of the structurally sensitive contexts the phase stack
// tracks (BEGIN blocks, string eval, a tied handle's argument list).
// Heredocs in format bodies are reported by parseFormat itself.
func (p *Parser) detectHeredocAntiPattern(node types.NodeID) {
	if len(p.phaseStack) == 0 {
		return
	}
	loc := p.tree.Node(node).Location
	switch p.phaseStack[len(p.phaseStack)-1] {
	case ctxBegin:
		p.diags = append(p.diags, antipattern.Detect(antipattern.PatternBeginTimeHeredoc, loc))
	case ctxEvalString:
		p.diags = append(p.diags, antipattern.Detect(antipattern.PatternEvalStringHeredoc, loc))
	case ctxTiedHandleWrite:
		p.diags = append(p.diags, antipattern.Detect(antipattern.PatternTiedHandleHeredoc, loc))
	}
}

// precedence classes, lowest to highest, matching Perl's operator
// precedence table.
type precedence int

const (
	precLowOr precedence = iota // or, and, not (low-precedence logical)
	precListComma
	precAssignRHS // =, +=, -=, ... (right-assoc)
	precTernary
	precRange
	precLogicalOr // || //
	precLogicalAnd
	precBitwiseOr // | ^
	precBitwiseAnd
	precEquality
	precRelational
	precShift
	precNamedUnary
	precAdditive
	precMultiplicative
	precMatchBind // =~ !~
	precExponent
	precUnary
	precIncrement
	precArrow
	precTerm
)

var binaryOps = map[string]precedence{
	"or": precLowOr, "xor": precLowOr, "and": precLowOr,
	",": precListComma, "=>": precListComma,
	"=": precAssignRHS, "+=": precAssignRHS, "-=": precAssignRHS, "*=": precAssignRHS,
	"/=": precAssignRHS, ".=": precAssignRHS, "//=": precAssignRHS, "||=": precAssignRHS,
	"&&=": precAssignRHS, "x=": precAssignRHS, "**=": precAssignRHS,
	"..": precRange, "...": precRange,
	"||": precLogicalOr, "//": precLogicalOr,
	"&&": precLogicalAnd,
	"|": precBitwiseOr, "^": precBitwiseOr,
	"&": precBitwiseAnd,
	"==": precEquality, "!=": precEquality, "<=>": precEquality, "eq": precEquality, "ne": precEquality, "cmp": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"lt": precRelational, "gt": precRelational, "le": precRelational, "ge": precRelational,
	"<<": precShift, ">>": precShift,
	"+": precAdditive, "-": precAdditive, ".": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative, "x": precMultiplicative,
	"=~": precMatchBind, "!~": precMatchBind,
	"**": precExponent,
}

var rightAssoc = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, ".=": true,
	"//=": true, "||=": true, "&&=": true, "x=": true, "**=": true, "**": true,
}

// namedUnaryBuiltins take exactly one term without needing parens; the
// operand absorbs additive and tighter operators and stops at shift,
// relational and looser ones.
var namedUnaryBuiltins = map[string]bool{
	"defined": true, "ref": true, "scalar": true, "exists": true, "delete": true,
	"chr": true, "ord": true, "lc": true, "uc": true, "lcfirst": true, "ucfirst": true,
	"length": true, "int": true, "abs": true, "not": true, "keys": true, "values": true,
	"shift": true, "pop": true, "wantarray": true,
}

// listOpBuiltins consume a comma-list of arguments, with or without
// parens, and become a FunctionCall node.
var listOpBuiltins = map[string]bool{
	"print": true, "printf": true, "say": true, "push": true, "unshift": true,
	"splice": true, "join": true, "split": true, "bless": true, "die": true,
	"warn": true, "open": true, "close": true, "return": true, "reverse": true,
	"sprintf": true, "each": true, "local": true, "wantarray": true,
}

// blockArgBuiltins take a block as their first argument rather than a
// hash literal when followed by `{`.
var blockArgBuiltins = map[string]bool{
	"sort": true, "map": true, "grep": true,
}

func (p *Parser) parseExpression(minPrec precedence) types.NodeID {
	left := p.parseUnary()
	return p.parseBinaryRHS(left, minPrec)
}

// parseListElement parses one element of a comma-separated list (array
// literal, hash literal, or call argument list). Fat arrow binds a key
// to its value as a pair even though `=>`'s own precedence sits below
// the precAssignRHS ceiling used for ordinary list elements; without
// this, `NAME => VALUE` inside `{...}` or call args would stop at NAME
// and leave the `=>` dangling for the comma-split loop to choke on.
func (p *Parser) parseListElement() types.NodeID {
	elem := p.parseExpression(precAssignRHS)
	if p.tok.Kind == types.TokenFatArrow {
		start := p.tree.Node(elem).Location.Start
		p.advance()
		val := p.parseExpression(precAssignRHS)
		elem = p.addNode(types.Node{Kind: types.NodeAssignment, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Operator: "=>", Left: elem, Right: val})
	}
	return elem
}

func (p *Parser) parseBinaryRHS(left types.NodeID, minPrec precedence) types.NodeID {
	for {
		opText, prec, ok := p.peekBinaryOp()
		if !ok || prec < minPrec {
			return left
		}
		start := p.tree.Node(left).Location.Start
		p.advance()

		if opText == "=>" {
			right := p.parseExpression(precAssignRHS)
			left = p.addNode(types.Node{Kind: types.NodeAssignment, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Operator: "=>", Left: left, Right: right})
			continue
		}

		nextMin := prec + 1
		if rightAssoc[opText] {
			nextMin = prec
		}
		right := p.parseExpression(nextMin)

		kind := types.NodeBinary
		switch {
		case opText == "=" || (len(opText) >= 2 && opText[len(opText)-1] == '=' && opText != "==" && opText != "!=" && opText != "<=" && opText != ">=" && opText != "<=>"):
			kind = types.NodeAssignment
		case opText == "..":
			kind = types.NodeRange
		}

		left = p.addNode(types.Node{Kind: kind, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Operator: opText, Left: left, Right: right})
	}
}

func (p *Parser) peekBinaryOp() (string, precedence, bool) {
	if p.tok.Kind == types.TokenOperator || p.tok.Kind == types.TokenFatArrow {
		if prec, ok := binaryOps[p.tok.Text]; ok {
			return p.tok.Text, prec, true
		}
	}
	if p.tok.Kind == types.TokenPunct && p.tok.Text == "," {
		return ",", precListComma, true
	}
	if p.tok.Kind == types.TokenIdentifier {
		if prec, ok := binaryOps[p.tok.Text]; ok {
			return p.tok.Text, prec, true
		}
	}
	return "", 0, false
}

func (p *Parser) parseUnary() types.NodeID {
	start := p.tok.Start

	if p.tok.Kind == types.TokenOperator && (p.tok.Text == "-" || p.tok.Text == "+" || p.tok.Text == "!" || p.tok.Text == "~" || p.tok.Text == "\\") {
		op := p.tok.Text
		p.advance()
		operand := p.parseExpression(precUnary)
		return p.addNode(types.Node{Kind: types.NodeUnary, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Operator: op, Init: operand})
	}
	if p.tok.Kind == types.TokenOperator && (p.tok.Text == "++" || p.tok.Text == "--") {
		op := p.tok.Text
		p.advance()
		operand := p.parseExpression(precIncrement)
		return p.addNode(types.Node{Kind: types.NodeUnary, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Operator: "pre" + op, Init: operand})
	}
	if p.atKeyword("not") {
		p.advance()
		operand := p.parseExpression(precLowOr)
		return p.addNode(types.Node{Kind: types.NodeUnary, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Operator: "not", Init: operand})
	}
	if p.tok.Kind == types.TokenIdentifier && namedUnaryBuiltins[p.tok.Text] {
		name := p.tok.Text
		p.advance()
		if p.canStartTerm() {
			operand := p.parseExpression(precNamedUnary)
			call := p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Children: []types.NodeID{operand}})
			return p.parsePostfix(call)
		}
		call := p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name})
		return p.parsePostfix(call)
	}

	primary := p.parsePrimary()
	return p.parsePostfix(primary)
}

// canStartTerm reports whether the current token could begin a term,
// used to decide whether a named-unary or list-op builtin consumes a
// following bare argument.
func (p *Parser) canStartTerm() bool {
	switch p.tok.Kind {
	case types.TokenPunct:
		return p.tok.Text == "(" || p.tok.Text == "["
	case types.TokenEOF:
		return false
	}
	if p.tok.Kind == types.TokenOperator || p.tok.Kind == types.TokenFatArrow {
		if _, ok := binaryOps[p.tok.Text]; ok {
			return false
		}
	}
	if p.tok.Kind == types.TokenIdentifier && statementModifierWords[p.tok.Text] {
		return false
	}
	return true
}

func (p *Parser) parseTernary(cond types.NodeID) types.NodeID {
	start := p.tree.Node(cond).Location.Start
	p.advance() // '?'
	then := p.parseExpression(precAssignRHS)
	p.expectOp(":")
	els := p.parseExpression(precTernary)
	return p.addNode(types.Node{Kind: types.NodeTernary, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Cond: cond, Then: then, Else: els})
}

func (p *Parser) parsePrimary() types.NodeID {
	start := p.tok.Start

	switch p.tok.Kind {
	case types.TokenNumber:
		text := p.tok.Text
		p.advance()
		return p.addNode(types.Node{Kind: types.NodeNumber, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Value: text})

	case types.TokenString:
		text := p.tok.Text
		p.advance()
		return p.addNode(types.Node{Kind: types.NodeString, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Value: text})

	case types.TokenInterpolatedStringStart:
		text := p.tok.Text
		p.advance()
		return p.addNode(types.Node{Kind: types.NodeInterpolatedString, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Value: text, Interpolated: true})

	case types.TokenQwList:
		text := p.tok.Text
		p.advance()
		return p.addNode(types.Node{Kind: types.NodeQwList, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Value: text})

	case types.TokenHeredocStart:
		text := p.tok.Text
		p.advance()
		node := p.addNode(types.Node{Kind: types.NodeHeredoc, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Value: text, Interpolated: true})
		p.detectHeredocAntiPattern(node)
		return node

	case types.TokenHeredocDynamicStart:
		text := p.tok.Text
		p.advance()
		loc := types.SourceLocation{Start: start, End: p.prevEnd}
		p.diags = append(p.diags, antipattern.Detect(antipattern.PatternDynamicHeredocDelimiter, loc))
		return p.errorNode(start, false, "heredoc terminator is a runtime expression: "+text)

	case types.TokenRegexStart, types.TokenQuoteLike:
		text := p.tok.Text
		kind := types.NodeRegex
		if len(text) > 0 && text[0] == 's' {
			kind = types.NodeSubstitution
		} else if len(text) > 1 && (text[:2] == "tr" || text[:1] == "y") {
			kind = types.NodeTransliteration
		} else if len(text) > 0 && text[0] == 'm' {
			kind = types.NodeMatch
		}
		p.advance()
		loc := types.SourceLocation{Start: start, End: p.prevEnd}
		if hasRegexCodeBlockHeredoc(text) {
			p.diags = append(p.diags, antipattern.Detect(antipattern.PatternRegexCodeBlockHeredoc, loc))
		}
		return p.addNode(types.Node{Kind: kind, Location: loc, Value: text})

	case types.TokenScalarSigil, types.TokenArraySigil, types.TokenHashSigil, types.TokenSubSigil:
		sigil := sigilForTokenKind(p.tok.Kind)
		text := p.tok.Text
		p.advance()
		if p.atPunct("{") && (sigil == types.SigilScalar || sigil == types.SigilArray || sigil == types.SigilHash) && text == string(rune(sigil)) {
			// Bare sigil dereference block: ${ EXPR }, @{ EXPR }, %{ EXPR }
			p.advance()
			inner := p.parseExpression(precLowOr)
			p.expectPunct("}")
			return p.addNode(types.Node{Kind: types.NodeDereference, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Sigil: sigil, Init: inner})
		}
		return p.addNode(types.Node{Kind: types.NodeVariable, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Sigil: sigil, Name: variableName(text)})

	case types.TokenPunct:
		switch p.tok.Text {
		case "(":
			p.advance()
			if p.atPunct(")") {
				p.advance()
				return p.addNode(types.Node{Kind: types.NodeListExpr, Location: types.SourceLocation{Start: start, End: p.prevEnd}})
			}
			inner := p.parseListElement()
			if n := p.tree.Node(inner); n.Kind == types.NodeAssignment && n.Operator == "=>" {
				// A parenthesized list opening with a KEY => VALUE pair is a hash literal.
				pairs := []types.NodeID{inner}
				for p.atPunct(",") {
					p.advance()
					if p.atPunct(")") {
						break
					}
					pairs = append(pairs, p.parseListElement())
				}
				p.expectPunct(")")
				return p.addNode(types.Node{Kind: types.NodeHashLiteral, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Children: pairs})
			}
			inner = p.parseBinaryRHS(inner, precListComma)
			p.expectPunct(")")
			return inner
		case "[":
			p.advance()
			var elems []types.NodeID
			for !p.eof() && !p.atPunct("]") {
				elems = append(elems, p.parseListElement())
				if p.atPunct(",") {
					p.advance()
				}
			}
			p.expectPunct("]")
			return p.addNode(types.Node{Kind: types.NodeArrayLiteral, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Children: elems})
		case "{":
			p.advance()
			var pairs []types.NodeID
			for !p.eof() && !p.atPunct("}") {
				pairs = append(pairs, p.parseListElement())
				if p.atPunct(",") {
					p.advance()
				}
			}
			p.expectPunct("}")
			return p.addNode(types.Node{Kind: types.NodeHashLiteral, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Children: pairs})
		}

	case types.TokenIdentifier:
		return p.parseIdentifierPrimary(start)
	}

	p.errorAt(errors.ParseErrorUnexpectedToken, p.tok.Start, p.tok.End, "unexpected token in expression")
	errNode := p.errorNode(start, false, "expected expression")
	if !p.eof() && !p.atPunct(";") && !p.atPunct("}") {
		p.advance()
	}
	return errNode
}

func (p *Parser) parseIdentifierPrimary(start int) types.NodeID {
	name := p.tok.Text

	switch name {
	case "sub":
		return p.parseSubroutine()
	case "do":
		p.advance()
		if p.atPunct("{") {
			return p.parseBlock()
		}
		return p.parseExpression(precTerm)
	case "eval":
		p.advance()
		if p.atPunct("{") {
			p.phaseStack = append(p.phaseStack, ctxNone)
			body := p.parseBlock()
			p.phaseStack = p.phaseStack[:len(p.phaseStack)-1]
			return p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: "eval", Children: []types.NodeID{body}})
		}
		p.phaseStack = append(p.phaseStack, ctxEvalString)
		arg := p.parseListElement()
		p.phaseStack = p.phaseStack[:len(p.phaseStack)-1]
		return p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: "eval", Children: []types.NodeID{arg}})
	case "undef":
		p.advance()
		return p.addNode(types.Node{Kind: types.NodeBareword, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Value: "undef"})
	case "__PACKAGE__", "__LINE__", "__FILE__", "__SUB__":
		p.advance()
		return p.addNode(types.Node{Kind: types.NodeBareword, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Value: name})
	}

	p.advance()

	if (name == "print" || name == "printf" || name == "say") && p.atPunct("{") {
		// Indirect-object filehandle form: print {EXPR} LIST. EXPR is
		// commonly a tied handle, so a heredoc among the arguments is
		// flagged: a tied handle's PRINT method may transform it.
		handle := p.parseBlock()
		p.phaseStack = append(p.phaseStack, ctxTiedHandleWrite)
		var args []types.NodeID
		for !p.atPunct(";") && !p.eof() && !p.atPunct(")") && !p.atPunct("}") {
			args = append(args, p.parseListElement())
			if p.atPunct(",") {
				p.advance()
			} else {
				break
			}
		}
		p.phaseStack = p.phaseStack[:len(p.phaseStack)-1]
		children := append([]types.NodeID{handle}, args...)
		return p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Children: children})
	}

	if blockArgBuiltins[name] && p.atPunct("{") {
		block := p.parseBlock()
		var args []types.NodeID
		for !p.atPunct(";") && !p.eof() && !p.atPunct(")") && !p.atPunct("}") {
			args = append(args, p.parseListElement())
			if p.atPunct(",") {
				p.advance()
			} else {
				break
			}
		}
		children := append([]types.NodeID{block}, args...)
		return p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Children: children})
	}

	if p.atPunct("(") {
		p.advance()
		var args []types.NodeID
		for !p.eof() && !p.atPunct(")") {
			args = append(args, p.parseListElement())
			if p.atPunct(",") {
				p.advance()
			}
		}
		p.expectPunct(")")
		return p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Children: args})
	}

	if (listOpBuiltins[name] || isKnownBuiltin(name)) && p.canStartTerm() {
		var args []types.NodeID
		args = append(args, p.parseListElement())
		for p.atPunct(",") {
			p.advance()
			if !p.canStartTerm() {
				break
			}
			args = append(args, p.parseListElement())
		}
		return p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Children: args})
	}

	if listOpBuiltins[name] || isKnownBuiltin(name) {
		// Nullary call: a builtin immediately followed by a binary
		// operator or statement end is called with zero arguments.
		return p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name})
	}

	return p.addNode(types.Node{Kind: types.NodeBareword, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Value: name})
}

var extraBuiltins = map[string]bool{
	"caller": true, "chomp": true, "chop": true, "lock": true, "exit": true,
	"sprintf": true, "rand": true, "srand": true, "time": true, "sleep": true,
}

func isKnownBuiltin(name string) bool {
	return namedUnaryBuiltins[name] || listOpBuiltins[name] || blockArgBuiltins[name] || extraBuiltins[name]
}

// parsePostfix wraps expr with subscript, method-call, dereference-
// arrow, and function-call-on-coderef chains, plus the ternary
// operator, which needs the fully-built LHS first.
func (p *Parser) parsePostfix(expr types.NodeID) types.NodeID {
	for {
		start := p.tree.Node(expr).Location.Start

		switch {
		case p.atPunct("["):
			p.advance()
			idx := p.parseExpression(precListComma)
			p.expectPunct("]")
			expr = p.addNode(types.Node{Kind: types.NodeSubscript, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: expr, Init: idx})

		case p.atPunct("{") && p.subscriptBraceAhead():
			p.advance()
			key := p.parseExpression(precListComma)
			p.expectPunct("}")
			expr = p.addNode(types.Node{Kind: types.NodeHashSubscript, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: expr, Init: key})

		case p.at(types.TokenArrow):
			p.advance()
			expr = p.parseArrowPostfix(expr, start)

		case p.atPunct("(") && p.tree.Node(expr).Kind != types.NodeFunctionCall:
			p.advance()
			var args []types.NodeID
			for !p.eof() && !p.atPunct(")") {
				args = append(args, p.parseListElement())
				if p.atPunct(",") {
					p.advance()
				}
			}
			p.expectPunct(")")
			expr = p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: expr, Children: args})

		case p.atOp("?"):
			expr = p.parseTernary(expr)

		default:
			return expr
		}
	}
}

// subscriptBraceAhead distinguishes a hash-subscript `{key}` from an
// unrelated following block; in postfix position after a term, `{`
// is always a subscript.
func (p *Parser) subscriptBraceAhead() bool {
	return true
}

func (p *Parser) parseArrowPostfix(object types.NodeID, start int) types.NodeID {
	switch {
	case p.atPunct("["):
		p.advance()
		idx := p.parseExpression(precListComma)
		p.expectPunct("]")
		return p.addNode(types.Node{Kind: types.NodeSubscript, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: object, Init: idx})
	case p.atPunct("{"):
		p.advance()
		key := p.parseExpression(precListComma)
		p.expectPunct("}")
		return p.addNode(types.Node{Kind: types.NodeHashSubscript, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: object, Init: key})
	case p.atPunct("("):
		p.advance()
		var args []types.NodeID
		for !p.eof() && !p.atPunct(")") {
			args = append(args, p.parseListElement())
			if p.atPunct(",") {
				p.advance()
			}
		}
		p.expectPunct(")")
		return p.addNode(types.Node{Kind: types.NodeFunctionCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: object, Children: args})
	case p.tok.Kind == types.TokenArraySigil && p.tok.Text == "@" && p.peekIsPostfixDerefStar():
		return p.parsePostfixDeref(object, start, types.SigilArray)
	case p.tok.Kind == types.TokenHashSigil && p.tok.Text == "%" && p.peekIsPostfixDerefStar():
		return p.parsePostfixDeref(object, start, types.SigilHash)
	case p.tok.Kind == types.TokenScalarSigil && p.tok.Text == "$" && p.peekIsPostfixDerefStar():
		return p.parsePostfixDeref(object, start, types.SigilScalar)
	case p.tok.Kind == types.TokenSubSigil && p.tok.Text == "&" && p.peekIsPostfixDerefStar():
		return p.parsePostfixDeref(object, start, types.SigilSub)
	case p.tok.Kind == types.TokenOperator && p.tok.Text == "*":
		p.advance()
		if p.atOp("*") {
			p.advance()
		}
		return p.addNode(types.Node{Kind: types.NodeDereference, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: object})
	case p.tok.Kind == types.TokenIdentifier:
		method := p.tok.Text
		p.advance()
		var args []types.NodeID
		if p.atPunct("(") {
			p.advance()
			for !p.eof() && !p.atPunct(")") {
				args = append(args, p.parseListElement())
				if p.atPunct(",") {
					p.advance()
				}
			}
			p.expectPunct(")")
		}
		return p.addNode(types.Node{Kind: types.NodeMethodCall, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: object, Name: method, Children: args})
	}
	p.errorAt(errors.ParseErrorUnexpectedToken, p.tok.Start, p.tok.End, "expected method name, subscript, or dereference after '->'")
	return object
}

// peekIsPostfixDerefStar checks for the `*` that follows a sigil in
// postfix dereference syntax (->@*, ->%*, ->$*, ->&*) without
// consuming the sigil; the sigil itself was already the lookahead
// token, so this only needs to confirm the following token is `*`.
func (p *Parser) peekIsPostfixDerefStar() bool {
	la := p.peekNext()
	return la.Kind == types.TokenOperator && la.Text == "*"
}

func (p *Parser) parsePostfixDeref(object types.NodeID, start int, sigil types.Sigil) types.NodeID {
	p.advance() // sigil
	p.advance() // '*'
	if p.atPunct("[") {
		p.advance()
		idx := p.parseExpression(precListComma)
		p.expectPunct("]")
		return p.addNode(types.Node{Kind: types.NodeDereference, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: object, Sigil: sigil, Init: idx})
	}
	if p.atPunct("{") {
		p.advance()
		key := p.parseExpression(precListComma)
		p.expectPunct("}")
		return p.addNode(types.Node{Kind: types.NodeDereference, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: object, Sigil: sigil, Init: key})
	}
	return p.addNode(types.Node{Kind: types.NodeDereference, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Object: object, Sigil: sigil})
}
