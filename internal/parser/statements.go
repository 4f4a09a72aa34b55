package parser

import (
	"github.com/standardbeagle/plsc/internal/antipattern"
	"github.com/standardbeagle/plsc/internal/errors"
	"github.com/standardbeagle/plsc/internal/types"
)

var declaratorWords = map[string]types.DeclarationKind{
	"my": types.DeclarationMy, "our": types.DeclarationOur,
	"local": types.DeclarationLocal, "state": types.DeclarationState,
}

var statementModifierWords = map[string]bool{
	"if": true, "unless": true, "while": true, "until": true, "for": true, "foreach": true,
}

func (p *Parser) parseStatement() types.NodeID {
	start := p.tok.Start

	if p.atPunct("{") {
		return p.wrapModifier(p.parseBlock())
	}
	if p.atPunct(";") {
		p.advance()
		return p.addNode(types.Node{Kind: types.NodeBlock, Location: types.SourceLocation{Start: start, End: p.prevEnd}})
	}
	if p.atPunct("}") {
		// Block contexts stop on `}` before dispatching a statement, so
		// one seen here has no matching `{`. Consume it so parsing
		// always makes progress, and keep going with the rest of the
		// input.
		p.errorAt(errors.ParseErrorUnexpectedToken, p.tok.Start, p.tok.End, "unmatched '}'")
		p.advance()
		return p.errorNode(start, false, "unmatched '}'")
	}

	if p.tok.Kind == types.TokenIdentifier {
		switch p.tok.Text {
		case "if", "unless":
			return p.parseIf()
		case "while", "until":
			return p.parseWhile()
		case "for", "foreach":
			return p.parseForOrForeach()
		case "sub":
			return p.parseSubroutine()
		case "package":
			return p.parsePackage()
		case "class":
			return p.parseClass()
		case "method":
			return p.parseMethod()
		case "use":
			return p.parseUse(false)
		case "no":
			return p.parseUse(true)
		case "try":
			return p.wrapModifier(p.parseTry())
		case "return":
			return p.wrapModifier(p.parseReturn())
		case "last", "next", "redo":
			return p.wrapModifier(p.parseLoopControl())
		case "given":
			return p.parseGiven()
		case "when":
			return p.parseWhen()
		case "default":
			return p.parseDefault()
		case "format":
			return p.parseFormat()
		case "BEGIN", "END", "INIT", "CHECK", "UNITCHECK":
			return p.parsePhaserBlock()
		}
		if declKind, ok := declaratorWords[p.tok.Text]; ok {
			return p.wrapModifier(p.parseVariableDeclaration(declKind))
		}
		if p.tok.Kind == types.TokenIdentifier && p.isLabelAhead() {
			return p.parseLabel()
		}
	}

	return p.wrapModifier(p.parseExpressionStatement())
}

// isLabelAhead reports whether the current identifier is immediately
// followed by a lone `:` (not `::`), the mark of a loop label.
func (p *Parser) isLabelAhead() bool {
	la := p.peekNext()
	return la.Kind == types.TokenOperator && la.Text == ":"
}

func (p *Parser) parseLabel() types.NodeID {
	start := p.tok.Start
	name := p.tok.Text
	p.advance()
	p.advance() // ':'
	body := p.parseStatement()
	return p.addNode(types.Node{Kind: types.NodeLabel, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Body: body})
}

// wrapModifier checks for a trailing statement modifier (if/unless/
// while/until/for/foreach EXPR;) and, if present, wraps stmt in a
// StatementModifier node before consuming the terminating `;`.
func (p *Parser) wrapModifier(stmt types.NodeID) types.NodeID {
	if p.tok.Kind == types.TokenIdentifier && statementModifierWords[p.tok.Text] {
		start := p.tree.Node(stmt).Location.Start
		modName := p.tok.Text
		p.advance()
		cond := p.parseExpression(precLowOr)
		p.consumeStatementTerminator()
		return p.addNode(types.Node{
			Kind:     types.NodeStatementModifier,
			Location: types.SourceLocation{Start: start, End: p.prevEnd},
			Operator: modName,
			Body:     stmt,
			Cond:     cond,
		})
	}
	p.consumeStatementTerminator()
	return stmt
}

func (p *Parser) consumeStatementTerminator() {
	if p.atPunct(";") {
		p.advance()
		return
	}
	if p.atPunct("}") || p.eof() {
		return
	}
	p.errorAt(errors.ParseErrorMissingToken, p.tok.Start, p.tok.End, "expected ';'")
	p.recover()
}

func (p *Parser) parseBlock() types.NodeID {
	start := p.tok.Start
	p.expectPunct("{")
	var stmts []types.NodeID
	for !p.eof() && !p.atPunct("}") {
		stmts = append(stmts, p.parseStatement())
	}
	if !p.expectPunct("}") {
		return p.errorNode(start, true, "unterminated block")
	}
	return p.addNode(types.Node{Kind: types.NodeBlock, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Children: stmts})
}

func (p *Parser) parseIf() types.NodeID {
	start := p.tok.Start
	p.advance() // if/unless
	p.expectPunct("(")
	cond := p.parseExpression(precLowOr)
	p.expectPunct(")")
	then := p.parseBlock()

	var elsifs []types.ElsifClause
	var elseBody types.NodeID = types.InvalidNodeID
	for p.atKeyword("elsif") {
		p.advance()
		p.expectPunct("(")
		c := p.parseExpression(precLowOr)
		p.expectPunct(")")
		b := p.parseBlock()
		elsifs = append(elsifs, types.ElsifClause{Cond: c, Then: b})
	}
	if p.atKeyword("else") {
		p.advance()
		elseBody = p.parseBlock()
	}

	return p.addNode(types.Node{
		Kind: types.NodeIf, Location: types.SourceLocation{Start: start, End: p.prevEnd},
		Cond: cond, Then: then, Else: elseBody, Elsifs: elsifs,
	})
}

func (p *Parser) parseWhile() types.NodeID {
	start := p.tok.Start
	kind := types.NodeWhile
	if p.tok.Text == "until" {
		kind = types.NodeUntil
	}
	p.advance()
	var label string
	if p.atPunct("(") {
		p.advance()
		cond := p.parseExpression(precLowOr)
		p.expectPunct(")")
		body := p.parseBlock()
		return p.addNode(types.Node{Kind: kind, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Cond: cond, Body: body, Label: label})
	}
	p.errorAt(errors.ParseErrorUnexpectedToken, p.tok.Start, p.tok.End, "expected '(' after while/until")
	return p.errorNode(start, false, "malformed while/until")
}

func (p *Parser) parseForOrForeach() types.NodeID {
	start := p.tok.Start
	p.advance() // for/foreach

	if declKind, ok := declaratorWords[p.tok.Text]; ok {
		p.advance()
		varStart := p.tok.Start
		sigil := types.Sigil(p.tok.Text[0])
		name := variableName(p.tok.Text)
		p.advance()
		variable := p.addNode(types.Node{Kind: types.NodeVariable, Location: types.SourceLocation{Start: varStart, End: p.prevEnd}, Sigil: sigil, Name: name, Declaration: declKind})
		p.expectPunct("(")
		list := p.parseExpression(precLowOr)
		p.expectPunct(")")
		body := p.parseBlock()
		return p.addNode(types.Node{Kind: types.NodeForeach, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Init: variable, Body: body, Left: list})
	}

	if p.tok.Kind == types.TokenScalarSigil {
		varStart := p.tok.Start
		name := variableName(p.tok.Text)
		p.advance()
		variable := p.addNode(types.Node{Kind: types.NodeVariable, Location: types.SourceLocation{Start: varStart, End: p.prevEnd}, Sigil: types.SigilScalar, Name: name})
		p.expectPunct("(")
		list := p.parseExpression(precLowOr)
		p.expectPunct(")")
		body := p.parseBlock()
		return p.addNode(types.Node{Kind: types.NodeForeach, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Init: variable, Body: body, Left: list})
	}

	// C-style for(init; cond; update) or foreach(LIST)
	p.expectPunct("(")
	firstExpr := types.NodeID(types.InvalidNodeID)
	if !p.atPunct(";") {
		firstExpr = p.parseExpression(precListComma)
	}
	if p.atPunct(";") {
		p.advance()
		var cond types.NodeID = types.InvalidNodeID
		if !p.atPunct(";") {
			cond = p.parseExpression(precLowOr)
		}
		p.expectPunct(";")
		var update types.NodeID = types.InvalidNodeID
		if !p.atPunct(")") {
			update = p.parseExpression(precListComma)
		}
		p.expectPunct(")")
		body := p.parseBlock()
		return p.addNode(types.Node{Kind: types.NodeFor, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Init: firstExpr, Cond: cond, Update: update, Body: body})
	}

	p.expectPunct(")")
	body := p.parseBlock()
	return p.addNode(types.Node{Kind: types.NodeForeach, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Left: firstExpr, Body: body})
}

func (p *Parser) parseVariableDeclaration(declKind types.DeclarationKind) types.NodeID {
	start := p.tok.Start
	p.advance() // my/our/local/state

	varStart := p.tok.Start
	var variable types.NodeID
	if p.tok.Kind == types.TokenScalarSigil || p.tok.Kind == types.TokenArraySigil || p.tok.Kind == types.TokenHashSigil {
		sigil := sigilForTokenKind(p.tok.Kind)
		name := variableName(p.tok.Text)
		p.advance()
		variable = p.addNode(types.Node{Kind: types.NodeVariable, Location: types.SourceLocation{Start: varStart, End: p.prevEnd}, Sigil: sigil, Name: name, Declaration: declKind})
	} else if p.atPunct("(") {
		p.advance()
		var vars []types.NodeID
		for !p.eof() && !p.atPunct(")") {
			if p.tok.Kind == types.TokenScalarSigil || p.tok.Kind == types.TokenArraySigil || p.tok.Kind == types.TokenHashSigil {
				vs := p.tok.Start
				sigil := sigilForTokenKind(p.tok.Kind)
				name := variableName(p.tok.Text)
				p.advance()
				vars = append(vars, p.addNode(types.Node{Kind: types.NodeVariable, Location: types.SourceLocation{Start: vs, End: p.prevEnd}, Sigil: sigil, Name: name, Declaration: declKind}))
			}
			if p.atPunct(",") {
				p.advance()
			}
		}
		p.expectPunct(")")
		variable = p.addNode(types.Node{Kind: types.NodeListExpr, Location: types.SourceLocation{Start: varStart, End: p.prevEnd}, Children: vars})
	} else {
		p.errorAt(errors.ParseErrorUnexpectedToken, p.tok.Start, p.tok.End, "expected variable after declarator")
		return p.errorNode(start, false, "malformed variable declaration")
	}

	var attrs []string
	for p.atOp(":") {
		p.advance()
		if p.tok.Kind == types.TokenIdentifier {
			attrs = append(attrs, p.tok.Text)
			p.advance()
		}
	}

	var init types.NodeID = types.InvalidNodeID
	if p.atOp("=") {
		p.advance()
		init = p.parseExpression(precAssignRHS)
	}

	return p.addNode(types.Node{
		Kind: types.NodeVariableDeclaration, Location: types.SourceLocation{Start: start, End: p.prevEnd},
		Init: init, Left: variable, Declaration: declKind, Attributes: attrs,
	})
}

func sigilForTokenKind(k types.TokenKind) types.Sigil {
	switch k {
	case types.TokenScalarSigil:
		return types.SigilScalar
	case types.TokenArraySigil:
		return types.SigilArray
	case types.TokenHashSigil:
		return types.SigilHash
	default:
		return types.SigilSub
	}
}

func (p *Parser) parseSubroutine() types.NodeID {
	start := p.tok.Start
	p.advance() // sub
	name := ""
	if p.tok.Kind == types.TokenIdentifier {
		name = p.tok.Text
		p.advance()
	}

	var params []types.NodeID
	hasSignature := false
	if p.atPunct("(") {
		hasSignature = true
		params = p.parseSignature()
	}

	var attrs []string
	for p.atOp(":") {
		p.advance()
		if p.tok.Kind == types.TokenIdentifier {
			attrs = append(attrs, p.tok.Text)
			p.advance()
			if p.atPunct("(") {
				depth := 0
				for !p.eof() {
					if p.atPunct("(") {
						depth++
					}
					if p.atPunct(")") {
						depth--
						p.advance()
						if depth == 0 {
							break
						}
						continue
					}
					p.advance()
				}
			}
		}
	}

	if p.atPunct(";") {
		p.advance()
		return p.addNode(types.Node{Kind: types.NodeSubroutine, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Params: params, Attributes: attrs})
	}

	var body types.NodeID = types.InvalidNodeID
	if p.atPunct("{") {
		body = p.parseBlock()
	}
	_ = hasSignature
	kind := types.NodeSubroutine
	if name == "" {
		kind = types.NodeAnonSub
	}
	return p.addNode(types.Node{Kind: kind, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Params: params, Attributes: attrs, Body: body})
}

// parseSignature parses a mandatory/optional-with-default/slurpy
// parameter list: `($a, $b = 1, @rest)`. Each parameter is a $, @ or %
// variable; named parameters are not recognized.
func (p *Parser) parseSignature() []types.NodeID {
	p.expectPunct("(")
	var params []types.NodeID
	for !p.eof() && !p.atPunct(")") {
		pStart := p.tok.Start
		if p.tok.Kind != types.TokenScalarSigil && p.tok.Kind != types.TokenArraySigil && p.tok.Kind != types.TokenHashSigil {
			p.errorAt(errors.ParseErrorInvalidSignature, p.tok.Start, p.tok.End, "expected parameter")
			// A block opener or structural keyword means the signature
			// was never closed; stop here rather than swallowing the
			// statements that follow.
			if p.atPunct("{") || (p.tok.Kind == types.TokenIdentifier && syncKeywords[p.tok.Text]) {
				break
			}
			p.advance()
			continue
		}
		sigil := sigilForTokenKind(p.tok.Kind)
		name := variableName(p.tok.Text)
		p.advance()
		var def types.NodeID = types.InvalidNodeID
		if p.atOp("=") {
			p.advance()
			def = p.parseExpression(precAssignRHS)
		}
		params = append(params, p.addNode(types.Node{Kind: types.NodeSignatureParam, Location: types.SourceLocation{Start: pStart, End: p.prevEnd}, Sigil: sigil, Name: name, Init: def}))
		if p.atPunct(",") {
			p.advance()
		}
	}
	p.expectPunct(")")
	return params
}

func (p *Parser) parsePackage() types.NodeID {
	start := p.tok.Start
	p.advance()
	name := ""
	if p.tok.Kind == types.TokenIdentifier {
		name = p.tok.Text
		p.advance()
	}
	if p.tok.Kind == types.TokenNumber {
		p.advance() // version number
	}
	var body types.NodeID = types.InvalidNodeID
	if p.atPunct("{") {
		body = p.parseBlock()
	} else {
		p.consumeStatementTerminator()
	}
	return p.addNode(types.Node{Kind: types.NodePackage, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Body: body})
}

func (p *Parser) parseClass() types.NodeID {
	start := p.tok.Start
	p.advance()
	name := ""
	if p.tok.Kind == types.TokenIdentifier {
		name = p.tok.Text
		p.advance()
	}
	if p.atOp(":") {
		p.advance()
	}
	if p.tok.Kind == types.TokenNumber {
		p.advance()
	}
	var body types.NodeID = types.InvalidNodeID
	if p.atPunct("{") {
		body = p.parseBlock()
	} else {
		p.consumeStatementTerminator()
	}
	return p.addNode(types.Node{Kind: types.NodeClass, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Body: body})
}

func (p *Parser) parseMethod() types.NodeID {
	start := p.tok.Start
	p.advance()
	name := ""
	if p.tok.Kind == types.TokenIdentifier {
		name = p.tok.Text
		p.advance()
	}
	var params []types.NodeID
	if p.atPunct("(") {
		params = p.parseSignature()
	}
	body := p.parseBlock()
	return p.addNode(types.Node{Kind: types.NodeMethod, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Params: params, Body: body})
}

func (p *Parser) parseUse(negated bool) types.NodeID {
	start := p.tok.Start
	p.advance() // use/no
	name := ""
	if p.tok.Kind == types.TokenIdentifier {
		name = p.tok.Text
		p.advance()
		for p.atOp("::") {
			p.advance()
			if p.tok.Kind == types.TokenIdentifier {
				name += "::" + p.tok.Text
				p.advance()
			}
		}
	}
	kind := types.NodeUse
	if negated {
		kind = types.NodeNo
	}
	if len(name) > 7 && name[:7] == "Filter:" {
		kind = types.NodeSourceFilter
	}

	var init types.NodeID = types.InvalidNodeID
	if kind == types.NodeUse && name == "constant" && !p.atPunct(";") && !p.eof() {
		init = p.parseExpression(precListComma)
	}
	for !p.eof() && !p.atPunct(";") {
		p.advance()
	}
	p.consumeStatementTerminator()
	node := p.addNode(types.Node{Kind: kind, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Init: init})
	if kind == types.NodeSourceFilter {
		loc := p.tree.Node(node).Location
		p.diags = append(p.diags, antipattern.Detect(antipattern.PatternSourceFilter, loc))
	}
	return node
}

func (p *Parser) parseTry() types.NodeID {
	start := p.tok.Start
	p.advance() // try
	body := p.parseBlock()
	var catches []types.CatchClause
	for p.atKeyword("catch") {
		p.advance()
		variable := ""
		if p.atPunct("(") {
			p.advance()
			if p.tok.Kind == types.TokenScalarSigil {
				variable = variableName(p.tok.Text)
				p.advance()
			}
			p.expectPunct(")")
		}
		cBody := p.parseBlock()
		catches = append(catches, types.CatchClause{Variable: variable, Body: cBody})
	}
	var finally types.NodeID = types.InvalidNodeID
	if p.atKeyword("finally") {
		p.advance()
		finally = p.parseBlock()
	}
	return p.addNode(types.Node{Kind: types.NodeTry, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Body: body, CatchBlocks: catches, Finally: finally})
}

func (p *Parser) parseReturn() types.NodeID {
	start := p.tok.Start
	p.advance()
	var value types.NodeID = types.InvalidNodeID
	if !p.atPunct(";") && !p.atPunct("}") && !p.eof() {
		value = p.parseExpression(precListComma)
	}
	return p.addNode(types.Node{Kind: types.NodeReturn, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Init: value})
}

func (p *Parser) parseLoopControl() types.NodeID {
	start := p.tok.Start
	op := p.tok.Text
	p.advance()
	label := ""
	if p.tok.Kind == types.TokenIdentifier && !statementModifierWords[p.tok.Text] {
		label = p.tok.Text
		p.advance()
	}
	return p.addNode(types.Node{Kind: types.NodeLoopControl, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Operator: op, Label: label})
}

func (p *Parser) parseGiven() types.NodeID {
	start := p.tok.Start
	p.advance()
	p.expectPunct("(")
	topic := p.parseExpression(precLowOr)
	p.expectPunct(")")
	body := p.parseBlock()
	return p.addNode(types.Node{Kind: types.NodeGiven, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Cond: topic, Body: body})
}

func (p *Parser) parseWhen() types.NodeID {
	start := p.tok.Start
	p.advance()
	p.expectPunct("(")
	cond := p.parseExpression(precLowOr)
	p.expectPunct(")")
	body := p.parseBlock()
	return p.addNode(types.Node{Kind: types.NodeWhen, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Cond: cond, Body: body})
}

func (p *Parser) parseDefault() types.NodeID {
	start := p.tok.Start
	p.advance()
	body := p.parseBlock()
	return p.addNode(types.Node{Kind: types.NodeDefault, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Body: body})
}

// parseFormat handles `format NAME = ... .`; the body between `=` and
// the lone `.` terminator is format-text, not Perl code, and is
// consumed verbatim. A heredoc introducer inside it is reported here
// directly as a format-heredoc anti-pattern.
func (p *Parser) parseFormat() types.NodeID {
	start := p.tok.Start
	p.advance() // format
	name := ""
	if p.tok.Kind == types.TokenIdentifier {
		name = p.tok.Text
		p.advance()
	}
	p.phaseStack = append(p.phaseStack, ctxFormatBody)
	if p.atOp("=") {
		p.advance()
	}
	for !p.eof() {
		if p.tok.Kind == types.TokenHeredocStart {
			loc := p.tok.Location()
			p.diags = append(p.diags, antipattern.Detect(antipattern.PatternFormatHeredoc, loc))
		}
		if p.atPunct(".") || p.atOp(".") {
			p.advance()
			break
		}
		p.advance()
	}
	p.phaseStack = p.phaseStack[:len(p.phaseStack)-1]
	return p.addNode(types.Node{Kind: types.NodeFormat, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name})
}

// parsePhaserBlock handles the named phaser blocks (BEGIN/END/INIT/
// CHECK/UNITCHECK). BEGIN bodies run at compile time, before the rest
// of the file is parsed, so a heredoc inside one is flagged.
func (p *Parser) parsePhaserBlock() types.NodeID {
	start := p.tok.Start
	name := p.tok.Text
	p.advance()
	if name == "BEGIN" {
		p.phaseStack = append(p.phaseStack, ctxBegin)
	} else {
		p.phaseStack = append(p.phaseStack, ctxNone)
	}
	body := p.parseBlock()
	p.phaseStack = p.phaseStack[:len(p.phaseStack)-1]
	return p.addNode(types.Node{Kind: types.NodeSubroutine, Location: types.SourceLocation{Start: start, End: p.prevEnd}, Name: name, Body: body})
}

func (p *Parser) parseExpressionStatement() types.NodeID {
	start := p.tok.Start
	expr := p.parseExpression(precListComma)
	if expr == types.InvalidNodeID {
		return p.errorNode(start, false, "expected expression")
	}
	return expr
}
