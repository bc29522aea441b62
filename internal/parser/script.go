package parser

import (
	"numexpr/internal/ast"
	"numexpr/internal/errors"
	"numexpr/internal/lexer"
)

// ScriptParser parses the indentation-based multi-statement kernel
// grammar into the same ast.Arena the algebraic Parser uses.
// It embeds Parser and reuses its expression-precedence chain
// unchanged — "where(...)" (a keyword token in this grammar) and
// reduction calls go through the normal Call node path in parseCall.
type ScriptParser struct {
	*Parser
}

func NewScriptParser(tokens []lexer.Token) *ScriptParser {
	return &ScriptParser{Parser: &Parser{tokens: tokens, arena: ast.NewArena()}}
}

// ParseKernel parses one `def name(params):` block and returns the
// KernelDef node's ID.
func (p *ScriptParser) ParseKernel() (root ast.NodeID, arena *ast.Arena, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(*errors.EngineError); ok {
				err = ee
				return
			}
			panic(r)
		}
	}()
	p.skipNewlines()
	p.consume(lexer.TokenDef, "expected 'def'")
	name := p.consume(lexer.TokenIdent, "expected kernel name").Lexeme
	p.consume(lexer.TokenLParen, "expected '(' after kernel name")
	var params []string
	if !p.check(lexer.TokenRParen) {
		params = append(params, p.consume(lexer.TokenIdent, "expected parameter name").Lexeme)
		for p.match(lexer.TokenComma) {
			params = append(params, p.consume(lexer.TokenIdent, "expected parameter name").Lexeme)
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' after parameters")
	p.consume(lexer.TokenColon, "expected ':' after kernel signature")
	body := p.parseBlock()
	def := p.arena.Add(ast.Node{Kind: ast.KindKernelDef, Op: name, List: body, Params: params})
	return def, p.arena, nil
}

// parseBlock consumes NEWLINE INDENT stmt* DEDENT.
func (p *ScriptParser) parseBlock() []ast.NodeID {
	p.consume(lexer.TokenNewline, "expected newline before indented block")
	p.consume(lexer.TokenIndent, "expected an indented block")
	var stmts []ast.NodeID
	for !p.check(lexer.TokenDedent) && !p.isAtEnd() {
		stmts = append(stmts, p.statement())
	}
	p.consume(lexer.TokenDedent, "expected dedent to close block")
	return stmts
}

func (p *ScriptParser) statement() ast.NodeID {
	switch p.peek().Type {
	case lexer.TokenIf:
		return p.ifStatement()
	case lexer.TokenFor:
		return p.forStatement()
	case lexer.TokenBreak:
		return p.breakStatement()
	case lexer.TokenContinue:
		p.advance()
		p.consume(lexer.TokenNewline, "expected newline after 'continue'")
		return p.arena.Add(ast.Node{Kind: ast.KindContinue})
	case lexer.TokenReturn:
		p.advance()
		value := p.parseOr()
		p.consume(lexer.TokenNewline, "expected newline after return value")
		return p.arena.Add(ast.Node{Kind: ast.KindReturn, A: value})
	case lexer.TokenPrint:
		return p.printStatement()
	case lexer.TokenIdent:
		if p.checkNext(lexer.TokenAssign) {
			return p.assignStatement()
		}
		fallthrough
	default:
		expr := p.parseOr()
		p.consume(lexer.TokenNewline, "expected newline after statement")
		return expr
	}
}

func (p *ScriptParser) assignStatement() ast.NodeID {
	name := p.advance().Lexeme
	p.consume(lexer.TokenAssign, "expected '=' in assignment")
	value := p.parseOr()
	p.consume(lexer.TokenNewline, "expected newline after assignment")
	return p.arena.Add(ast.Node{Kind: ast.KindAssign, Name: name, A: value})
}

func (p *ScriptParser) ifStatement() ast.NodeID {
	p.advance() // 'if'
	cond := p.parseOr()
	p.consume(lexer.TokenColon, "expected ':' after if condition")
	thenBody := p.parseBlock()
	thenNode := p.arena.Add(ast.Node{Kind: ast.KindSequence, List: thenBody})

	var elseNode ast.NodeID = ast.NoNode
	if p.check(lexer.TokenElif) {
		elseNode = p.elifStatement()
	} else if p.match(lexer.TokenElse) {
		p.consume(lexer.TokenColon, "expected ':' after else")
		elseBody := p.parseBlock()
		elseNode = p.arena.Add(ast.Node{Kind: ast.KindSequence, List: elseBody})
	}
	return p.arena.Add(ast.Node{Kind: ast.KindIf, A: cond, B: thenNode, C: elseNode})
}

func (p *ScriptParser) elifStatement() ast.NodeID {
	p.advance() // 'elif'
	cond := p.parseOr()
	p.consume(lexer.TokenColon, "expected ':' after elif condition")
	thenBody := p.parseBlock()
	thenNode := p.arena.Add(ast.Node{Kind: ast.KindSequence, List: thenBody})

	var elseNode ast.NodeID = ast.NoNode
	if p.check(lexer.TokenElif) {
		elseNode = p.elifStatement()
	} else if p.match(lexer.TokenElse) {
		p.consume(lexer.TokenColon, "expected ':' after else")
		elseBody := p.parseBlock()
		elseNode = p.arena.Add(ast.Node{Kind: ast.KindSequence, List: elseBody})
	}
	return p.arena.Add(ast.Node{Kind: ast.KindIf, A: cond, B: thenNode, C: elseNode})
}

// forStatement parses `for <ident> in range(<expr>):` — range() over a
// scalar trip count is the only iteration form.
func (p *ScriptParser) forStatement() ast.NodeID {
	p.advance() // 'for'
	varName := p.consume(lexer.TokenIdent, "expected loop variable").Lexeme
	p.consume(lexer.TokenIn, "expected 'in' after loop variable")
	p.consume(lexer.TokenRange, "expected 'range' in for-loop")
	p.consume(lexer.TokenLParen, "expected '(' after 'range'")
	bound := p.parseOr()
	p.consume(lexer.TokenRParen, "expected ')' after range bound")
	p.consume(lexer.TokenColon, "expected ':' after for-loop header")
	body := p.parseBlock()
	bodyNode := p.arena.Add(ast.Node{Kind: ast.KindSequence, List: body})
	return p.arena.Add(ast.Node{Kind: ast.KindFor, Name: varName, A: bound, B: bodyNode})
}

// breakStatement parses bare `break` or the scalar-reduced `break if
// <expr>` form.
func (p *ScriptParser) breakStatement() ast.NodeID {
	p.advance() // 'break'
	var cond ast.NodeID = ast.NoNode
	if p.match(lexer.TokenIf) {
		cond = p.parseOr()
	}
	p.consume(lexer.TokenNewline, "expected newline after break")
	return p.arena.Add(ast.Node{Kind: ast.KindBreak, A: cond})
}

func (p *ScriptParser) printStatement() ast.NodeID {
	p.advance() // 'print'
	p.consume(lexer.TokenLParen, "expected '(' after print")
	var fmtStr string
	if p.check(lexer.TokenString) {
		fmtStr = p.advance().Lexeme
		if p.check(lexer.TokenComma) {
			p.advance()
		}
	}
	var args []ast.NodeID
	if !p.check(lexer.TokenRParen) {
		args = append(args, p.parseOr())
		for p.match(lexer.TokenComma) {
			args = append(args, p.parseOr())
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' after print arguments")
	p.consume(lexer.TokenNewline, "expected newline after print statement")
	return p.arena.Add(ast.Node{Kind: ast.KindPrint, List: args, Fmt: fmtStr})
}

func (p *ScriptParser) skipNewlines() {
	for p.check(lexer.TokenNewline) {
		p.advance()
	}
}
