package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/plsc/internal/types"
)

func tokenize(t *testing.T, src string) []types.Token {
	t.Helper()
	l := New([]byte(src))
	var toks []types.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == types.TokenEOF {
			break
		}
		if len(toks) > 10000 {
			t.Fatal("tokenizer did not terminate")
		}
	}
	return toks
}

func kinds(toks []types.Token) []types.TokenKind {
	out := make([]types.TokenKind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestMonotonicPositions(t *testing.T) {
	toks := tokenize(t, `my $x = 1 + 2; print "hi\n";`)
	prevEnd := 0
	for _, tok := range toks {
		assert.GreaterOrEqual(t, tok.Start, prevEnd-1) // tolerate overlap-free monotonic advance
		assert.LessOrEqual(t, tok.Start, tok.End)
		prevEnd = tok.End
	}
}

func TestSigilCompounding(t *testing.T) {
	toks := tokenize(t, `$foo @bar %baz &qux $_`)
	assert.Equal(t, types.TokenScalarSigil, toks[0].Kind)
	assert.Equal(t, "$foo", toks[0].Text)
	assert.Equal(t, types.TokenArraySigil, toks[1].Kind)
	assert.Equal(t, "@bar", toks[1].Text)
	assert.Equal(t, types.TokenHashSigil, toks[2].Kind)
	assert.Equal(t, "%baz", toks[2].Text)
	assert.Equal(t, types.TokenSubSigil, toks[3].Kind)
	assert.Equal(t, "&qux", toks[3].Text)
	assert.Equal(t, "$_", toks[4].Text)
}

func TestRegexVsDivision(t *testing.T) {
	// expects-term context: / opens a regex
	toks := tokenize(t, `if (/foo/) {}`)
	assert.Equal(t, types.TokenRegexStart, toks[2].Kind)

	// expects-operator context: / is division
	toks = tokenize(t, `$x / $y`)
	assert.Equal(t, types.TokenOperator, toks[1].Kind)
	assert.Equal(t, "/", toks[1].Text)
}

func TestQuoteLikeDelimiters(t *testing.T) {
	toks := tokenize(t, `q(hello (nested) world)`)
	assert.Equal(t, types.TokenQuoteLike, toks[0].Kind)
	assert.Contains(t, toks[0].Text, "nested")

	toks = tokenize(t, `qw(a b c)`)
	assert.Equal(t, types.TokenQwList, toks[0].Kind)

	toks = tokenize(t, `s/foo/bar/g`)
	assert.Equal(t, types.TokenQuoteLike, toks[0].Kind)
	assert.Equal(t, "s/foo/bar/g", toks[0].Text)
}

func TestHeredocBodyResumption(t *testing.T) {
	src := "my $x = <<END;\nbody line one\nbody line two\nEND\nprint $x;"
	toks := tokenize(t, src)
	assert.Equal(t, types.TokenHeredocStart, toks[3].Kind)
	// after the heredoc body is consumed, the next real token should be
	// the subsequent statement's `print`.
	foundPrint := false
	for _, tok := range toks {
		if tok.Kind == types.TokenIdentifier && tok.Text == "print" {
			foundPrint = true
		}
		// body lines must not leak into the token stream as code.
		assert.NotEqual(t, "body", tok.Text)
	}
	assert.True(t, foundPrint)
}

func TestDynamicHeredocDelimiter(t *testing.T) {
	src := "my $x = <<$term;\nprint 1;\n"
	toks := tokenize(t, src)
	found := false
	for _, tok := range toks {
		if tok.Kind == types.TokenHeredocDynamicStart {
			found = true
			assert.Equal(t, "<<$term", tok.Text)
		}
	}
	assert.True(t, found)

	// no heredoc body is queued for a dynamic terminator: the following
	// line still tokenizes as ordinary code.
	sawPrint := false
	for _, tok := range toks {
		if tok.Kind == types.TokenIdentifier && tok.Text == "print" {
			sawPrint = true
		}
	}
	assert.True(t, sawPrint)
}

func TestDataSectionPassThrough(t *testing.T) {
	src := "print 1;\n__DATA__\nraw\ndata\nhere"
	toks := tokenize(t, src)
	last := toks[len(toks)-2] // before EOF
	assert.Equal(t, types.TokenDataSection, last.Kind)
	assert.Contains(t, last.Text, "raw")
}

func TestBOMSkipped(t *testing.T) {
	src := "\xEF\xBB\xBFmy $x = 1;"
	toks := tokenize(t, src)
	assert.Equal(t, types.TokenIdentifier, toks[0].Kind)
	assert.Equal(t, "my", toks[0].Text)
	assert.Equal(t, 0, toks[0].Start)
}

func TestPodSkipped(t *testing.T) {
	src := "=pod\nignored text\n=cut\nmy $x = 1;"
	toks := tokenize(t, src)
	assert.Equal(t, "my", toks[0].Text)
}

func TestArrowAndFatArrow(t *testing.T) {
	toks := tokenize(t, `$obj->method(a => 1)`)
	var sawArrow, sawFat bool
	for _, tok := range toks {
		if tok.Kind == types.TokenArrow {
			sawArrow = true
		}
		if tok.Kind == types.TokenFatArrow {
			sawFat = true
		}
	}
	assert.True(t, sawArrow)
	assert.True(t, sawFat)
}

func TestInvalidUTF8DoesNotHang(t *testing.T) {
	src := []byte{'$', 'x', ' ', '=', ' ', 0xFF, 0xFE, ';'}
	l := New(src)
	count := 0
	for {
		tok := l.Next()
		count++
		if tok.Kind == types.TokenEOF {
			break
		}
		if count > 1000 {
			t.Fatal("lexer did not terminate on invalid UTF-8")
		}
	}
}
