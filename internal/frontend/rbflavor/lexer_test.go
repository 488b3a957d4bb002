package rbflavor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/frontend/rbflavor"
	"github.com/arborist-lang/arborist/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestLexKeywordVsIdent(t *testing.T) {
	toks, err := rbflavor.Lex([]byte("def end foo"))
	require.NoError(t, err)
	require.Equal(t, token.KEYWORD, toks[0].Kind)
	require.Equal(t, token.KEYWORD, toks[1].Kind)
	require.Equal(t, token.IDENT, toks[2].Kind)
}

func TestLexPipeForBlockParams(t *testing.T) {
	toks, err := rbflavor.Lex([]byte("|x|"))
	require.NoError(t, err)
	require.Contains(t, kinds(toks), token.PIPE)
}
