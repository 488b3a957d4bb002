package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/token"
)

func TestBagDedupesByFileLineColCode(t *testing.T) {
	bag := diagnostics.NewBag()
	pos := token.Position{Line: 3, Column: 5}

	bag.Add(diagnostics.New(diagnostics.UndefinedName, "a.pyf", pos, "first message"))
	bag.Add(diagnostics.New(diagnostics.UndefinedName, "a.pyf", pos, "second message wins"))

	require.Equal(t, 1, bag.Len())
	require.Equal(t, "second message wins", bag.All()[0].Message)
}

func TestBagAddNilIsNoop(t *testing.T) {
	bag := diagnostics.NewBag()
	bag.Add(nil)
	require.Equal(t, 0, bag.Len())
}

func TestBagAllSortsByFileThenPosition(t *testing.T) {
	bag := diagnostics.NewBag()
	bag.Add(diagnostics.New(diagnostics.UndefinedName, "b.pyf", token.Position{Line: 1, Column: 1}, "b"))
	bag.Add(diagnostics.New(diagnostics.UndefinedName, "a.pyf", token.Position{Line: 5, Column: 1}, "a-later-line"))
	bag.Add(diagnostics.New(diagnostics.UndefinedName, "a.pyf", token.Position{Line: 2, Column: 1}, "a-earlier-line"))

	all := bag.All()
	require.Len(t, all, 3)
	require.Equal(t, "a-earlier-line", all[0].Message)
	require.Equal(t, "a-later-line", all[1].Message)
	require.Equal(t, "b", all[2].Message)
}

func TestDiagnosticErrorFormatsCodeAndPosition(t *testing.T) {
	d := diagnostics.New(diagnostics.CallingNonCallable, "f.pyf", token.Position{Line: 2, Column: 4}, "not callable")
	require.Contains(t, d.Error(), "f.pyf")
	require.Contains(t, d.Error(), "not callable")
	require.Contains(t, d.Error(), string(diagnostics.CallingNonCallable))
}
