package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/token"
	"github.com/arborist-lang/arborist/internal/types"
)

func nameNode(id string) *ast.Name {
	n := &ast.Name{Id: id}
	n.Init(0, len(id), token.Position{})
	return n
}

func TestInsertSameNodeWidensViaUnion(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	node := nameNode("x")

	b1 := s.Insert("x", node, types.IntExact(1), types.BindVariable, "f.pyf", 0, 1)
	b2 := s.Insert("x", node, types.StrType{}, types.BindVariable, "f.pyf", 0, 1)

	require.Same(t, b1, b2, "re-inserting at the same defining node must widen, not append")
	require.Len(t, s.Table["x"], 1)

	union, ok := b2.Type.(types.UnionType)
	require.True(t, ok, "widened type should be a union of Int and Str, got %v", b2.Type)
	require.Len(t, union.Members, 2)
}

func TestInsertDifferentNodeAppends(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")

	s.Insert("x", nameNode("x"), types.IntExact(1), types.BindVariable, "f.pyf", 0, 1)
	s.Insert("x", nameNode("x"), types.StrType{}, types.BindVariable, "f.pyf", 5, 1)

	require.Len(t, s.Table["x"], 2)
}

func TestLookupWalksParentChain(t *testing.T) {
	parent := types.NewState(nil, types.ScopeModule, "")
	parent.Insert("g", nameNode("g"), types.IntExact(1), types.BindVariable, "f.pyf", 0, 1)

	child := types.NewState(parent, types.ScopeFunction, "f")
	require.Nil(t, child.LookupAttr("g"), "LookupAttr must not walk the parent chain")

	bs := child.Lookup("g")
	require.Len(t, bs, 1)
	require.Equal(t, "g", bs[0].Name)
}

func TestLookupInnermostShadows(t *testing.T) {
	parent := types.NewState(nil, types.ScopeModule, "")
	parent.Insert("x", nameNode("x"), types.IntExact(1), types.BindVariable, "f.pyf", 0, 1)

	child := types.NewState(parent, types.ScopeFunction, "f")
	child.Insert("x", nameNode("x"), types.StrType{}, types.BindVariable, "f.pyf", 10, 1)

	bs := child.Lookup("x")
	require.Len(t, bs, 1)
	require.Equal(t, types.StrType{}, bs[0].Type)
}

func TestExtendPath(t *testing.T) {
	root := types.NewState(nil, types.ScopeModule, "")
	require.Equal(t, "foo", root.ExtendPath("foo"))

	child := types.NewState(root, types.ScopeClass, "C")
	require.Equal(t, "C.method", child.ExtendPath("method"))
}

func TestCopyIsIndependent(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	s.Insert("x", nameNode("x"), types.IntExact(1), types.BindVariable, "f.pyf", 0, 1)

	cp := s.Copy()
	cp.Insert("y", nameNode("y"), types.IntExact(2), types.BindVariable, "f.pyf", 5, 1)

	require.Nil(t, s.Table["y"], "mutating the copy must not affect the original")
	require.NotNil(t, cp.Table["x"], "the copy must still see the original's bindings")
}

func TestMergeUnionsBindingListsByKey(t *testing.T) {
	base := types.NewState(nil, types.ScopeModule, "")
	base.Insert("shared", nameNode("shared"), types.IntExact(1), types.BindVariable, "f.pyf", 0, 1)

	branchA := base.Copy()
	branchA.Insert("x", nameNode("x"), types.IntExact(1), types.BindVariable, "f.pyf", 10, 1)

	branchB := base.Copy()
	branchB.Insert("y", nameNode("y"), types.StrType{}, types.BindVariable, "f.pyf", 20, 1)

	merged := types.Merge(branchA, branchB)
	require.Len(t, merged.Table["shared"], 1, "the same binding seen on both branches must not duplicate")
	require.Len(t, merged.Table["x"], 1)
	require.Len(t, merged.Table["y"], 1)
}

func TestNameTypeUnionsAcrossBindings(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	s.Insert("x", nameNode("x1"), types.IntExact(1), types.BindVariable, "f.pyf", 0, 1)
	s.Insert("x", nameNode("x2"), types.StrType{}, types.BindVariable, "f.pyf", 5, 1)

	typ, ok := s.NameType("x")
	require.True(t, ok)
	union, ok := typ.(types.UnionType)
	require.True(t, ok)
	require.Len(t, union.Members, 2)
}

func TestNameTypeUndeclaredIsUnknown(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	typ, ok := s.NameType("nope")
	require.False(t, ok)
	require.True(t, types.IsUnknown(typ))
}

func TestUnionWithUnknownReturnsOtherSide(t *testing.T) {
	require.Equal(t, types.IntExact(1), types.Union(types.UNKNOWN, types.IntExact(1)))
	require.Equal(t, types.IntExact(1), types.Union(types.IntExact(1), types.UNKNOWN))
}

func TestUnionOfEqualReturnsSameType(t *testing.T) {
	require.Equal(t, types.StrType{}, types.Union(types.StrType{}, types.StrType{}))
}

func TestUnionFlattensAndDedupes(t *testing.T) {
	u1 := types.Union(types.IntExact(1), types.StrType{})
	u2 := types.Union(u1, types.StrType{})

	union, ok := u2.(types.UnionType)
	require.True(t, ok)
	require.Len(t, union.Members, 2, "re-unioning an existing member must not grow the set")
}

func TestEqualsNilSafety(t *testing.T) {
	require.True(t, types.Equals(nil, nil))
	require.False(t, types.Equals(nil, types.UNKNOWN))
	require.False(t, types.Equals(types.UNKNOWN, nil))
}

func TestEqualsClassAndInstanceAreIdentityBased(t *testing.T) {
	c1 := &types.ClassType{Name: "C"}
	c2 := &types.ClassType{Name: "C"}
	require.True(t, types.Equals(c1, c1))
	require.False(t, types.Equals(c1, c2), "two distinct ClassType values with the same name are not the same class")
}
