package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScriptFile(t *testing.T) {
	pool := NewParserPool()
	code := "export const a = 1\n"

	file, err := ParseFile(pool, "/src/a.ts", []byte(code), 1)
	require.NoError(t, err)

	require.Len(t, file.Scripts, 1)
	assert.Equal(t, LangTypeScript, file.Scripts[0].Lang)
	assert.False(t, file.IsSFC())
	assert.Equal(t, "program", file.Root().Kind())
	assert.True(t, file.Root().Valid())
}

func TestParseUnsupportedFile(t *testing.T) {
	_, err := ParseFile(NewParserPool(), "/src/readme.md", []byte("# hi"), 1)
	assert.Error(t, err)
}

func TestSplitSingleFileComponent(t *testing.T) {
	code := `<template>
  <div>{{ msg }}</div>
</template>

<script lang="ts">
export default { name: 'Hello' }
</script>

<script setup lang="ts" vapor>
const msg = 'hi'
</script>
`
	file, err := ParseFile(NewParserPool(), "/src/Hello.vue", []byte(code), 1)
	require.NoError(t, err)
	require.Len(t, file.Scripts, 2)

	main := file.MainScript()
	require.NotNil(t, main)
	assert.Equal(t, LangTypeScript, main.Lang)
	assert.False(t, main.Setup)
	assert.Equal(t, 4, main.StartLine)

	setup := file.SetupScript()
	require.NotNil(t, setup)
	assert.True(t, setup.Setup)
	assert.True(t, setup.Vapor)
	assert.Equal(t, "ts", setup.Attrs["lang"])

	// the file root is the setup block
	assert.Same(t, setup, file.Root().Script())

	decl := file.NodeAtLine(10)
	require.NotNil(t, decl)
	assert.Equal(t, "lexical_declaration", decl.Kind())
	assert.Equal(t, 10, decl.Line())
}

func TestSingleFileComponentWithoutScript(t *testing.T) {
	file, err := ParseFile(NewParserPool(), "/src/Plain.vue", []byte("<template><div/></template>"), 1)
	require.NoError(t, err)

	require.Len(t, file.Scripts, 1)
	assert.True(t, file.Scripts[0].Synthetic)
	assert.Equal(t, "program", file.Root().Kind())
}

func TestNodeIdentity(t *testing.T) {
	pool := NewParserPool()
	code := "const x = { a: 1 }\n"

	first, err := ParseFile(pool, "/src/x.js", []byte(code), 1)
	require.NoError(t, err)
	second, err := ParseFile(pool, "/src/x.js", []byte(code), 2)
	require.NoError(t, err)

	obj := first.NodeAtOffset(10)
	require.NotNil(t, obj)
	assert.Equal(t, "object", obj.Kind())

	// a re-parse of the same text yields the same identity
	again := second.NodeByID(obj.ID())
	require.NotNil(t, again)
	assert.True(t, obj.Same(again))
	assert.Equal(t, "{ a: 1 }", again.Text())

	first.Invalidate()
	assert.False(t, obj.Valid())
	assert.True(t, again.Valid())
}

func TestNodeIDString(t *testing.T) {
	id := NodeID{Path: "/src/a#b.vue", Block: 1, Start: 10, End: 20, Kind: "object"}

	parsed, err := ParseNodeID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseNodeID("garbage")
	assert.Error(t, err)
}

func TestNilNode(t *testing.T) {
	var n *Node
	assert.Equal(t, "", n.Kind())
	assert.Equal(t, "", n.Text())
	assert.Nil(t, n.Field("name"))
	assert.Nil(t, n.Parent())
	assert.False(t, n.Valid())
	assert.True(t, n.ID().IsZero())
}

func TestPointerRecomputes(t *testing.T) {
	pool := NewParserPool()
	code := "const x = { a: 1 }\n"

	first, err := ParseFile(pool, "/src/x.js", []byte(code), 1)
	require.NoError(t, err)
	second, err := ParseFile(pool, "/src/x.js", []byte(code), 2)
	require.NoError(t, err)

	recompute := func(n *Node) (string, bool) { return n.Text(), true }
	obj := first.NodeAtOffset(10)
	ptr := NewPointer(obj, obj.Text(), recompute)

	value, ok := ptr.Deref(nil)
	require.True(t, ok)
	assert.Equal(t, "{ a: 1 }", value)

	first.Invalidate()
	_, ok = ptr.Deref(nil)
	assert.False(t, ok)

	value, ok = ptr.Deref(second.NodeByID)
	require.True(t, ok)
	assert.Equal(t, "{ a: 1 }", value)
}

func TestScope(t *testing.T) {
	project := ProjectScope()
	assert.True(t, project.IsProject())
	assert.True(t, project.Contains("/any.js"))

	files := FilesScope("/b.js", "/a.js", "/a.js")
	assert.False(t, files.IsProject())
	assert.True(t, files.Contains("/a.js"))
	assert.False(t, files.Contains("/c.js"))
	assert.Equal(t, "files:/a.js|/b.js", files.Key())
	assert.Equal(t, FilesScope("/a.js", "/b.js").Key(), files.Key())

	empty := FilesScope()
	assert.False(t, empty.IsProject())
	assert.False(t, empty.Contains("/a.js"))
}
