package indexer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Name string `msgpack:"name"`
	Line int    `msgpack:"line"`
}

func openTestTable(t *testing.T) *Table[testItem] {
	t.Helper()
	table, err := OpenTable[testItem](filepath.Join(t.TempDir(), "nested", "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = table.Close() })
	return table
}

func TestTablePutAndDelete(t *testing.T) {
	table := openTestTable(t)

	require.NoError(t, table.Put("src/a.js", "base-button", testItem{Name: "a", Line: 1}))
	require.NoError(t, table.Put("src/b.js", "base-button", testItem{Name: "b", Line: 2}))

	keys, err := table.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"base-button"}, keys)

	values, err := table.Values("base-button")
	require.NoError(t, err)
	assert.Equal(t, []testItem{{Name: "a", Line: 1}, {Name: "b", Line: 2}}, values)

	require.NoError(t, table.DeleteFiles([]string{"src/a.js"}))

	values, err = table.Values("base-button")
	require.NoError(t, err)
	assert.Equal(t, []testItem{{Name: "b", Line: 2}}, values)

	require.NoError(t, table.DeleteFiles([]string{"src/b.js"}))
	values, err = table.Values("base-button")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestTableReplaceSwapsItemsOfAFile(t *testing.T) {
	table := openTestTable(t)

	require.NoError(t, table.Replace(map[string]map[string][]testItem{
		"src/a.js": {"x": {{Name: "x1"}}, "y": {{Name: "y1"}}},
		"src/b.js": {"z": {{Name: "z1"}}},
	}))
	require.NoError(t, table.Replace(map[string]map[string][]testItem{
		"src/a.js": {"x": {{Name: "x2"}, {Name: "x3"}}},
	}))

	keys, err := table.KeysByPath("src/a.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, keys)

	values, err := table.ValuesByPath("src/a.js")
	require.NoError(t, err)
	assert.ElementsMatch(t, []testItem{{Name: "x2"}, {Name: "x3"}}, values)

	values, err = table.Values("z")
	require.NoError(t, err)
	assert.Equal(t, []testItem{{Name: "z1"}}, values)

	paths, err := table.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.js", "src/b.js"}, paths)
}

func TestTableReplaceWithNoItemsClearsFile(t *testing.T) {
	table := openTestTable(t)

	require.NoError(t, table.Put("src/a.js", "x", testItem{Name: "x"}))
	require.NoError(t, table.Replace(map[string]map[string][]testItem{"src/a.js": nil}))

	all, err := table.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTableClear(t *testing.T) {
	table := openTestTable(t)

	require.NoError(t, table.Append(map[string]map[string][]testItem{
		"src/a.js": {"x": {{Name: "x"}}},
		"src/b.js": {"y": {{Name: "y"}}},
	}))
	require.NoError(t, table.Clear())

	keys, err := table.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestTableReopenKeepsItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")

	table, err := OpenTable[testItem](path)
	require.NoError(t, err)
	require.NoError(t, table.Put("src/a.js", "x", testItem{Name: "x", Line: 3}))
	require.NoError(t, table.Close())

	table, err = OpenTable[testItem](path)
	require.NoError(t, err)
	defer table.Close()

	values, err := table.Values("x")
	require.NoError(t, err)
	assert.Equal(t, []testItem{{Name: "x", Line: 3}}, values)
}
