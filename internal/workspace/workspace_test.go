package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/vuemodel/internal/registry"
	"github.com/shopware/vuemodel/internal/source"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestOpenAppliesConfiguration(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".vuemodel.yaml": "definingCalls: [makeComponent]\ncache:\n  enabled: false\n",
		"src/card.js":    "export const Card = makeComponent({ props: ['title'] })\n",
	})

	w, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, w.Load(context.Background()))

	defs := w.Model.Definitions(source.ProjectScope())
	require.Len(t, defs, 1)
	assert.Equal(t, "options", defs[0].Variant())
	assert.Equal(t, "call_expression", defs[0].Node.Kind())

	assert.True(t, w.Registry.Stats().Disabled)
	for _, s := range w.Model.Stats() {
		assert.True(t, s.Disabled, s.Name)
	}
}

func TestIndexStoresRegistrations(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".vuemodel.yaml": "cache:\n  dir: .cache\n",
		"src/main.js": `app.component('base-card', { props: ['a'] })
app.filter('currency', (v) => v)
`,
	})

	w, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, w.OpenIndex())
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Scanner.IndexAll(context.Background()))

	cards, err := w.Store.Lookup(registry.KindComponent, "BaseCard")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, filepath.Join(root, "src/main.js"), cards[0].Path)
	assert.Equal(t, 1, cards[0].Line)

	all, err := w.Store.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.FileExists(t, filepath.Join(root, ".cache", "registrations.db"))
	assert.FileExists(t, filepath.Join(root, ".cache", "files.db"))
}
