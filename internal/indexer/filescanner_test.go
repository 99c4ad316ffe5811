package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/vuemodel/internal/config"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/source"
)

type mockIndexer struct {
	indexed []string
	removed []string
	cleared bool
}

func (m *mockIndexer) ID() string { return "mock" }

func (m *mockIndexer) Index(file *source.File) error {
	m.indexed = append(m.indexed, file.Path)
	return nil
}

func (m *mockIndexer) RemovedFiles(paths []string) error {
	m.removed = append(m.removed, paths...)
	return nil
}

func (m *mockIndexer) Close() error { return nil }

func (m *mockIndexer) Clear() error {
	m.cleared = true
	return nil
}

func newTestScanner(t *testing.T, files map[string]string) (*FileScanner, *mockIndexer, *project.Project, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	p := project.New(config.Default(root))
	scanner, err := NewFileScanner(p, filepath.Join(t.TempDir(), "files.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = scanner.Close() })

	mock := &mockIndexer{}
	scanner.AddIndexer(mock)
	return scanner, mock, p, root
}

func TestFileScannerSkipsDirectories(t *testing.T) {
	scanner, mock, p, root := newTestScanner(t, map[string]string{
		"src/main.js":                "export default {}",
		"src/components/Card.vue":    "<script>export default {}</script>",
		"node_modules/lib/index.js":  "export default {}",
		"src/nested/dist/bundle.js":  "export default {}",
		"README.md":                  "# readme",
		"src/components/Card.vue.md": "notes",
	})

	require.NoError(t, scanner.IndexAll(context.Background()))

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "src/components/Card.vue"),
		filepath.Join(root, "src/main.js"),
	}, mock.indexed)
	assert.Equal(t, []string{
		filepath.Join(root, "src/components/Card.vue"),
		filepath.Join(root, "src/main.js"),
	}, p.Paths())
}

func TestFileScannerOnlyIndexesChangedFiles(t *testing.T) {
	scanner, mock, p, root := newTestScanner(t, map[string]string{
		"src/a.js": "export const a = 1",
		"src/b.js": "export const b = 2",
	})
	ctx := context.Background()

	require.NoError(t, scanner.IndexAll(ctx))
	require.Len(t, mock.indexed, 2)

	// every file is reloaded into the project, the indexers see only the changed one
	changed := filepath.Join(root, "src/b.js")
	require.NoError(t, os.WriteFile(changed, []byte("export const b = 20000"), 0644))
	mock.indexed = nil

	require.NoError(t, scanner.IndexAll(ctx))
	assert.Equal(t, []string{changed}, mock.indexed)
	assert.Contains(t, mock.removed, changed)
	assert.Len(t, p.Paths(), 2)
}

func TestFileScannerRemoveFiles(t *testing.T) {
	scanner, mock, p, root := newTestScanner(t, map[string]string{
		"src/a.js": "export const a = 1",
	})
	ctx := context.Background()
	path := filepath.Join(root, "src/a.js")

	require.NoError(t, scanner.IndexAll(ctx))
	require.NotNil(t, p.File(path))

	updates := 0
	scanner.SetOnUpdate(func() { updates++ })
	require.NoError(t, scanner.RemoveFiles(ctx, []string{path}))

	assert.Nil(t, p.File(path))
	assert.Contains(t, mock.removed, path)
	assert.Equal(t, 1, updates)

	// the file state is gone, so the next scan indexes it again
	mock.indexed = nil
	require.NoError(t, scanner.IndexFiles(ctx, []string{path}))
	assert.Equal(t, []string{path}, mock.indexed)
}

func TestFileScannerClearStates(t *testing.T) {
	scanner, mock, _, _ := newTestScanner(t, map[string]string{
		"src/a.js": "export const a = 1",
	})
	ctx := context.Background()

	require.NoError(t, scanner.IndexAll(ctx))
	require.NoError(t, scanner.ClearStates())
	assert.True(t, mock.cleared)

	mock.indexed = nil
	require.NoError(t, scanner.IndexAll(ctx))
	assert.Len(t, mock.indexed, 1)
}

func TestFileScannerHonorsCancellation(t *testing.T) {
	scanner, _, _, _ := newTestScanner(t, map[string]string{
		"src/a.js": "export const a = 1",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := scanner.IndexAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
