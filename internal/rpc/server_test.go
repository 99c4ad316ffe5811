package rpc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/config"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/registry"
)

const cardSource = `<script>
export default {
  name: 'Card',
  props: ['title'],
}
</script>
`

func newClient(t *testing.T, files map[string]string) (*jsonrpc2.Conn, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	p := project.New(config.Default(root))
	require.NoError(t, p.LoadDir(context.Background(), root))
	model := component.NewModel(p, component.Options{})
	server := NewServer(p, model, registry.New(model, false), nil)

	ctx := context.Background()
	serverSide, clientSide := net.Pipe()
	server.Serve(ctx, jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}))

	noop := jsonrpc2.HandlerWithError(func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (interface{}, error) {
		return nil, nil
	})
	client := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}), noop)
	t.Cleanup(func() { _ = client.Close() })
	return client, root
}

type header struct {
	Resolved *bool  `json:"resolved"`
	Name     string `json:"name"`
	Variant  string `json:"variant"`
	Line     int    `json:"line"`
}

type memberList struct {
	header
	Members map[string][]struct {
		Name string `json:"name"`
	} `json:"members"`
}

func names(list []struct {
	Name string `json:"name"`
}) []string {
	var result []string
	for _, m := range list {
		result = append(result, m.Name)
	}
	return result
}

func TestInitializeListsMethods(t *testing.T) {
	client, root := newClient(t, nil)

	var result struct {
		Root    string   `json:"root"`
		Methods []string `json:"methods"`
	}
	require.NoError(t, client.Call(context.Background(), "initialize", map[string]any{}, &result))
	assert.Equal(t, root, result.Root)
	assert.Contains(t, result.Methods, "component/members")
}

func TestResolveComponentAtLine(t *testing.T) {
	client, _ := newClient(t, map[string]string{"src/Card.vue": cardSource})
	ctx := context.Background()

	var desc header
	require.NoError(t, client.Call(ctx, "component/resolve", PositionParams{Path: "src/Card.vue", Line: 3}, &desc))
	assert.Nil(t, desc.Resolved)
	assert.Equal(t, "Card", desc.Name)
	assert.Equal(t, "options", desc.Variant)
	assert.Equal(t, 2, desc.Line)

	var all []header
	require.NoError(t, client.Call(ctx, "component/resolve", PositionParams{Path: "src/Card.vue"}, &all))
	require.Len(t, all, 1)
	assert.Equal(t, "Card", all[0].Name)
}

func TestMembersFollowDocumentUpdates(t *testing.T) {
	client, _ := newClient(t, map[string]string{"src/Card.vue": cardSource})
	ctx := context.Background()

	var before memberList
	require.NoError(t, client.Call(ctx, "component/members", MembersParams{PositionParams: PositionParams{Path: "src/Card.vue"}}, &before))
	assert.Equal(t, []string{"title"}, names(before.Members["props"]))

	text := `<script>
export default {
  props: ['title', 'subtitle'],
  methods: { open() {} },
}
</script>
`
	require.NoError(t, client.Call(ctx, "project/update", map[string]any{"path": "src/Card.vue", "text": text}, nil))

	var after memberList
	require.NoError(t, client.Call(ctx, "component/members", MembersParams{PositionParams: PositionParams{Path: "src/Card.vue"}}, &after))
	assert.Equal(t, []string{"title", "subtitle"}, names(after.Members["props"]))
	assert.Equal(t, []string{"open"}, names(after.Members["methods"]))
}

func TestScopedMembersIncludeGlobalMixins(t *testing.T) {
	client, _ := newClient(t, map[string]string{
		"src/Card.vue": cardSource,
		"src/main.js": `import Vue from 'vue'
Vue.mixin({ methods: { track() {} } })
`,
	})
	ctx := context.Background()

	var plain, scoped memberList
	params := MembersParams{PositionParams: PositionParams{Path: "src/Card.vue"}}
	require.NoError(t, client.Call(ctx, "component/members", params, &plain))
	assert.Empty(t, plain.Members["methods"])

	params.Scoped = true
	require.NoError(t, client.Call(ctx, "component/members", params, &scoped))
	assert.Equal(t, []string{"track"}, names(scoped.Members["methods"]))
}

func TestMixinsOfComponent(t *testing.T) {
	client, _ := newClient(t, map[string]string{
		"src/mixins/loading.js": `export default { data() { return { loading: false } } }`,
		"src/List.vue": `<script>
import loading from './mixins/loading'
export default { mixins: [loading, missing] }
</script>
`,
	})

	var result struct {
		Mixins []struct {
			Reference string `json:"reference"`
			Resolved  bool   `json:"resolved"`
		} `json:"mixins"`
	}
	require.NoError(t, client.Call(context.Background(), "component/mixins", PositionParams{Path: "src/List.vue"}, &result))
	require.Len(t, result.Mixins, 2)
	assert.Equal(t, "loading", result.Mixins[0].Reference)
	assert.True(t, result.Mixins[0].Resolved)
	assert.Equal(t, "missing", result.Mixins[1].Reference)
	assert.False(t, result.Mixins[1].Resolved)
}

func TestRegistryListsAndResolvesNames(t *testing.T) {
	client, _ := newClient(t, map[string]string{
		"src/main.js": `app.component('base-card', { props: ['a'] })
app.directive('focus', {})
`,
	})
	ctx := context.Background()

	var listed []struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}
	require.NoError(t, client.Call(ctx, "registry/components", RegistryParams{}, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "base-card", listed[0].Name)
	assert.Equal(t, "component", listed[0].Kind)

	require.NoError(t, client.Call(ctx, "registry/directives", RegistryParams{Path: "src/main.js"}, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "focus", listed[0].Name)

	var found struct {
		Name     string `json:"name"`
		Resolved *bool  `json:"resolved"`
	}
	require.NoError(t, client.Call(ctx, "registry/components", RegistryParams{Name: "BaseCard"}, &found))
	assert.Equal(t, "base-card", found.Name)
	assert.Nil(t, found.Resolved)

	found.Name = ""
	require.NoError(t, client.Call(ctx, "registry/components", RegistryParams{Name: "other"}, &found))
	assert.Empty(t, found.Name)
	require.NotNil(t, found.Resolved)
	assert.False(t, *found.Resolved)
}

func TestCacheStats(t *testing.T) {
	client, _ := newClient(t, map[string]string{"src/Card.vue": cardSource})
	ctx := context.Background()

	require.NoError(t, client.Call(ctx, "registry/components", RegistryParams{}, nil))

	var stats []struct {
		Name   string `json:"name"`
		Misses int64  `json:"misses"`
	}
	require.NoError(t, client.Call(ctx, "cache/stats", nil, &stats))
	byName := make(map[string]int64)
	for _, s := range stats {
		byName[s.Name] = s.Misses
	}
	assert.Contains(t, byName, "members")
	assert.Equal(t, int64(1), byName["registrations"])
}

func TestErrors(t *testing.T) {
	client, _ := newClient(t, nil)
	ctx := context.Background()

	var rpcErr *jsonrpc2.Error

	err := client.Call(ctx, "component/unknown", nil, nil)
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)

	err = client.Call(ctx, "component/resolve", PositionParams{Path: "src/Missing.vue"}, nil)
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)
}
