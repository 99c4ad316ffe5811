package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/vuemodel/internal/cache"
	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/config"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/registry"
	"github.com/shopware/vuemodel/internal/source"
)

func TestDocumentBuildsNestedValues(t *testing.T) {
	doc := New().
		Set("name", "card").
		Set("items", []any{}).
		Append("items", New().Set("a", 1)).
		Append("items", New().Set("b", true))

	data, err := doc.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"card","items":[{"a":1},{"b":true}]}`, string(data))

	arr := NewArray().Append("", New().Set("x", "y"))
	data, err = arr.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"x":"y"}]`, string(data))
}

func TestDocumentKeepsFirstError(t *testing.T) {
	doc := New().Set("", 1).Set("name", "ignored")
	_, err := doc.Bytes()
	assert.Error(t, err)

	_, err = doc.Pretty()
	assert.Error(t, err)
}

func TestStatsRendersOneObjectPerMemo(t *testing.T) {
	data, err := Stats([]cache.Stats{
		{Name: "members", Hits: 2, Misses: 1},
		{Name: "mixins", Disabled: true},
	}).Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name":"members","hits":2,"misses":1,"recomputations":0,"entries":0,"disabled":false},
		{"name":"mixins","hits":0,"misses":0,"recomputations":0,"entries":0,"disabled":true}
	]`, string(data))
}

func loadModel(t *testing.T, files map[string]string) (*project.Project, *component.Model, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	p := project.New(config.Default(root))
	require.NoError(t, p.LoadDir(context.Background(), root))
	return p, component.NewModel(p, component.Options{}), root
}

func TestDescriptorListsMembersAndMixins(t *testing.T) {
	p, model, root := loadModel(t, map[string]string{
		"src/mixins/loading.js": `export default { data() { return { loading: false } } }`,
		"src/Card.vue": `<script>
import loading from './mixins/loading'
export default {
  name: 'Card',
  mixins: [loading],
  props: { title: { type: String, required: true } },
  methods: { open(id) {} },
}
</script>`,
	})
	file := p.File(filepath.Join(root, "src/Card.vue"))
	require.NotNil(t, file)
	desc := model.Definitions(source.FilesScope(file.Path))
	require.Len(t, desc, 1)

	data, err := Descriptor(model, desc[0]).Bytes()
	require.NoError(t, err)

	var out struct {
		Name    string `json:"name"`
		Variant string `json:"variant"`
		Members map[string][]struct {
			Name     string `json:"name"`
			Type     string `json:"type"`
			Required bool   `json:"required"`
		} `json:"members"`
		Mixins []struct {
			Reference string `json:"reference"`
			Resolved  bool   `json:"resolved"`
		} `json:"mixins"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "Card", out.Name)
	assert.Equal(t, "options", out.Variant)
	require.Len(t, out.Members["props"], 1)
	assert.Equal(t, "title", out.Members["props"][0].Name)
	assert.True(t, out.Members["props"][0].Required)
	assert.Equal(t, "open", out.Members["methods"][0].Name)
	assert.Equal(t, "loading", out.Members["data"][0].Name)
	require.Len(t, out.Mixins, 1)
	assert.Equal(t, "loading", out.Mixins[0].Reference)
	assert.True(t, out.Mixins[0].Resolved)
}

func TestDescriptorOfNothing(t *testing.T) {
	data, err := Descriptor(nil, nil).Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"resolved":false}`, string(data))
}

func TestRegistrationsRendersSelectedEntries(t *testing.T) {
	_, model, root := loadModel(t, map[string]string{
		"src/main.js": `app.component('base-card', { props: ['a'] })
app.component('base-card', { props: ['b'] })
app.component('other', { props: [] })
`,
	})
	r := registry.New(model, false)

	data, err := Registrations(r.Components(source.ProjectScope())).Bytes()
	require.NoError(t, err)
	path := filepath.Join(root, "src/main.js")
	assert.JSONEq(t, `[
		{"name":"base-card","key":"base-card","kind":"component","path":"`+path+`","line":2,
		 "global":true,"indirect":false,"variant":"options",
		 "target":{"path":"`+path+`","line":2},"candidates":2},
		{"name":"other","key":"other","kind":"component","path":"`+path+`","line":3,
		 "global":true,"indirect":false,"variant":"options",
		 "target":{"path":"`+path+`","line":3}}
	]`, string(data))
}
