package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/config"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/source"
)

type fixture struct {
	project  *project.Project
	model    *component.Model
	registry *Registry
	root     string
}

func newFixture(t *testing.T, files map[string]string) *fixture {
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
	return &fixture{project: p, model: model, registry: New(model, false), root: root}
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.root, name)
}

// node returns the first node of kind whose text equals text
func (f *fixture) node(t *testing.T, name, kind, text string) *source.Node {
	t.Helper()
	file := f.project.File(f.path(name))
	require.NotNil(t, file, name)

	var found *source.Node
	var visit func(n *source.Node)
	visit = func(n *source.Node) {
		if found != nil || n == nil {
			return
		}
		if n.Kind() == kind && n.Text() == text {
			found = n
			return
		}
		for _, c := range n.NamedChildren() {
			visit(c)
		}
	}
	for _, script := range file.Scripts {
		visit(script.Root())
	}
	require.NotNil(t, found, "%s %q not found", kind, text)
	return found
}

func TestSingleRegistrations(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/components/BaseButton.vue": `<template><button><slot /></button></template>`,
		"src/main.js": `import { createApp } from 'vue'
import BaseButton from './components/BaseButton.vue'

const app = createApp({})
app.component('base-button', BaseButton)
app.component('inline-card', { props: ['title'] })
app.directive('focus', { mounted(el) { el.focus() } })
app.filter('currency', (value) => '$' + value)
app.component('base-button')
`,
	})
	scope := source.ProjectScope()
	components := f.registry.Components(scope)
	assert.Equal(t, []string{"base-button", "inline-card"}, components.Names())

	button, ok := components.Select("BaseButton")
	require.True(t, ok)
	assert.Equal(t, "base-button", button.Name)
	assert.True(t, button.Global)
	assert.True(t, button.Indirect)
	require.NotNil(t, button.Target)
	assert.Equal(t, "file", button.Target.Variant())
	assert.Equal(t, f.path("src/components/BaseButton.vue"), button.Target.Node.Path())
	assert.Equal(t, f.path("src/main.js"), button.Path())
	assert.Equal(t, 5, button.Line())

	card, ok := components.Select("inline-card")
	require.True(t, ok)
	assert.False(t, card.Indirect)
	require.NotNil(t, card.Target)
	assert.Equal(t, "options", card.Target.Variant())

	directives := f.registry.Directives(scope)
	assert.Equal(t, []string{"focus"}, directives.Names())
	focus, _ := directives.Select("focus")
	assert.Nil(t, focus.Target)
	assert.Equal(t, "object", focus.Value.Kind())

	assert.Equal(t, []string{"currency"}, f.registry.Filters(scope).Names())
}

func TestGroupRegistrationFromObject(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/main.js": `const shared = { SharedThing: { props: ['x'] } }
const components = { FooBar: { props: ['a'] }, Baz: { props: ['b'] }, ...shared }

for (const key in components) {
	Vue.component(key, components[key])
}
`,
	})

	ix := f.registry.Components(source.ProjectScope())
	assert.Equal(t, []string{"baz", "foo-bar", "shared-thing"}, ix.Names())
	for _, e := range ix.Selected() {
		assert.True(t, e.Global, e.Name)
		assert.True(t, e.Indirect, e.Name)
		require.NotNil(t, e.Target, e.Name)
		assert.Equal(t, "options", e.Target.Variant())
	}

	foo, ok := ix.Select("FooBar")
	require.True(t, ok)
	assert.Equal(t, "foo-bar", foo.Name)
}

func TestGroupRegistrationFromModuleNamespace(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/icons/index.js": `export const IconAdd = { name: 'IconAdd', render() {} }
export const IconTrash = { render() {} }
const helper = 1
export { helper as iconHelper }
`,
		"src/main.js": `import * as icons from './icons'

Object.entries(icons).forEach(([name, icon]) => {
	app.component(name, icon)
})
`,
	})

	ix := f.registry.Components(source.ProjectScope())
	assert.Equal(t, []string{"icon-add", "icon-helper", "icon-trash"}, ix.Names())

	add, ok := ix.Select("IconAdd")
	require.True(t, ok)
	require.NotNil(t, add.Target)
	assert.Equal(t, f.path("src/icons/index.js"), add.Target.Node.Path())

	// a constant is registered, but is not a component
	helper, ok := ix.Select("icon-helper")
	require.True(t, ok)
	assert.Nil(t, helper.Target)
}

func TestLazyRegistration(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/page/index.js": `export default { props: ['title'] }`,
		"src/main.js": `Shopware.Component.register('sw-page', () => import('./page'))
Shopware.Component.register('sw-block', function () { return import('./page') })
`,
	})

	ix := f.registry.Components(source.ProjectScope())
	for _, name := range []string{"sw-page", "sw-block"} {
		e, ok := ix.Select(name)
		require.True(t, ok, name)
		assert.True(t, e.Indirect, name)
		require.NotNil(t, e.Target, name)
		assert.Equal(t, f.path("src/page/index.js"), e.Target.Node.Path(), name)
		assert.Equal(t, []string{"title"}, f.model.GetMembers(e.Target).Names(component.SectionProps), name)
	}
}

func TestCanonicalNameFromLiteral(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/main.js": `Component.register('sw-alias', { name: 'sw-canonical', props: ['a'] })
const Named = { name: 'named-thing' }
app.component(Named)
`,
	})

	ix := f.registry.Components(source.ProjectScope())
	assert.Equal(t, []string{"named-thing", "sw-canonical"}, ix.Names())
	_, ok := ix.Select("sw-alias")
	assert.False(t, ok)
}

func TestSelectionPrefersSingleFileComponents(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Card.vue": `<script>export default { props: ['sfc'] }</script>`,
		"src/a.js": `import Card from './Card.vue'
app.component('card', Card)
`,
		"src/b.js": `app.component('card', { props: ['literal'] })`,
	})

	ix := f.registry.Components(source.ProjectScope())
	require.Len(t, ix.Candidates("card"), 2)

	selected, ok := ix.Select("card")
	require.True(t, ok)
	assert.Equal(t, f.path("src/Card.vue"), selected.Target.Node.Path())
}

func TestSelectionPrefersGlobalThenLast(t *testing.T) {
	ix := newIndex(KindComponent)
	ix.add(Entry{Name: "x-item", Global: true})
	ix.add(Entry{Name: "XItem", Global: false})
	selected, ok := ix.Select("x-item")
	require.True(t, ok)
	assert.True(t, selected.Global)

	// among equally ranked registrations the last in scan order wins; which
	// one that is depends on file order and is not otherwise meaningful
	ix = newIndex(KindComponent)
	ix.add(Entry{Name: "first", Global: true, Indirect: false})
	ix.add(Entry{Name: "First", Global: true, Indirect: true})
	selected, ok = ix.Select("first")
	require.True(t, ok)
	assert.True(t, selected.Indirect)

	_, ok = ix.Select("missing")
	assert.False(t, ok)
}

func TestResolvePrefersLocalThenFileThenProject(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/LocalButton.vue":  `<template><button /></template>`,
		"src/GlobalButton.vue": `<template><button /></template>`,
		"src/FileButton.vue":   `<template><button /></template>`,
		"src/main.js": `import GlobalButton from './GlobalButton.vue'
app.component('base-button', GlobalButton)
`,
		"src/Page.vue": `<script>
import LocalButton from './LocalButton.vue'
export default {
	components: { BaseButton: LocalButton },
	methods: { go() { return 1 } },
}
</script>`,
		"src/widget.js": `import FileButton from './FileButton.vue'
app.component('base-button', FileButton)
const answer = 42
`,
		"src/other.js": `const unrelated = 7`,
	})

	local, ok := f.registry.Resolve(KindComponent, "BaseButton", f.node(t, "src/Page.vue", "number", "1"))
	require.True(t, ok)
	assert.False(t, local.Global)
	assert.Equal(t, f.path("src/LocalButton.vue"), local.Target.Node.Path())

	inFile, ok := f.registry.Resolve(KindComponent, "base-button", f.node(t, "src/widget.js", "number", "42"))
	require.True(t, ok)
	assert.Equal(t, f.path("src/FileButton.vue"), inFile.Target.Node.Path())

	// both project-wide registrations rank equally; the later file wins
	global, ok := f.registry.Resolve(KindComponent, "base-button", f.node(t, "src/other.js", "number", "7"))
	require.True(t, ok)
	assert.True(t, global.Global)
	assert.Equal(t, f.path("src/FileButton.vue"), global.Target.Node.Path())
}

func TestLocalDirectivesOfScriptSetup(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Form.vue": `<script setup>
const vFocus = { mounted(el) { el.focus() } }
const count = 3
</script>`,
	})

	desc := f.model.ResolveComponent(f.project.File(f.path("src/Form.vue")).SetupScript().Root())
	require.NotNil(t, desc)

	directives := f.registry.Local(desc, KindDirective)
	assert.Equal(t, []string{"focus"}, directives.Names())

	e, ok := f.registry.Resolve(KindDirective, "focus", f.node(t, "src/Form.vue", "number", "3"))
	require.True(t, ok)
	assert.False(t, e.Global)
}

func TestParentsResolveThroughRegistry(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/base.js":   `Shopware.Component.register('sw-base', { props: ['baseProp'] })`,
		"src/notify.js": `Shopware.Mixin.register('notification', { methods: { notify() {} } })`,
		"src/child.js": `Shopware.Component.extend('sw-child', 'sw-base', {
	mixins: [Shopware.Mixin.getByName('notification')],
	props: ['childProp'],
})`,
	})

	child, ok := f.registry.Components(source.ProjectScope()).Select("sw-child")
	require.True(t, ok)
	require.NotNil(t, child.Target)

	mixins := f.model.GetMixins(child.Target)
	require.Len(t, mixins, 2)
	assert.False(t, mixins[0].Tombstone())
	assert.False(t, mixins[1].Tombstone())

	members := f.model.GetMembers(child.Target)
	assert.Equal(t, []string{"baseProp", "childProp"}, members.Names(component.SectionProps))
	assert.Equal(t, []string{"notify"}, members.Names(component.SectionMethods))

	mixin, ok := f.registry.Mixins(source.ProjectScope()).Select("notification")
	require.True(t, ok)
	assert.False(t, mixin.Global)
}

func TestIndexesFollowProjectChanges(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/main.js": `app.component('first', {})`,
	})

	assert.Equal(t, []string{"first"}, f.registry.Components(source.ProjectScope()).Names())
	assert.Equal(t, []string{"first"}, f.registry.Components(source.ProjectScope()).Names())
	assert.Equal(t, int64(1), f.registry.Stats().Hits)

	_, err := f.project.Update(f.path("src/main.js"), []byte(`app.component('second', {})`))
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, f.registry.Components(source.ProjectScope()).Names())
	assert.Equal(t, int64(1), f.registry.Stats().Recomputations)
}

func TestIndexesDuringConcurrentUpdates(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/main.js": `app.component('first', {})`,
	})
	path := f.path("src/main.js")
	padding := strings.Repeat("const filler = { a: [1, 2, 3], b: 'text' }\n", 2000)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				f.registry.Components(source.ProjectScope()).Names()
			}
		}
	}()

	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("name-%d", i)
		_, err := f.project.Update(path, []byte(fmt.Sprintf("app.component('%s', {})\n%s", name, padding)))
		require.NoError(t, err)
		assert.Equal(t, []string{name}, f.registry.Components(source.ProjectScope()).Names())
	}
	close(done)
	wg.Wait()
}

func TestStoreRoundTrip(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/a.js": `app.component('alpha', { props: ['a'] })
app.directive('focus', {})
Shopware.Mixin.register('helper', {})
`,
		"src/b.js": `app.component('Alpha', { props: ['b'] })`,
	})

	store, err := OpenStore(f.registry, t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for _, path := range f.project.Paths() {
		require.NoError(t, store.Index(f.project.File(path)))
	}

	alpha, err := store.Lookup(KindComponent, "alpha")
	require.NoError(t, err)
	require.Len(t, alpha, 2)
	assert.Equal(t, Summary{
		Name:       "alpha",
		Kind:       KindComponent,
		Path:       f.path("src/a.js"),
		Line:       1,
		Global:     true,
		Variant:    "options",
		TargetPath: f.path("src/a.js"),
		TargetLine: 1,
	}, alpha[0])

	helper, err := store.Lookup(KindMixin, "helper")
	require.NoError(t, err)
	require.Len(t, helper, 1)
	assert.False(t, helper[0].Global)

	require.NoError(t, store.RemovedFiles([]string{f.path("src/a.js")}))
	alpha, err = store.Lookup(KindComponent, "alpha")
	require.NoError(t, err)
	require.Len(t, alpha, 1)
	assert.Equal(t, f.path("src/b.js"), alpha[0].Path)

	require.NoError(t, store.Clear())
	all, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}
