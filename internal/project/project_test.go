package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/vuemodel/internal/config"
	"github.com/shopware/vuemodel/internal/source"
)

// writeFiles creates the files below root
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func loadProject(t *testing.T, files map[string]string) (*Project, string) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)

	p := New(config.Default(root))
	require.NoError(t, p.LoadDir(context.Background(), root))
	return p, root
}

// nodeAt returns the first node of kind whose text equals text
func nodeAt(t *testing.T, file *source.File, kind, text string) *source.Node {
	t.Helper()
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

func TestLoadDirSkipsDirectories(t *testing.T) {
	p, root := loadProject(t, map[string]string{
		"src/a.ts":                  "export const a = 1",
		"src/B.vue":                 "<template/>",
		"node_modules/pkg/index.js": "export default 1",
		"dist/bundle.js":            "var x",
		"src/styles.scss":           "a {}",
	})

	assert.Equal(t, []string{
		filepath.Join(root, "src/B.vue"),
		filepath.Join(root, "src/a.ts"),
	}, p.Paths())
}

func TestUpdateInvalidates(t *testing.T) {
	p := New(config.Default("/"))
	first, err := p.Update("/src/a.js", []byte("const a = 1"))
	require.NoError(t, err)
	stamp := p.ModificationStamp()

	second, err := p.Update("/src/a.js", []byte("const a = 2"))
	require.NoError(t, err)

	assert.Greater(t, p.ModificationStamp(), stamp)
	assert.Equal(t, p.ModificationStamp(), second.Stamp)
	assert.False(t, first.Valid())
	assert.True(t, second.Valid())
	assert.Same(t, second, p.File("/src/a.js"))

	stamp = p.ModificationStamp()
	p.Remove("/src/a.js")
	assert.Greater(t, p.ModificationStamp(), stamp)
	assert.False(t, second.Valid())
	assert.Nil(t, p.File("/src/a.js"))

	stamp = p.ModificationStamp()
	p.Remove("/src/a.js")
	assert.Equal(t, stamp, p.ModificationStamp())
}

func TestResolveLocallyScopes(t *testing.T) {
	p := New(config.Default("/"))
	file, err := p.Update("/src/a.js", []byte(`
const outer = 1
function fn(param, { destructured }) {
  const inner = outer
  if (param) {
    var hoisted = 2
  }
  return [inner, param, destructured, hoisted, later]
}
function later() {}
for (const key in obj) { use(key) }
`))
	require.NoError(t, err)

	ret := nodeAt(t, file, "array", "[inner, param, destructured, hoisted, later]")
	elems := ret.NamedChildren()

	inner := p.ResolveLocally("inner", elems[0])
	require.NotNil(t, inner)
	assert.Equal(t, "variable_declarator", inner.Kind())

	outer := p.ResolveLocally("outer", inner)
	require.NotNil(t, outer)
	assert.Equal(t, "outer = 1", outer.Text())

	param := p.ResolveLocally("param", elems[1])
	require.NotNil(t, param)
	assert.Equal(t, "identifier", param.Kind())

	destructured := p.ResolveLocally("destructured", elems[2])
	require.NotNil(t, destructured)
	assert.Equal(t, "shorthand_property_identifier_pattern", destructured.Kind())

	hoisted := p.ResolveLocally("hoisted", elems[3])
	require.NotNil(t, hoisted)
	assert.Equal(t, "hoisted = 2", hoisted.Text())

	later := p.ResolveLocally("later", elems[4])
	require.NotNil(t, later)
	assert.Equal(t, "function_declaration", later.Kind())

	key := p.ResolveLocally("key", nodeAt(t, file, "call_expression", "use(key)"))
	require.NotNil(t, key)
	assert.Equal(t, "for_in_statement", key.Parent().Kind())

	assert.Nil(t, p.ResolveLocally("missing", elems[0]))
}

func TestResolveImports(t *testing.T) {
	p, root := loadProject(t, map[string]string{
		"src/components/Button.vue": `<script>export default { name: 'MyButton' }</script>`,
		"src/components/Icon.vue":   `<script setup>const size = 1</script>`,
		"src/components/index.ts": `
export { default as MyButton } from './Button.vue'
export * from './helpers'
export * as icons from './icons'
`,
		"src/components/helpers.ts": `export function helper() {}`,
		"src/components/icons.ts":   `export const star = { name: 'star' }`,
		"src/main.ts": `
import Button from './components/Button.vue'
import Icon from '@/components/Icon.vue'
import { MyButton as Aliased, helper } from './components'
import * as lib from './components'
import Missing from './nowhere'
use(Button, Icon, Aliased, helper, lib, Missing)
`,
	})

	main := p.File(filepath.Join(root, "src/main.ts"))
	require.NotNil(t, main)
	ctx := nodeAt(t, main, "call_expression", "use(Button, Icon, Aliased, helper, lib, Missing)")

	button := p.ResolveLocally("Button", ctx)
	require.NotNil(t, button)
	assert.Equal(t, "object", button.Kind())
	assert.Equal(t, filepath.Join(root, "src/components/Button.vue"), button.Path())

	icon := p.ResolveLocally("Icon", ctx)
	require.NotNil(t, icon)
	assert.Equal(t, "program", icon.Kind())
	assert.True(t, icon.Script().Setup)

	aliased := p.ResolveLocally("Aliased", ctx)
	require.NotNil(t, aliased)
	assert.True(t, aliased.Same(button))

	helper := p.ResolveLocally("helper", ctx)
	require.NotNil(t, helper)
	assert.Equal(t, "function_declaration", helper.Kind())

	lib := p.ResolveLocally("lib", ctx)
	require.NotNil(t, lib)
	assert.Equal(t, "program", lib.Kind())

	star := p.ResolveQualifiedName([]string{"./components", "icons", "star"}, ctx)
	require.NotNil(t, star)
	assert.Equal(t, "star = { name: 'star' }", star.Text())

	assert.Nil(t, p.ResolveLocally("Missing", ctx))
}

func TestResolvePackage(t *testing.T) {
	p, root := loadProject(t, map[string]string{
		"node_modules/ui-kit/package.json": `{"name": "ui-kit", "main": "lib/main.js", "module": "es/index.js"}`,
		"node_modules/ui-kit/es/index.js":  `export const Card = { name: 'Card' }`,
		"node_modules/@scope/pkg/index.ts": `export default { name: 'Scoped' }`,
		"src/app.js": `
import { Card } from 'ui-kit'
import Scoped from '@scope/pkg'
use(Card, Scoped)
`,
	})

	app := p.File(filepath.Join(root, "src/app.js"))
	ctx := nodeAt(t, app, "call_expression", "use(Card, Scoped)")

	card := p.ResolveLocally("Card", ctx)
	require.NotNil(t, card)
	assert.Equal(t, filepath.Join(root, "node_modules/ui-kit/es/index.js"), card.Path())

	scoped := p.ResolveLocally("Scoped", ctx)
	require.NotNil(t, scoped)
	assert.Equal(t, "{ name: 'Scoped' }", scoped.Text())

	// files outside the project never show up in tag scans
	assert.Len(t, p.Paths(), 1)
}

func TestSingleFileComponentSharedScope(t *testing.T) {
	p := New(config.Default("/"))
	file, err := p.Update("/src/A.vue", []byte(`<script>
const shared = 1
</script>
<script setup>
use(shared)
</script>`))
	require.NoError(t, err)

	decl := p.ResolveLocally("shared", nodeAt(t, file, "call_expression", "use(shared)"))
	require.NotNil(t, decl)
	assert.Equal(t, "shared = 1", decl.Text())
	assert.False(t, decl.Script().Setup)
}

func TestFindAllTagged(t *testing.T) {
	p := New(config.Default("/"))
	_, err := p.Update("/src/b.js", []byte(`
app.component('b-one', One)
app.directive('focus', {})
Vue.filter('upper', s => s.toUpperCase())
Vue.mixin({ created() {} })
this.mixin(x)
Shopware.Component.register('sw-foo', () => import('./sw-foo'))
Shopware.Mixin.register('notification', { methods: {} })
`))
	require.NoError(t, err)
	_, err = p.Update("/src/a.js", []byte(`
app.component('a-one', One)
export default defineComponent({})
`))
	require.NoError(t, err)
	_, err = p.Update("/src/C.vue", []byte(`<script setup>const a = 1</script>`))
	require.NoError(t, err)

	regs := p.FindAllTagged(source.ProjectScope(), TagComponentRegistration)
	require.Len(t, regs, 3)
	assert.Equal(t, "/src/a.js", regs[0].Path())
	assert.Equal(t, "app.component('b-one', One)", regs[1].Text())
	assert.Contains(t, regs[2].Text(), "Shopware.Component.register")

	assert.Len(t, p.FindAllTagged(source.ProjectScope(), TagDirectiveRegistration), 1)
	assert.Len(t, p.FindAllTagged(source.ProjectScope(), TagFilterRegistration), 1)
	assert.Len(t, p.FindAllTagged(source.ProjectScope(), TagGlobalMixin), 1)
	assert.Len(t, p.FindAllTagged(source.ProjectScope(), TagMixinRegistration), 1)

	defs := p.FindAllTagged(source.ProjectScope(), TagComponentDefinition)
	// the export default statement, the defining call and the setup program
	assert.Len(t, defs, 3)

	scoped := p.FindAllTagged(source.FilesScope("/src/a.js"), TagComponentRegistration)
	require.Len(t, scoped, 1)
	assert.Equal(t, "app.component('a-one', One)", scoped[0].Text())
}

func TestInferTypeThroughImports(t *testing.T) {
	p, root := loadProject(t, map[string]string{
		"src/types.ts": `export interface User { id: number; name?: string }`,
		"src/use.ts": `
import type { User } from './types'
const user = ref<User>()
`,
	})

	file := p.File(filepath.Join(root, "src/use.ts"))
	decl := p.ResolveLocally("user", file.Root())
	require.NotNil(t, decl)

	assert.Equal(t, "Ref<{ id: number; name?: string }>", p.InferType(decl).String())
}

func TestNodeByID(t *testing.T) {
	p := New(config.Default("/"))
	file, err := p.Update("/src/a.js", []byte("const a = { x: 1 }"))
	require.NoError(t, err)
	obj := nodeAt(t, file, "object", "{ x: 1 }")

	_, err = p.Update("/src/a.js", []byte("const a = { x: 1 }"))
	require.NoError(t, err)
	assert.False(t, obj.Valid())

	again := p.NodeByID(obj.ID())
	require.NotNil(t, again)
	assert.True(t, again.Valid())
	assert.True(t, again.Same(obj))
}
