package treesitterhelper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSPatterns(t *testing.T) {
	code := []byte(`
app.component('my-button', MyButton);
app.directive('focus', { mounted() {} });
Vue.component('other', {});
`)
	tree, parser := parseJS(t, string(code))
	defer tree.Close()
	defer parser.Close()

	matches := FindAll(tree.RootNode(), JSMethodCallPattern("component"), code)
	assert.Equal(t, 2, len(matches), "Should find both component registrations")

	notApp := And(
		JSMethodCallPattern("component", "directive"),
		Not(HasChild(HasChild(NodeText("app")))),
	)
	matches = FindAll(tree.RootNode(), notApp, code)
	assert.Equal(t, 1, len(matches))
	assert.Contains(t, matches[0].Utf8Text(code), "Vue.component")
}

func TestFindFirstIsPreOrder(t *testing.T) {
	code := []byte(`const props = defineProps(['a', 'b']);`)
	tree, parser := parseJS(t, string(code))
	defer tree.Close()
	defer parser.Close()

	node := FindFirst(tree.RootNode(), NodeKind("identifier"), code)
	require.NotNil(t, node)
	assert.Equal(t, "props", node.Utf8Text(code))

	assert.Nil(t, FindFirst(tree.RootNode(), NodeKind("class_declaration"), code))
	assert.Nil(t, FindFirst(nil, NodeKind("identifier"), code))
}

func TestFindAllOutside(t *testing.T) {
	code := []byte(`
inject('a');
function nested() {
	inject('b');
}
const arrow = () => inject('c');
`)
	tree, parser := parseJS(t, string(code))
	defer tree.Close()
	defer parser.Close()

	all := FindAll(tree.RootNode(), JSCallToPattern("inject"), code)
	assert.Len(t, all, 3)

	topLevel := FindAllOutside(tree.RootNode(), JSCallToPattern("inject"), JSFunctionPattern, code)
	assert.Len(t, topLevel, 1)
	assert.Equal(t, "inject('a')", topLevel[0].Utf8Text(code))
}

func TestPatternComposition(t *testing.T) {
	code := []byte(`foo(1); bar(2);`)
	tree, parser := parseJS(t, string(code))
	defer tree.Close()
	defer parser.Close()

	complexPattern := And(
		NodeKind("call_expression"),
		Or(
			HasChild(NodeText("foo")),
			HasChild(NodeText("baz")),
		),
		Not(HasChild(NodeText("bar"))),
	)

	matches := FindAll(tree.RootNode(), complexPattern, code)
	assert.Len(t, matches, 1)
	assert.Equal(t, "foo(1)", matches[0].Utf8Text(code))

	statements := FindAll(tree.RootNode(), And(
		NodeKind("expression_statement"),
		HasChild(AnyNodeKind("call_expression", "new_expression")),
	), code)
	assert.Len(t, statements, 2)
}
