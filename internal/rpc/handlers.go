package rpc

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/registry"
	"github.com/shopware/vuemodel/internal/report"
	"github.com/shopware/vuemodel/internal/source"
)

// PositionParams address a component by file and 1-based line. Without a
// line the first component declared in the file is meant.
type PositionParams struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
}

type MembersParams struct {
	PositionParams
	// Scoped merges the global mixins of the project below the members
	Scoped bool `json:"scoped,omitempty"`
}

// RegistryParams list the registrations of a file, or of the project when
// Path is empty. With a Name, the registration that name resolves to at
// Path and Line is returned instead.
type RegistryParams struct {
	Path string `json:"path,omitempty"`
	Line int    `json:"line,omitempty"`
	Name string `json:"name,omitempty"`
}

// UpdateParams carry a new in-memory version of a file, either as
// {path, text} or in the shape of the LSP document notifications
type UpdateParams struct {
	Path string  `json:"path"`
	Text *string `json:"text"`

	TextDocument struct {
		URI  string  `json:"uri"`
		Text *string `json:"text"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

func (p UpdateParams) file() string {
	if p.Path != "" {
		return p.Path
	}
	return p.TextDocument.URI
}

func (p UpdateParams) content() (string, bool) {
	switch {
	case p.Text != nil:
		return *p.Text, true
	case p.TextDocument.Text != nil:
		return *p.TextDocument.Text, true
	case len(p.ContentChanges) > 0:
		return p.ContentChanges[len(p.ContentChanges)-1].Text, true
	}
	return "", false
}

func (s *Server) update(ctx context.Context, params UpdateParams) (interface{}, error) {
	if params.file() == "" {
		return nil, invalidParams("missing path")
	}
	path := s.path(params.file())

	text, ok := params.content()
	if !ok {
		if err := s.reload(ctx, []string{path}); err != nil {
			return nil, err
		}
	} else if _, err := s.project.Update(path, []byte(text)); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"path":  path,
		"stamp": s.project.ModificationStamp(),
	}, nil
}

func (s *Server) file(path string) (*source.File, error) {
	if path == "" {
		return nil, invalidParams("missing path")
	}
	file := s.project.File(s.path(path))
	if file == nil {
		return nil, invalidParams("unknown file: " + path)
	}
	return file, nil
}

// target finds the component addressed by params; a nil descriptor means
// nothing is declared there
func (s *Server) target(params PositionParams) (*component.Descriptor, error) {
	file, err := s.file(params.Path)
	if err != nil {
		return nil, err
	}
	if params.Line > 0 {
		return s.model.ComponentAt(file.NodeAtLine(params.Line)), nil
	}
	if defs := s.model.Definitions(source.FilesScope(file.Path)); len(defs) > 0 {
		return defs[0], nil
	}
	return nil, nil
}

func (s *Server) resolveComponent(params PositionParams) (interface{}, error) {
	if params.Line > 0 {
		desc, err := s.target(params)
		if err != nil {
			return nil, err
		}
		return raw(report.Descriptor(s.model, desc))
	}

	file, err := s.file(params.Path)
	if err != nil {
		return nil, err
	}
	doc := report.NewArray()
	for _, desc := range s.model.Definitions(source.FilesScope(file.Path)) {
		doc.Append("", report.Descriptor(s.model, desc))
	}
	return raw(doc)
}

func (s *Server) members(params MembersParams) (interface{}, error) {
	desc, err := s.target(params.PositionParams)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return raw(report.Header(nil))
	}

	var members component.Members
	if params.Scoped {
		members = s.model.GetMembersInScope(desc, source.ProjectScope())
	} else {
		members = s.model.GetMembers(desc)
	}
	doc := report.Header(desc)
	if b, err := report.Members(members).Bytes(); err == nil {
		doc.SetRaw("members", b)
	}
	return raw(doc)
}

func (s *Server) mixins(params PositionParams) (interface{}, error) {
	desc, err := s.target(params)
	if err != nil {
		return nil, err
	}
	doc := report.Header(desc)
	if desc != nil {
		if b, err := report.Mixins(s.model.GetMixins(desc)).Bytes(); err == nil {
			doc.SetRaw("mixins", b)
		}
	}
	return raw(doc)
}

func (s *Server) registrations(req *jsonrpc2.Request, kind registry.Kind) (interface{}, error) {
	var params RegistryParams
	if err := decode(req, &params); err != nil {
		return nil, err
	}

	var file *source.File
	if params.Path != "" {
		f, err := s.file(params.Path)
		if err != nil {
			return nil, err
		}
		file = f
	}

	if params.Name != "" {
		var ctx *source.Node
		if file != nil {
			if params.Line > 0 {
				ctx = file.NodeAtLine(params.Line)
			}
			if ctx == nil {
				ctx = file.Root()
			}
		}
		e, ok := s.registry.Resolve(kind, params.Name, ctx)
		if !ok {
			return raw(report.New().Set("resolved", false))
		}
		return raw(report.Registration(e, 1))
	}

	scope := source.ProjectScope()
	if file != nil {
		scope = source.FilesScope(file.Path)
	}
	return raw(report.Registrations(s.registry.Index(kind, scope)))
}

func (s *Server) stats() (interface{}, error) {
	stats := append(s.model.Stats(), s.registry.Stats())
	return raw(report.Stats(stats))
}

func raw(doc *report.Document) (interface{}, error) {
	b, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func invalidParams(message string) *jsonrpc2.Error {
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: message}
}
