// Package rpc serves component model queries over JSON-RPC 2.0 with
// LSP-style framing, so editors and scripts can keep one project warm
package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/indexer"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/registry"
)

// Server answers model queries for one project
type Server struct {
	project  *project.Project
	model    *component.Model
	registry *registry.Registry
	scanner  *indexer.FileScanner
	conn     *jsonrpc2.Conn
}

// NewServer creates a server. scanner may be nil, in which case the
// project is expected to be loaded already and is only changed through
// document notifications.
func NewServer(p *project.Project, model *component.Model, r *registry.Registry, scanner *indexer.FileScanner) *Server {
	return &Server{project: p, model: model, registry: r, scanner: scanner}
}

// Start serves requests read from in until the connection closes
func (s *Server) Start(in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewBufferedStream(rwc{in, out}, jsonrpc2.VSCodeObjectCodec{})
	conn := s.Serve(context.Background(), stream)

	<-conn.DisconnectNotify()
	return nil
}

// Serve attaches the server to stream and returns the connection
func (s *Server) Serve(ctx context.Context, stream jsonrpc2.ObjectStream) *jsonrpc2.Conn {
	s.conn = jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))
	return s.conn
}

type rwc struct {
	io.Reader
	io.Writer
}

func (rwc) Close() error {
	return nil
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	if req.Method == "exit" {
		log.Println("Received exit notification, exiting")
		if err := conn.Close(); err != nil {
			log.Printf("error closing connection: %v", err)
		}
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		return s.initialize(), nil

	case "initialized":
		if s.scanner != nil {
			go func() {
				if err := s.indexAll(ctx, false); err != nil {
					log.Printf("Error indexing: %v", err)
				}
			}()
		}
		return nil, nil

	case "vuemodel/reindex":
		if s.scanner == nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: "no file scanner attached"}
		}
		go func() {
			if err := s.indexAll(ctx, true); err != nil {
				log.Printf("Error force reindexing: %v", err)
			}
		}()
		return map[string]interface{}{"message": "Reindexing started"}, nil

	case "textDocument/didOpen", "textDocument/didChange", "project/update":
		var params UpdateParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.update(ctx, params)

	case "textDocument/didClose":
		var params UpdateParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		if params.file() == "" {
			return nil, nil
		}
		return nil, s.reload(ctx, []string{s.path(params.file())})

	case "workspace/didChangeWatchedFiles":
		var params struct {
			Changes []struct {
				URI  string `json:"uri"`
				Type int    `json:"type"`
			} `json:"changes"`
		}
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		var changed, deleted []string
		for _, change := range params.Changes {
			if change.Type == fileDeleted {
				deleted = append(deleted, s.path(change.URI))
			} else {
				changed = append(changed, s.path(change.URI))
			}
		}
		if len(changed) > 0 {
			if err := s.reload(ctx, changed); err != nil {
				log.Printf("Error indexing changed files: %v", err)
			}
		}
		if len(deleted) > 0 {
			s.remove(ctx, deleted)
		}
		return nil, nil

	case "component/resolve":
		var params PositionParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.resolveComponent(params)

	case "component/members":
		var params MembersParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.members(params)

	case "component/mixins":
		var params PositionParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.mixins(params)

	case "registry/components":
		return s.registrations(req, registry.KindComponent)

	case "registry/directives":
		return s.registrations(req, registry.KindDirective)

	case "registry/filters":
		return s.registrations(req, registry.KindFilter)

	case "registry/mixins":
		return s.registrations(req, registry.KindMixin)

	case "cache/stats":
		return s.stats()

	case "shutdown":
		if s.scanner != nil {
			s.scanner.StopWatcher()
			if err := s.scanner.Close(); err != nil {
				log.Printf("Error closing indexers: %v", err)
			}
		}
		log.Println("Received shutdown request, waiting for exit notification")
		return nil, nil

	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "Method not implemented: " + req.Method}
	}
}

// fileDeleted is the LSP file change type of a deleted file
const fileDeleted = 3

func (s *Server) initialize() interface{} {
	return map[string]interface{}{
		"serverInfo": map[string]string{"name": "vuemodel"},
		"root":       s.project.Config().Root,
		"methods": []string{
			"component/resolve",
			"component/members",
			"component/mixins",
			"registry/components",
			"registry/directives",
			"registry/filters",
			"registry/mixins",
			"project/update",
			"cache/stats",
		},
	}
}

func (s *Server) indexAll(ctx context.Context, force bool) error {
	startTime := time.Now()

	if err := s.conn.Notify(ctx, "vuemodel/indexingStarted", map[string]interface{}{
		"message": "Indexing started",
	}); err != nil {
		return err
	}

	if force {
		if err := s.scanner.ClearStates(); err != nil {
			return err
		}
	}

	if err := s.scanner.IndexAll(ctx); err != nil {
		return err
	}

	return s.conn.Notify(ctx, "vuemodel/indexingCompleted", map[string]interface{}{
		"message":       "Indexing completed",
		"timeInSeconds": time.Since(startTime).Seconds(),
	})
}

// reload reads paths from disk again
func (s *Server) reload(ctx context.Context, paths []string) error {
	if s.scanner != nil {
		return s.scanner.IndexFiles(ctx, paths)
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				s.project.Remove(path)
				continue
			}
			return err
		}
		if _, err := s.project.Update(path, content); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) remove(ctx context.Context, paths []string) {
	if s.scanner != nil {
		if err := s.scanner.RemoveFiles(ctx, paths); err != nil {
			log.Printf("Error removing files: %v", err)
		}
		return
	}
	for _, path := range paths {
		s.project.Remove(path)
	}
}

// path turns a file URI or a root-relative path into an absolute path
func (s *Server) path(uri string) string {
	path := strings.TrimPrefix(uri, "file://")
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.project.Config().Root, path)
	}
	return filepath.Clean(path)
}

func decode(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return nil
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeParseError, Message: err.Error()}
	}
	return nil
}
