// Package tools implements the copilot's external capabilities: web search,
// page retrieval and video search, behind a name-keyed registry that the
// research loop dispatches tool calls to.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
)

// Executor runs a named tool with raw JSON arguments and returns the
// serialized result payload. An empty payload is treated by callers as an
// execution failure.
type Executor interface {
	Execute(ctx context.Context, name string, args string) (string, error)
}

// Tool pairs a declaration (what the model sees) with its implementation.
type Tool struct {
	Declaration models.FunctionDeclaration
	Run         func(ctx context.Context, args string) (string, error)
}

// Registry is an Executor backed by a fixed set of named tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	cache  *Cache
	logger *logger.Logger
}

// NewRegistry creates an empty registry. cache may be nil.
func NewRegistry(log *logger.Logger, cache *Cache) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		cache:  cache,
		logger: log.WithComponent("tools"),
	}
}

// NewDefaultRegistry creates a registry with the standard copilot tools:
// search, retrieve and videoSearch.
func NewDefaultRegistry(log *logger.Logger, cache *Cache) *Registry {
	r := NewRegistry(log, cache)
	r.Register(SearchTool())
	r.Register(RetrieveTool())
	r.Register(VideoSearchTool())
	return r
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Declaration.Name] = t
}

// Declarations returns the function declarations of all registered tools,
// sorted by name for stable prompt construction.
func (r *Registry) Declarations() []models.FunctionDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decls := make([]models.FunctionDeclaration, 0, len(r.tools))
	for _, t := range r.tools {
		decls = append(decls, t.Declaration)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

// Execute dispatches a tool call. Search results are served from the cache
// when one is configured.
func (r *Registry) Execute(ctx context.Context, name string, args string) (string, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown or unavailable tool: %s", name)
	}

	if r.cache != nil && cacheable(name) {
		if hit, ok := r.cache.Get(ctx, name, args); ok {
			r.logger.Debug("tool cache hit", "tool", name)
			return hit, nil
		}
	}

	result, err := tool.Run(ctx, args)
	if err != nil {
		return "", err
	}

	if r.cache != nil && cacheable(name) && result != "" {
		r.cache.Set(ctx, name, args, result)
	}
	return result, nil
}

// cacheable reports whether a tool's results may be cached. Retrieval is
// excluded: page content is fetched for freshness.
func cacheable(name string) bool {
	return name == "search" || name == "videoSearch"
}
