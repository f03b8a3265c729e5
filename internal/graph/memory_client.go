package graph

import (
	"context"
	"maps"
	"sync"
)

// Query is a statement executed against a MemoryClient.
type Query struct {
	Cypher string
	Params map[string]any
	Write  bool
}

// Responder produces the result for a query.
type Responder func(q Query) (Result, error)

// MemoryClient records statements instead of running them. Replies come from
// queued results or, when none are queued, from an optional Responder.
type MemoryClient struct {
	mu           sync.Mutex
	queries      []Query
	queued       []Result
	respond      Responder
	connectivity error
}

// NewMemoryClient returns a MemoryClient that answers every query with an empty result.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// RespondWith installs fn as the fallback responder.
func (m *MemoryClient) RespondWith(fn Responder) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respond = fn
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// Queue appends a result returned by the next query, read or write.
func (m *MemoryClient) Queue(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, res)
}

func (m *MemoryClient) Write(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.exec(Query{Cypher: cypher, Params: maps.Clone(params), Write: true})
}

func (m *MemoryClient) Read(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.exec(Query{Cypher: cypher, Params: maps.Clone(params)})
}

func (m *MemoryClient) exec(q Query) (Result, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	if len(m.queued) > 0 {
		res := m.queued[0]
		m.queued = m.queued[1:]
		m.mu.Unlock()
		return res, nil
	}
	respond := m.respond
	m.mu.Unlock()

	if respond == nil {
		return Result{}, nil
	}
	return respond(q)
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// Queries returns a snapshot of every executed statement in order.
func (m *MemoryClient) Queries() []Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Query(nil), m.queries...)
}

// Writes returns only the write statements.
func (m *MemoryClient) Writes() []Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Query
	for _, q := range m.queries {
		if q.Write {
			out = append(out, q)
		}
	}
	return out
}
