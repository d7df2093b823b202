package driver

import "context"

// Row is one tabular result row from a graph query, keyed by return alias.
type Row map[string]interface{}

// GraphStore executes parameterized Cypher queries against the property graph.
type GraphStore interface {
	// ExecuteQuery runs a Cypher query with parameters and returns the
	// result rows. Single attempt; retry policy belongs to the caller.
	ExecuteQuery(ctx context.Context, cypherQuery string, params map[string]interface{}) ([]Row, error)

	// Close releases all resources held by the driver.
	Close(ctx context.Context) error
}

// VectorHit is one nearest-neighbor candidate from the vector index.
type VectorHit struct {
	NodeID     string
	Score      float64
	Content    string
	Source     string
	Properties map[string]interface{}
}

// VectorIndex performs approximate-nearest-neighbor search by embedding.
type VectorIndex interface {
	// QueryVector returns the topK nearest stored embeddings to the query
	// vector, scored by cosine similarity.
	QueryVector(ctx context.Context, indexName string, vector []float32, topK int) ([]VectorHit, error)
}
