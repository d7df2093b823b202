package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

// Neo4jDriver implements GraphStore and VectorIndex against a Neo4j 5
// database. The vector index is expected to be a native Neo4j vector index
// over clause-node embeddings.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a new Neo4j driver instance.
func NewNeo4jDriver(uri, username, password, database string) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jDriver{client: client, database: database}, nil
}

// ExecuteQuery runs a Cypher query in a read transaction and collects the
// result rows.
func (n *Neo4jDriver) ExecuteQuery(ctx context.Context, cypherQuery string, params map[string]interface{}) ([]Row, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypherQuery, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph query failed: %w", err)
	}

	records, ok := result.([]*db.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T from graph query", result)
	}
	return rowsFromRecords(records), nil
}

// QueryVector searches the named Neo4j vector index for the nearest stored
// embeddings.
func (n *Neo4jDriver) QueryVector(ctx context.Context, indexName string, vector []float32, topK int) ([]VectorHit, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 10
	}

	query := `
		CALL db.index.vector.queryNodes($index_name, $top_k, $vector)
		YIELD node, score
		RETURN node.node_id AS node_id, node.text AS content,
		       node.source AS source, properties(node) AS props, score
	`
	rows, err := n.ExecuteQuery(ctx, query, map[string]interface{}{
		"index_name": indexName,
		"top_k":      topK,
		"vector":     vector,
	})
	if err != nil {
		return nil, fmt.Errorf("vector index query failed: %w", err)
	}

	hits := make([]VectorHit, 0, len(rows))
	for _, row := range rows {
		hit := VectorHit{}
		hit.NodeID, _ = AsString(row["node_id"])
		hit.Content, _ = AsString(row["content"])
		hit.Source, _ = AsString(row["source"])
		hit.Score, _ = AsFloat64(row["score"])
		if props, ok := row["props"].(map[string]interface{}); ok {
			hit.Properties = props
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the underlying driver connections.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// rowsFromRecords flattens driver records into alias-keyed rows.
func rowsFromRecords(records []*db.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := make(Row, len(record.Keys))
		for _, key := range record.Keys {
			value, _ := record.Get(key)
			row[key] = value
		}
		rows = append(rows, row)
	}
	return rows
}
