// Package driver provides read-only access to the policy knowledge base
// stores: a Cypher-compatible property graph and a vector index over clause
// embeddings.
//
// The engine never writes to either store; population is owned by the
// ingestion pipeline. Consumers depend on the GraphStore and VectorIndex
// interfaces, which the Neo4j driver implements for both (Neo4j 5 hosts the
// vector index alongside the graph).
package driver
