package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poliqa/poliqa/pkg/driver"
	"github.com/poliqa/poliqa/pkg/types"
)

// DefaultGraphScore is the relevance assigned to graph rows when the store
// returns no explicit score. A modeling default, not a measured relevance;
// override via GraphOptions since it affects fusion ordering.
const DefaultGraphScore = 0.8

// paramSpec declares one template parameter and the entity types that can
// fill it, in preference order.
type paramSpec struct {
	Name  string
	From  []types.EntityType
	Count int
}

// queryTemplate is one parameterized Cypher template. Each intent maps to
// exactly one template.
type queryTemplate struct {
	Cypher   string
	Required []paramSpec
	Optional []paramSpec
	Shape    []string
}

// intentTemplates is the closed mapping from intent to graph query template.
var intentTemplates = map[types.Intent]queryTemplate{
	types.IntentCoverageAmount: {
		Cypher: `
			MATCH (d:Disease)<-[:COVERS]-(c:Coverage)
			WHERE d.name = $anchor OR c.name = $anchor
			RETURN c.node_id AS node_id, c.name AS coverage_name,
			       c.amount AS amount, c.source AS source
			LIMIT $limit`,
		Required: []paramSpec{{Name: "anchor", From: []types.EntityType{types.EntityDisease, types.EntityCoverage}, Count: 1}},
		Shape:    []string{"node_id", "coverage_name", "amount", "source"},
	},
	types.IntentDiseaseCoverage: {
		Cypher: `
			MATCH (d:Disease {name: $disease})<-[:COVERS]-(c:Coverage)
			RETURN c.node_id AS node_id, c.name AS coverage_name,
			       c.amount AS amount, c.source AS source
			LIMIT $limit`,
		Required: []paramSpec{{Name: "disease", From: []types.EntityType{types.EntityDisease}, Count: 1}},
		Shape:    []string{"node_id", "coverage_name", "amount", "source"},
	},
	types.IntentWaitingPeriod: {
		Cypher: `
			MATCH (c:Coverage)-[:HAS_CONDITION]->(cond:Condition {type: '대기기간'})
			WHERE c.name = $anchor OR EXISTS {
				MATCH (c)-[:COVERS]->(d:Disease {name: $anchor})
			}
			RETURN cond.node_id AS node_id, c.name AS coverage_name,
			       cond.value AS period_days, cond.source AS source
			LIMIT $limit`,
		Required: []paramSpec{{Name: "anchor", From: []types.EntityType{types.EntityDisease, types.EntityCoverage}, Count: 1}},
		Shape:    []string{"node_id", "coverage_name", "period_days", "source"},
	},
	types.IntentComparison: {
		Cypher: `
			MATCH (d:Disease)<-[:COVERS]-(c:Coverage)
			WHERE d.name IN $diseases
			RETURN c.node_id AS node_id, d.name AS disease_name,
			       c.name AS coverage_name, c.amount AS amount, c.source AS source
			ORDER BY d.name, c.amount DESC
			LIMIT $limit`,
		Required: []paramSpec{{Name: "diseases", From: []types.EntityType{types.EntityDisease}, Count: 2}},
		Shape:    []string{"node_id", "disease_name", "coverage_name", "amount", "source"},
	},
	types.IntentAgeLimit: {
		Cypher: `
			MATCH (c:Coverage)-[:HAS_CONDITION]->(cond:Condition {type: '나이제한'})
			RETURN cond.node_id AS node_id, c.name AS coverage_name,
			       cond.value AS age_limit, cond.source AS source
			LIMIT $limit`,
		Optional: []paramSpec{{Name: "coverage", From: []types.EntityType{types.EntityCoverage}, Count: 1}},
		Shape:    []string{"node_id", "coverage_name", "age_limit", "source"},
	},
	types.IntentExclusions: {
		Cypher: `
			MATCH (c:Coverage)-[:EXCLUDES]->(x)
			RETURN x.node_id AS node_id, c.name AS coverage_name,
			       x.name AS excluded, x.source AS source
			LIMIT $limit`,
		Shape: []string{"node_id", "coverage_name", "excluded", "source"},
	},
	types.IntentPremium: {
		Cypher: `
			MATCH (c:Coverage)
			WHERE c.premium IS NOT NULL AND ($coverage IS NULL OR c.name = $coverage)
			RETURN c.node_id AS node_id, c.name AS coverage_name,
			       c.premium AS premium, c.source AS source
			LIMIT $limit`,
		Optional: []paramSpec{{Name: "coverage", From: []types.EntityType{types.EntityCoverage}, Count: 1}},
		Shape:    []string{"node_id", "coverage_name", "premium", "source"},
	},
}

// fallbackTemplate lists top-K known coverage items when no intent template
// matches but the query still routes through the graph.
var fallbackTemplate = queryTemplate{
	Cypher: `
		MATCH (c:Coverage)
		RETURN c.node_id AS node_id, c.name AS coverage_name,
		       c.amount AS amount, c.source AS source
		ORDER BY c.amount DESC
		LIMIT $limit`,
	Shape: []string{"node_id", "coverage_name", "amount", "source"},
}

// GraphOptions tunes the graph retriever.
type GraphOptions struct {
	// DefaultScore is assigned to rows without an explicit relevance score.
	DefaultScore float64
	// Limit caps rows per query.
	Limit  int
	Logger *slog.Logger
}

// GraphRetriever builds and executes intent-specific graph queries.
type GraphRetriever struct {
	store        driver.GraphStore
	defaultScore float64
	limit        int
	logger       *slog.Logger
}

// NewGraphRetriever creates a graph retriever over the given store.
func NewGraphRetriever(store driver.GraphStore, opts *GraphOptions) *GraphRetriever {
	if opts == nil {
		opts = &GraphOptions{}
	}
	score := opts.DefaultScore
	if score == 0 {
		score = DefaultGraphScore
	}
	limit := opts.Limit
	if limit == 0 {
		limit = 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphRetriever{store: store, defaultScore: score, limit: limit, logger: logger}
}

// Build translates an analyzed query into a parameterized graph query.
// Fails with UnsupportedIntentError when no template matches and the generic
// fallback does not apply, or MissingEntityError when a required parameter
// cannot be filled from the extracted entities.
func (g *GraphRetriever) Build(analysis *types.QueryAnalysis) (*types.GraphQuery, error) {
	tmpl, ok := intentTemplates[analysis.Intent]
	if !ok {
		// The generic fallback applies only to graph-routed queries.
		if analysis.QueryType != types.QueryGraphTraversal && analysis.QueryType != types.QueryHybrid {
			return nil, &types.UnsupportedIntentError{Intent: analysis.Intent}
		}
		tmpl = fallbackTemplate
	}

	params := map[string]interface{}{"limit": g.limit}
	for _, spec := range tmpl.Required {
		values := fillParam(analysis, spec)
		if len(values) < spec.Count {
			return nil, &types.MissingEntityError{
				Intent:     analysis.Intent,
				EntityType: spec.From[0],
				Need:       spec.Count,
				Have:       len(values),
			}
		}
		setParam(params, spec, values)
	}
	for _, spec := range tmpl.Optional {
		values := fillParam(analysis, spec)
		if len(values) < spec.Count {
			setParam(params, spec, nil)
			continue
		}
		setParam(params, spec, values)
	}

	return &types.GraphQuery{
		Template: tmpl.Cypher,
		Params:   params,
		Shape:    tmpl.Shape,
	}, nil
}

// fillParam collects normalized entity values for one parameter, honoring
// the declared type preference order.
func fillParam(analysis *types.QueryAnalysis, spec paramSpec) []string {
	var values []string
	for _, t := range spec.From {
		for _, e := range analysis.EntitiesOfType(t) {
			values = append(values, e.Normalized)
			if len(values) == spec.Count {
				return values
			}
		}
	}
	return values
}

func setParam(params map[string]interface{}, spec paramSpec, values []string) {
	if values == nil {
		params[spec.Name] = nil
		return
	}
	if spec.Count == 1 {
		params[spec.Name] = values[0]
		return
	}
	list := make([]interface{}, len(values))
	for i, v := range values {
		list[i] = v
	}
	params[spec.Name] = list
}

// Execute runs the query against the graph store and maps each row into the
// common retrieval shape. Single attempt; errors propagate as a stage failure.
func (g *GraphRetriever) Execute(ctx context.Context, query *types.GraphQuery) ([]types.RetrievalResult, error) {
	rows, err := g.store.ExecuteQuery(ctx, query.Template, query.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrRetrieval, err)
	}

	results := make([]types.RetrievalResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, g.resultFromRow(row))
	}
	g.logger.Debug("graph retrieval complete", "rows", len(results))
	return results, nil
}

// resultFromRow maps one tabular row into a RetrievalResult. Rows default to
// the configured graph score unless the store returned an explicit one.
func (g *GraphRetriever) resultFromRow(row driver.Row) types.RetrievalResult {
	result := types.RetrievalResult{
		Score:      g.defaultScore,
		Origin:     types.OriginGraph,
		Properties: map[string]interface{}(row),
	}
	if id, ok := driver.AsString(row["node_id"]); ok {
		result.NodeID = id
	}
	if score, ok := driver.AsFloat64(row["score"]); ok {
		result.Score = score
	}
	if source, ok := driver.AsString(row["source"]); ok {
		result.Source = source
	}
	result.Content = rowContent(row)
	return result
}

// rowContent renders a row's salient columns into display text.
func rowContent(row driver.Row) string {
	if text, ok := driver.AsString(row["text"]); ok && text != "" {
		return text
	}
	var parts []string
	for _, key := range []string{"disease_name", "coverage_name", "excluded", "amount", "period_days", "age_limit", "premium"} {
		v, present := row[key]
		if !present || v == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", key, v))
	}
	return strings.Join(parts, ", ")
}
