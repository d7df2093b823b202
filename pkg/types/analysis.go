package types

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityDisease   EntityType = "disease"
	EntityCoverage  EntityType = "coverage"
	EntityCondition EntityType = "condition"
	EntityAmount    EntityType = "amount"
	EntityPeriod    EntityType = "period"
	EntityKCDCode   EntityType = "kcd_code"
)

// ExtractedEntity is a typed span found in the question text.
// The span is half-open: [Start, End) in runes of the original query.
// Immutable once created.
type ExtractedEntity struct {
	Text       string     `json:"text" mapstructure:"text"`
	Type       EntityType `json:"type" mapstructure:"type"`
	Start      int        `json:"start" mapstructure:"start"`
	End        int        `json:"end" mapstructure:"end"`
	Normalized string     `json:"normalized" mapstructure:"normalized"`
	Confidence float64    `json:"confidence" mapstructure:"confidence"`
}

// Overlaps reports whether two entity spans intersect.
func (e ExtractedEntity) Overlaps(other ExtractedEntity) bool {
	return e.Start < other.End && other.Start < e.End
}

// Intent is the classified purpose of a question.
type Intent string

const (
	IntentCoverageAmount  Intent = "coverage_amount"
	IntentDiseaseCoverage Intent = "disease_coverage"
	IntentWaitingPeriod   Intent = "waiting_period"
	IntentExclusions      Intent = "exclusions"
	IntentComparison      Intent = "comparison"
	IntentAgeLimit        Intent = "age_limit"
	IntentPremium         Intent = "premium"
	IntentPolicySummary   Intent = "policy_summary"
	IntentUnknown         Intent = "unknown"
)

// QueryType routes an analyzed question to a retrieval plan.
type QueryType string

const (
	// QueryDirectLookup answers from a fixed structured lookup, no anchor entity needed.
	QueryDirectLookup QueryType = "direct_lookup"
	// QueryGraphTraversal is an entity-anchored structured lookup.
	QueryGraphTraversal QueryType = "graph_traversal"
	// QueryVectorSearch serves free-text and summary intents.
	QueryVectorSearch QueryType = "vector_search"
	// QueryHybrid combines graph and vector retrieval. Default.
	QueryHybrid QueryType = "hybrid"
)

// QueryAnalysis is the structured reading of one question. One per request,
// owned by the orchestrator for the request's lifetime.
type QueryAnalysis struct {
	Query            string            `json:"query" mapstructure:"query"`
	Intent           Intent            `json:"intent" mapstructure:"intent"`
	IntentConfidence float64           `json:"intent_confidence" mapstructure:"intent_confidence"`
	Entities         []ExtractedEntity `json:"entities" mapstructure:"entities"`
	Keywords         []string          `json:"keywords" mapstructure:"keywords"`
	QueryType        QueryType         `json:"query_type" mapstructure:"query_type"`
	Language         string            `json:"language" mapstructure:"language"`
	IsAnswerable     bool              `json:"is_answerable" mapstructure:"is_answerable"`
	Clarification    string            `json:"clarification,omitempty" mapstructure:"clarification"`
}

// EntitiesOfType returns the extracted entities of the given type, in span order.
func (a *QueryAnalysis) EntitiesOfType(t EntityType) []ExtractedEntity {
	var out []ExtractedEntity
	for _, e := range a.Entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// FirstEntity returns the first extracted entity of the given type, if any.
func (a *QueryAnalysis) FirstEntity(t EntityType) (ExtractedEntity, bool) {
	for _, e := range a.Entities {
		if e.Type == t {
			return e, true
		}
	}
	return ExtractedEntity{}, false
}

// GraphQuery is a parameterized graph-store query built from a QueryAnalysis.
// Stateless value; Params hold scalars or lists keyed by template parameter name.
type GraphQuery struct {
	Template string                 `json:"template" mapstructure:"template"`
	Params   map[string]interface{} `json:"params" mapstructure:"params"`
	Shape    []string               `json:"shape" mapstructure:"shape"`
}
