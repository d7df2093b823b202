package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/poliqa/poliqa/pkg/types"
)

// IntentPattern is one row of the intent detection table. Keywords are
// substring triggers worth one hit each; Patterns are regex triggers worth
// two hits each. Priority breaks score ties; higher wins.
type IntentPattern struct {
	Intent   types.Intent
	Keywords []string
	Patterns []*regexp.Regexp
	Priority int
	Weight   float64
}

// IntentScore is one scored candidate from intent detection.
type IntentScore struct {
	Intent types.Intent
	Score  float64
}

// defaultIntentPatterns is the ordered detection table for Korean insurance
// policy questions. Order matters only for equal priority and score.
func defaultIntentPatterns() []IntentPattern {
	return []IntentPattern{
		{
			Intent:   types.IntentComparison,
			Keywords: []string{"비교", "차이", "다른점", "어떤게", "vs"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(와|과|랑|하고)\s*[가-힣]+\s*(비교|차이)`),
			},
			Priority: 90,
			Weight:   1.0,
		},
		{
			Intent:   types.IntentWaitingPeriod,
			Keywords: []string{"대기기간", "면책기간", "언제부터", "며칠 후", "기다려야"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(가입|계약)\s*(후|이후)\s*언제`),
			},
			Priority: 80,
			Weight:   1.0,
		},
		{
			Intent:   types.IntentExclusions,
			Keywords: []string{"보장 제외", "면책사항", "제외", "보상하지 않", "안되는", "안 되는"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(보장|보상)\s*(이|가)?\s*(안|않)`),
			},
			Priority: 70,
			Weight:   1.0,
		},
		{
			Intent:   types.IntentCoverageAmount,
			Keywords: []string{"보장 금액", "보험금", "얼마", "지급", "한도", "진단비"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`얼마(나|를|인가요|예요|에요)?`),
			},
			Priority: 60,
			Weight:   1.0,
		},
		{
			Intent:   types.IntentAgeLimit,
			Keywords: []string{"나이", "연령", "몇 세", "가입 가능", "나이제한"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\d+\s*세.*(가입|보장)`),
			},
			Priority: 50,
			Weight:   1.0,
		},
		{
			Intent:   types.IntentPremium,
			Keywords: []string{"보험료", "납입", "월납", "얼마씩"},
			Priority: 40,
			Weight:   1.0,
		},
		{
			Intent:   types.IntentDiseaseCoverage,
			Keywords: []string{"보장 되나요", "보장되나요", "보장 대상", "보장 받을", "해당되나요", "커버"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`보장\s*(이|을|을까요|되|돼|받)`),
			},
			Priority: 30,
			Weight:   1.0,
		},
		{
			Intent:   types.IntentPolicySummary,
			Keywords: []string{"요약", "설명", "알려줘", "어떤 보험", "어떤 상품", "정리"},
			Priority: 20,
			Weight:   1.0,
		},
	}
}

// scoreIntent computes the normalized [0,1] score of one pattern against a
// question: the weighted hit count over the maximum attainable hits.
func scoreIntent(question string, p IntentPattern) float64 {
	hits := 0
	for _, kw := range p.Keywords {
		if strings.Contains(question, kw) {
			hits++
		}
	}
	for _, re := range p.Patterns {
		if re.MatchString(question) {
			hits += 2
		}
	}
	if hits == 0 {
		return 0
	}
	max := len(p.Keywords) + 2*len(p.Patterns)
	score := float64(hits) / float64(max) * p.Weight
	if score > 1 {
		score = 1
	}
	return score
}

// DetectIntent returns the highest-scoring intent and its score. Ties break
// by declared pattern priority. A question matching nothing returns
// IntentUnknown with score 0.
func (a *Analyzer) DetectIntent(question string) (types.Intent, float64) {
	top := a.DetectTopK(question, 1)
	if len(top) == 0 || top[0].Score == 0 {
		return types.IntentUnknown, 0
	}
	return top[0].Intent, top[0].Score
}

// DetectTopK returns the k highest-scoring intents for ambiguity handling.
// Intents scoring zero are excluded.
func (a *Analyzer) DetectTopK(question string, k int) []IntentScore {
	scored := make([]IntentScore, 0, len(a.patterns))
	priority := make(map[types.Intent]int, len(a.patterns))
	for _, p := range a.patterns {
		s := scoreIntent(question, p)
		if s == 0 {
			continue
		}
		scored = append(scored, IntentScore{Intent: p.Intent, Score: s})
		priority[p.Intent] = p.Priority
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return priority[scored[i].Intent] > priority[scored[j].Intent]
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// IsComplex reports whether a question plausibly carries two or more intents,
// each scoring above the complexity threshold.
func (a *Analyzer) IsComplex(question string) bool {
	above := 0
	for _, s := range a.DetectTopK(question, 0) {
		if s.Score >= a.complexThreshold {
			above++
		}
	}
	return above >= 2
}

// routeQueryType maps a detected intent onto a retrieval plan.
func routeQueryType(intent types.Intent) types.QueryType {
	switch intent {
	case types.IntentExclusions:
		return types.QueryDirectLookup
	case types.IntentCoverageAmount, types.IntentDiseaseCoverage,
		types.IntentWaitingPeriod, types.IntentComparison, types.IntentAgeLimit:
		return types.QueryGraphTraversal
	case types.IntentPolicySummary:
		return types.QueryVectorSearch
	default:
		return types.QueryHybrid
	}
}

// anchorRequirement describes the entity an intent needs to be answerable.
type anchorRequirement struct {
	types []types.EntityType
	count int
}

// anchorRequirements lists intents that cannot be answered without an anchor
// entity. Comparison needs two diseases; the amount and coverage intents
// accept either a disease or a coverage name.
var anchorRequirements = map[types.Intent]anchorRequirement{
	types.IntentCoverageAmount:  {types: []types.EntityType{types.EntityDisease, types.EntityCoverage}, count: 1},
	types.IntentDiseaseCoverage: {types: []types.EntityType{types.EntityDisease}, count: 1},
	types.IntentComparison:      {types: []types.EntityType{types.EntityDisease}, count: 2},
}
