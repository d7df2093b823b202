package analyzer

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/poliqa/poliqa/pkg/types"
)

// Options tunes analyzer behavior.
type Options struct {
	// ComplexThreshold is the minimum intent score counted toward
	// IsComplex. Defaults to 0.1.
	ComplexThreshold float64
	// DiseaseKB overrides the built-in disease knowledge base.
	DiseaseKB *DiseaseKB
	Logger    *slog.Logger
}

// Analyzer classifies question intent and extracts typed entities.
// Safe for concurrent use; it holds no per-request state.
type Analyzer struct {
	patterns         []IntentPattern
	diseaseKB        *DiseaseKB
	complexThreshold float64
	logger           *slog.Logger
}

// New creates an analyzer with the default intent table.
func New(opts *Options) *Analyzer {
	if opts == nil {
		opts = &Options{}
	}
	threshold := opts.ComplexThreshold
	if threshold == 0 {
		threshold = 0.1
	}
	kb := opts.DiseaseKB
	if kb == nil {
		kb = DefaultDiseaseKB()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		patterns:         defaultIntentPatterns(),
		diseaseKB:        kb,
		complexThreshold: threshold,
		logger:           logger,
	}
}

// Analyze produces the structured reading of a question. It never fails: any
// internal panic degrades to an Unknown, unanswerable analysis.
func (a *Analyzer) Analyze(question string, _ map[string]string) (analysis *types.QueryAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("analyzer panic, degrading to unknown analysis", "panic", r, "query", question)
			analysis = unknownAnalysis(question)
		}
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return unknownAnalysis(question)
	}

	intent, confidence := a.DetectIntent(question)
	entities := a.extractEntities(question)
	queryType := routeQueryType(intent)

	analysis = &types.QueryAnalysis{
		Query:            question,
		Intent:           intent,
		IntentConfidence: confidence,
		Entities:         entities,
		Keywords:         extractKeywords(question),
		QueryType:        queryType,
		Language:         detectLanguage(question),
		IsAnswerable:     true,
	}

	if req, ok := anchorRequirements[intent]; ok {
		found := 0
		for _, t := range req.types {
			found += len(analysis.EntitiesOfType(t))
		}
		if found < req.count {
			analysis.IsAnswerable = false
			analysis.Clarification = clarificationFor(req)
		}
	}
	return analysis
}

func unknownAnalysis(question string) *types.QueryAnalysis {
	return &types.QueryAnalysis{
		Query:        question,
		Intent:       types.IntentUnknown,
		QueryType:    types.QueryHybrid,
		Language:     detectLanguage(question),
		IsAnswerable: false,
	}
}

// clarificationFor names the missing entity type so the caller can ask the
// user a pointed follow-up.
func clarificationFor(req anchorRequirement) string {
	var names []string
	for _, t := range req.types {
		switch t {
		case types.EntityDisease:
			names = append(names, "질병")
		case types.EntityCoverage:
			names = append(names, "보장")
		case types.EntityCondition:
			names = append(names, "조건")
		default:
			names = append(names, string(t))
		}
	}
	label := strings.Join(names, " 또는 ")
	if req.count > 1 {
		return "비교할 " + label + " 이름을 두 개 이상 알려주세요."
	}
	return "어떤 " + label + "에 대한 질문인지 알려주세요. 예: 질병명이나 특약 이름을 포함해 주세요."
}

// koreanParticles are trailing josa stripped during keyword extraction.
var koreanParticles = []string{
	"은", "는", "이", "가", "을", "를", "의", "에", "에서", "으로", "로", "와", "과", "도", "만",
}

// extractKeywords tokenizes a question into content keywords: punctuation
// stripped, trailing particles trimmed, single-rune tokens dropped.
func extractKeywords(question string) []string {
	fields := strings.FieldsFunc(question, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})

	seen := make(map[string]bool, len(fields))
	var keywords []string
	for _, f := range fields {
		token := trimParticle(f)
		if len([]rune(token)) < 2 {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

func trimParticle(token string) string {
	runes := []rune(token)
	if len(runes) < 3 {
		return token
	}
	// Longer particles first so "에서" is not cut to "에".
	for _, p := range []string{"에서", "으로"} {
		if strings.HasSuffix(token, p) {
			return string(runes[:len(runes)-2])
		}
	}
	for _, p := range koreanParticles {
		if len([]rune(p)) == 1 && strings.HasSuffix(token, p) {
			return string(runes[:len(runes)-1])
		}
	}
	return token
}

// detectLanguage reports "ko" when Hangul dominates the letters, "en" otherwise.
func detectLanguage(s string) string {
	var hangul, letters int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Hangul, r) {
				hangul++
			}
		}
	}
	if letters == 0 {
		return "ko"
	}
	if float64(hangul)/float64(letters) >= 0.3 {
		return "ko"
	}
	return "en"
}
