package analyzer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/poliqa/poliqa/pkg/types"
)

var (
	// amountExpr matches Korean magnitude amounts ("1억 5천만원", "100만원")
	// and plain separated numerals suffixed with 원 ("10,000원"). 천만 must
	// precede 천 and 만 in the alternation: Go regexes take the leftmost
	// alternative, not the longest.
	amountExpr = regexp.MustCompile(`(?:\d[\d,]*\s*(?:억|천만|백만|만|천|백)\s*)+원?|\d[\d,]*\s*원`)

	// amountSegment splits a normalized amount expression into
	// numeral+magnitude segments.
	amountSegment = regexp.MustCompile(`(\d+)(억|천만|백만|만|천|백)?`)

	// periodExpr matches durations. 개월 must precede 월.
	periodExpr = regexp.MustCompile(`(\d+)\s*(개월|일|주|월|년)`)

	// kcdExpr matches a KCD diagnostic code or a code range. The word
	// boundaries reject runs like "X99x" where the code bleeds into
	// adjacent word characters.
	kcdExpr = regexp.MustCompile(`\b[A-Z]\d{2,3}(?:\.\d{1,2})?(?:-[A-Z]\d{2,3}(?:\.\d{1,2})?)?\b`)

	// coverageExpr matches coverage item names by suffix.
	coverageExpr = regexp.MustCompile(`[가-힣A-Za-z0-9]+(?:특약|담보|진단비|수술비|입원비)|[가-힣]+보장`)
)

// amountMultipliers maps a magnitude suffix onto its numeric factor.
var amountMultipliers = map[string]int64{
	"억":  100_000_000,
	"천만": 10_000_000,
	"백만": 1_000_000,
	"만":  10_000,
	"천":  1_000,
	"백":  100,
	"":   1,
}

// periodDays maps a duration unit onto days. Months are a 30-day
// approximation, not calendar-accurate.
var periodDays = map[string]int64{
	"일":  1,
	"주":  7,
	"개월": 30,
	"월":  30,
	"년":  365,
}

// conditionTerms is the dictionary of policy-condition phrases.
var conditionTerms = []string{
	"대기기간", "면책기간", "면책사항", "나이제한", "가입연령", "갱신", "감액", "보장개시일",
}

// diseaseSuffix is the heuristic fallback when a disease is not in the
// knowledge base. Lower confidence than a KB hit.
var diseaseSuffix = regexp.MustCompile(`[가-힣]{2,}(?:암|증후군)`)

// ParseAmount normalizes a Korean amount expression into won. Magnitude
// segments combine additively: "1억 5천만원" is 100,000,000 + 50,000,000.
// Returns false when the text holds no parsable amount.
func ParseAmount(text string) (int64, bool) {
	compact := strings.NewReplacer(" ", "", ",", "", "원", "").Replace(text)
	segments := amountSegment.FindAllStringSubmatch(compact, -1)
	if len(segments) == 0 {
		return 0, false
	}
	var total int64
	for _, seg := range segments {
		n, err := strconv.ParseInt(seg[1], 10, 64)
		if err != nil {
			return 0, false
		}
		total += n * amountMultipliers[seg[2]]
	}
	return total, true
}

// ParsePeriod normalizes a duration expression into days.
func ParsePeriod(text string) (int64, bool) {
	m := periodExpr.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n * periodDays[m[2]], true
}

// KCDRange is a parsed diagnostic code or code range. End is empty for a
// single code.
type KCDRange struct {
	Start string
	End   string
}

// ParseKCD validates a KCD code or range token. The whole input must be a
// single well-formed token; trailing garbage is rejected.
func ParseKCD(text string) (KCDRange, bool) {
	m := kcdExpr.FindString(text)
	if m != text {
		return KCDRange{}, false
	}
	if start, end, ok := strings.Cut(m, "-"); ok {
		return KCDRange{Start: start, End: end}, true
	}
	return KCDRange{Start: m}, true
}

// extractEntities runs every extractor over the question and deduplicates
// overlapping spans, keeping the higher-confidence candidate.
func (a *Analyzer) extractEntities(question string) []types.ExtractedEntity {
	var candidates []types.ExtractedEntity
	candidates = append(candidates, a.extractAmounts(question)...)
	candidates = append(candidates, a.extractPeriods(question)...)
	candidates = append(candidates, a.extractKCDCodes(question)...)
	candidates = append(candidates, a.extractCoverages(question)...)
	candidates = append(candidates, a.extractConditions(question)...)
	candidates = append(candidates, a.extractDiseases(question)...)
	return dedupeEntities(candidates)
}

func (a *Analyzer) extractAmounts(question string) []types.ExtractedEntity {
	var out []types.ExtractedEntity
	for _, loc := range findAllRuneIndex(amountExpr, question) {
		text := loc.text
		value, ok := ParseAmount(text)
		if !ok {
			continue
		}
		out = append(out, types.ExtractedEntity{
			Text:       text,
			Type:       types.EntityAmount,
			Start:      loc.start,
			End:        loc.end,
			Normalized: strconv.FormatInt(value, 10),
			Confidence: 0.9,
		})
	}
	return out
}

func (a *Analyzer) extractPeriods(question string) []types.ExtractedEntity {
	var out []types.ExtractedEntity
	for _, loc := range findAllRuneIndex(periodExpr, question) {
		days, ok := ParsePeriod(loc.text)
		if !ok {
			continue
		}
		out = append(out, types.ExtractedEntity{
			Text:       loc.text,
			Type:       types.EntityPeriod,
			Start:      loc.start,
			End:        loc.end,
			Normalized: strconv.FormatInt(days, 10),
			Confidence: 0.9,
		})
	}
	return out
}

func (a *Analyzer) extractKCDCodes(question string) []types.ExtractedEntity {
	var out []types.ExtractedEntity
	for _, loc := range findAllRuneIndex(kcdExpr, question) {
		if _, ok := ParseKCD(loc.text); !ok {
			continue
		}
		out = append(out, types.ExtractedEntity{
			Text:       loc.text,
			Type:       types.EntityKCDCode,
			Start:      loc.start,
			End:        loc.end,
			Normalized: loc.text,
			Confidence: 0.95,
		})
	}
	return out
}

func (a *Analyzer) extractCoverages(question string) []types.ExtractedEntity {
	var out []types.ExtractedEntity
	for _, loc := range findAllRuneIndex(coverageExpr, question) {
		out = append(out, types.ExtractedEntity{
			Text:       loc.text,
			Type:       types.EntityCoverage,
			Start:      loc.start,
			End:        loc.end,
			Normalized: loc.text,
			Confidence: 0.7,
		})
	}
	return out
}

func (a *Analyzer) extractConditions(question string) []types.ExtractedEntity {
	runes := []rune(question)
	var out []types.ExtractedEntity
	for _, term := range conditionTerms {
		termRunes := []rune(term)
		for i := 0; i+len(termRunes) <= len(runes); i++ {
			if string(runes[i:i+len(termRunes)]) != term {
				continue
			}
			out = append(out, types.ExtractedEntity{
				Text:       term,
				Type:       types.EntityCondition,
				Start:      i,
				End:        i + len(termRunes),
				Normalized: term,
				Confidence: 0.8,
			})
			i += len(termRunes) - 1
		}
	}
	return out
}

func (a *Analyzer) extractDiseases(question string) []types.ExtractedEntity {
	var out []types.ExtractedEntity

	if a.diseaseKB != nil {
		for _, m := range a.diseaseKB.FindAll(question) {
			out = append(out, types.ExtractedEntity{
				Text:       m.name,
				Type:       types.EntityDisease,
				Start:      m.start,
				End:        m.end,
				Normalized: m.entry.Name,
				Confidence: 0.95,
			})
		}
	}

	// Suffix heuristics catch diseases the knowledge base does not know.
	for _, loc := range findAllRuneIndex(diseaseSuffix, question) {
		out = append(out, types.ExtractedEntity{
			Text:       loc.text,
			Type:       types.EntityDisease,
			Start:      loc.start,
			End:        loc.end,
			Normalized: loc.text,
			Confidence: 0.6,
		})
	}
	return out
}

// dedupeEntities resolves overlapping spans: the higher-confidence candidate
// wins; equal confidence prefers the longer span, then the earlier start.
// The survivors come back in span order.
func dedupeEntities(candidates []types.ExtractedEntity) []types.ExtractedEntity {
	if len(candidates) == 0 {
		return nil
	}
	ordered := make([]types.ExtractedEntity, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if la, lb := a.End-a.Start, b.End-b.Start; la != lb {
			return la > lb
		}
		return a.Start < b.Start
	})

	var kept []types.ExtractedEntity
	for _, cand := range ordered {
		overlaps := false
		for _, k := range kept {
			if cand.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, cand)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// runeMatch is a regex match with rune offsets into the original string.
type runeMatch struct {
	text  string
	start int
	end   int
}

// findAllRuneIndex runs a regex and converts byte offsets to rune offsets so
// spans line up with the rest of the analyzer.
func findAllRuneIndex(re *regexp.Regexp, s string) []runeMatch {
	var out []runeMatch
	for _, loc := range re.FindAllStringIndex(s, -1) {
		out = append(out, runeMatch{
			text:  s[loc[0]:loc[1]],
			start: len([]rune(s[:loc[0]])),
			end:   len([]rune(s[:loc[1]])),
		})
	}
	return out
}
