package analyzer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DiseaseEntry is one disease known to the knowledge base.
type DiseaseEntry struct {
	Name    string   `yaml:"name"`
	KCDCode string   `yaml:"kcd_code"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// DiseaseKB resolves Korean disease names to canonical entries. Lookup is
// exact-match over names and aliases.
type DiseaseKB struct {
	entries []DiseaseEntry
	byName  map[string]*DiseaseEntry
}

// NewDiseaseKB builds a knowledge base from the given entries.
func NewDiseaseKB(entries []DiseaseEntry) *DiseaseKB {
	kb := &DiseaseKB{
		entries: entries,
		byName:  make(map[string]*DiseaseEntry, len(entries)),
	}
	for i := range kb.entries {
		e := &kb.entries[i]
		kb.byName[e.Name] = e
		for _, alias := range e.Aliases {
			if _, exists := kb.byName[alias]; !exists {
				kb.byName[alias] = e
			}
		}
	}
	return kb
}

// LoadDiseaseKB reads a YAML file of disease entries.
func LoadDiseaseKB(path string) (*DiseaseKB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read disease kb: %w", err)
	}
	var doc struct {
		Diseases []DiseaseEntry `yaml:"diseases"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse disease kb: %w", err)
	}
	return NewDiseaseKB(doc.Diseases), nil
}

// DefaultDiseaseKB returns a built-in knowledge base covering the diseases
// most common in Korean policy questions.
func DefaultDiseaseKB() *DiseaseKB {
	return NewDiseaseKB([]DiseaseEntry{
		{Name: "갑상선암", KCDCode: "C73"},
		{Name: "위암", KCDCode: "C16"},
		{Name: "폐암", KCDCode: "C34"},
		{Name: "간암", KCDCode: "C22"},
		{Name: "대장암", KCDCode: "C18"},
		{Name: "유방암", KCDCode: "C50"},
		{Name: "전립선암", KCDCode: "C61"},
		{Name: "백혈병", KCDCode: "C91"},
		{Name: "급성심근경색", KCDCode: "I21", Aliases: []string{"심근경색"}},
		{Name: "뇌졸중", KCDCode: "I63", Aliases: []string{"뇌경색"}},
		{Name: "뇌출혈", KCDCode: "I61"},
		{Name: "협심증", KCDCode: "I20"},
		{Name: "당뇨병", KCDCode: "E11", Aliases: []string{"당뇨"}},
		{Name: "고혈압", KCDCode: "I10"},
		{Name: "간경화", KCDCode: "K74", Aliases: []string{"간경변"}},
		{Name: "치매", KCDCode: "F03", Aliases: []string{"알츠하이머"}},
		{Name: "파킨슨병", KCDCode: "G20"},
	})
}

// Lookup returns the entry for an exact disease name or alias.
func (kb *DiseaseKB) Lookup(name string) (*DiseaseEntry, bool) {
	e, ok := kb.byName[name]
	return e, ok
}

// Len returns the number of known diseases.
func (kb *DiseaseKB) Len() int {
	return len(kb.entries)
}

// kbMatch is one occurrence of a known disease name inside a query.
type kbMatch struct {
	name  string
	start int
	end   int
	entry *DiseaseEntry
}

// FindAll locates every known name or alias occurring in the query. Offsets
// are in runes. Longer names are matched first so "갑상선암" wins over "암".
func (kb *DiseaseKB) FindAll(query string) []kbMatch {
	queryRunes := []rune(query)

	names := make([]string, 0, len(kb.byName))
	for name := range kb.byName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := len([]rune(names[i])), len([]rune(names[j]))
		if li != lj {
			return li > lj
		}
		return names[i] < names[j]
	})

	var matches []kbMatch
	for _, name := range names {
		nameRunes := []rune(name)
		for i := 0; i+len(nameRunes) <= len(queryRunes); i++ {
			if string(queryRunes[i:i+len(nameRunes)]) != name {
				continue
			}
			matches = append(matches, kbMatch{
				name:  name,
				start: i,
				end:   i + len(nameRunes),
				entry: kb.byName[name],
			})
			i += len(nameRunes) - 1
		}
	}
	return matches
}
