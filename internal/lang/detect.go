// Package lang detects the dominant language of a text sample from Unicode
// script ranges and maps it to the OCR engine best suited for it.
package lang

import "sort"

// Detection is the outcome of a single-language scan.
type Detection struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Engine     string  `json:"engine"`
	Matches    int     `json:"matches,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Presence is one language found by a multi-language scan.
type Presence struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Engine     string  `json:"engine"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type scriptRange struct {
	lo, hi rune
}

type languagePattern struct {
	code   string
	name   string
	engine string
	ranges []scriptRange
	runes  []rune // explicit marker characters for Latin-based languages
}

// patterns is ordered; ties in confidence resolve to the earlier entry.
// Non-Latin scripts route to paddle (broad language coverage), Latin
// scripts to hunyuan (higher accuracy).
var patterns = []languagePattern{
	{code: "zh", name: "Chinese", engine: "paddle", ranges: []scriptRange{{0x4e00, 0x9fff}}},
	{code: "ja", name: "Japanese", engine: "paddle", ranges: []scriptRange{{0x3040, 0x309f}, {0x30a0, 0x30ff}}},
	{code: "ko", name: "Korean", engine: "paddle", ranges: []scriptRange{{0xac00, 0xd7af}}},
	{code: "ar", name: "Arabic", engine: "paddle", ranges: []scriptRange{{0x0600, 0x06ff}}},
	{code: "he", name: "Hebrew", engine: "paddle", ranges: []scriptRange{{0x0590, 0x05ff}}},
	{code: "fa", name: "Persian", engine: "paddle", ranges: []scriptRange{{0x0600, 0x06ff}, {0x0750, 0x077f}}},
	{code: "hi", name: "Hindi", engine: "paddle", ranges: []scriptRange{{0x0900, 0x097f}}},
	{code: "bn", name: "Bengali", engine: "paddle", ranges: []scriptRange{{0x0980, 0x09ff}}},
	{code: "ta", name: "Tamil", engine: "paddle", ranges: []scriptRange{{0x0b80, 0x0bff}}},
	{code: "te", name: "Telugu", engine: "paddle", ranges: []scriptRange{{0x0c00, 0x0c7f}}},
	{code: "th", name: "Thai", engine: "paddle", ranges: []scriptRange{{0x0e00, 0x0e7f}}},
	{code: "vi", name: "Vietnamese", engine: "paddle", ranges: []scriptRange{{0x1e00, 0x1eff}}},
	{code: "ru", name: "Russian", engine: "paddle", ranges: []scriptRange{{0x0400, 0x04ff}}},
	{code: "uk", name: "Ukrainian", engine: "paddle", ranges: []scriptRange{{0x0400, 0x04ff}}},
	{code: "el", name: "Greek", engine: "paddle", ranges: []scriptRange{{0x0370, 0x03ff}}},
	{code: "en", name: "English", engine: "hunyuan", ranges: []scriptRange{{'a', 'z'}, {'A', 'Z'}}},
	{code: "de", name: "German", engine: "hunyuan", runes: []rune("äöüßÄÖÜ")},
	{code: "fr", name: "French", engine: "hunyuan", runes: []rune("àâçéèêëîïôùûüÿœæ")},
	{code: "es", name: "Spanish", engine: "hunyuan", runes: []rune("áéíóúüñ¿¡")},
	{code: "pt", name: "Portuguese", engine: "hunyuan", runes: []rune("àáâãçéêíóôõú")},
	{code: "it", name: "Italian", engine: "hunyuan", runes: []rune("àèéìíîòóùú")},
}

// saLanguages are South African languages: Latin script, so hunyuan.
var saLanguages = map[string]bool{
	"af": true, "zu": true, "xh": true, "st": true, "tn": true,
	"ts": true, "ve": true, "ss": true, "nr": true, "nso": true,
}

func (p languagePattern) matches(r rune) bool {
	for _, rg := range p.ranges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	for _, m := range p.runes {
		if r == m {
			return true
		}
	}
	return false
}

func (p languagePattern) count(text string) int {
	n := 0
	for _, r := range text {
		if p.matches(r) {
			n++
		}
	}
	return n
}

// Detect scans text for the dominant language. Scores are the matched-rune
// ratio scaled up and capped at 0.95; below a 0.1 floor the answer defaults
// to English.
func Detect(text string) Detection {
	if text == "" {
		return Detection{Code: "en", Name: "English", Confidence: 0.5, Engine: "hunyuan"}
	}

	total := 0
	for range text {
		total++
	}

	var results []Detection
	for _, p := range patterns {
		n := p.count(text)
		if n == 0 {
			continue
		}
		confidence := float64(n) / float64(total) * 5
		if confidence > 0.95 {
			confidence = 0.95
		}
		results = append(results, Detection{
			Code:       p.code,
			Name:       p.name,
			Engine:     p.engine,
			Matches:    n,
			Confidence: confidence,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	if len(results) > 0 && results[0].Confidence > 0.1 {
		return results[0]
	}
	return Detection{Code: "en", Name: "English", Confidence: 0.8, Engine: "hunyuan"}
}

// DetectMultiple lists every language with more than three matched runes,
// most frequent first.
func DetectMultiple(text string) []Presence {
	if text == "" {
		return nil
	}

	total := 0
	for range text {
		total++
	}

	var detected []Presence
	for _, p := range patterns {
		n := p.count(text)
		if n <= 3 {
			continue
		}
		detected = append(detected, Presence{
			Code:       p.code,
			Name:       p.name,
			Engine:     p.engine,
			Count:      n,
			Percentage: float64(n) / float64(total) * 100,
		})
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Count > detected[j].Count
	})
	return detected
}

// EngineFor returns the recommended OCR engine for a language code.
func EngineFor(code string) string {
	if saLanguages[code] {
		return "hunyuan"
	}
	for _, p := range patterns {
		if p.code == code {
			return p.engine
		}
	}
	return "hunyuan"
}
