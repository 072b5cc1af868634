package lang

import "strings"

// Script markers for the detection heuristic. A text containing any marker
// from a set is attributed to that language. Sets are checked in order and
// the first match wins.
var scriptMarkers = []struct {
	name    string
	markers []string
}{
	{"Chinese", []string{"的", "是", "在", "有", "我", "你", "他"}},
	{"Japanese", []string{"は", "を", "が", "に", "と", "で"}},
	{"Korean", []string{"을", "를", "이", "가", "에", "의"}},
	{"Hindi", []string{"है", "हैं", "का", "की", "के", "में"}},
	{"Arabic", []string{"ال", "في", "من", "إلى", "على", "هذا"}},
	{"Russian", []string{"и", "в", "на", "с", "по", "от"}},
}

// Detect guesses the language of text by script markers.
//
// This is a coarse heuristic, not a classifier: it looks for tokens typical
// of a handful of non-Latin scripts and falls back to English for everything
// else. It is meant for pre-filling a source language selection, never for
// gating translation.
func Detect(text string) string {
	for _, s := range scriptMarkers {
		for _, m := range s.markers {
			if strings.Contains(text, m) {
				return s.name
			}
		}
	}
	return "English"
}
