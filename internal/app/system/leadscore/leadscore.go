// Package leadscore rates a prospect's likelihood to convert, 0 to 100.
//
// The score is a fixed weighted sum over the intake form: urgency, budget
// bracket, visa desirability and how complete the submission is. Missing
// fields contribute nothing. Score is pure; callers compute it once at
// intake and store it.
package leadscore

import (
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/text"
)

// Input is the subset of the contact form that drives the score.
type Input struct {
	Phone         string
	Country       string
	VisaType      string
	BudgetRange   string
	UrgencyLevel  string
	Message       string
	LeadSource    string
	HowDidYouKnow string
}

const (
	maxScore = 100

	weightPhone       = 3
	weightCountry     = 3
	weightSource      = 2
	weightLongMessage = 4
	weightMessage     = 2

	longMessageRunes = 50
	messageRunes     = 20
)

type rule struct {
	needles []string // lowercase, with and without accents
	weight  int
}

// Order matters: the first rule with a matching needle wins.
var urgencyRules = []rule{
	{[]string{"urgent"}, 30},
	{[]string{"high", "elevee", "élevée", "haute"}, 22},
	{[]string{"normal", "moyenne", "medium"}, 12},
	{[]string{"low", "faible", "basse"}, 5},
}

var budgetRules = []rule{
	{[]string{"5000+", ">5000", "plusde5000"}, 30},
	{[]string{"3000-5000"}, 22},
	{[]string{"1000-3000"}, 14},
	{[]string{"<1000", "0-1000", "moinsde1000"}, 6},
}

var visaRules = []rule{
	{[]string{"passeport talent", "talent passport"}, 25},
	{[]string{"travail", "work"}, 20},
	{[]string{"etudiant", "étudiant", "etudes", "études", "student"}, 16},
	{[]string{"regroupement", "family", "familial"}, 14},
	{[]string{"visiteur", "tourist", "touriste"}, 8},
}

const otherVisaWeight = 5

// Score returns the conversion probability for in, clamped to [0, 100].
func Score(in Input) int {
	s := 0
	s += match(urgencyRules, in.UrgencyLevel, 0)
	s += match(budgetRules, compact(in.BudgetRange), 0)
	s += match(visaRules, in.VisaType, otherVisaWeight)
	s += completeness(in)

	if s < 0 {
		return 0
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

func completeness(in Input) int {
	s := 0
	if strings.TrimSpace(in.Phone) != "" {
		s += weightPhone
	}
	if strings.TrimSpace(in.Country) != "" {
		s += weightCountry
	}
	if strings.TrimSpace(in.LeadSource) != "" || strings.TrimSpace(in.HowDidYouKnow) != "" {
		s += weightSource
	}
	switch n := utf8.RuneCountInString(strings.TrimSpace(in.Message)); {
	case n >= longMessageRunes:
		s += weightLongMessage
	case n >= messageRunes:
		s += weightMessage
	}
	return s
}

// match returns the weight of the first rule whose needle occurs in the
// value (as typed or folded), fallback for a non-empty value with no match,
// 0 when empty.
func match(rules []rule, value string, fallback int) int {
	raw := strings.ToLower(strings.TrimSpace(value))
	if raw == "" {
		return 0
	}
	folded := strings.ToLower(text.Fold(raw))
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(raw, n) || strings.Contains(folded, n) {
				return r.weight
			}
		}
	}
	return fallback
}

// compact drops spaces and currency marks so "3 000 - 5 000 €" reads as "3000-5000".
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '€', '$':
			return -1
		}
		return r
	}, s)
}
