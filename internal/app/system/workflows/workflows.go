// Package workflows holds the static case checklists keyed by destination
// country and visa category.
package workflows

import (
	"strings"

	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Visa categories a visa type string is classified into.
const (
	CategoryStudent = "student"
	CategoryWork    = "work"
	CategoryTalent  = "talent"
	CategoryFamily  = "family"
	CategoryVisitor = "visitor"
	CategoryOther   = "other"
)

type step struct {
	title    string
	duration string
}

type key struct {
	country  string
	category string
}

var templates = map[key][]step{
	{"france", CategoryStudent}: {
		{"Consultation initiale", "1 semaine"},
		{"Inscription Campus France", "2-3 semaines"},
		{"Préparation du dossier", "2 semaines"},
		{"Entretien Campus France", "1 semaine"},
		{"Demande de visa au consulat", "2-4 semaines"},
		{"Validation VLS-TS à l'arrivée", "1 semaine"},
	},
	{"france", CategoryWork}: {
		{"Consultation initiale", "1 semaine"},
		{"Vérification du contrat de travail", "1 semaine"},
		{"Autorisation de travail employeur", "3-6 semaines"},
		{"Collecte des documents", "2 semaines"},
		{"Demande de visa long séjour", "2-4 semaines"},
		{"Titre de séjour salarié", "4-8 semaines"},
	},
	{"france", CategoryTalent}: {
		{"Consultation initiale", "1 semaine"},
		{"Analyse d'éligibilité Passeport Talent", "1 semaine"},
		{"Constitution du dossier", "2-3 semaines"},
		{"Dépôt de la demande", "1 semaine"},
		{"Instruction par la préfecture", "4-8 semaines"},
		{"Remise du titre de séjour", "1-2 semaines"},
	},
	{"france", CategoryFamily}: {
		{"Consultation initiale", "1 semaine"},
		{"Vérification des conditions de ressources et logement", "2 semaines"},
		{"Dépôt OFII", "1 semaine"},
		{"Enquête logement et ressources", "4-6 semaines"},
		{"Décision préfectorale", "4-8 semaines"},
		{"Visa famille au consulat", "2-4 semaines"},
	},
	{"canada", CategoryStudent}: {
		{"Consultation initiale", "1 semaine"},
		{"Lettre d'acceptation (DLI)", "4-8 semaines"},
		{"Preuve de fonds", "2 semaines"},
		{"Demande de permis d'études", "1 semaine"},
		{"Biométrie", "1-2 semaines"},
		{"Décision IRCC", "6-12 semaines"},
	},
	{"canada", CategoryWork}: {
		{"Consultation initiale", "1 semaine"},
		{"Offre d'emploi et EIMT", "4-8 semaines"},
		{"Demande de permis de travail", "1 semaine"},
		{"Biométrie", "1-2 semaines"},
		{"Décision IRCC", "8-16 semaines"},
	},
	{"canada", CategoryTalent}: {
		{"Consultation initiale", "1 semaine"},
		{"Évaluation des diplômes (EDE)", "4-6 semaines"},
		{"Tests de langue", "2-4 semaines"},
		{"Profil Entrée express", "1 semaine"},
		{"Invitation à présenter une demande", "variable"},
		{"Demande de résidence permanente", "6 mois"},
	},
	{"belgique", CategoryStudent}: {
		{"Consultation initiale", "1 semaine"},
		{"Inscription dans l'établissement", "2-4 semaines"},
		{"Légalisation des documents", "2 semaines"},
		{"Demande de visa D", "4-8 semaines"},
		{"Inscription à la commune", "2 semaines"},
	},
}

var defaultTemplate = []step{
	{"Consultation initiale", "1 semaine"},
	{"Collecte des documents", "2-3 semaines"},
	{"Préparation du dossier", "2 semaines"},
	{"Dépôt de la demande", "1 semaine"},
	{"Suivi de la demande", "4-8 semaines"},
	{"Décision et finalisation", "1-2 semaines"},
}

var countryAliases = map[string]string{
	"france":   "france",
	"canada":   "canada",
	"belgique": "belgique",
	"belgium":  "belgique",
}

// Order matters: a "Permis de Travail (Passeport Talent)" is a talent visa.
var categoryKeywords = []struct {
	category string
	needles  []string
}{
	{CategoryTalent, []string{"passeport talent", "talent passport", "entree express", "express entry", "residence permanente", "permanent residence"}},
	{CategoryWork, []string{"travail", "work", "salarie", "emploi"}},
	{CategoryStudent, []string{"etudiant", "etudes", "student", "study"}},
	{CategoryFamily, []string{"regroupement", "family", "famille", "familial"}},
	{CategoryVisitor, []string{"visiteur", "visitor", "tourist", "touriste"}},
}

// Classify maps a free-form visa type to a category.
func Classify(visaType string) string {
	v := fold(visaType)
	for _, c := range categoryKeywords {
		for _, n := range c.needles {
			if strings.Contains(v, n) {
				return c.category
			}
		}
	}
	return CategoryOther
}

// Has reports whether a dedicated template exists for (country, visaType).
func Has(country, visaType string) bool {
	_, ok := lookup(country, visaType)
	return ok
}

// Steps returns a fresh copy of the checklist for (country, visaType),
// falling back to the generic template. The result is never empty and no
// step is completed.
func Steps(country, visaType string) []models.WorkflowStep {
	tpl, ok := lookup(country, visaType)
	if !ok {
		tpl = defaultTemplate
	}
	out := make([]models.WorkflowStep, len(tpl))
	for i, s := range tpl {
		out[i] = models.WorkflowStep{Title: s.title, Duration: s.duration}
	}
	return out
}

func lookup(country, visaType string) ([]step, bool) {
	c, ok := countryAliases[fold(country)]
	if !ok {
		return nil, false
	}
	tpl, ok := templates[key{c, Classify(visaType)}]
	return tpl, ok
}

// fold lowercases, trims and strips accents from the common French letters
// so both typed and folded spellings compare equal.
func fold(s string) string {
	s = strings.ToLower(text.Fold(strings.TrimSpace(s)))
	return accentReplacer.Replace(s)
}

var accentReplacer = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"à", "a", "â", "a", "î", "i", "ï", "i",
	"ô", "o", "û", "u", "ù", "u", "ç", "c",
)
