package workflows

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		visa string
		want string
	}{
		{"Permis de Travail (Passeport Talent)", CategoryTalent},
		{"Visa Étudiant", CategoryStudent},
		{"Work permit", CategoryWork},
		{"Regroupement familial", CategoryFamily},
		{"Visa visiteur", CategoryVisitor},
		{"Autre", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.visa, func(t *testing.T) {
			if got := Classify(tt.visa); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.visa, got, tt.want)
			}
		})
	}
}

func TestSteps_KnownTemplate(t *testing.T) {
	if !Has("France", "Étudiant") {
		t.Fatal("expected a France student template")
	}
	steps := Steps("  FRANCE ", "Visa Étudiant")
	if len(steps) != len(templates[key{"france", CategoryStudent}]) {
		t.Errorf("len = %d, want France student template", len(steps))
	}
	if steps[1].Title != "Inscription Campus France" {
		t.Errorf("steps[1] = %q", steps[1].Title)
	}
}

func TestSteps_FallbackNeverEmpty(t *testing.T) {
	pairs := [][2]string{
		{"Japon", "Travail"},
		{"", ""},
		{"France", "Autre"},
		{"Canada", "Visiteur"},
	}
	for _, p := range pairs {
		if Has(p[0], p[1]) {
			t.Errorf("Has(%q, %q) = true, want false", p[0], p[1])
		}
		steps := Steps(p[0], p[1])
		if len(steps) == 0 {
			t.Errorf("Steps(%q, %q) is empty", p[0], p[1])
		}
		for _, s := range steps {
			if s.Completed {
				t.Errorf("Steps(%q, %q) returned a completed step", p[0], p[1])
			}
		}
	}
}

func TestSteps_ReturnsCopy(t *testing.T) {
	a := Steps("Canada", "Work")
	a[0].Completed = true
	a[0].Title = "changed"
	b := Steps("Canada", "Work")
	if b[0].Completed || b[0].Title == "changed" {
		t.Error("Steps must not share state between calls")
	}
}
