package textkey

import "testing"

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Validé":              "valide",
		"  EN ATTENTE ":       "en_attente",
		"Date de naissance":   "date_de_naissance",
		"prénom":              "prenom",
		"awaiting-transfer":   "awaiting_transfer",
		"\uFEFFnom":          "nom",
		"Refusée":             "refusee",
		"code  postal":        "code_postal",
		"__double__under__":   "double_under",
		"":                    "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}
