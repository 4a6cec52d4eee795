package enums

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Region is a regional league of the federation.
type Region struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

var regions = []Region{
	{Slug: "auvergne_rhone_alpes", Label: "Auvergne-Rhône-Alpes"},
	{Slug: "bourgogne_franche_comte", Label: "Bourgogne-Franche-Comté"},
	{Slug: "bretagne", Label: "Bretagne"},
	{Slug: "centre_val_de_loire", Label: "Centre-Val de Loire"},
	{Slug: "corse", Label: "Corse"},
	{Slug: "grand_est", Label: "Grand Est"},
	{Slug: "hauts_de_france", Label: "Hauts-de-France"},
	{Slug: "ile_de_france", Label: "Île-de-France"},
	{Slug: "normandie", Label: "Normandie"},
	{Slug: "nouvelle_aquitaine", Label: "Nouvelle-Aquitaine"},
	{Slug: "occitanie", Label: "Occitanie"},
	{Slug: "pays_de_la_loire", Label: "Pays de la Loire"},
	{Slug: "provence_alpes_cote_d_azur", Label: "Provence-Alpes-Côte d'Azur"},
	{Slug: "guadeloupe", Label: "Guadeloupe"},
	{Slug: "martinique", Label: "Martinique"},
	{Slug: "guyane", Label: "Guyane"},
	{Slug: "la_reunion", Label: "La Réunion"},
	{Slug: "mayotte", Label: "Mayotte"},
}

// Regions returns a copy of the regional catalogue.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// LookupRegion matches either the slug or the label, ignoring case.
func LookupRegion(value string) (Region, bool) {
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(value))
	if needle == "" {
		return Region{}, false
	}
	for _, r := range regions {
		if folder.String(r.Slug) == needle || folder.String(r.Label) == needle {
			return r, true
		}
	}
	return Region{}, false
}

// DisplayRegion renders a stored value for humans, title-casing unknown slugs.
func DisplayRegion(value string) string {
	if r, ok := LookupRegion(value); ok {
		return r.Label
	}
	return cases.Title(language.French).String(strings.ReplaceAll(value, "_", " "))
}
