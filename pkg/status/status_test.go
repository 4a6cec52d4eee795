package status

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
)

func TestNormalizeCanonicalisesSpellings(t *testing.T) {
	valid := []string{"Validé", "VALIDATED", "valide", "validée", "active", "paid", "Payée"}
	for _, raw := range valid {
		assert.Equal(t, "valide", Normalize(raw).Canonical(), raw)
	}
	pending := []string{"en attente", "EN_ATTENTE", "pending", "draft", "Brouillon", "awaiting_transfer", "awaiting-transfer"}
	for _, raw := range pending {
		assert.Equal(t, "en_attente", Normalize(raw).Canonical(), raw)
	}
	refused := []string{"refusé", "Refusée", "rejected", "denied", "REFUSE"}
	for _, raw := range refused {
		assert.Equal(t, "refuse", Normalize(raw).Canonical(), raw)
	}
}

func TestNormalizeUnknownPassesThrough(t *testing.T) {
	st := Normalize("unknown_value")
	assert.Equal(t, KindUnknown, st.Kind())
	assert.Equal(t, "unknown_value", st.Canonical())
	assert.False(t, st.Known())
	_, ok := st.Enum()
	assert.False(t, ok)

	trimmed := Normalize("  archived ")
	assert.Equal(t, "archived", trimmed.Canonical())
}

func TestNormalizeEmpty(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		st := Normalize(raw)
		assert.Equal(t, KindEmpty, st.Kind())
		assert.Equal(t, "", st.Canonical())
	}
}

func TestLabelFR(t *testing.T) {
	assert.Equal(t, "Validée", LabelFR("validated"))
	assert.Equal(t, "En attente", LabelFR("pending"))
	assert.Equal(t, "Refusée", LabelFR("rejected"))
	assert.Equal(t, "En attente", LabelFR("whatever"))
	assert.Equal(t, "En attente", LabelFR(""))
}

func TestIsEditable(t *testing.T) {
	assert.True(t, IsEditable("en_attente"))
	assert.True(t, IsEditable("Brouillon"))
	assert.False(t, IsEditable("valide"))
	assert.False(t, IsEditable("refuse"))
	assert.False(t, IsEditable("mystery"))
	assert.False(t, IsEditable(""))
}

func TestEnumAndAliases(t *testing.T) {
	e, ok := Normalize("Validé").Enum()
	assert.True(t, ok)
	assert.Equal(t, enums.LicenceStatusValid, e)

	aliases := AliasesFor(KindRefused)
	sort.Strings(aliases)
	assert.Contains(t, aliases, "refuse")
	assert.Contains(t, aliases, "rejected")
	assert.NotContains(t, aliases, "valide")
}

func TestNormalizeClub(t *testing.T) {
	cases := map[string]enums.ClubStatus{
		"pending":              enums.ClubStatusPending,
		"Actif":                enums.ClubStatusActive,
		"validated":            enums.ClubStatusActive,
		"en cours de création": enums.ClubStatusInCreation,
		"a_regler":             enums.ClubStatusToSettle,
		"to-settle":            enums.ClubStatusToSettle,
		"Désactivé":            enums.ClubStatusDeactivated,
	}
	for raw, want := range cases {
		got, ok := NormalizeClub(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := NormalizeClub("exotic")
	assert.False(t, ok)

	assert.Equal(t, "À régler", ClubLabelFR("to_settle"))
	assert.Equal(t, "En attente", ClubLabelFR("exotic"))
}

func TestClubAliasesFor(t *testing.T) {
	aliases := ClubAliasesFor(enums.ClubStatusActive)
	assert.Contains(t, aliases, "actif")
	assert.Contains(t, aliases, "validated")
	assert.NotContains(t, aliases, "pending")
	assert.True(t, sort.StringsAreSorted(aliases))
}
