package enums

import (
	"sync"
	"testing"
)

func TestLookupRegionMatchesSlugAndLabel(t *testing.T) {
	bySlug, ok := LookupRegion("ile_de_france")
	if !ok {
		t.Fatalf("expected slug match")
	}
	byLabel, ok := LookupRegion("  île-de-france ")
	if !ok {
		t.Fatalf("expected label match regardless of case")
	}
	if bySlug != byLabel {
		t.Fatalf("slug and label should resolve to the same region: %+v vs %+v", bySlug, byLabel)
	}
	if _, ok := LookupRegion("atlantis"); ok {
		t.Fatalf("unexpected match for unknown region")
	}
	if _, ok := LookupRegion(""); ok {
		t.Fatalf("empty input must not match")
	}
}

func TestDisplayRegion(t *testing.T) {
	if got := DisplayRegion("grand_est"); got != "Grand Est" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := DisplayRegion("pays_basque"); got != "Pays Basque" {
		t.Fatalf("unexpected fallback label %q", got)
	}
}

func TestRegionsReturnsCopy(t *testing.T) {
	list := Regions()
	list[0].Label = "changed"
	if Regions()[0].Label == "changed" {
		t.Fatalf("catalogue must not be mutable through Regions()")
	}
}

func TestParseOrderStatus(t *testing.T) {
	cases := map[string]OrderStatus{
		"processing":   OrderStatusProcessing,
		"wc-completed": OrderStatusCompleted,
		" On-Hold ":    OrderStatusOnHold,
	}
	for raw, want := range cases {
		got, err := ParseOrderStatus(raw)
		if err != nil || got != want {
			t.Fatalf("ParseOrderStatus(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if !OrderStatusCompleted.TriggersFulfilment() || OrderStatusPending.TriggersFulfilment() {
		t.Fatalf("unexpected fulfilment trigger set")
	}
}

func TestParseExportFormat(t *testing.T) {
	if f, err := ParseExportFormat("XLSX"); err != nil || f != ExportFormatXLSX {
		t.Fatalf("unexpected %q %v", f, err)
	}
	if _, err := ParseExportFormat("pdf"); err == nil {
		t.Fatalf("expected pdf to be rejected")
	}
	if ExportFormatCSV.ContentType() != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected csv content type")
	}
}

func TestUserRoleHelpers(t *testing.T) {
	if !UserRoleAdmin.IsStaff() || !UserRoleStaff.IsStaff() || UserRoleClub.IsStaff() {
		t.Fatalf("unexpected staff classification")
	}
	if _, err := ParseUserRole("superuser"); err == nil {
		t.Fatalf("expected unknown role error")
	}
	if _, err := ParseLicenceStatus("validated"); err == nil {
		t.Fatalf("legacy spellings are not canonical")
	}
	if !Sex("F").IsValid() || Sex("X").IsValid() {
		t.Fatalf("unexpected sex validation")
	}
}

func TestPaymentStatusHelpers(t *testing.T) {
	for _, p := range PaymentStatuses() {
		got, err := ParsePaymentStatus(string(p))
		if err != nil || got != p {
			t.Fatalf("ParsePaymentStatus(%q) = %q, %v", p, got, err)
		}
	}
	if _, err := ParsePaymentStatus("PAID"); err == nil {
		t.Fatalf("payment statuses are case sensitive")
	}
	if !PaymentStatusIncluded.Settled() || !PaymentStatusPaid.Settled() || PaymentStatusAwaitingTransfer.Settled() {
		t.Fatalf("unexpected settled classification")
	}

	list := PaymentStatuses()
	list[0] = "tampered"
	if PaymentStatuses()[0] != PaymentStatusPending {
		t.Fatalf("PaymentStatuses must return a copy")
	}
}

func TestClubStatusParse(t *testing.T) {
	if s, err := ParseClubStatus("actif"); err != nil || s != ClubStatusActive {
		t.Fatalf("unexpected %q %v", s, err)
	}
	if _, err := ParseClubStatus("active"); err == nil {
		t.Fatalf("legacy spelling must be rejected")
	}
}

func TestLookupRegionConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, ok := LookupRegion("Île-de-France"); !ok {
					t.Errorf("expected label match")
					return
				}
			}
		}()
	}
	wg.Wait()
}
