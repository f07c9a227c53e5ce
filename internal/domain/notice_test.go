package domain_test

import (
	"testing"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

func sampleNotice() domain.Notice {
	return domain.Notice{
		SourceName:   "fiesc",
		Title:        "Pregão Eletrônico 42/2025",
		Organization: "SESI/SC",
		URL:          "https://portal.fiesc.com.br/Detalhe.aspx?id=1234",
		Published:    "15/08/2025",
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	t.Parallel()

	a := sampleNotice()
	b := sampleNotice()

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("same notice produced different fingerprints: %s vs %s",
			a.Fingerprint(), b.Fingerprint())
	}
}

func TestFingerprint_IdentityFieldsChangeIt(t *testing.T) {
	t.Parallel()

	base := sampleNotice()

	tests := []struct {
		name   string
		mutate func(n *domain.Notice)
	}{
		{"title", func(n *domain.Notice) { n.Title = "Pregão Eletrônico 43/2025" }},
		{"organization", func(n *domain.Notice) { n.Organization = "SENAI/SC" }},
		{"url", func(n *domain.Notice) { n.URL = "https://portal.fiesc.com.br/Detalhe.aspx?id=5678" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := sampleNotice()
			tt.mutate(&changed)

			if changed.Fingerprint() == base.Fingerprint() {
				t.Errorf("changing %s did not change the fingerprint", tt.name)
			}
		})
	}
}

func TestFingerprint_IncidentalFieldsDoNot(t *testing.T) {
	t.Parallel()

	base := sampleNotice()

	changed := sampleNotice()
	changed.Published = "16/08/2025"
	changed.ObjectDescription = "Aquisição de equipamentos"
	changed.SourceName = "other"

	if changed.Fingerprint() != base.Fingerprint() {
		t.Error("incidental field change altered the fingerprint")
	}
}

func TestFingerprint_FieldBoundary(t *testing.T) {
	t.Parallel()

	// "ab" + "c" must not collide with "a" + "bc".
	a := domain.Notice{Title: "ab", Organization: "c", URL: "u"}
	b := domain.Notice{Title: "a", Organization: "bc", URL: "u"}

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("fingerprint does not separate identity fields")
	}
}

func TestRecordFor(t *testing.T) {
	t.Parallel()

	n := sampleNotice()
	rec := domain.RecordFor(&n)

	if rec.ID != n.Fingerprint() {
		t.Errorf("record id = %s, want fingerprint %s", rec.ID, n.Fingerprint())
	}
	if rec.Title != n.Title || rec.Organization != n.Organization || rec.URL != n.URL {
		t.Error("record does not carry the notice identity fields")
	}
	if rec.ContentHash != n.ContentHash() {
		t.Error("record content hash does not match the notice")
	}
	if !rec.FirstSeen.IsZero() {
		t.Error("FirstSeen should be left to the database default")
	}
}
