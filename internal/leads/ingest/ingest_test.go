package ingest

import (
	"testing"

	"outreach_backend/internal/leads"

	"github.com/google/uuid"
)

func TestParseBatchRejectsEmptyLeadList(t *testing.T) {
	_, err := ParseBatch([]byte(`{"campaign_name": "sp-capital", "region": "SP", "leads": []}`))
	if err == nil {
		t.Fatal("expected error for batch without leads")
	}
}

func TestParseBatchRejectsMalformedJSON(t *testing.T) {
	_, err := ParseBatch([]byte(`{"leads": [`))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestNormalizePrefersNestedContacts(t *testing.T) {
	raw := RawLead{
		Company: "Padaria Central",
		Contacts: &RawContacts{
			PrimaryEmail: "  Ana@PadariaCentral.com.br ",
			EmailType:    "nominal",
			Confidence:   "alta",
		},
		// Conflicting flat fields must lose to the nested object.
		PrimaryEmail: "ignored@example.com",
		EmailType:    "generic",
		Confidence:   "low",
	}

	lead := Normalize(raw, "SP")
	if lead.Email != "ana@padariacentral.com.br" {
		t.Fatalf("expected nested email lowercased and trimmed, got %q", lead.Email)
	}
	if lead.EmailType != leads.EmailTypeNominal {
		t.Fatalf("expected nominal email type, got %q", lead.EmailType)
	}
	if lead.Confidence != leads.ConfidenceHigh {
		t.Fatalf("expected high confidence from 'alta', got %q", lead.Confidence)
	}
	if lead.Region != "SP" {
		t.Fatalf("expected batch region to be stamped, got %q", lead.Region)
	}
	if lead.Status != leads.StatusNew {
		t.Fatalf("expected new status, got %q", lead.Status)
	}
}

func TestNormalizeFallsBackToFlatFields(t *testing.T) {
	raw := RawLead{
		Company:      "Oficina do Zé",
		PrimaryEmail: "contato@oficinadoze.com.br",
		EmailType:    "role_based",
		Confidence:   "media",
	}

	lead := Normalize(raw, "MG")
	if lead.Email != "contato@oficinadoze.com.br" {
		t.Fatalf("expected flat email, got %q", lead.Email)
	}
	if lead.EmailType != leads.EmailTypeRole {
		t.Fatalf("expected role email type from 'role_based', got %q", lead.EmailType)
	}
	if lead.Confidence != leads.ConfidenceMedium {
		t.Fatalf("expected medium confidence from 'media', got %q", lead.Confidence)
	}
}

func TestNormalizeUnknownEmailTypeDefaults(t *testing.T) {
	withEmail := Normalize(RawLead{PrimaryEmail: "a@b.com", EmailType: "???"}, "")
	if withEmail.EmailType != leads.EmailTypeGeneric {
		t.Fatalf("expected generic default with an address, got %q", withEmail.EmailType)
	}

	withoutEmail := Normalize(RawLead{EmailType: "???"}, "")
	if withoutEmail.EmailType != leads.EmailTypeFormOnly {
		t.Fatalf("expected form_only default without an address, got %q", withoutEmail.EmailType)
	}
}

func TestNormalizeKeepsRawPayloadForAudit(t *testing.T) {
	lead := Normalize(RawLead{Company: "Padaria Central", PrimaryEmail: "a@b.com"}, "SP")
	if len(lead.RawPayload) == 0 {
		t.Fatal("expected raw payload to be retained")
	}
}

func TestNormalizeBatchStampsEveryLead(t *testing.T) {
	batch, err := ParseBatch([]byte(`{
		"campaign_name": "sp-capital",
		"region": "SP",
		"leads": [
			{"company": "Empresa A", "primary_email": "a@empresa-a.com.br"},
			{"company": "Empresa B", "contacts": {"primary_email": "b@empresa-b.com.br"}}
		]
	}`))
	if err != nil {
		t.Fatalf("parse batch: %v", err)
	}

	normalized := NormalizeBatch(batch)
	if len(normalized) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(normalized))
	}
	for i, lead := range normalized {
		if lead.Region != "SP" {
			t.Fatalf("lead %d missing region stamp: %q", i, lead.Region)
		}
	}
	if normalized[1].Email != "b@empresa-b.com.br" {
		t.Fatalf("expected nested contact email, got %q", normalized[1].Email)
	}
}

func TestNormalizeBatchAssignsDistinctIDs(t *testing.T) {
	normalized := NormalizeBatch(Batch{
		Region: "SP",
		Leads: []RawLead{
			{Company: "Empresa A", PrimaryEmail: "a@empresa-a.com.br"},
			{Company: "Empresa B", PrimaryEmail: "b@empresa-b.com.br"},
		},
	})

	seen := make(map[string]bool)
	for i, lead := range normalized {
		if lead.ID == uuid.Nil {
			t.Fatalf("lead %d has no ID; unpersisted duplicates would be indistinguishable", i)
		}
		if seen[lead.ID.String()] {
			t.Fatalf("lead %d shares an ID with a batch-mate", i)
		}
		seen[lead.ID.String()] = true
	}
}
