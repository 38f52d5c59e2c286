package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"leadmarket_backend/internal/leads/repository"
)

func leadWithName(campaignID uuid.UUID, first, last string) repository.Lead {
	return repository.Lead{CampaignID: campaignID, FirstName: first, LastName: last}
}

func newTestImporter(repo *fakeRepo) *Importer {
	svc := newTestService(repo, &fakeOrderBook{}, 0, nil)
	return NewImporter(svc, nil, "")
}

func TestImportCSVMapsColumnsAndCustomFields(t *testing.T) {
	repo := newFakeRepo()
	importer := newTestImporter(repo)

	csvData := []byte("First Name,Last-Name,Email,Phone,State,Roof Type\n" +
		"Jane,Doe,JANE@Example.com,+14155552671,ca,tile\n")

	result, err := importer.ImportCSV(context.Background(), uuid.New(), "facebook", "leads.csv", csvData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 0 {
		t.Fatalf("expected (1 imported, 0 skipped), got (%d, %d)", result.Imported, result.Skipped)
	}

	var found bool
	for _, lead := range repo.leads {
		found = true
		if lead.FirstName != "Jane" || lead.LastName != "Doe" {
			t.Fatalf("unexpected name: %s %s", lead.FirstName, lead.LastName)
		}
		if lead.Email != "jane@example.com" {
			t.Fatalf("expected lowercased email, got %q", lead.Email)
		}
		if lead.State != "CA" {
			t.Fatalf("expected uppercased state, got %q", lead.State)
		}
		if lead.CustomFields["roof_type"] != "tile" {
			t.Fatalf("expected extra column in custom fields, got %v", lead.CustomFields)
		}
		if lead.Origin != "facebook" {
			t.Fatalf("expected origin recorded, got %q", lead.Origin)
		}
	}
	if !found {
		t.Fatal("expected a stored lead")
	}
}

func TestImportCSVSkipsInvalidRows(t *testing.T) {
	repo := newFakeRepo()
	importer := newTestImporter(repo)

	csvData := []byte("first_name,last_name,email\n" +
		"Jane,Doe,jane@example.com\n" +
		",,missing@example.com\n" +
		"Bob,Jones,not-an-email\n")

	result, err := importer.ImportCSV(context.Background(), uuid.New(), "", "leads.csv", csvData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("expected 1 imported, got %d", result.Imported)
	}
	if result.Skipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", result.Skipped)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 error details, got %v", result.Errors)
	}
}

func TestImportCSVSkipsDuplicatesWithinFile(t *testing.T) {
	repo := newFakeRepo()
	importer := newTestImporter(repo)

	csvData := []byte("first_name,last_name,email\n" +
		"Jane,Doe,jane@example.com\n" +
		"Jane,Doe,jane.doe@example.com\n")

	result, err := importer.ImportCSV(context.Background(), uuid.New(), "", "leads.csv", csvData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("expected (1, 1), got (%d, %d)", result.Imported, result.Skipped)
	}
}

func TestImportCSVSkipsExistingCampaignLeads(t *testing.T) {
	repo := newFakeRepo()
	campaignID := uuid.New()
	repo.add(leadWithName(campaignID, "Jane", "Doe"))
	importer := newTestImporter(repo)

	csvData := []byte("first_name,last_name,email\n" +
		"Jane,Doe,jane@example.com\n")

	result, err := importer.ImportCSV(context.Background(), campaignID, "", "leads.csv", csvData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 1 {
		t.Fatalf("expected (0, 1), got (%d, %d)", result.Imported, result.Skipped)
	}
}

func TestImportCSVRejectsEmptyFile(t *testing.T) {
	importer := newTestImporter(newFakeRepo())

	if _, err := importer.ImportCSV(context.Background(), uuid.New(), "", "empty.csv", nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}
