package manuscripts

import (
	"testing"

	"github.com/confera/backend/internal/models"
)

func testRegistration(authorID, fullName, title, originalName string) *models.Registration {
	reg := &models.Registration{
		AuthorID:        authorID,
		PersonalDetails: models.PersonalDetails{FullName: fullName},
		PaperDetails:    models.PaperDetails{Title: title},
	}
	if originalName != "" {
		reg.PaperDetails.File = &models.FileRef{PublicID: "k", OriginalName: originalName}
	}
	return reg
}

func TestDownloadFilename(t *testing.T) {
	tests := []struct {
		name string
		reg  *models.Registration
		want string
	}{
		{
			name: "name and title sanitized",
			reg:  testRegistration("CONF25-001", "José O'Brien", "AI & Society: A Study!", "paper.pdf"),
			want: "jose_obrien_ai_society_a_study.pdf",
		},
		{
			name: "extension follows the stored object",
			reg:  testRegistration("CONF25-002", "Jane Roe", "Edge Caching", "final draft.DOCX"),
			want: "jane_roe_edge_caching.docx",
		},
		{
			name: "author id fallback when details are empty",
			reg:  testRegistration("CONF25-003", "", "", ""),
			want: "CONF25-003.pdf",
		},
	}
	for _, tt := range tests {
		if got := downloadFilename(tt.reg); got != tt.want {
			t.Errorf("%s: downloadFilename = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestZipEntryNamesUnique(t *testing.T) {
	// Two authors sharing a sanitized name and paper title must not
	// collide inside the bulk archive.
	a := testRegistration("CONF25-001", "Jane Roe", "Edge Caching", "a.pdf")
	b := testRegistration("CONF25-002", "Jane  Roe", "Edge Caching!", "b.pdf")

	if downloadFilename(a) != downloadFilename(b) {
		t.Fatalf("test premise broken: per-registration names differ: %q vs %q",
			downloadFilename(a), downloadFilename(b))
	}

	nameA, nameB := zipEntryName(a), zipEntryName(b)
	if nameA == nameB {
		t.Errorf("zip entries collide: %q", nameA)
	}
	if nameA != "jane_roe_edge_caching_CONF25-001.pdf" {
		t.Errorf("zipEntryName = %q", nameA)
	}

	empty := testRegistration("CONF25-003", "", "", "")
	if got := zipEntryName(empty); got != "CONF25-003.pdf" {
		t.Errorf("zipEntryName fallback = %q, want CONF25-003.pdf", got)
	}
}
