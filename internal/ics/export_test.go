package ics

import (
	"strings"
	"testing"

	"github.com/tuturuuu/calsync/internal/schema"
)

func testRow(eventID, title string) schema.EventRow {
	return schema.EventRow{
		WSID:             "w1",
		GoogleEventID:    eventID,
		GoogleCalendarID: "primary",
		Title:            title,
		StartAt:          "2026-09-01T09:00:00Z",
		EndAt:            "2026-09-01T10:00:00Z",
		Color:            schema.ColorBlue,
		Locked:           true,
	}
}

func TestExport(t *testing.T) {
	rows := []schema.EventRow{
		testRow("e1", "Standup"),
		testRow("e2", "Planning"),
	}
	rows[1].Description = "Quarterly planning"
	rows[1].Location = "Room 4"

	doc, skipped, err := Export(rows)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"METHOD:PUBLISH",
		"UID:w1-e1",
		"UID:w1-e2",
		"SUMMARY:Standup",
		"SUMMARY:Planning",
		"DESCRIPTION:Quarterly planning",
		"LOCATION:Room 4",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}

	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("VEVENT count = %d, want 2", got)
	}
}

func TestExport_SkipsUnparseableTimestamps(t *testing.T) {
	bad := testRow("bad", "Broken")
	bad.StartAt = "not-a-time"
	badEnd := testRow("bad-end", "Broken end")
	badEnd.EndAt = ""

	doc, skipped, err := Export([]schema.EventRow{testRow("ok", "Fine"), bad, badEnd})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("VEVENT count = %d, want 1", got)
	}
}

func TestExport_EmptyInput(t *testing.T) {
	doc, skipped, err := Export(nil)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if !strings.Contains(doc, "BEGIN:VCALENDAR") {
		t.Error("empty export must still be a valid document")
	}
	if strings.Contains(doc, "BEGIN:VEVENT") {
		t.Error("empty export must contain no events")
	}
}
