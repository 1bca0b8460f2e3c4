package sync

import (
	"testing"

	"github.com/tuturuuu/calsync/internal/gcal"
	"github.com/tuturuuu/calsync/internal/schema"
)

func TestMapColor_Table(t *testing.T) {
	tests := []struct {
		colorID string
		want    schema.EventColor
	}{
		{"1", schema.ColorRed},
		{"2", schema.ColorGreen},
		{"3", schema.ColorGray},
		{"4", schema.ColorPink},
		{"5", schema.ColorYellow},
		{"6", schema.ColorOrange},
		{"8", schema.ColorCyan},
		{"9", schema.ColorPurple},
		{"10", schema.ColorIndigo},
		{"11", schema.ColorBlue},
		// Unmapped codes fall back to BLUE
		{"7", schema.ColorBlue},
		{"0", schema.ColorBlue},
		{"12", schema.ColorBlue},
		{"abc", schema.ColorBlue},
		{"", schema.ColorBlue},
	}

	for _, tt := range tests {
		t.Run("color_"+tt.colorID, func(t *testing.T) {
			if got := MapColor(tt.colorID); got != tt.want {
				t.Errorf("MapColor(%q) = %q, want %q", tt.colorID, got, tt.want)
			}
		})
	}
}

func TestFormatEvent_LockedAlwaysTrue(t *testing.T) {
	events := []gcal.ExternalEvent{
		{ID: "e1"},
		{ID: "e2", Status: "confirmed"},
		{ID: "e3", Status: "cancelled"},
	}

	for _, ev := range events {
		row := FormatEvent(ev, "w1", "", nil)
		if !row.Locked {
			t.Errorf("FormatEvent(%q).Locked = false, want true", ev.ID)
		}
	}
}

func TestFormatEvent_PrefersDateTimeOverDate(t *testing.T) {
	ev := gcal.ExternalEvent{
		ID:    "e1",
		Start: gcal.EventTime{DateTime: "2024-01-15T10:00:00Z", Date: "2024-01-15"},
		End:   gcal.EventTime{DateTime: "2024-01-15T11:00:00Z", Date: "2024-01-15"},
	}

	row := FormatEvent(ev, "w1", "", nil)
	if row.StartAt != "2024-01-15T10:00:00Z" {
		t.Errorf("StartAt = %q, want dateTime value", row.StartAt)
	}
	if row.EndAt != "2024-01-15T11:00:00Z" {
		t.Errorf("EndAt = %q, want dateTime value", row.EndAt)
	}
}

func TestFormatEvent_UntitledPlaceholder(t *testing.T) {
	ev := gcal.ExternalEvent{ID: "e1"}
	if row := FormatEvent(ev, "w1", "", nil); row.Title != "Untitled Event" {
		t.Errorf("Title = %q, want %q", row.Title, "Untitled Event")
	}

	// A real summary passes through
	titled := gcal.ExternalEvent{ID: "e2", Summary: "Standup"}
	if row := FormatEvent(titled, "w1", "", nil); row.Title != "Standup" {
		t.Errorf("Title = %q, want %q", row.Title, "Standup")
	}
}

func TestFormatEvent_AllDayExpansion(t *testing.T) {
	ev := gcal.ExternalEvent{
		ID:    "e1",
		Start: gcal.EventTime{Date: "2024-03-01"},
		End:   gcal.EventTime{Date: "2024-03-02"},
	}

	row := FormatEvent(ev, "w1", "", nil)
	if row.StartAt != "2024-03-01T00:00:00Z" {
		t.Errorf("StartAt = %q, want midnight UTC", row.StartAt)
	}
	if row.EndAt != "2024-03-02T00:00:00Z" {
		t.Errorf("EndAt = %q, want midnight UTC", row.EndAt)
	}
}

func TestFormatEvent_NoTimesPassesEmpty(t *testing.T) {
	ev := gcal.ExternalEvent{ID: "e1"}
	row := FormatEvent(ev, "w1", "", nil)

	if row.StartAt != "" || row.EndAt != "" {
		t.Errorf("StartAt/EndAt = %q/%q, want empty passthrough", row.StartAt, row.EndAt)
	}
}

// TestFormatEvent_FullRow pins the complete formatted row for a minimal
// timed event.
func TestFormatEvent_FullRow(t *testing.T) {
	ev := gcal.ExternalEvent{
		ID:      "e1",
		ColorID: "1",
		Start:   gcal.EventTime{DateTime: "2024-01-15T10:00:00Z"},
		End:     gcal.EventTime{DateTime: "2024-01-15T11:00:00Z"},
	}

	got := FormatEvent(ev, "w1", "", nil)
	want := schema.EventRow{
		WSID:             "w1",
		GoogleEventID:    "e1",
		GoogleCalendarID: "primary",
		Title:            "Untitled Event",
		Description:      "",
		Location:         "",
		StartAt:          "2024-01-15T10:00:00Z",
		EndAt:            "2024-01-15T11:00:00Z",
		Color:            schema.ColorRed,
		Locked:           true,
	}

	if got != want {
		t.Errorf("FormatEvent() = %+v, want %+v", got, want)
	}
}

// TestFormatEvent_Deterministic verifies the formatter is pure: repeated
// calls with the same input yield identical rows.
func TestFormatEvent_Deterministic(t *testing.T) {
	ev := gcal.ExternalEvent{
		ID:          "e9",
		Summary:     "Review",
		Description: "quarterly",
		Location:    "room 4",
		ColorID:     "9",
		Start:       gcal.EventTime{DateTime: "2024-06-01T09:00:00Z"},
		End:         gcal.EventTime{DateTime: "2024-06-01T10:00:00Z"},
	}

	first := FormatEvent(ev, "w1", "cal-2", nil)
	for i := 0; i < 5; i++ {
		if got := FormatEvent(ev, "w1", "cal-2", nil); got != first {
			t.Fatalf("FormatEvent() not deterministic: %+v != %+v", got, first)
		}
	}

	if first.GoogleCalendarID != "cal-2" {
		t.Errorf("GoogleCalendarID = %q, want %q", first.GoogleCalendarID, "cal-2")
	}
}
