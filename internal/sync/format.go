package sync

import (
	"time"

	"github.com/tuturuuu/calsync/internal/gcal"
	"github.com/tuturuuu/calsync/internal/schema"
)

// colorTable maps provider color codes onto the internal color enum.
// Code "7" is intentionally absent; anything unmapped falls back to BLUE.
var colorTable = map[string]schema.EventColor{
	"1":  schema.ColorRed,
	"2":  schema.ColorGreen,
	"3":  schema.ColorGray,
	"4":  schema.ColorPink,
	"5":  schema.ColorYellow,
	"6":  schema.ColorOrange,
	"8":  schema.ColorCyan,
	"9":  schema.ColorPurple,
	"10": schema.ColorIndigo,
	"11": schema.ColorBlue,
}

// MapColor translates a provider color code to an internal color.
// Missing, unmapped, or non-numeric codes all map to the default BLUE.
func MapColor(colorID string) schema.EventColor {
	if color, ok := colorTable[colorID]; ok {
		return color
	}
	return schema.ColorBlue
}

// Time-resolution modes passed to the all-day normalizer.
const (
	ModeTimed  = "timed"
	ModeAllDay = "all_day"
)

// AllDayNormalizer expands raw provider start/end values into concrete
// timestamps. Timed events pass through; all-day dates are expanded in a
// timezone-aware way by the implementation.
type AllDayNormalizer interface {
	Normalize(startRaw, endRaw, mode string) (startAt, endAt string)
}

// utcNormalizer is the default AllDayNormalizer: timed values pass through
// untouched, all-day dates expand to midnight-to-midnight UTC.
type utcNormalizer struct{}

// NewUTCNormalizer returns the default all-day normalizer.
func NewUTCNormalizer() AllDayNormalizer {
	return utcNormalizer{}
}

func (utcNormalizer) Normalize(startRaw, endRaw, mode string) (string, string) {
	if mode != ModeAllDay {
		return startRaw, endRaw
	}
	return expandAllDay(startRaw), expandAllDay(endRaw)
}

// expandAllDay turns a YYYY-MM-DD date into a midnight UTC timestamp.
// Values that don't parse (including empty strings) pass through unchanged.
func expandAllDay(raw string) string {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return raw
	}
	return d.UTC().Format(time.RFC3339)
}

// FormatEvent maps one provider event into exactly one internal event row.
//
// Pure and deterministic: no I/O, no clock reads, same input always yields
// the same output. An empty calendarID defaults to "primary".
func FormatEvent(ev gcal.ExternalEvent, wsID, calendarID string, normalizer AllDayNormalizer) schema.EventRow {
	if calendarID == "" {
		calendarID = schema.DefaultCalendarID
	}
	if normalizer == nil {
		normalizer = utcNormalizer{}
	}

	title := ev.Summary
	if title == "" {
		title = schema.UntitledEventTitle
	}

	// Prefer the precise timestamp over the all-day date when both are
	// present. When neither is present the empty string flows through the
	// normalizer unchanged.
	startRaw, endRaw, mode := resolveTimes(ev.Start, ev.End)
	startAt, endAt := normalizer.Normalize(startRaw, endRaw, mode)

	return schema.EventRow{
		WSID:             wsID,
		GoogleEventID:    ev.ID,
		GoogleCalendarID: calendarID,
		Title:            title,
		Description:      ev.Description,
		Location:         ev.Location,
		StartAt:          startAt,
		EndAt:            endAt,
		Color:            MapColor(ev.ColorID),
		Locked:           true,
	}
}

// resolveTimes picks the raw start/end values and the normalization mode.
func resolveTimes(start, end gcal.EventTime) (startRaw, endRaw, mode string) {
	if start.DateTime != "" {
		startRaw = start.DateTime
	} else {
		startRaw = start.Date
	}

	if end.DateTime != "" {
		endRaw = end.DateTime
	} else {
		endRaw = end.Date
	}

	mode = ModeTimed
	if start.DateTime == "" && end.DateTime == "" {
		mode = ModeAllDay
	}
	return startRaw, endRaw, mode
}
