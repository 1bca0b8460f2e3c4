// Package ics exports synced calendar events as iCalendar documents.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/tuturuuu/calsync/internal/schema"
)

// prodID identifies this exporter in generated documents.
const prodID = "-//calsync//calendar export//EN"

// Export serializes a workspace's synced events into one iCalendar
// document. Rows whose timestamps fail to parse are skipped and reported
// in the returned count.
func Export(events []schema.EventRow) (string, int, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	skipped := 0
	for _, row := range events {
		start, err := time.Parse(time.RFC3339, row.StartAt)
		if err != nil {
			skipped++
			continue
		}
		end, err := time.Parse(time.RFC3339, row.EndAt)
		if err != nil {
			skipped++
			continue
		}

		uid := fmt.Sprintf("%s-%s", row.WSID, row.GoogleEventID)
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(time.Now().UTC())
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(row.Title)
		if row.Description != "" {
			ev.SetDescription(row.Description)
		}
		if row.Location != "" {
			ev.SetLocation(row.Location)
		}
	}

	return cal.Serialize(), skipped, nil
}
