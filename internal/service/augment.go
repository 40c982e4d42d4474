package service

import (
	"time"

	"github.com/opencenters/catalog-api/internal/models"
)

const isoDate = "2006-01-02"

// Augment derives the display fields for an index entry. center may be
// nil, in which case locality enrichment is skipped. Derived fields are
// computed fresh on every read and never persisted.
func Augment(entry models.EventIndexEntry, center *models.Center) models.EventListEntry {
	out := models.EventListEntry{EventIndexEntry: entry}
	if center != nil {
		out.Fullcity = center.Fullcity
	}
	out.WeekdayRange = weekdayRange(entry.StartDate, entry.EndDate)
	out.DateRange = dateRange(entry.StartDate, entry.EndDate)
	out.CombinedRange = combinedRange(entry.StartDate, entry.EndDate)
	return out
}

// AugmentFull fills the derived fields of a full event and resolves
// Name and Address from the owning center when the stored document
// omitted them.
func AugmentFull(ev *models.FullEvent, center *models.Center) {
	augmented := Augment(ev.Summary(), center)
	ev.WeekdayRange = augmented.WeekdayRange
	ev.DateRange = augmented.DateRange
	ev.CombinedRange = augmented.CombinedRange
	ev.Fullcity = augmented.Fullcity
	if center != nil {
		if ev.Address == "" {
			ev.Address = center.Address
		}
		if ev.Name == "" {
			ev.Name = center.Name
		}
	}
}

func weekdayRange(start, end string) string {
	s, err := time.Parse(isoDate, start)
	if err != nil {
		return ""
	}
	label := s.Weekday().String()
	if end != "" && end != start {
		if e, err := time.Parse(isoDate, end); err == nil {
			label += " - " + e.Weekday().String()
		}
	}
	return label
}

// dateRange renders a month+day label, extended to the end date: the
// short same-month form ("January 2 - 5") or the full form when the
// dates straddle months ("January 30 - February 2").
func dateRange(start, end string) string {
	s, err := time.Parse(isoDate, start)
	if err != nil {
		return ""
	}
	label := s.Format("January 2")
	if end == "" || end == start {
		return label
	}
	e, err := time.Parse(isoDate, end)
	if err != nil {
		return label
	}
	if s.Month() == e.Month() && s.Year() == e.Year() {
		return label + " - " + e.Format("2")
	}
	return label + " - " + e.Format("January 2")
}

func combinedRange(start, end string) string {
	s, err := time.Parse(isoDate, start)
	if err != nil {
		return ""
	}
	label := s.Format("January 2, 2006")
	if end != "" && end != start {
		if e, err := time.Parse(isoDate, end); err == nil {
			label += " - " + e.Format("January 2, 2006")
		}
	}
	return label
}
