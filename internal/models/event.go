package models

// EventIndexEntry is the minimal per-event projection kept in the index
// snapshot. Center is immutable once an id has been assigned.
type EventIndexEntry struct {
	ID        int    `json:"id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"`
	Title     string `json:"title"`
	Center    string `json:"center"`
}

// EventListEntry carries the display fields derived at read time. None
// of them is ever persisted.
type EventListEntry struct {
	EventIndexEntry
	WeekdayRange  string `json:"weekdayRange,omitempty"`
	DateRange     string `json:"dateRange,omitempty"`
	CombinedRange string `json:"combinedRange,omitempty"`
	Fullcity      string `json:"fullcity,omitempty"`
}

// FullEvent is the authoritative per-event document. Name and Address
// are stored only when they diverge from the owning center's values;
// reads resolve absent ones from the center.
type FullEvent struct {
	EventListEntry
	Name        string `json:"name,omitempty"`
	Address     string `json:"address,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	Description string `json:"description,omitempty"`
}

// Summary projects the event down to its index entry.
func (e *FullEvent) Summary() EventIndexEntry {
	return EventIndexEntry{
		ID:        e.ID,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		Title:     e.Title,
		Center:    e.Center,
	}
}

// ClearDerived strips the display-only fields before the document is
// serialized for storage.
func (e *FullEvent) ClearDerived() {
	e.WeekdayRange = ""
	e.DateRange = ""
	e.CombinedRange = ""
	e.Fullcity = ""
}

// EventIndex is the persisted snapshot: the ordered entry list plus the
// monotonic id counter. NextID only ever increases.
type EventIndex struct {
	Events []EventIndexEntry `json:"events"`
	NextID int               `json:"nextId"`
}

// EventUpdateRequest is a partial-update payload for the mutation
// pipeline. ID at or below zero means "create new". Fields holds the
// raw delta; unrecognized keys are ignored during validation.
type EventUpdateRequest struct {
	ID     int
	Fields map[string]string
}

// QueryResult is the query engine output: the page of augmented events
// plus the filtered size before pagination.
type QueryResult struct {
	TotalCount int              `json:"totalCount"`
	Events     []EventListEntry `json:"events"`
}
