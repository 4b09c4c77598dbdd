package model

// HistoryRecord is one borrow of a locker box. A record without EndTime is
// still open, i.e. the box has not been returned.
type HistoryRecord struct {
	BoxNumber int     `json:"boxNumber"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
}

// IsOpen reports whether the box of this record is still borrowed.
func (r HistoryRecord) IsOpen() bool {
	return r.EndTime == nil
}

// CloneHistory deep-copies records so callers can mutate the result freely.
func CloneHistory(records []HistoryRecord) []HistoryRecord {
	if records == nil {
		return nil
	}
	out := make([]HistoryRecord, len(records))
	for i, r := range records {
		out[i] = HistoryRecord{BoxNumber: r.BoxNumber}
		if r.StartTime != nil {
			s := *r.StartTime
			out[i].StartTime = &s
		}
		if r.EndTime != nil {
			e := *r.EndTime
			out[i].EndTime = &e
		}
	}
	return out
}

// FindOpen returns the index of the first open record for box, or -1.
func FindOpen(records []HistoryRecord, box int) int {
	for i, r := range records {
		if r.BoxNumber == box && r.IsOpen() {
			return i
		}
	}
	return -1
}

// HasOpen reports whether any record is still open.
func HasOpen(records []HistoryRecord) bool {
	for _, r := range records {
		if r.IsOpen() {
			return true
		}
	}
	return false
}
