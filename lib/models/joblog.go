package models

import "time"

// JobLogEntry records one pipeline run outcome for observability. The core
// only writes these; nothing reads them back except the admin API.
type JobLogEntry struct {
	ID           uint `gorm:"primarykey"`
	CycleID      string
	JobType      string
	Platform     Platform
	SubjectID    string
	Status       string
	ErrorMessage string
	RanAt        time.Time `gorm:"index"`
}

type JobLogEntries []JobLogEntry
