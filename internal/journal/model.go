// Package journal keeps an append-only audit trail of applied corrections in
// a SQL database. The dataset file stays the source of truth; the journal
// answers "who changed what, when" for a record.
package journal

import "time"

// Fields recorded by the journal.
const (
	FieldCategory          = "category"
	FieldDanceType         = "dance_type"
	FieldRelocationFailure = "relocation_failure"
)

// Entry is one applied change of one record.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CommitID   string    `gorm:"size:36;index;not null" json:"commitId"`
	Directory  string    `gorm:"size:512;index:idx_entry_record,priority:1;not null" json:"directory"`
	DayDanceID string    `gorm:"size:255;index:idx_entry_record,priority:2;not null" json:"dayDanceId"`
	Page       int       `json:"page"`
	Field      string    `gorm:"size:32;not null" json:"field"`
	OldValue   string    `gorm:"size:32" json:"oldValue"`
	NewValue   string    `gorm:"size:32" json:"newValue"`
	VideoPath  string    `gorm:"size:1024" json:"videoPath,omitempty"`
	Note       string    `gorm:"size:1024" json:"note,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// TableName overrides the default table name.
func (Entry) TableName() string {
	return "correction_entries"
}
