package state

import "time"

// ResourceRecord is the persistence model of a registered resource.
// Table name: resources
type ResourceRecord struct {
	URN        string    `gorm:"primaryKey;type:text;not null"`
	Stack      string    `gorm:"type:text;not null;index"`
	Token      string    `gorm:"type:text;not null"`
	Name       string    `gorm:"type:text;not null"`
	ResourceID string    `gorm:"column:resource_id;type:text"`
	Inputs     string    `gorm:"type:text"` // JSON encoded resource.PropertyMap
	Outputs    string    `gorm:"type:text"` // JSON encoded resource.PropertyMap
	Sequence   int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (ResourceRecord) TableName() string { return "resources" }

// ExportRecord persistence model
type ExportRecord struct {
	Stack     string    `gorm:"primaryKey;type:text;not null"`
	Name      string    `gorm:"primaryKey;type:text;not null"`
	Value     string    `gorm:"type:text"` // JSON encoded
	UpdatedAt time.Time `gorm:"not null"`
}

func (ExportRecord) TableName() string { return "exports" }

// AuditRecord persistence model
type AuditRecord struct {
	ID        string    `gorm:"primaryKey;type:text;not null"`
	Stack     string    `gorm:"type:text;index"`
	EventType string    `gorm:"type:text;not null"`
	Category  string    `gorm:"type:text"`
	Severity  string    `gorm:"type:text"`
	Outcome   string    `gorm:"type:text"`
	Message   string    `gorm:"type:text"`
	RequestID string    `gorm:"type:text"`
	Token     string    `gorm:"type:text"`
	Name      string    `gorm:"type:text"`
	Details   string    `gorm:"type:text"` // JSON encoded map[string]interface{}
	Timestamp time.Time `gorm:"not null;index"`
}

func (AuditRecord) TableName() string { return "audit_events" }
