package model

import "time"

// Availability is one occupancy observation of a location (append-only fact).
type Availability struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	LocID            int64     `gorm:"not null;index" json:"loc_id"`
	DateID           int       `gorm:"not null;index" json:"date_id"`
	UpdatedTimestamp time.Time `gorm:"column:updated_timestamp" json:"updated_timestamp"`
	Occ              *int      `json:"occ,omitempty"`
	Oper             *int      `json:"oper,omitempty"`
}

// TableName pins the table name to the historical schema.
func (Availability) TableName() string {
	return "availability"
}
