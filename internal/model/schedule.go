package model

// Rate is one entry of a location's rate schedule for a given day.
type Rate struct {
	ID     int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	LocID  int64      `gorm:"not null;index" json:"loc_id"`
	DateID int        `gorm:"not null;index" json:"date_id"`
	Beg    *TimeOfDay `json:"beg,omitempty"`
	End    *TimeOfDay `json:"end,omitempty"`
	Amount *float64   `gorm:"column:rate" json:"rate,omitempty"`
	Descr  *string    `gorm:"size:255" json:"descr,omitempty"`
	RQ     *string    `gorm:"column:rq;size:16" json:"rq,omitempty"`
	RR     *string    `gorm:"column:rr;size:255" json:"rr,omitempty"`
}

// TableName pins the table name to the historical schema.
func (Rate) TableName() string {
	return "rates"
}

// OperatingHours is one entry of a location's operating schedule for a given day.
type OperatingHours struct {
	ID      int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	LocID   int64      `gorm:"not null;index" json:"loc_id"`
	DateID  int        `gorm:"not null;index" json:"date_id"`
	FromDay *string    `gorm:"size:16" json:"from_day,omitempty"`
	ToDay   *string    `gorm:"size:16" json:"to_day,omitempty"`
	Beg     *TimeOfDay `json:"beg,omitempty"`
	End     *TimeOfDay `json:"end,omitempty"`
}

// TableName pins the table name to the historical schema.
func (OperatingHours) TableName() string {
	return "operating_hours"
}
