package model

// Location is a single SFpark parking location: an off-street facility or an
// on-street block face. Rows are inserted once and never updated.
type Location struct {
	ID       int64    `gorm:"primaryKey;autoIncrement:false" json:"id"` // OSPID for off-street, BFID otherwise
	ParkType *string  `gorm:"column:parktype;size:3" json:"parktype,omitempty"`
	Name     *string  `gorm:"size:255" json:"name,omitempty"`
	Descr    *string  `gorm:"size:255" json:"descr,omitempty"`
	Inter    *string  `gorm:"size:255" json:"inter,omitempty"`
	Tel      *string  `gorm:"size:255" json:"tel,omitempty"`
	OSPID    *int64   `gorm:"column:ospid" json:"ospid,omitempty"`
	BFID     *int64   `gorm:"column:bfid" json:"bfid,omitempty"`
	Pts      *int     `json:"pts,omitempty"`
	Lat1     *float64 `json:"lat1,omitempty"`
	Lon1     *float64 `json:"lon1,omitempty"`
	Lat2     *float64 `json:"lat2,omitempty"`
	Lon2     *float64 `json:"lon2,omitempty"`

	// Associations
	Availability []Availability   `gorm:"foreignKey:LocID" json:"-"`
	Rates        []Rate           `gorm:"foreignKey:LocID" json:"-"`
	Hours        []OperatingHours `gorm:"foreignKey:LocID" json:"-"`
}

// TableName pins the table name to the historical schema.
func (Location) TableName() string {
	return "location"
}

// OffStreet reports whether the location is an off-street facility.
func (l Location) OffStreet() bool {
	return l.ParkType != nil && *l.ParkType == ParkTypeOffStreet
}

// ParkTypeOffStreet is the TYPE code SFpark uses for garages and lots.
const ParkTypeOffStreet = "OFF"
