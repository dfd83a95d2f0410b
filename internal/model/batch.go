package model

// Batch is everything staged for persistence in one collection cycle.
type Batch struct {
	Locations    []Location
	Availability []Availability
	Rates        []Rate
	Hours        []OperatingHours
}

// Empty reports whether nothing was staged.
func (b Batch) Empty() bool {
	return len(b.Locations) == 0 && len(b.Availability) == 0 && len(b.Rates) == 0 && len(b.Hours) == 0
}

// LocationIDs returns the ids of the staged locations in staging order.
func (b Batch) LocationIDs() []int64 {
	ids := make([]int64, len(b.Locations))
	for i, l := range b.Locations {
		ids[i] = l.ID
	}
	return ids
}
