package entity

// ApplicationState is the unit of persistence and sync. It is always replaced
// as a whole, never patched in place.
type ApplicationState struct {
	Venues  []Venue  `json:"venues"`
	Vendors []Vendor `json:"vendors"`
}

// Clone returns a deep copy so callers can never alias the live state.
func (s ApplicationState) Clone() ApplicationState {
	out := ApplicationState{
		Venues:  make([]Venue, len(s.Venues)),
		Vendors: make([]Vendor, len(s.Vendors)),
	}
	for i, v := range s.Venues {
		out.Venues[i] = v.Clone()
	}
	for i, v := range s.Vendors {
		out.Vendors[i] = v.Clone()
	}
	return out
}

// Empty reports whether the state holds no records at all.
func (s ApplicationState) Empty() bool {
	return len(s.Venues) == 0 && len(s.Vendors) == 0
}
