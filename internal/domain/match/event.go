package match

// Event identifies a competition event a team attends during a season.
type Event struct {
	// Key is the event key, e.g. "2024miket".
	Key string

	// Name is the human-readable event name.
	Name string

	// City and StateProv locate the event (optional).
	City      string
	StateProv string
}

// NamesByKey builds an EventNames lookup from a slice of events.
func NamesByKey(events []Event) EventNames {
	names := make(EventNames, len(events))
	for _, e := range events {
		if e.Name != "" {
			names[e.Key] = e.Name
		}
	}
	return names
}
