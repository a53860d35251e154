package updater

type (
	// Sent when the tag has been resolved.
	EventTagResolved string

	// Sent after the index has been searched for the tag.
	EventStamped struct {
		Chart   string
		Tag     string
		Index   int
		Matched bool
	}

	// Sent when all work has completed.
	EventDone struct {
		Err error
	}
)
