package domain

const (
	// PlaceholderName is shown when a row carries no recognizable name column.
	PlaceholderName = "WELCOME MADMATRIX !"
	// PlaceholderRegistrationNumber is shown when a row carries no registration number.
	PlaceholderRegistrationNumber = "VERIFIED"
)

// RegistryRow is one loosely typed row as returned by a registry source.
type RegistryRow map[string]any

// Attendee is derived from exactly one RegistryRow and never stored.
type Attendee struct {
	Name               string
	RegistrationNumber string
	// Email is the normalized search key.
	Email string
	// Source names the registry source that produced the match.
	Source string
}

// Greeting is a short decorative welcome line.
type Greeting struct {
	Text     string
	Fallback bool
}
