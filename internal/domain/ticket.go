package domain

import "strings"

// Ticket is the input of the ticket renderer.
type Ticket struct {
	Name               string
	RegistrationNumber string
	Greeting           string
}

// TicketFor binds an attendee and an optional greeting into a ticket.
func TicketFor(a Attendee, greeting string) Ticket {
	return Ticket{
		Name:               a.Name,
		RegistrationNumber: a.RegistrationNumber,
		Greeting:           greeting,
	}
}

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts png, jpeg (or jpg) and pdf, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Artifact is a finished download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	// Width and Height are the raster size in pixels.
	Width  int
	Height int
}
