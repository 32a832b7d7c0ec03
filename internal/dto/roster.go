package dto

// RosterFormat enumerates supported roster export formats.
type RosterFormat string

const (
	RosterFormatCSV RosterFormat = "csv"
	RosterFormatPDF RosterFormat = "pdf"
)

// RosterEntry is a single attendee line in an exported roster.
type RosterEntry struct {
	Name  string
	Email string
}

// RosterFile is a rendered roster ready to be served as an attachment.
type RosterFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
