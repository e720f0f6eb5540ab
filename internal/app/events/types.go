package events

import "time"

type InfoInput struct {
	Name string
	Type string
	URI  string
}

type CreateEventInput struct {
	TripToken string

	Category    string
	Name        string
	Description string
	Place       string

	Date      time.Time
	TimeStart time.Time
	TimeEnd   time.Time

	Seats  *int
	Ticket string

	Infos []InfoInput
}
