package domain

// Notification is an outbound message to a single recipient.
type Notification struct {
	To      string
	Subject string
	Body    string
}
