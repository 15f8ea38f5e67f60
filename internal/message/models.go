package message

import "time"

// Message is a direct message between two users. Sender* fields are
// populated from the join on inbox listings.
type Message struct {
	MID         int64
	Source      int64
	Destination int64
	Subject     string
	Content     string
	DateSent    time.Time
	Unread      bool

	SenderFirstname string
	SenderLastname  string
	SenderEmail     string
}

// SendInput holds the fields required to send a message.
type SendInput struct {
	Source      int64
	Destination int64
	Subject     string
	Content     string
}
