package mail

// Message is a single outbound email.
type Message struct {
	ToName   string
	ToEmail  string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers email messages.
type Sender interface {
	Send(msg Message) error
}
