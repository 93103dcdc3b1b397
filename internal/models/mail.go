package models

import "time"

// MailContent is the rendered body of a mail document.
type MailContent struct {
	Subject string `json:"subject" firestore:"subject"`
	HTML    string `json:"html" firestore:"html"`
	Text    string `json:"text" firestore:"text"`
}

// MailMessage is a document in the mail collection. The delivery extension picks
// up every document written there.
type MailMessage struct {
	ID        string      `db:"id" json:"id" firestore:"-"`
	To        string      `db:"recipient" json:"to" firestore:"to"`
	From      string      `db:"sender" json:"from,omitempty" firestore:"from,omitempty"`
	Message   MailContent `db:"-" json:"message" firestore:"message"`
	CreatedAt time.Time   `db:"created_at" json:"created_at" firestore:"createdAt"`
}
