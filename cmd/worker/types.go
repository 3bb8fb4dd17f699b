package main

import "context"

// EmailSender delivers a rendered message. The worker treats a send failure
// as a processing failure so SQS redelivery (and ultimately the DLQ) applies.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
