package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

func buildSender() EmailSender {
	// single sender today; SES/SMTP senders hook in here
	return logSender{}
}

func main() {
	p := NewProcessor(buildSender())

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"kind":"customer_confirmation","recipient":"dev@example.com","order":{"order_id":"ORD-local-1","customer_email":"dev@example.com","amount":80,"currency":"usd","payment_status":"PAID"}}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
