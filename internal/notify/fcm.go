package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// Messenger is the subset of *messaging.Client used here.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NewFCMClient initialises Firebase from a service account file.
func NewFCMClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}
	return client, nil
}

// FCMPublisher pushes a notification to the admin topic for new contact-form
// submissions. Other event types are ignored.
type FCMPublisher struct {
	client Messenger
	topic  string
}

func NewFCMPublisher(client Messenger, topic string) *FCMPublisher {
	return &FCMPublisher{client: client, topic: topic}
}

func (f *FCMPublisher) Publish(ctx context.Context, e Event) error {
	if e.Type != SubmissionCreated {
		return nil
	}

	data := map[string]string{"type": e.Type, "id": e.ID}
	for k, v := range e.Payload {
		data[k] = v
	}
	body := "A new message is waiting in the dashboard."
	if name := e.Payload["name"]; name != "" {
		body = fmt.Sprintf("%s sent a new message.", name)
	}

	_, err := f.client.Send(ctx, &messaging.Message{
		Topic: f.topic,
		Notification: &messaging.Notification{
			Title: "New contact submission",
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("fcm send to %s: %w", f.topic, err)
	}
	return nil
}

func (f *FCMPublisher) Close() error { return nil }
