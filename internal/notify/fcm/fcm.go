// Package fcm delivers notifications through Firebase Cloud Messaging.
// FCM natively supports all three targeting modes: named topics, boolean
// conditions over subscribed topics, and direct device tokens.
package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Channel sends push notifications via FCM.
type Channel struct {
	client *messaging.Client
}

// New creates an FCM channel from a service account credentials file.
func New(ctx context.Context, credentialsFile string) (*Channel, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &Channel{client: client}, nil
}

// Name identifies the channel in statistics and logs.
func (c *Channel) Name() string { return "fcm" }

// SendToTopic sends to a single named topic.
func (c *Channel) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) (string, error) {
	return c.send(ctx, &messaging.Message{Topic: topic}, title, body, data)
}

// SendToCondition sends to a boolean condition over subscribed topics,
// e.g. "'goals' in topics && 'team_kr' in topics".
func (c *Channel) SendToCondition(ctx context.Context, condition, title, body string, data map[string]string) (string, error) {
	return c.send(ctx, &messaging.Message{Condition: condition}, title, body, data)
}

// SendToToken sends to one device registration token.
func (c *Channel) SendToToken(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	return c.send(ctx, &messaging.Message{Token: token}, title, body, data)
}

func (c *Channel) send(ctx context.Context, msg *messaging.Message, title, body string, data map[string]string) (string, error) {
	msg.Notification = &messaging.Notification{Title: title, Body: body}
	msg.Data = data

	id, err := c.client.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("fcm send: %w", err)
	}
	return id, nil
}
