// Package telegram delivers notifications to Telegram chats. Telegram has no
// topic subscription model, so the channel is topic-only: each named topic
// maps to a configured chat id, and condition/token targeting is reported as
// unsupported (the dispatcher counts those as skipped).
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/matchwatch/matchwatch/internal/notify"
)

// Channel posts notifications to mapped Telegram chats.
type Channel struct {
	bot        *tele.Bot
	topicChats map[string]int64
}

// New creates a Telegram channel. topicChats maps topic names to chat ids;
// topics without a mapping are skipped.
func New(token string, topicChats map[string]int64) (*Channel, error) {
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Channel{bot: bot, topicChats: topicChats}, nil
}

// Name identifies the channel in statistics and logs.
func (c *Channel) Name() string { return "telegram" }

// SendToTopic posts to the chat mapped for the topic.
func (c *Channel) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) (string, error) {
	chatID, ok := c.topicChats[topic]
	if !ok {
		return "", fmt.Errorf("topic %q has no chat mapping: %w", topic, notify.ErrUnsupportedTarget)
	}

	text := fmt.Sprintf("*%s*\n%s", title, body)
	msg, err := c.bot.Send(tele.ChatID(chatID), text, tele.ModeMarkdown)
	if err != nil {
		return "", fmt.Errorf("telegram send to %q: %w", topic, err)
	}
	return strconv.Itoa(msg.ID), nil
}

// SendToCondition is not supported: Telegram has no tag expressions.
func (c *Channel) SendToCondition(ctx context.Context, condition, title, body string, data map[string]string) (string, error) {
	return "", notify.ErrUnsupportedTarget
}

// SendToToken is not supported: recipient tokens are a push-channel concept.
func (c *Channel) SendToToken(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	return "", notify.ErrUnsupportedTarget
}
