// Package notify delivers best-effort guest order notifications. The
// dispatcher turns one notification into per-channel tasks and hands them
// to an Executor; checkout never waits for delivery.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Channel names a delivery medium.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// ErrQueueFull is returned when an executor cannot accept more tasks.
var ErrQueueFull = errors.New("notification queue is full")

// ErrClosed is returned when submitting to a closed executor.
var ErrClosed = errors.New("notification executor is closed")

// Recipient is the guest contact captured at checkout.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Line is one purchased item as shown in the message.
type Line struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// GuestNotification is the order confirmation a guest receives.
type GuestNotification struct {
	OrderID   string          `json:"orderId"`
	AccountID string          `json:"accountId,omitempty"`
	IsGuest   bool            `json:"isGuest"`
	Recipient Recipient       `json:"recipient"`
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
}

// Guest reports whether the customer has no account or chose guest
// checkout explicitly.
func (n GuestNotification) Guest() bool {
	return n.IsGuest || strings.TrimSpace(n.AccountID) == ""
}

// Task is one channel delivery scheduled on an executor.
type Task struct {
	ID           string            `json:"id"`
	Channel      Channel           `json:"channel"`
	Notification GuestNotification `json:"notification"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// NewTask creates a task with a fresh, time-ordered ID.
func NewTask(channel Channel, n GuestNotification) Task {
	return Task{
		ID:           ulid.Make().String(),
		Channel:      channel,
		Notification: n,
		CreatedAt:    time.Now().UTC(),
	}
}

// Sender delivers a notification over one channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, n GuestNotification) error
}

// Executor runs tasks in the background.
type Executor interface {
	// Submit schedules a task without waiting for delivery.
	Submit(ctx context.Context, task Task) error
	// Close stops accepting tasks and waits for in-flight work or ctx.
	Close(ctx context.Context) error
}

// Senders routes tasks to the sender for their channel.
type Senders map[Channel]Sender

// NewSenders indexes senders by channel. Nil senders are ignored.
func NewSenders(senders ...Sender) Senders {
	s := make(Senders, len(senders))
	for _, sender := range senders {
		if sender != nil {
			s[sender.Channel()] = sender
		}
	}
	return s
}

// Channels returns the configured channels in a stable order.
func (s Senders) Channels() []Channel {
	var channels []Channel
	for _, c := range []Channel{ChannelEmail, ChannelWhatsApp} {
		if _, ok := s[c]; ok {
			channels = append(channels, c)
		}
	}
	return channels
}

func (s Senders) send(ctx context.Context, task Task) error {
	sender, ok := s[task.Channel]
	if !ok {
		return fmt.Errorf("no sender for channel %q", task.Channel)
	}
	return sender.Send(ctx, task.Notification)
}

// renderMessage builds the plain-text confirmation shared by all channels.
func renderMessage(n GuestNotification) (subject, body string) {
	subject = "Your order " + n.OrderID + " has been received"

	var b strings.Builder
	name := n.Recipient.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order %s.\n\n", name, n.OrderID)
	for _, l := range n.Lines {
		fmt.Fprintf(&b, "- %s x%d @ %s\n", l.Name, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", n.Total.StringFixed(2))
	fmt.Fprintf(&b, "\nTrack your order any time with order number %s.\n", n.OrderID)
	return subject, b.String()
}
