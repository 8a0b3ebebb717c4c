package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/service"
)

// GmailSearch finds notification emails through the Gmail API.
type GmailSearch struct {
	svc   *gmail.Service
	user  string
	retry common.RetryOptions
}

// NewGmailSearch creates a search over the mailbox of user ("me" for the
// authenticated account).
func NewGmailSearch(svc *gmail.Service, user string) *GmailSearch {
	if user == "" {
		user = "me"
	}
	return &GmailSearch{
		svc:  svc,
		user: user,
		retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
	}
}

// Query returns the Gmail search query for messages from fromAddress between
// since and until. Gmail filters at second precision and treats before: as
// exclusive.
func Query(fromAddress string, since, until time.Time) string {
	return fmt.Sprintf("from:%s after:%d before:%d", fromAddress, since.Unix(), until.Unix()+1)
}

// Search returns notifications from fromAddress received within [since, until].
func (g *GmailSearch) Search(ctx context.Context, fromAddress string, since, until time.Time) ([]service.Notification, error) {
	query := Query(fromAddress, since, until)

	var ids []string
	err := common.WithRetry(ctx, func() error {
		ids = ids[:0]
		return common.ClassifyAPIError(g.svc.Users.Messages.List(g.user).Q(query).Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
			for _, m := range resp.Messages {
				ids = append(ids, m.Id)
			}
			return nil
		}))
	}, g.retry)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list messages: %w", common.ErrMailUnavailable, err)
	}

	notifications := make([]service.Notification, 0, len(ids))
	for _, id := range ids {
		var msg *gmail.Message
		err := common.WithRetry(ctx, func() error {
			var getErr error
			msg, getErr = g.svc.Users.Messages.Get(g.user, id).Format("full").Context(ctx).Do()
			return common.ClassifyAPIError(getErr)
		}, g.retry)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch message %s: %w", common.ErrMailUnavailable, id, err)
		}

		n := toNotification(msg)
		if n.ReceivedAt.Before(since) || n.ReceivedAt.After(until) {
			slog.Debug("Skipping notification outside window", "notification_id", id, "received_at", n.ReceivedAt)
			continue
		}
		notifications = append(notifications, n)
	}

	return notifications, nil
}

func toNotification(msg *gmail.Message) service.Notification {
	n := service.Notification{
		ID:         msg.Id,
		ReceivedAt: time.UnixMilli(msg.InternalDate).UTC(),
	}
	if msg.Payload == nil {
		return n
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			n.Subject = h.Value
		case "from":
			n.From = h.Value
		}
	}

	if body, ok := findBody(msg.Payload, "text/html"); ok {
		n.BodyHTML = body
	} else if body, ok := findBody(msg.Payload, "text/plain"); ok {
		n.BodyHTML = body
	}
	return n
}

// findBody returns the first decoded part of the given MIME type.
func findBody(part *gmail.MessagePart, mimeType string) (string, bool) {
	if part == nil {
		return "", false
	}
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		if decoded, err := decodeBody(part.Body.Data); err == nil {
			return decoded, true
		}
	}
	for _, child := range part.Parts {
		if body, ok := findBody(child, mimeType); ok {
			return body, true
		}
	}
	return "", false
}

func decodeBody(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
	}
	if err != nil {
		return "", fmt.Errorf("failed to decode message body: %w", err)
	}
	return string(decoded), nil
}
