package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"subsweep/internal/model"
)

const user = "me"

// Client adapts a Gmail service to the scanner's fetcher and to the
// unsubscribe flow's trash action.
type Client struct {
	svc *gmailv1.Service
}

func NewClient(svc *gmailv1.Service) *Client {
	return &Client{svc: svc}
}

// ListMessageIDs returns up to max message ids matching query, newest first
// as Gmail orders them. Pages are followed until max ids are collected.
func (c *Client) ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		call := c.svc.Users.Messages.List(user).Q(query).MaxResults(max - int64(len(ids))).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, mapAPIError(fmt.Errorf("list messages: %w", err))
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
			if int64(len(ids)) >= max {
				return ids, nil
			}
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// GetMessage fetches one message in full format and flattens its payload.
func (c *Client) GetMessage(ctx context.Context, id string) (model.RawMessage, error) {
	msg, err := c.svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return model.RawMessage{}, mapAPIError(fmt.Errorf("get message %s: %w", id, err))
	}
	return toRawMessage(msg), nil
}

// TrashMessages moves the given messages to trash.
func (c *Client) TrashMessages(ctx context.Context, messageIDs []string) error {
	for _, id := range messageIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := c.svc.Users.Messages.Trash(user, id).Context(ctx).Do(); err != nil {
			return mapAPIError(fmt.Errorf("trash message %s: %w", id, err))
		}
	}
	return nil
}

// mapAPIError turns a rejected credential into an AuthError so callers can
// tell it apart from transient failures.
func mapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return &model.AuthError{Err: err}
	}
	return err
}
