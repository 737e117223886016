package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/samthedataman/resumably/internal/config"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/repository"
)

const maxSendAttempts = 3

// GmailMailbox talks to one Gmail account through the Gmail API
type GmailMailbox struct {
	service   *gmail.Service
	userEmail string
	backoff   func(attempt int) time.Duration
}

// NewGmailMailbox wraps an authenticated Gmail service
func NewGmailMailbox(service *gmail.Service, userEmail string) *GmailMailbox {
	if userEmail == "" {
		userEmail = "me"
	}
	return &GmailMailbox{
		service:   service,
		userEmail: userEmail,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
}

// ListMessages lists messages matching a Gmail search query and fetches each one
func (g *GmailMailbox) ListMessages(ctx context.Context, query string, max int64, pageToken string) (*MessagePage, error) {
	call := g.service.Users.Messages.List(g.userEmail).Q(query).Context(ctx)
	if max > 0 {
		call = call.MaxResults(max)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	response, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	page := &MessagePage{Messages: []model.Message{}, NextPageToken: response.NextPageToken}
	for _, ref := range response.Messages {
		msg, err := g.FetchMessage(ctx, ref.Id)
		if err != nil {
			logrus.Warnf("Failed to get message %s: %v", ref.Id, err)
			continue
		}
		page.Messages = append(page.Messages, *msg)
	}
	return page, nil
}

// FetchMessage retrieves one message in full format
func (g *GmailMailbox) FetchMessage(ctx context.Context, id string) (*model.Message, error) {
	msg, err := g.service.Users.Messages.Get(g.userEmail, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return parseGmailMessage(msg), nil
}

func parseGmailMessage(msg *gmail.Message) *model.Message {
	out := &model.Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
		Date:     time.UnixMilli(msg.InternalDate).UTC(),
	}
	if out.Labels == nil {
		out.Labels = []string{}
	}
	if msg.Payload == nil {
		return out
	}
	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			out.Subject = header.Value
		case "from":
			out.From = header.Value
		case "to":
			out.To = header.Value
		}
	}
	out.Body = gmailBody(msg.Payload)
	return out
}

// CreateDraft stores a reply draft in the user's mailbox and returns its id
func (g *GmailMailbox) CreateDraft(ctx context.Context, d Draft) (string, error) {
	raw, err := buildDraft("", "", d, time.Now())
	if err != nil {
		return "", err
	}
	draft := &gmail.Draft{Message: &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: d.ThreadID,
	}}

	var created *gmail.Draft
	err = g.retry(ctx, "create draft", func() error {
		var callErr error
		created, callErr = g.service.Users.Drafts.Create(g.userEmail, draft).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

// SendDraft sends a previously created draft
func (g *GmailMailbox) SendDraft(ctx context.Context, draftID string) error {
	return g.retry(ctx, "send draft", func() error {
		_, err := g.service.Users.Drafts.Send(g.userEmail, &gmail.Draft{Id: draftID}).Context(ctx).Do()
		return err
	})
}

// DeleteDraft removes a draft
func (g *GmailMailbox) DeleteDraft(ctx context.Context, draftID string) error {
	if err := g.service.Users.Drafts.Delete(g.userEmail, draftID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", draftID, err)
	}
	return nil
}

// retry repeats fn while Gmail reports quota or rate limiting
func (g *GmailMailbox) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		logrus.Warnf("Failed to %s (attempt %d/%d): %v", op, attempt, maxSendAttempts, err)

		if !isRateLimited(err) || attempt == maxSendAttempts {
			break
		}
		waitTime := g.backoff(attempt)
		logrus.Infof("Rate limited, waiting %v before retry", waitTime)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
	return fmt.Errorf("failed to %s: %w", op, lastErr)
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate")
}

// GmailProvider builds Gmail mailboxes from stored user tokens
type GmailProvider struct {
	oauth *oauth2.Config
	cfg   config.MailboxConfig
	users repository.Users
}

// NewGmailProvider creates a provider. A configured refresh token is used
// for users that have not connected their own account.
func NewGmailProvider(cfg config.MailboxConfig, users repository.Users) *GmailProvider {
	return &GmailProvider{
		oauth: OAuthConfig(cfg),
		cfg:   cfg,
		users: users,
	}
}

// OAuthConfig is the client configuration used to authorize Gmail access
func OAuthConfig(cfg config.MailboxConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailModifyScope},
		Endpoint:     google.Endpoint,
	}
}

// For returns the Gmail mailbox of a user
func (p *GmailProvider) For(ctx context.Context, userID uint) (Mailbox, error) {
	token, err := p.tokenFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The token source outlives the request that resolved it.
	tokenSource := p.oauth.TokenSource(context.Background(), token)
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return NewGmailMailbox(service, p.cfg.UserEmail), nil
}

func (p *GmailProvider) tokenFor(ctx context.Context, userID uint) (*oauth2.Token, error) {
	user, err := p.users.Get(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user != nil && user.MailboxConnected && user.MailboxToken != "" {
		var token oauth2.Token
		if err := json.Unmarshal([]byte(user.MailboxToken), &token); err != nil {
			return nil, fmt.Errorf("%w: stored token is unreadable", ErrNotConnected)
		}
		return &token, nil
	}
	if p.cfg.RefreshToken != "" {
		return &oauth2.Token{RefreshToken: p.cfg.RefreshToken}, nil
	}
	return nil, ErrNotConnected
}
