package mailbox

import (
	"context"
	"errors"

	"github.com/samthedataman/resumably/internal/model"
)

var (
	// ErrNotConnected is returned when a user has no usable mailbox credentials
	ErrNotConnected = errors.New("mailbox not connected")
	// ErrUnsupported is returned for operations a provider cannot perform
	ErrUnsupported = errors.New("operation not supported by mailbox provider")
)

// Mailbox is a user's mail account as seen by the assistant
type Mailbox interface {
	ListMessages(ctx context.Context, query string, max int64, pageToken string) (*MessagePage, error)
	FetchMessage(ctx context.Context, id string) (*model.Message, error)
	CreateDraft(ctx context.Context, d Draft) (string, error)
	SendDraft(ctx context.Context, draftID string) error
	DeleteDraft(ctx context.Context, draftID string) error
}

// Provider resolves the mailbox belonging to a user
type Provider interface {
	For(ctx context.Context, userID uint) (Mailbox, error)
}

// MessagePage is one page of a mailbox listing
type MessagePage struct {
	Messages      []model.Message `json:"emails"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

// Attachment is a file carried by a draft
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Draft describes a reply to be stored in the user's drafts folder
type Draft struct {
	To         string
	Subject    string
	Body       string
	InReplyTo  string
	ThreadID   string
	Attachment *Attachment
}
