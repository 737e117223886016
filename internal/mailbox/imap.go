package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/config"
	"github.com/samthedataman/resumably/internal/model"
)

const inbox = "INBOX"

// IMAPMailbox serves one account over a single IMAP connection. Message ids
// are INBOX UIDs; draft ids are the Message-ID of the appended draft.
type IMAPMailbox struct {
	mu     sync.Mutex
	client *client.Client
	drafts string
	from   string
}

// NewIMAPMailbox wraps an authenticated client
func NewIMAPMailbox(c *client.Client, draftsMailbox, from string) *IMAPMailbox {
	if draftsMailbox == "" {
		draftsMailbox = "Drafts"
	}
	return &IMAPMailbox{client: c, drafts: draftsMailbox, from: from}
}

// DialIMAP connects and logs in with the configured account
func DialIMAP(cfg config.MailboxConfig) (*IMAPMailbox, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}
	return NewIMAPMailbox(c, cfg.DraftsMailbox, cfg.IMAPUser), nil
}

// ListMessages searches INBOX. Queries mentioning "is:unread" or "UNSEEN"
// select unseen messages, anything else lists all. The page token is an
// offset into the newest-first UID list.
func (m *IMAPMailbox) ListMessages(ctx context.Context, query string, max int64, pageToken string) (*MessagePage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid page token %q", pageToken)
		}
		offset = n
	}

	m.mu.Lock()
	uids, err := m.searchInbox(query)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })
	if offset > len(uids) {
		offset = len(uids)
	}
	end := len(uids)
	if max > 0 && offset+int(max) < end {
		end = offset + int(max)
	}

	page := &MessagePage{Messages: []model.Message{}}
	if end < len(uids) {
		page.NextPageToken = strconv.Itoa(end)
	}
	for _, uid := range uids[offset:end] {
		msg, err := m.FetchMessage(ctx, strconv.FormatUint(uint64(uid), 10))
		if err != nil {
			logrus.Warnf("Failed to fetch IMAP message %d: %v", uid, err)
			continue
		}
		page.Messages = append(page.Messages, *msg)
	}
	return page, nil
}

func (m *IMAPMailbox) searchInbox(query string) ([]uint32, error) {
	if _, err := m.client.Select(inbox, true); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}
	criteria := imap.NewSearchCriteria()
	q := strings.ToLower(query)
	if strings.Contains(q, "is:unread") || strings.Contains(q, "unseen") {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	}
	uids, err := m.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	return uids, nil
}

// FetchMessage retrieves one INBOX message by UID
func (m *IMAPMailbox) FetchMessage(ctx context.Context, id string) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid IMAP message id %q", id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.client.Select(inbox, true); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.client.UidFetch(seqset, items, messages)
	}()

	var fetched *imap.Message
	for msg := range messages {
		if fetched == nil {
			fetched = msg
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	if fetched == nil {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return parseIMAPMessage(id, fetched, section)
}

func parseIMAPMessage(id string, msg *imap.Message, section *imap.BodySectionName) (*model.Message, error) {
	out := &model.Message{
		ID:     id,
		Date:   msg.InternalDate,
		Labels: append([]string{}, msg.Flags...),
	}
	if env := msg.Envelope; env != nil {
		out.Subject = env.Subject
		out.ThreadID = env.MessageId
		if len(env.From) > 0 {
			out.From = formatAddress(env.From[0])
		}
		var to []string
		for _, addr := range env.To {
			to = append(to, addr.Address())
		}
		out.To = strings.Join(to, ", ")
		if out.Date.IsZero() {
			out.Date = env.Date
		}
	}

	r := msg.GetBody(section)
	if r == nil {
		return out, nil
	}
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	body, err := entityBody(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	out.Body = body
	out.Snippet = snippet(body, 200)
	return out, nil
}

func formatAddress(a *imap.Address) string {
	if a.PersonalName == "" {
		return a.Address()
	}
	return fmt.Sprintf("%s <%s>", a.PersonalName, a.Address())
}

func snippet(body string, n int) string {
	flat := strings.Join(strings.Fields(body), " ")
	return model.Truncate(flat, n)
}

// CreateDraft appends the draft to the drafts mailbox with the \Draft flag.
// IMAP thread ids are Message-IDs, so they double as In-Reply-To.
func (m *IMAPMailbox) CreateDraft(ctx context.Context, d Draft) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if d.InReplyTo == "" {
		d.InReplyTo = d.ThreadID
	}
	draftID := uuid.NewString() + "@resumably"
	raw, err := buildDraft(m.from, draftID, d, time.Now())
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.client.Append(m.drafts, []string{imap.DraftFlag}, time.Now(), bytes.NewBuffer(raw)); err != nil {
		return "", fmt.Errorf("failed to append draft: %w", err)
	}
	return draftID, nil
}

// SendDraft is not available over IMAP
func (m *IMAPMailbox) SendDraft(ctx context.Context, draftID string) error {
	return ErrUnsupported
}

// DeleteDraft flags the draft deleted and expunges it
func (m *IMAPMailbox) DeleteDraft(ctx context.Context, draftID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.client.Select(m.drafts, false); err != nil {
		return fmt.Errorf("failed to select %s: %w", m.drafts, err)
	}
	criteria := imap.NewSearchCriteria()
	criteria.Header = textproto.MIMEHeader{}
	criteria.Header.Add("Message-Id", draftID)
	uids, err := m.client.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("failed to search drafts: %w", err)
	}
	if len(uids) == 0 {
		return fmt.Errorf("draft %s not found", draftID)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	flags := []interface{}{imap.DeletedFlag}
	if err := m.client.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
		return fmt.Errorf("failed to flag draft: %w", err)
	}
	if err := m.client.Expunge(nil); err != nil {
		return fmt.Errorf("failed to expunge drafts: %w", err)
	}
	return nil
}

// Close logs out of the server
func (m *IMAPMailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client.Logout()
}

// IMAPProvider hands every user the single configured account
type IMAPProvider struct {
	cfg  config.MailboxConfig
	mu   sync.Mutex
	box  *IMAPMailbox
	dial func(config.MailboxConfig) (*IMAPMailbox, error)
}

// NewIMAPProvider creates a provider that connects on first use
func NewIMAPProvider(cfg config.MailboxConfig) *IMAPProvider {
	return &IMAPProvider{cfg: cfg, dial: DialIMAP}
}

// For returns the shared account, connecting if needed
func (p *IMAPProvider) For(ctx context.Context, userID uint) (Mailbox, error) {
	if p.cfg.IMAPHost == "" || p.cfg.IMAPUser == "" {
		return nil, ErrNotConnected
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.box != nil {
		return p.box, nil
	}
	box, err := p.dial(p.cfg)
	if err != nil {
		return nil, err
	}
	p.box = box
	return box, nil
}

// Close logs out if a connection was opened
func (p *IMAPProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.box == nil {
		return nil
	}
	err := p.box.Close()
	p.box = nil
	return err
}
