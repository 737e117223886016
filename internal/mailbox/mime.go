package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// buildDraft renders a draft as RFC-822 bytes: a text/plain part followed by
// the optional attachment.
func buildDraft(from, messageID string, d Draft, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetSubject(d.Subject)
	if from != "" {
		h.SetAddressList("From", []*mail.Address{{Address: from}})
	}
	if d.To != "" {
		h.SetAddressList("To", []*mail.Address{{Address: d.To}})
	}
	if messageID != "" {
		h.SetMessageID(messageID)
	}
	if d.InReplyTo != "" {
		h.Set("In-Reply-To", d.InReplyTo)
		h.Set("References", d.InReplyTo)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(th)
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := io.WriteString(w, d.Body); err != nil {
		return nil, fmt.Errorf("failed to write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	if a := d.Attachment; a != nil {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		var ah mail.AttachmentHeader
		ah.SetContentType(contentType, nil)
		ah.SetFilename(a.Filename)
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment: %w", err)
		}
		if _, err := aw.Write(a.Data); err != nil {
			return nil, fmt.Errorf("failed to write attachment: %w", err)
		}
		if err := aw.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}
