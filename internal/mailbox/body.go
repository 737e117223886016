package mailbox

import (
	"encoding/base64"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
	"google.golang.org/api/gmail/v1"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// gmailBody extracts the readable body of a Gmail payload. The payload's own
// data wins; otherwise the first text/plain part is taken, an HTML part is
// used only while nothing better was found, and nested multiparts are
// searched in order.
func gmailBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.Body != nil && part.Body.Data != "" {
		text := decodeGmailData(part.Body.Data)
		if strings.HasPrefix(part.MimeType, "text/html") {
			return htmlToPlainText(text)
		}
		return text
	}

	body := ""
	for _, p := range part.Parts {
		switch {
		case p.MimeType == "text/plain":
			if p.Body != nil && p.Body.Data != "" {
				return decodeGmailData(p.Body.Data)
			}
		case p.MimeType == "text/html":
			if body == "" && p.Body != nil && p.Body.Data != "" {
				body = htmlToPlainText(decodeGmailData(p.Body.Data))
			}
		case len(p.Parts) > 0:
			if nested := gmailBody(p); nested != "" {
				return nested
			}
		}
	}
	return body
}

func decodeGmailData(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

// entityBody applies the same preference to a parsed RFC-822 entity
func entityBody(e *message.Entity) (string, error) {
	plain, html, err := walkEntity(e)
	if err != nil {
		return "", err
	}
	if plain != "" {
		return plain, nil
	}
	return htmlToPlainText(html), nil
}

func walkEntity(e *message.Entity) (plain, html string, err error) {
	if mr := e.MultipartReader(); mr != nil {
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return plain, html, err
			}
			pp, ph, err := walkEntity(p)
			if err != nil {
				return plain, html, err
			}
			if pp != "" {
				return pp, html, nil
			}
			if html == "" {
				html = ph
			}
		}
		return plain, html, nil
	}

	content, err := io.ReadAll(e.Body)
	if err != nil {
		return "", "", err
	}
	mediaType, _, _ := e.Header.ContentType()
	if disp, _, _ := e.Header.ContentDisposition(); disp == "attachment" {
		return "", "", nil
	}
	switch mediaType {
	case "text/plain", "":
		return string(content), "", nil
	case "text/html":
		return "", string(content), nil
	}
	return "", "", nil
}

// htmlToPlainText converts HTML to plain text with a tag strip
func htmlToPlainText(html string) string {
	text := html

	for _, tag := range []string{"<br>", "<br/>", "<br />", "<p>", "</p>", "<div>", "</div>"} {
		text = strings.ReplaceAll(text, tag, "\n")
	}
	text = tagPattern.ReplaceAllString(text, "")

	// entities are decoded after the tag strip so escaped brackets survive
	replacements := []struct {
		from string
		to   string
	}{
		{"&nbsp;", " "},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", "\""},
		{"&#39;", "'"},
		{"&amp;", "&"},
	}
	for _, replacement := range replacements {
		text = strings.ReplaceAll(text, replacement.from, replacement.to)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}
