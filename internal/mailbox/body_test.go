package mailbox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/emersion/go-message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func part(mimeType, data string, children ...*gmail.MessagePart) *gmail.MessagePart {
	p := &gmail.MessagePart{MimeType: mimeType, Parts: children, Body: &gmail.MessagePartBody{}}
	if data != "" {
		p.Body.Data = b64(data)
	}
	return p
}

func TestGmailBody(t *testing.T) {
	tests := []struct {
		name    string
		payload *gmail.MessagePart
		want    string
	}{
		{
			name:    "payload data wins",
			payload: part("text/plain", "top level"),
			want:    "top level",
		},
		{
			name:    "first plain part",
			payload: part("multipart/alternative", "", part("text/plain", "first"), part("text/plain", "second")),
			want:    "first",
		},
		{
			name:    "plain preferred over earlier html",
			payload: part("multipart/alternative", "", part("text/html", "<p>html</p>"), part("text/plain", "plain")),
			want:    "plain",
		},
		{
			name:    "html fallback",
			payload: part("multipart/alternative", "", part("text/html", "<p>Hello <b>there</b></p>")),
			want:    "Hello there",
		},
		{
			name: "nested multipart",
			payload: part("multipart/mixed", "",
				part("multipart/alternative", "", part("text/plain", "nested plain")),
				part("application/pdf", "binary")),
			want: "nested plain",
		},
		{
			name:    "nothing readable",
			payload: part("multipart/mixed", "", part("application/pdf", "binary")),
			want:    "",
		},
		{
			name:    "nil payload",
			payload: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gmailBody(tt.payload))
		})
	}
}

func TestDecodeGmailDataUnpadded(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("hi"))
	assert.Equal(t, "hi", decodeGmailData(raw))
	assert.Equal(t, "", decodeGmailData("***"))
}

func TestEntityBody(t *testing.T) {
	raw := strings.Join([]string{
		"Content-Type: multipart/alternative; boundary=BOUND",
		"",
		"--BOUND",
		"Content-Type: text/html",
		"",
		"<div>html body</div>",
		"--BOUND",
		"Content-Type: text/plain",
		"",
		"plain body",
		"--BOUND--",
		"",
	}, "\r\n")

	e, err := message.Read(strings.NewReader(raw))
	require.NoError(t, err)
	body, err := entityBody(e)
	require.NoError(t, err)
	assert.Equal(t, "plain body", body)
}

func TestEntityBodyHTMLOnly(t *testing.T) {
	raw := "Content-Type: text/html\r\n\r\n<p>Only&nbsp;html &amp; more</p>"
	e, err := message.Read(strings.NewReader(raw))
	require.NoError(t, err)
	body, err := entityBody(e)
	require.NoError(t, err)
	assert.Equal(t, "Only html & more", body)
}

func TestHTMLToPlainText(t *testing.T) {
	got := htmlToPlainText("<p>Line one</p><br/>Line &lt;two&gt; <a href=\"x\">link</a>")
	assert.Equal(t, "Line one\n\nLine <two> link", got)
}
