package mailbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/samthedataman/resumably/internal/config"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/repository"
)

func newTestGmail(t *testing.T, handler http.Handler) *GmailMailbox {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	box := NewGmailMailbox(svc, "")
	box.backoff = func(int) time.Duration { return time.Millisecond }
	return box
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGmailListAndFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "is:unread", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "tok", r.URL.Query().Get("pageToken"))
		writeJSON(w, http.StatusOK, map[string]any{
			"messages":      []map[string]string{{"id": "m1", "threadId": "t1"}, {"id": "broken"}},
			"nextPageToken": "next",
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":           "m1",
			"threadId":     "t1",
			"snippet":      "We have a role",
			"labelIds":     []string{"INBOX", "UNREAD"},
			"internalDate": "1700000000000",
			"payload": map[string]any{
				"mimeType": "multipart/alternative",
				"headers": []map[string]string{
					{"name": "Subject", "value": "Senior Data Engineer"},
					{"name": "From", "value": "Jane <jane@corp.com>"},
					{"name": "To", "value": "me@example.com"},
				},
				"parts": []map[string]any{
					{"mimeType": "text/plain", "body": map[string]string{"data": b64("Role details")}},
				},
			},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "not found"}})
	})

	box := newTestGmail(t, mux)
	page, err := box.ListMessages(context.Background(), "is:unread", 5, "tok")
	require.NoError(t, err)

	assert.Equal(t, "next", page.NextPageToken)
	require.Len(t, page.Messages, 1)
	msg := page.Messages[0]
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "t1", msg.ThreadID)
	assert.Equal(t, "Senior Data Engineer", msg.Subject)
	assert.Equal(t, "Jane <jane@corp.com>", msg.From)
	assert.Equal(t, "me@example.com", msg.To)
	assert.Equal(t, "Role details", msg.Body)
	assert.Equal(t, []string{"INBOX", "UNREAD"}, msg.Labels)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), msg.Date)
}

func TestGmailCreateDraftRetriesOnRateLimit(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/drafts", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"code": 429, "message": "User-rate limit exceeded"},
			})
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var draft gmail.Draft
		require.NoError(t, json.Unmarshal(raw, &draft))
		assert.Equal(t, "t1", draft.Message.ThreadId)
		assert.NotEmpty(t, draft.Message.Raw)
		writeJSON(w, http.StatusOK, map[string]any{"id": "d1"})
	})

	box := newTestGmail(t, mux)
	id, err := box.CreateDraft(context.Background(), Draft{
		To: "jane@corp.com", Subject: "Re: Role", Body: "Hi", ThreadID: "t1",
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", id)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGmailSendDraftDoesNotRetryOtherErrors(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/drafts/send", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"code": 400, "message": "Invalid draft"},
		})
	})

	box := newTestGmail(t, mux)
	err := box.SendDraft(context.Background(), "d1")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGmailDeleteDraft(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/drafts/d1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	box := newTestGmail(t, mux)
	assert.NoError(t, box.DeleteDraft(context.Background(), "d1"))
}

func TestGmailProviderTokens(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	connected := &model.User{Email: "a@example.com", MailboxConnected: true, MailboxToken: `{"refresh_token":"user-token"}`}
	require.NoError(t, store.Users.Create(ctx, connected))
	broken := &model.User{Email: "b@example.com", MailboxConnected: true, MailboxToken: "{not json"}
	require.NoError(t, store.Users.Create(ctx, broken))

	withoutFallback := NewGmailProvider(config.MailboxConfig{}, store.Users)
	token, err := withoutFallback.tokenFor(ctx, connected.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-token", token.RefreshToken)

	_, err = withoutFallback.tokenFor(ctx, broken.ID)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = withoutFallback.For(ctx, 999)
	assert.ErrorIs(t, err, ErrNotConnected)

	withFallback := NewGmailProvider(config.MailboxConfig{RefreshToken: "configured"}, store.Users)
	token, err = withFallback.tokenFor(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, "configured", token.RefreshToken)
}
