package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func messageJSON(text string) string {
	return `{"id":"msg_1","type":"message","role":"assistant","model":"fast-model",` +
		`"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":5},` +
		`"content":[{"type":"text","text":` + text + `}]}`
}

func newTestAnthropic(t *testing.T, url string) *AnthropicClient {
	t.Helper()
	c, err := NewAnthropicClient("secret", url, time.Second, option.WithMaxRetries(0))
	require.NoError(t, err)
	return c
}

func TestAnthropicClientComplete(t *testing.T) {
	var got sentMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(messageJSON(`"  {\"ok\": true} "`)))
	}))
	defer srv.Close()

	out, err := newTestAnthropic(t, srv.URL).Complete(context.Background(), "fast-model", 512, "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)
	assert.Equal(t, "fast-model", got.Model)
	assert.Equal(t, 512, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.Len(t, got.Messages[0].Content, 1)
	assert.Equal(t, "hello", got.Messages[0].Content[0].Text)
}

func TestAnthropicClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`},
		{"non json error", http.StatusBadGateway, `upstream down`},
		{"empty content", http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant","content":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestAnthropic(t, srv.URL).Complete(context.Background(), "m", 10, "p")
			assert.Error(t, err)
		})
	}
}

func TestAnthropicClientRejectsBlankModel(t *testing.T) {
	c := newTestAnthropic(t, "http://127.0.0.1:1")
	_, err := c.Complete(context.Background(), " ", 10, "p")
	assert.Error(t, err)
}

func TestNewAnthropicClientRequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(" ", "", 0)
	assert.Error(t, err)
}

type funcCompleter func(ctx context.Context) (string, error)

func (f funcCompleter) Complete(ctx context.Context, model string, maxTokens int, prompt string) (string, error) {
	return f(ctx)
}

type recordingObserver struct {
	models []string
	errs   []error
}

func (r *recordingObserver) ObserveLLMCall(model string, elapsed time.Duration, err error) {
	r.models = append(r.models, model)
	r.errs = append(r.errs, err)
}

func TestBoundedTimesOut(t *testing.T) {
	obs := &recordingObserver{}
	slow := funcCompleter(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, err := Bounded(slow, 20*time.Millisecond, obs).Complete(context.Background(), "m", 1, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"m"}, obs.models)
	assert.Error(t, obs.errs[0])
}

func TestBoundedRejectsBlankResponse(t *testing.T) {
	blank := funcCompleter(func(ctx context.Context) (string, error) { return "  ", nil })

	_, err := Bounded(blank, 0, nil).Complete(context.Background(), "m", 1, "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
