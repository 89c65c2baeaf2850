package ai

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAPI answers each request with the next scripted response; the last one repeats.
type fakeAPI struct {
	srv   *httptest.Server
	calls atomic.Int32
}

type scripted struct {
	status int
	body   string
}

func newFakeAPI(t *testing.T, script ...scripted) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(f.calls.Add(1)) - 1
		if n >= len(script) {
			n = len(script) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(script[n].status)
		_, _ = w.Write([]byte(script[n].body))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) service(retries int) *Service {
	return NewService(NewOpenAIClient("sk-test", f.srv.URL+"/v1"), Options{
		Model:        openai.GPT4oMini,
		MaxTokens:    64,
		Temperature:  0.7,
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	}, zap.NewNop())
}

func errBody(msg string) string {
	return `{"error":{"message":"` + msg + `","type":"test"}}`
}

func ok(content string) scripted {
	return scripted{http.StatusOK, `{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"` + content + `"},"finish_reason":"stop"}]}`}
}

var payload = []openai.ChatCompletionMessage{
	{Role: openai.ChatMessageRoleSystem, Content: "You are terse."},
	{Role: openai.ChatMessageRoleUser, Content: "2+2?", Name: "alice"},
}

func TestComplete_Success(t *testing.T) {
	api := newFakeAPI(t, ok("4"))
	out, err := api.service(3).Complete(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, "4", out)
	require.EqualValues(t, 1, api.calls.Load())
}

func TestComplete_RateLimitedUntilExhausted(t *testing.T) {
	api := newFakeAPI(t, scripted{http.StatusTooManyRequests, errBody("slow down")})
	_, err := api.service(3).Complete(context.Background(), payload)

	require.ErrorIs(t, err, ErrRetriesExceeded)
	var exceeded *RetriesExceededError
	require.ErrorAs(t, err, &exceeded)
	require.Equal(t, 3, exceeded.Attempts)
	require.EqualValues(t, 3, api.calls.Load())
}

func TestComplete_NotFoundIsFatal(t *testing.T) {
	api := newFakeAPI(t, scripted{http.StatusNotFound, errBody("no such model")})
	_, err := api.service(5).Complete(context.Background(), payload)

	var bad *BadRequestError
	require.ErrorAs(t, err, &bad)
	require.Equal(t, http.StatusNotFound, bad.StatusCode)
	require.Equal(t, "no such model", bad.Body)
	require.EqualValues(t, 1, api.calls.Load())
}

func TestComplete_NonJSONErrorBody(t *testing.T) {
	api := newFakeAPI(t, scripted{http.StatusBadRequest, "nope"})
	_, err := api.service(3).Complete(context.Background(), payload)

	var bad *BadRequestError
	require.ErrorAs(t, err, &bad)
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
	require.Equal(t, "nope", bad.Body)
}

func TestComplete_SucceedsOnSecondAttempt(t *testing.T) {
	api := newFakeAPI(t,
		scripted{http.StatusServiceUnavailable, errBody("busy")},
		ok("4"),
	)
	out, err := api.service(3).Complete(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, "4", out)
	require.EqualValues(t, 2, api.calls.Load())
}

func TestComplete_BudgetOfOne(t *testing.T) {
	for _, retries := range []int{1, 0, -2} {
		api := newFakeAPI(t, scripted{http.StatusInternalServerError, errBody("boom")})
		_, err := api.service(retries).Complete(context.Background(), payload)
		require.ErrorIs(t, err, ErrRetriesExceeded)
		require.EqualValues(t, 1, api.calls.Load(), "retries=%d", retries)
	}
}

func TestComplete_EmptyContentReturnsFallback(t *testing.T) {
	api := newFakeAPI(t, scripted{http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`})
	out, err := api.service(3).Complete(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, FallbackReply, out)
	require.EqualValues(t, 1, api.calls.Load())
}

func TestComplete_TransportFailureExhausts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := NewService(NewOpenAIClient("sk-test", url+"/v1"), Options{
		Model:      openai.GPT4oMini,
		MaxRetries: 2,
	}, zap.NewNop())

	_, err := svc.Complete(context.Background(), payload)
	require.ErrorIs(t, err, ErrRetriesExceeded)
}

func TestComplete_CancelledDuringBackoff(t *testing.T) {
	api := newFakeAPI(t, scripted{http.StatusTooManyRequests, errBody("slow down")})
	svc := api.service(10)
	svc.opts.RetryBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Complete(ctx, payload)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.EqualValues(t, 1, api.calls.Load())
}

func TestGenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"` + base64.StdEncoding.EncodeToString(png) + `"}]}`))
	}))
	defer srv.Close()

	svc := NewService(NewOpenAIClient("sk-test", srv.URL+"/v1"), Options{Model: openai.GPT4oMini}, nil)
	img, err := svc.GenerateImage(context.Background(), "a cat")
	require.NoError(t, err)
	require.Equal(t, png, img)
	require.Equal(t, "/v1/images/generations", gotPath)
}

func TestGenerateImage_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer srv.Close()

	svc := NewService(NewOpenAIClient("sk-test", srv.URL+"/v1"), Options{}, nil)
	_, err := svc.GenerateImage(context.Background(), "a cat")
	require.ErrorIs(t, err, ErrNoImage)
}

func TestAnalyze(t *testing.T) {
	api := newFakeAPI(t, ok(" cheerful "))
	out, err := api.service(1).Analyze(context.Background(), "what a day!", "mood")
	require.NoError(t, err)
	require.Equal(t, "cheerful", out)
}
