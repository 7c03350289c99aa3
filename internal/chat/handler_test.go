// AngelaMos | 2026
// handler_test.go

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	svc, _ := newTestService(t)

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r, svc
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandlerConversationsAndMessages(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, SendRequest{
		UserEmail: "jo@example.com",
		Sender:    SenderUser,
		Content:   "first",
	})
	require.NoError(t, err)

	rec := serve(router, http.MethodGet, "/conversations/jo@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var convs []ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, sent.ConversationID, convs[0].ID)

	rec = serve(router, http.MethodGet, "/messages/"+sent.ConversationID)
	require.Equal(t, http.StatusOK, rec.Code)

	var msgs []MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "jo@example.com", msgs[0].UserEmail)
}

func TestHandlerEmptyResultsAreArrays(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/conversations/nobody@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/messages/not-an-id")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandlerMarkRead(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodPut, "/messages/read/not-an-id")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"success":true,"message":"Messages marked as read."}`,
		rec.Body.String(),
	)
}

type failingRepository struct {
	*memoryRepository
	err error
}

func (f failingRepository) ListConversations(context.Context, string) ([]Conversation, error) {
	return nil, f.err
}

func (f failingRepository) ListMessages(context.Context, string) ([]Message, error) {
	return nil, f.err
}

func TestHandlerListFailuresAreBadRequests(t *testing.T) {
	repo := failingRepository{
		memoryRepository: newMemoryRepository(),
		err:              errors.New("db down"),
	}
	svc := NewService(repo, NewHub(testLogger()), nil, testLogger())

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)

	for _, target := range []string{
		"/conversations/a@example.com",
		"/messages/" + newID(),
	} {
		rec := serve(r, http.MethodGet, target)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)

		var body struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, "db down", body.Error)
	}
}
