package handler

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/service"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, interaction *domain.Interaction) (*domain.Response, error) {
	args := m.Called(ctx, interaction)
	resp, _ := args.Get(0).(*domain.Response)
	return resp, args.Error(1)
}

type countingObserver struct {
	service.NopObserver
	failures int
}

func (c *countingObserver) VerificationFailed() {
	c.failures++
}

type signer struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

func newSigner(t *testing.T) *signer {
	t.Helper()

	public, private, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return &signer{private: private, public: public}
}

func (s *signer) request(t *testing.T, body string) *http.Request {
	t.Helper()

	timestamp := "1700000000"
	signature := ed25519.Sign(s.private, []byte(timestamp+body))

	req := httptest.NewRequest(http.MethodPost, InteractionsPath, strings.NewReader(body))
	req.Header.Set(TimestampHeader, timestamp)
	req.Header.Set(SignatureHeader, hex.EncodeToString(signature))
	return req
}

func newHandler(t *testing.T, s *signer, dispatcher Dispatcher, opts ...InteractionOption) *Interaction {
	t.Helper()

	verifier, err := service.NewSignatureVerifier(s.public)
	require.NoError(t, err)
	return NewInteraction(dispatcher, verifier, opts...)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) discordgo.InteractionResponse {
	t.Helper()

	var resp discordgo.InteractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const commandBody = `{"id":"1","application_id":"app","type":2,"token":"tok","guild_id":"g","data":{"name":"ask","options":[{"name":"prompt","type":3,"value":"hi"}]}}`

func TestInteraction_Ping(t *testing.T) {
	s := newSigner(t)
	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(i *domain.Interaction) bool {
		return i.Kind == domain.KindPing
	})).Return(domain.PongResponse(), nil).Once()

	rec := httptest.NewRecorder()
	newHandler(t, s, dispatcher).ServeHTTP(rec, s.request(t, `{"id":"1","type":1,"application_id":"app","token":"t"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, discordgo.InteractionResponsePong, decode(t, rec).Type)
	dispatcher.AssertExpectations(t)
}

func TestInteraction_Command(t *testing.T) {
	s := newSigner(t)
	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(i *domain.Interaction) bool {
		prompt, _ := i.Command.Options["prompt"].String()
		return i.Command.Name == "ask" && prompt == "hi" && i.Token == "tok" && i.GuildID == "g"
	})).Return(domain.MessageResponse("hello!"), nil).Once()

	rec := httptest.NewRecorder()
	newHandler(t, s, dispatcher).ServeHTTP(rec, s.request(t, commandBody))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, "hello!", resp.Data.Content)
	dispatcher.AssertExpectations(t)
}

func TestInteraction_TamperedBodyIsRejectedBeforeDispatch(t *testing.T) {
	s := newSigner(t)
	dispatcher := new(MockDispatcher)
	observer := &countingObserver{}

	req := s.request(t, commandBody)
	req.Body = http.NoBody
	tampered := s.request(t, commandBody)
	tampered.Body = io.NopCloser(strings.NewReader(strings.Replace(commandBody, `"hi"`, `"ho"`, 1)))

	for _, r := range []*http.Request{req, tampered} {
		rec := httptest.NewRecorder()
		newHandler(t, s, dispatcher, WithVerificationObserver(observer)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid request signature\n", rec.Body.String())
	}

	assert.Equal(t, 2, observer.failures)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestInteraction_RejectsRequestsWithoutValidSignatureHeaders(t *testing.T) {
	s := newSigner(t)
	dispatcher := new(MockDispatcher)

	tests := []struct {
		name   string
		mutate func(r *http.Request)
	}{
		{name: "missing signature", mutate: func(r *http.Request) { r.Header.Del(SignatureHeader) }},
		{name: "missing timestamp", mutate: func(r *http.Request) { r.Header.Del(TimestampHeader) }},
		{name: "signature not hex", mutate: func(r *http.Request) { r.Header.Set(SignatureHeader, "zz") }},
		{name: "other timestamp", mutate: func(r *http.Request) { r.Header.Set(TimestampHeader, "1700000001") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := s.request(t, commandBody)
			tc.mutate(req)

			rec := httptest.NewRecorder()
			newHandler(t, s, dispatcher).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "invalid request signature\n", rec.Body.String())
		})
	}

	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestInteraction_BadRequests(t *testing.T) {
	s := newSigner(t)

	tests := []struct {
		name     string
		body     string
		dispatch error
		wantCode int
	}{
		{name: "malformed json", body: `{"id":`, wantCode: http.StatusBadRequest},
		{name: "command without data", body: `{"id":"1","type":2}`, wantCode: http.StatusBadRequest},
		{name: "unsupported kind", body: `{"id":"1","type":3,"data":{"custom_id":"x","component_type":2}}`,
			dispatch: domain.ErrUnsupportedInteraction, wantCode: http.StatusBadRequest},
		{name: "dispatcher failure", body: commandBody, dispatch: errors.New("boom"),
			wantCode: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dispatcher := new(MockDispatcher)
			dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil, tc.dispatch)

			rec := httptest.NewRecorder()
			newHandler(t, s, dispatcher).ServeHTTP(rec, s.request(t, tc.body))

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestInteraction_BodyTooLarge(t *testing.T) {
	s := newSigner(t)
	dispatcher := new(MockDispatcher)

	rec := httptest.NewRecorder()
	newHandler(t, s, dispatcher, WithMaxBodyBytes(16)).ServeHTTP(rec, s.request(t, commandBody))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestInteraction_UnknownCommandIsRenderedForTheUser(t *testing.T) {
	s := newSigner(t)
	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).
		Return(nil, &domain.CommandNotFoundError{Name: "ask"}).Once()

	rec := httptest.NewRecorder()
	newHandler(t, s, dispatcher, WithNotFoundFooter("footer")).ServeHTTP(rec, s.request(t, commandBody))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	require.Len(t, resp.Data.Embeds, 1)
	assert.Equal(t, "I don't know the command /ask anymore, it may have been removed", resp.Data.Embeds[0].Description)
	assert.Equal(t, "footer", resp.Data.Embeds[0].Footer.Text)
}

func TestInteraction_DeferredResponse(t *testing.T) {
	s := newSigner(t)
	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(domain.DeferredResponse(), nil).Once()

	rec := httptest.NewRecorder()
	newHandler(t, s, dispatcher).ServeHTTP(rec, s.request(t, commandBody))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
}
