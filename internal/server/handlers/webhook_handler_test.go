package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

type fakeMessaging struct {
	payloads []models.WebhookPayload
	outbound []models.OutboundMessageRequest
	err      error
}

func (f *fakeMessaging) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if verifyToken != "verify-me" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (f *fakeMessaging) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakeMessaging) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	f.outbound = append(f.outbound, req)
	return f.err
}

func newWebhookEngine(svc *fakeMessaging) *gin.Engine {
	h := NewWebhookHandler(svc, nil)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	return r
}

func TestWebhook_Verify(t *testing.T) {
	r := newWebhookEngine(&fakeMessaging{})

	rec, _ := do(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=1158201444", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1158201444", rec.Body.String())

	rec, _ = do(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhook_Receive(t *testing.T) {
	svc := &fakeMessaging{}
	r := newWebhookEngine(svc)

	payload := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messaging_product":"whatsapp","messages":[{"from":"9199","id":"wamid.1","type":"text","text":{"body":"/stock"}}]}}]}]}`
	rec, _ := do(r, http.MethodPost, "/webhook", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.payloads, 1)
	assert.Equal(t, "/stock", svc.payloads[0].Entry[0].Changes[0].Value.Messages[0].CommandText())

	rec, _ = do(r, http.MethodPost, "/webhook", `{"entry":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_ReceiveAcknowledgesFailures(t *testing.T) {
	r := newWebhookEngine(&fakeMessaging{err: errors.New("send failed")})

	rec, _ := do(r, http.MethodPost, "/webhook", `{"entry":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_SendMessage(t *testing.T) {
	svc := &fakeMessaging{}
	r := newWebhookEngine(svc)

	rec, _ := do(r, http.MethodPost, "/send-message", `{"to":"9199","message":"Gate closes at 6"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, svc.outbound, 1)
	assert.Equal(t, "9199", svc.outbound[0].To)

	rec, _ = do(r, http.MethodPost, "/send-message", `{"to":"9199"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	failing := newWebhookEngine(&fakeMessaging{err: errors.New("rate limited")})
	rec, _ = do(failing, http.MethodPost, "/send-message", `{"to":"9199","message":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
