package controller

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"atlas-assistant-be/internal/constant"
	"atlas-assistant-be/internal/dto"
	"atlas-assistant-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssistantService struct {
	chatErr    error
	lastClient string
	analytics  []string
	resets     int
}

func (s *stubAssistantService) Chat(_ context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	conf := 0.9
	return &dto.ChatResponse{Message: "echo: " + req.Message, Confidence: &conf, RequestId: "r-1"}, nil
}

func (s *stubAssistantService) LocalChat(_ context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	return &dto.ChatResponse{Message: "local: " + req.Message, NeedsWebSearch: true, RequestId: "r-2"}, nil
}

func (s *stubAssistantService) WebSearch(_ context.Context, clientID string, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	s.lastClient = clientID
	return &dto.SearchResponse{Message: "web: " + req.Query, IsWebSearch: true, RequestId: "r-3"}, nil
}

func (s *stubAssistantService) RecordAnalytics(_ context.Context, req *dto.AnalyticsRequest) {
	s.analytics = append(s.analytics, req.Event)
}

func (s *stubAssistantService) Status(context.Context) *dto.AssistantStatusResponse {
	return &dto.AssistantStatusResponse{Sessions: 3}
}

func (s *stubAssistantService) ResetProtection(context.Context) {
	s.resets++
}

const testSecret = "test-secret"

func newTestApp(svc *stubAssistantService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewAssistantController(svc).RegisterRoutes(api)
	NewAdminController(svc, testSecret).RegisterRoutes(api)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestChatReturnsBareBody(t *testing.T) {
	app := newTestApp(&stubAssistantService{})

	status, body := postJSON(t, app, "/api/assistant/v1/chat", `{"message":"hello"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "echo: hello", body["message"])
	assert.Equal(t, 0.9, body["confidence"])
	assert.NotContains(t, body, "success")
}

func TestChatWritesAssistantErrorStatusAndBody(t *testing.T) {
	svc := &stubAssistantService{chatErr: &dto.AssistantError{
		Status: 503,
		Code:   constant.CodeServiceBusy,
		Body:   &dto.ChatResponse{Message: constant.BreakerOpenMessage, Code: constant.CodeServiceBusy},
	}}
	app := newTestApp(svc)

	status, body := postJSON(t, app, "/api/assistant/v1/chat", `{"message":"hello"}`)

	assert.Equal(t, 503, status)
	assert.Equal(t, constant.BreakerOpenMessage, body["message"])
	assert.Equal(t, constant.CodeServiceBusy, body["code"])
}

func TestChatRejectsMalformedBody(t *testing.T) {
	app := newTestApp(&stubAssistantService{})

	status, body := postJSON(t, app, "/api/assistant/v1/chat", `{"message":`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, constant.CodeFormatError, body["code"])
}

func TestLocalChatRoute(t *testing.T) {
	app := newTestApp(&stubAssistantService{})

	status, body := postJSON(t, app, "/api/assistant/v1/chat/local", `{"message":"hi"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["needsWebSearch"])
}

func TestSearchPassesClientID(t *testing.T) {
	svc := &stubAssistantService{}
	app := newTestApp(svc)

	status, body := postJSON(t, app, "/api/assistant/v1/search", `{"query":"sap"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["isWebSearch"])
	assert.Equal(t, "198.51.100.9", svc.lastClient)
}

func TestAnalyticsAcceptsEvent(t *testing.T) {
	svc := &stubAssistantService{}
	app := newTestApp(svc)

	status, _ := postJSON(t, app, "/api/assistant/v1/analytics", `{"event":"chat_opened"}`)
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, []string{"chat_opened"}, svc.analytics)

	status, _ = postJSON(t, app, "/api/assistant/v1/analytics", `{"payload":{}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	svc := &stubAssistantService{}
	app := newTestApp(svc)

	req := httptest.NewRequest("GET", "/api/admin/v1/assistant/status", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "a1", "role": "admin"})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	req = httptest.NewRequest("POST", "/api/admin/v1/assistant/reset", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.resets)
}
