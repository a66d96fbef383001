package telephony

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Deverdnd/neverdnd-call-handler/internal/ai"
	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
	"github.com/Deverdnd/neverdnd-call-handler/internal/calls"
	"github.com/Deverdnd/neverdnd-call-handler/internal/orchestrator"
	"github.com/Deverdnd/neverdnd-call-handler/internal/session"

	"github.com/gin-gonic/gin"
)

func testRouter(t *testing.T) (*gin.Engine, *calls.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := business.NewMemoryRepo()
	repo.Put(business.Config{
		ID:            "biz-1",
		Name:          "Joe's Auto Repair",
		PhoneNumber:   "+15550001111",
		ForwardNumber: "+15550002222",
		Mode:          business.ModeAfterHours,
		Hours:         business.DefaultHours(),
	})
	repo.Put(business.Config{
		ID:            "biz-2",
		Name:          "Closed Line Cafe",
		PhoneNumber:   "+15550005555",
		ForwardNumber: "+15550006666",
		Mode:          business.ModeDisabled,
		Hours:         business.DefaultHours(),
	})
	callRepo := calls.NewMemoryRepo()

	orch := &orchestrator.Orchestrator{
		Businesses: repo,
		Sessions:   session.NewStore(0, 0),
		Generator:  ai.NewGenerator(nil, nil),
		Calls:      callRepo,
		// Tuesday evening, outside default hours.
		Now: func() time.Time { return time.Date(2024, time.January, 2, 20, 0, 0, 0, time.UTC) },
	}
	h := VoiceWebhookHandler{Orchestrator: orch, BaseURL: "https://calls.example.com"}

	r := gin.New()
	r.POST("/webhooks/voice", h.HandleInboundCall)
	r.POST("/webhooks/voice/conversation", h.HandleConversation)
	r.POST("/webhooks/voice/status", h.HandleStatus)
	return r, callRepo
}

func postWebhook(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleInboundCall_Converse(t *testing.T) {
	r, _ := testRouter(t)

	w := postWebhook(r, "/webhooks/voice", url.Values{
		"CallSid": {"CA1"},
		"From":    {"+15551234567"},
		"To":      {"+15550001111"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Joe&#39;s Auto Repair") {
		t.Fatalf("greeting missing:\n%s", body)
	}
	if !strings.Contains(body, "CallSid=CA1") || !strings.Contains(body, "/webhooks/voice/conversation") {
		t.Fatalf("gather action missing:\n%s", body)
	}
}

func TestHandleInboundCall_Forward(t *testing.T) {
	r, _ := testRouter(t)

	w := postWebhook(r, "/webhooks/voice", url.Values{
		"CallSid": {"CA2"},
		"From":    {"+15551234567"},
		"To":      {"+15550005555"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Number>+15550006666</Number>") {
		t.Fatalf("expected dial verb:\n%s", body)
	}
	if strings.Contains(body, "<Gather") {
		t.Fatalf("forwarded call must not gather:\n%s", body)
	}
}

func TestHandleConversation_SpeaksReply(t *testing.T) {
	r, _ := testRouter(t)
	postWebhook(r, "/webhooks/voice", url.Values{
		"CallSid": {"CA1"}, "From": {"+15551234567"}, "To": {"+15550001111"},
	})

	w := postWebhook(r, "/webhooks/voice/conversation?CallSid=CA1&To=%2B15550001111", url.Values{
		"From":         {"+15551234567"},
		"SpeechResult": {"thank you"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "welcome") {
		t.Fatalf("fallback reply missing:\n%s", body)
	}
	if !strings.Contains(body, "<Gather") {
		t.Fatalf("conversation must keep gathering:\n%s", body)
	}
}

func TestHandleStatus_CompletedPersistsCall(t *testing.T) {
	r, callRepo := testRouter(t)
	postWebhook(r, "/webhooks/voice", url.Values{
		"CallSid": {"CA1"}, "From": {"+15551234567"}, "To": {"+15550001111"},
	})
	postWebhook(r, "/webhooks/voice/conversation?CallSid=CA1&To=%2B15550001111", url.Values{
		"From": {"+15551234567"}, "SpeechResult": {"hello"},
	})

	w := postWebhook(r, "/webhooks/voice/status", url.Values{
		"CallSid":      {"CA1"},
		"From":         {"+15551234567"},
		"To":           {"+15550001111"},
		"CallStatus":   {"completed"},
		"CallDuration": {"42"},
	})
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("status webhook response = %d %q", w.Code, w.Body.String())
	}

	recs := callRepo.Calls()
	if len(recs) != 1 {
		t.Fatalf("expected one call record, got %d", len(recs))
	}
	if recs[0].DurationSeconds != 42 {
		t.Fatalf("duration = %d", recs[0].DurationSeconds)
	}
}

func TestHandleStatus_NonCompletedIgnored(t *testing.T) {
	r, callRepo := testRouter(t)

	w := postWebhook(r, "/webhooks/voice/status", url.Values{
		"CallSid":    {"CA1"},
		"CallStatus": {"ringing"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(callRepo.Calls()) != 0 {
		t.Fatalf("ringing status must not persist")
	}
}

func TestConversationAction_Encoding(t *testing.T) {
	h := VoiceWebhookHandler{BaseURL: "https://calls.example.com/"}
	got := h.conversationAction("CA1", "+15550001111")
	want := "https://calls.example.com/webhooks/voice/conversation?CallSid=CA1&To=%2B15550001111"
	if got != want {
		t.Fatalf("action = %q, want %q", got, want)
	}
}
