package telephony

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Deverdnd/neverdnd-call-handler/internal/orchestrator"
	"github.com/Deverdnd/neverdnd-call-handler/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VoiceWebhookHandler converts Twilio voice webhooks to internal types,
// delegates the call lifecycle to the orchestrator, and writes TwiML.
//
// No business logic here.
//
// NOTE: These endpoints should be protected by Twilio signature validation in
// production.
type VoiceWebhookHandler struct {
	Orchestrator *orchestrator.Orchestrator

	// BaseURL is the public origin Twilio calls back into (Gather actions).
	BaseURL string
}

// HandleInboundCall answers the initial call webhook: admission + routing.
func (h VoiceWebhookHandler) HandleInboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceForm(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	log.Info("inbound call", "call_sid", form.CallSid, "from", logger.MaskPhone(form.From))

	res := h.Orchestrator.StartCall(c.Request.Context(), orchestrator.StartRequest{
		CallID: form.CallSid,
		From:   form.From,
		To:     form.To,
	})

	var twiml string
	switch res.Outcome {
	case orchestrator.OutcomeReject:
		twiml, err = RenderSayHangup(res.Greeting)
	case orchestrator.OutcomeForward:
		twiml, err = RenderForward(res.ForwardTo)
	default:
		twiml, err = RenderConverse(res.Greeting, h.conversationAction(form.CallSid, form.To))
	}
	h.writeTwiML(c, twiml, err)
}

// HandleConversation answers each Gather callback with the agent's next turn.
func (h VoiceWebhookHandler) HandleConversation(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceForm(c.Request)
	if err != nil {
		log.Warn("conversation webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	utterance := form.SpeechResult
	if strings.TrimSpace(utterance) == "" {
		utterance = "nothing"
	}

	spoken := h.Orchestrator.HandleUtterance(c.Request.Context(), orchestrator.UtteranceRequest{
		CallID: form.CallSid,
		From:   form.From,
		To:     form.To,
		Text:   utterance,
	})

	twiml, err := RenderConverse(spoken, h.conversationAction(form.CallSid, form.To))
	h.writeTwiML(c, twiml, err)
}

// HandleStatus receives call status callbacks; only completion matters here.
func (h VoiceWebhookHandler) HandleStatus(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceForm(c.Request)
	if err != nil {
		log.Warn("status webhook parse failed", "err", err)
		c.String(http.StatusOK, "OK")
		return
	}

	if form.CallStatus == "completed" {
		h.Orchestrator.CompleteCall(c.Request.Context(), orchestrator.CompletionRequest{
			CallID:          form.CallSid,
			From:            form.From,
			To:              form.To,
			DurationSeconds: form.DurationSeconds(),
			RecordingURL:    form.RecordingURL,
		})
	}
	c.String(http.StatusOK, "OK")
}

func (h VoiceWebhookHandler) conversationAction(callSid, to string) string {
	base := strings.TrimRight(h.BaseURL, "/")
	q := url.Values{}
	q.Set("CallSid", callSid)
	if to != "" {
		q.Set("To", to)
	}
	return base + "/webhooks/voice/conversation?" + q.Encode()
}

func (h VoiceWebhookHandler) writeTwiML(c *gin.Context, twiml string, err error) {
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		// Degrade to a speakable apology; Twilio must never see a 5xx here.
		fallback, ferr := RenderSayHangup(orchestrator.DifficultiesLine)
		if ferr != nil {
			c.String(http.StatusOK, "<Response/>")
			return
		}
		twiml = fallback
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
