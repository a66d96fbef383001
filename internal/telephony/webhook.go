package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// VoiceForm captures the subset of Twilio voice webhook fields we care about.
// Twilio sends application/x-www-form-urlencoded by default.
//
// Keep it minimal and provider-adapter-only. Business logic (routing,
// conversation) is not made here.
type VoiceForm struct {
	CallSid      string
	AccountSid   string
	From         string
	To           string
	Direction    string
	CallStatus   string
	SpeechResult string
	CallDuration string
	RecordingURL string
	CallerName   string
}

// ParseVoiceForm reads the webhook form. A few fields (CallSid, To) may also
// arrive as query parameters on Gather callbacks; form values win.
func ParseVoiceForm(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	f := VoiceForm{
		CallSid:      firstOf(r.PostFormValue("CallSid"), r.URL.Query().Get("CallSid")),
		AccountSid:   r.PostFormValue("AccountSid"),
		From:         normalizePhone(r.PostFormValue("From")),
		To:           firstOf(normalizePhone(r.PostFormValue("To")), normalizePhone(r.URL.Query().Get("To"))),
		Direction:    r.PostFormValue("Direction"),
		CallStatus:   r.PostFormValue("CallStatus"),
		SpeechResult: r.PostFormValue("SpeechResult"),
		CallDuration: r.PostFormValue("CallDuration"),
		RecordingURL: r.PostFormValue("RecordingUrl"),
		CallerName:   r.PostFormValue("CallerName"),
	}
	return f, nil
}

// DurationSeconds parses CallDuration; Twilio sends it as a decimal string.
func (f VoiceForm) DurationSeconds() int {
	n, err := strconv.Atoi(strings.TrimSpace(f.CallDuration))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
