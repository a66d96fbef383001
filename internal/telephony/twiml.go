package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// Minimal Twilio Markup Language response builder. It intentionally avoids
// any provider SDK dependency; only the verbs this adapter needs exist.

// Voice is the TTS voice used for every spoken line.
const Voice = "Polly.Joanna"

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Timeout       int      `xml:"timeout,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Action        string   `xml:"action,attr"`
	Say           *twimlSay
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Number  string   `xml:"Number,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// RenderConverse speaks a line, then gathers the caller's next utterance.
// If the caller stays silent past the gather timeout, the goodbye line plays
// and the call hangs up.
func RenderConverse(say, gatherAction string) (string, error) {
	if strings.TrimSpace(gatherAction) == "" {
		return "", errors.New("telephony: gather action required")
	}
	return render(
		twimlSay{Voice: Voice, Text: say},
		twimlGather{
			Input:         "speech",
			Timeout:       5,
			SpeechTimeout: "auto",
			Action:        gatherAction,
			Say:           &twimlSay{Voice: Voice, Text: "I'm listening..."},
		},
		twimlSay{Voice: Voice, Text: "Thanks for calling! Have a great day!"},
		twimlHangup{},
	)
}

// RenderForward dials the human line.
func RenderForward(number string) (string, error) {
	if strings.TrimSpace(number) == "" {
		return "", errors.New("telephony: forward number required")
	}
	return render(twimlDial{Number: number})
}

// RenderSayHangup speaks one line and ends the call (rejections, apologies).
func RenderSayHangup(say string) (string, error) {
	return render(twimlSay{Voice: Voice, Text: say}, twimlHangup{})
}

func render(verbs ...any) (string, error) {
	r := twimlResponse{Verbs: verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
