package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	voicePath      = "/twilio/voice"
	speechPath     = "/twilio/process-speech"
	recordingPath  = "/twilio/process-recording"
	callStatusPath = "/twilio/call-status"
)

// TwilioVoiceForm is the subset of voice webhook fields we use. Twilio
// posts application/x-www-form-urlencoded bodies; call_sid, lead_id and
// turn come from the query string we put on action URLs.
type TwilioVoiceForm struct {
	CallSid    string
	From       string
	To         string
	Direction  string
	CallStatus string
	LeadID     int64
	Turn       int

	SpeechResult string
	Confidence   float64

	RecordingURL      string
	RecordingSid      string
	RecordingDuration string

	// Raw holds every posted field as sent by Twilio.
	Raw map[string]string
}

// ParseTwilioForm reads both the form body and the query string. Query
// call_sid wins over the body's CallSid. Malformed numbers read as zero.
func ParseTwilioForm(r *http.Request) (TwilioVoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioVoiceForm{}, err
	}
	q := r.URL.Query()
	f := TwilioVoiceForm{
		CallSid:           strings.TrimSpace(r.PostFormValue("CallSid")),
		From:              normalizePhone(r.PostFormValue("From")),
		To:                normalizePhone(r.PostFormValue("To")),
		Direction:         r.PostFormValue("Direction"),
		CallStatus:        r.PostFormValue("CallStatus"),
		SpeechResult:      r.PostFormValue("SpeechResult"),
		RecordingURL:      strings.TrimSpace(r.PostFormValue("RecordingUrl")),
		RecordingSid:      strings.TrimSpace(r.PostFormValue("RecordingSid")),
		RecordingDuration: r.PostFormValue("RecordingDuration"),
		Raw:               formParams(r),
	}
	if sid := strings.TrimSpace(q.Get("call_sid")); sid != "" {
		f.CallSid = sid
	}
	f.LeadID, _ = strconv.ParseInt(q.Get("lead_id"), 10, 64)
	f.Turn, _ = strconv.Atoi(q.Get("turn"))
	if f.Turn < 0 {
		f.Turn = 0
	}
	f.Confidence, _ = strconv.ParseFloat(r.PostFormValue("Confidence"), 64)
	return f, nil
}

// formParams flattens the posted form, keeping the first value per field.
func formParams(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}
