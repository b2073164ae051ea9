package telephony

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Roeeht/Agent-Messiah/internal/calls"
	"github.com/Roeeht/Agent-Messiah/internal/transcribe"
	"github.com/Roeeht/Agent-Messiah/internal/twiml"
)

func init() { gin.SetMode(gin.TestMode) }

func formRequest(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParseTwilioForm(t *testing.T) {
	form := url.Values{
		"CallSid":      {"CA-body"},
		"From":         {" +15551234567 "},
		"To":           {"+15557654321"},
		"SpeechResult": {"כן"},
		"Confidence":   {"0.87"},
		"RecordingSid": {"RE1"},
	}
	r := formRequest("/twilio/process-speech?call_sid=CA-query&lead_id=7&turn=3", form)

	f, err := ParseTwilioForm(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.CallSid != "CA-query" {
		t.Fatalf("query call_sid should win, got %q", f.CallSid)
	}
	if f.From != "+15551234567" || f.To != "+15557654321" {
		t.Fatalf("unexpected from/to: %q %q", f.From, f.To)
	}
	if f.LeadID != 7 || f.Turn != 3 || f.Confidence != 0.87 {
		t.Fatalf("unexpected numbers: lead=%d turn=%d conf=%v", f.LeadID, f.Turn, f.Confidence)
	}
	if f.SpeechResult != "כן" || f.RecordingSid != "RE1" {
		t.Fatalf("unexpected speech/recording fields: %+v", f)
	}
	if f.Raw["From"] != " +15551234567 " || f.Raw["Confidence"] != "0.87" || len(f.Raw) != len(form) {
		t.Fatalf("raw fields should be kept as posted, got %v", f.Raw)
	}

	bad := formRequest("/twilio/process-speech?turn=-4&lead_id=x", url.Values{"CallSid": {"CA1"}})
	f, _ = ParseTwilioForm(bad)
	if f.Turn != 0 || f.LeadID != 0 {
		t.Fatalf("malformed numbers should read as zero, got turn=%d lead=%d", f.Turn, f.LeadID)
	}
}

type fakeCalls struct {
	started  []calls.StartRequest
	turns    []calls.TurnSignal
	statuses []calls.CallStatus
	notes    []string
}

func (f *fakeCalls) StartCall(_ context.Context, req calls.StartRequest) twiml.Document {
	f.started = append(f.started, req)
	return twiml.Document{Body: "<Response>start</Response>", ContentType: twiml.ContentType}
}

func (f *fakeCalls) HandleTurn(_ context.Context, sig calls.TurnSignal) twiml.Document {
	f.turns = append(f.turns, sig)
	return twiml.Document{Body: "<Response>turn</Response>", ContentType: twiml.ContentType}
}

func (f *fakeCalls) CallStatus(_ context.Context, _ string, status calls.CallStatus) {
	f.statuses = append(f.statuses, status)
}

func (f *fakeCalls) Note(_ context.Context, _ string, typ string, _ map[string]any) {
	f.notes = append(f.notes, typ)
}

type fakeTranscriber struct {
	res transcribe.Result
	err error
}

func (f fakeTranscriber) Transcribe(context.Context, string) (transcribe.Result, error) {
	return f.res, f.err
}

func webhookRouter(h TwilioWebhookHandler) *gin.Engine {
	r := gin.New()
	h.Register(r)
	return r
}

func TestWebhookHandlers(t *testing.T) {
	t.Run("voice starts call", func(t *testing.T) {
		fc := &fakeCalls{}
		r := webhookRouter(TwilioWebhookHandler{Calls: fc})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, formRequest("/twilio/voice?lead_id=2", url.Values{"CallSid": {"CA1"}, "From": {"+1"}, "To": {"+2"}}))

		if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Type"), "xml") {
			t.Fatalf("unexpected response: %d %q", w.Code, w.Header().Get("Content-Type"))
		}
		if len(fc.started) != 1 || fc.started[0].LeadID != 2 || fc.started[0].CallID != "CA1" {
			t.Fatalf("unexpected start: %+v", fc.started)
		}
	})

	t.Run("missing call sid", func(t *testing.T) {
		fc := &fakeCalls{}
		r := webhookRouter(TwilioWebhookHandler{Calls: fc})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, formRequest("/twilio/voice", url.Values{}))
		if w.Code != http.StatusBadRequest || len(fc.started) != 0 {
			t.Fatalf("expected 400 without CallSid, got %d", w.Code)
		}
	})

	t.Run("speech is live with fallback allowed", func(t *testing.T) {
		fc := &fakeCalls{}
		r := webhookRouter(TwilioWebhookHandler{Calls: fc})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, formRequest("/twilio/process-speech?call_sid=CA1&turn=1", url.Values{"SpeechResult": {"yes"}}))

		if w.Code != http.StatusOK || len(fc.turns) != 1 {
			t.Fatalf("unexpected: code=%d turns=%d", w.Code, len(fc.turns))
		}
		sig := fc.turns[0]
		if sig.Source != calls.SourceLive || !sig.AllowRecordingFallback || sig.Utterance != "yes" || sig.Turn != 1 {
			t.Fatalf("unexpected signal: %+v", sig)
		}
		if sig.Raw["SpeechResult"] != "yes" {
			t.Fatalf("expected raw provider fields on the signal, got %v", sig.Raw)
		}
	})

	t.Run("recording transcribed", func(t *testing.T) {
		fc := &fakeCalls{}
		tr := fakeTranscriber{res: transcribe.Result{Text: "מחר בעשר"}}
		r := webhookRouter(TwilioWebhookHandler{Calls: fc, Transcriber: tr})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, formRequest("/twilio/process-recording?call_sid=CA1&turn=2",
			url.Values{"RecordingUrl": {"https://api.twilio.com/r/RE9"}, "RecordingSid": {"RE9"}}))

		if len(fc.turns) != 1 {
			t.Fatalf("expected one turn, got %d", len(fc.turns))
		}
		sig := fc.turns[0]
		if sig.Source != calls.SourceRecording || sig.SourceID != "RE9" || sig.Utterance != "מחר בעשר" || sig.AllowRecordingFallback {
			t.Fatalf("unexpected signal: %+v", sig)
		}
		if len(fc.notes) != 2 || fc.notes[0] != "recording_received" || fc.notes[1] != "recording_transcribed" {
			t.Fatalf("unexpected notes: %v", fc.notes)
		}
	})

	t.Run("recording failure is empty speech", func(t *testing.T) {
		fc := &fakeCalls{}
		tr := fakeTranscriber{err: errors.New("boom")}
		r := webhookRouter(TwilioWebhookHandler{Calls: fc, Transcriber: tr})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, formRequest("/twilio/process-recording?call_sid=CA1&turn=2", url.Values{"RecordingSid": {"RE9"}}))
		if w.Code != http.StatusOK || len(fc.turns) != 1 || fc.turns[0].Utterance != "" {
			t.Fatalf("expected empty utterance turn, got %+v", fc.turns)
		}
	})

	t.Run("call status", func(t *testing.T) {
		fc := &fakeCalls{}
		r := webhookRouter(TwilioWebhookHandler{Calls: fc})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, formRequest("/twilio/call-status", url.Values{"CallSid": {"CA1"}, "CallStatus": {"no-answer"}}))
		if w.Code != http.StatusNoContent || len(fc.statuses) != 1 || fc.statuses[0] != calls.CallStatusNoAnswer {
			t.Fatalf("unexpected: code=%d statuses=%v", w.Code, fc.statuses)
		}
	})
}

func sign(token, u string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(u)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestRequireSignature(t *testing.T) {
	const token, base = "auth-token", "https://agent.example.com"
	fc := &fakeCalls{}
	r := gin.New()
	g := r.Group("/", RequireSignature(NewTwilioValidator(token), base+"/"))
	TwilioWebhookHandler{Calls: fc}.Register(g)

	form := url.Values{"CallSid": {"CA1"}, "SpeechResult": {"yes"}}
	path := "/twilio/process-speech?call_sid=CA1&turn=0"

	req := formRequest(path, form)
	req.Header.Set(signatureHeader, sign(token, base+path, form))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid signature rejected: %d", w.Code)
	}

	req = formRequest(path, form)
	req.Header.Set(signatureHeader, sign("other-token", base+path, form))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bad signature, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, formRequest(path, form))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without signature, got %d", w.Code)
	}
	if len(fc.turns) != 1 {
		t.Fatalf("only the signed request should reach the pipeline, got %d", len(fc.turns))
	}
}

type fakeTwilioAPI struct {
	params *twilioApi.CreateCallParams
	err    error
}

func (f *fakeTwilioAPI) CreateCall(p *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	sid, status := "CA-new", "queued"
	return &twilioApi.ApiV2010Call{Sid: &sid, Status: &status}, nil
}

func (f *fakeTwilioAPI) FetchAccount(string) (*twilioApi.ApiV2010Account, error) {
	return &twilioApi.ApiV2010Account{}, f.err
}

func TestTwilioProviderDial(t *testing.T) {
	api := &fakeTwilioAPI{}
	p := &TwilioProvider{api: api, accountSID: "AC1", callerID: "+15550001111", baseURL: "https://agent.example.com"}

	res, err := p.Dial(context.Background(), DialRequest{To: "+972501234567", LeadID: 1})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if res.CallSID != "CA-new" || res.Status != "queued" || res.LeadID != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if *api.params.To != "+972501234567" || *api.params.From != "+15550001111" {
		t.Fatalf("unexpected to/from")
	}
	if *api.params.Url != "https://agent.example.com/twilio/voice?lead_id=1" {
		t.Fatalf("unexpected voice url: %q", *api.params.Url)
	}
	if *api.params.StatusCallback != "https://agent.example.com/twilio/call-status" {
		t.Fatalf("unexpected status callback: %q", *api.params.StatusCallback)
	}

	if _, err := p.Dial(context.Background(), DialRequest{}); !errors.Is(err, ErrInvalidDial) {
		t.Fatalf("expected ErrInvalidDial, got %v", err)
	}
	api.err = errors.New("rate limited")
	if _, err := p.Dial(context.Background(), DialRequest{To: "+1"}); err == nil {
		t.Fatalf("expected provider error")
	}
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Fatalf("expected health check error")
	}
}

func TestDryRunProvider(t *testing.T) {
	p := &DryRunProvider{}
	res, err := p.Dial(context.Background(), DialRequest{To: "+15550000000", LeadID: 3})
	if err != nil || !strings.HasPrefix(res.CallSID, "DRY") || res.LeadID != 3 {
		t.Fatalf("unexpected dry run: %+v err=%v", res, err)
	}
	if _, err := p.Dial(context.Background(), DialRequest{}); !errors.Is(err, ErrInvalidDial) {
		t.Fatalf("expected ErrInvalidDial, got %v", err)
	}
}
