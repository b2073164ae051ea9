package telephony

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Roeeht/Agent-Messiah/internal/calls"
	"github.com/Roeeht/Agent-Messiah/internal/transcribe"
	"github.com/Roeeht/Agent-Messiah/internal/twiml"
	"github.com/Roeeht/Agent-Messiah/pkg/logger"
)

// TurnHandler is the call pipeline the webhooks drive.
type TurnHandler interface {
	StartCall(ctx context.Context, req calls.StartRequest) twiml.Document
	HandleTurn(ctx context.Context, sig calls.TurnSignal) twiml.Document
	CallStatus(ctx context.Context, callID string, status calls.CallStatus)
	Note(ctx context.Context, callID, typ string, payload map[string]any)
}

// Transcriber converts a recording URL to caller-language text.
type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) (transcribe.Result, error)
}

// TwilioWebhookHandler converts Twilio webhooks to pipeline calls and
// writes the resulting TwiML. No business logic here.
type TwilioWebhookHandler struct {
	Calls       TurnHandler
	Transcriber Transcriber
}

func (h TwilioWebhookHandler) parse(c *gin.Context) (TwilioVoiceForm, bool) {
	form, err := ParseTwilioForm(c.Request)
	if err != nil {
		logger.FromGin(c).Warn("twilio webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return TwilioVoiceForm{}, false
	}
	if form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return TwilioVoiceForm{}, false
	}
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call pipeline not configured"})
		return TwilioVoiceForm{}, false
	}
	return form, true
}

// Voice answers a new call, inbound or outbound.
func (h TwilioWebhookHandler) Voice(c *gin.Context) {
	form, ok := h.parse(c)
	if !ok {
		return
	}
	doc := h.Calls.StartCall(c.Request.Context(), calls.StartRequest{
		CallID: form.CallSid,
		From:   form.From,
		To:     form.To,
		LeadID: form.LeadID,
	})
	writeTwiML(c, doc)
}

// ProcessSpeech handles a live speech-recognition result.
func (h TwilioWebhookHandler) ProcessSpeech(c *gin.Context) {
	form, ok := h.parse(c)
	if !ok {
		return
	}
	doc := h.Calls.HandleTurn(c.Request.Context(), calls.TurnSignal{
		CallID:                 form.CallSid,
		LeadID:                 form.LeadID,
		Turn:                   form.Turn,
		Utterance:              form.SpeechResult,
		Confidence:             form.Confidence,
		Source:                 calls.SourceLive,
		AllowRecordingFallback: true,
		Raw:                    form.Raw,
	})
	writeTwiML(c, doc)
}

// ProcessRecording transcribes a recorded answer and runs it as a turn. A
// failed transcription becomes an empty utterance.
func (h TwilioWebhookHandler) ProcessRecording(c *gin.Context) {
	form, ok := h.parse(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := logger.FromGin(c)
	h.Calls.Note(ctx, form.CallSid, "recording_received", map[string]any{
		"turn":               form.Turn,
		"recording_sid":      form.RecordingSid,
		"recording_duration": form.RecordingDuration,
	})

	var text string
	if h.Transcriber == nil {
		log.Warn("recording received without transcriber")
	} else if res, err := h.Transcriber.Transcribe(ctx, form.RecordingURL); err != nil {
		log.Warn("recording transcription failed", "recording_sid", form.RecordingSid, "err", err)
	} else {
		text = res.Text
		if res.Filtered {
			h.Calls.Note(ctx, form.CallSid, "transcription_filtered", map[string]any{"turn": form.Turn, "reason": "echoed_instructions"})
		}
		h.Calls.Note(ctx, form.CallSid, "recording_transcribed", map[string]any{
			"turn":       form.Turn,
			"media_url":  res.MediaURL,
			"duration_s": res.Duration.Seconds(),
		})
	}

	doc := h.Calls.HandleTurn(ctx, calls.TurnSignal{
		CallID:    form.CallSid,
		LeadID:    form.LeadID,
		Turn:      form.Turn,
		Utterance: text,
		Source:    calls.SourceRecording,
		SourceID:  form.RecordingSid,
		Raw:       form.Raw,
	})
	writeTwiML(c, doc)
}

// CallStatus acknowledges lifecycle callbacks.
func (h TwilioWebhookHandler) CallStatus(c *gin.Context) {
	form, ok := h.parse(c)
	if !ok {
		return
	}
	h.Calls.CallStatus(c.Request.Context(), form.CallSid, calls.ParseStatus(form.CallStatus))
	c.Status(http.StatusNoContent)
}

// Register mounts the webhook routes on g.
func (h TwilioWebhookHandler) Register(g gin.IRoutes) {
	g.POST(voicePath, h.Voice)
	g.POST(speechPath, h.ProcessSpeech)
	g.POST(recordingPath, h.ProcessRecording)
	g.POST(callStatusPath, h.CallStatus)
}

func writeTwiML(c *gin.Context, doc twiml.Document) {
	ct := doc.ContentType
	if ct == "" {
		ct = twiml.ContentType
	}
	c.Data(http.StatusOK, ct, []byte(doc.Body))
}
