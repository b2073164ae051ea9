package calls

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Roeeht/Agent-Messiah/internal/agent"
	"github.com/Roeeht/Agent-Messiah/internal/audit"
	"github.com/Roeeht/Agent-Messiah/internal/calendar"
	"github.com/Roeeht/Agent-Messiah/internal/language"
	"github.com/Roeeht/Agent-Messiah/internal/leads"
	"github.com/Roeeht/Agent-Messiah/internal/metrics"
	"github.com/Roeeht/Agent-Messiah/internal/session"
	"github.com/Roeeht/Agent-Messiah/internal/twiml"
	"github.com/Roeeht/Agent-Messiah/pkg/logger"
)

// Turn outcomes, used as the metrics label and in debug events.
const (
	OutcomeReplay            = "replay"
	OutcomeNoResponse        = "no_response"
	OutcomeRecordingFallback = "recording_fallback"
	OutcomePermissionRepeat  = "permission_repeat"
	OutcomePermissionDenied  = "permission_declined"
	OutcomeNotInterested     = "not_interested"
	OutcomeTechnicalError    = "technical_error"
	OutcomeContinue          = "continue"
	OutcomeOfferSlots        = "offer_slots"
	OutcomeMeetingBooked     = "meeting_booked"
	OutcomeEndCall           = "end_call"
)

// Decision sources beyond the engine names.
const (
	DecisionSlotInference = "slot_inference"
	DecisionRepeatGuard   = "repeat_offer_guard"
)

type ending int

const (
	endNone ending = iota
	// endHangup caches the document as final but keeps the session.
	endHangup
	// endTerminal also deletes the session.
	endTerminal
)

// Deps wires the orchestrator. Engine may be nil, in which case every turn
// ends the call with the technical-error message. Outcomes and Metrics are
// optional.
type Deps struct {
	Sessions   session.Store
	Leads      leads.Registry
	Engine     agent.Engine
	Scheduler  calendar.Scheduler
	Normalizer *language.Normalizer
	Docs       *twiml.Builder
	Outcomes   *audit.Service
	Metrics    *metrics.Turns

	// RecordingFallback enables re-prompting with a recording when live
	// speech recognition returns text without the caller's script.
	RecordingFallback bool
	// RecordingReady reports whether recordings can be downloaded and
	// transcribed. Nil means never.
	RecordingReady func() bool

	Transcript logger.Transcript
	Log        *slog.Logger
}

// Orchestrator drives one call turn at a time. It is safe for concurrent
// use; serialization per call is the provider's job, and idempotent replay
// covers its retries.
type Orchestrator struct {
	d Deps
}

func New(d Deps) *Orchestrator {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Orchestrator{d: d}
}

func (o *Orchestrator) catalog() language.Catalog { return o.d.Normalizer.Catalog() }

func (o *Orchestrator) log(ctx context.Context) *slog.Logger {
	if l := logger.From(ctx); l != slog.Default() {
		return l
	}
	return o.d.Log
}

// StartCall opens the session at the permission stage and asks for
// permission to talk.
func (o *Orchestrator) StartCall(ctx context.Context, req StartRequest) twiml.Document {
	log := o.log(ctx).With("call_sid", req.CallID)
	lead := o.findLead(ctx, req.LeadID, req.From, req.To)
	var leadID int64
	if lead != nil {
		leadID = lead.ID
	}

	if err := o.d.Sessions.Put(ctx, session.Session{CallID: req.CallID, LeadID: leadID, Stage: session.StagePermission}); err != nil {
		log.Warn("session put failed", "err", err)
	}
	o.Note(ctx, req.CallID, "call_started", map[string]any{"lead_id": leadID, "from": req.From, "to": req.To})

	cat := o.catalog()
	if o.d.Engine == nil {
		log.Error("no decision engine configured")
		o.terminate(ctx, req.CallID)
		o.ended(ctx, req.CallID, leadID, "technical_error")
		o.d.Metrics.Outcome(OutcomeTechnicalError)
		return o.d.Docs.Hangup(cat.Text(language.MsgTechnicalError))
	}

	greeting := agent.PermissionGreeting(lead)
	callerText := cat.Text(language.MsgPermissionAsk)
	o.appendHistory(ctx, req.CallID, session.LangInternal, session.RoleAssistant, greeting)
	o.appendHistory(ctx, req.CallID, session.LangCaller, session.RoleAssistant, callerText)
	log.Info("call started", "lead_id", leadID, o.d.Transcript.Attr("greeting", callerText))
	return o.d.Docs.Greeting(callerText, req.CallID, leadID)
}

// HandleTurn processes one utterance and returns the response document.
// It never fails: every internal error maps to a document the caller can
// hear.
func (o *Orchestrator) HandleTurn(ctx context.Context, sig TurnSignal) twiml.Document {
	if sig.Source == "" {
		sig.Source = SourceLive
	}
	log := o.log(ctx).With("call_sid", sig.CallID, "turn", sig.Turn, "source", string(sig.Source))
	speech := strings.Join(strings.Fields(sig.Utterance), " ")
	key := IdempotencyKey(sig.Turn, sig.Source, sig.SourceID, speech)

	o.Note(ctx, sig.CallID, "speech_received", map[string]any{
		"turn":       sig.Turn,
		"source":     string(sig.Source),
		"confidence": sig.Confidence,
		"chars":      utf8.RuneCountInString(speech),
		"key":        key,
		"source_id":  sig.SourceID,
		"raw":        sig.Raw,
	})
	log.Info("turn received", "confidence", sig.Confidence, o.d.Transcript.Attr("speech", speech))

	sess, found := o.loadSession(ctx, log, sig.CallID)
	if doc, ok := o.replay(ctx, log, sess, found, sig.CallID, key); ok {
		return doc
	}

	cat := o.catalog()
	if speech == "" {
		doc := o.d.Docs.Hangup(cat.Text(language.MsgNoResponse))
		return o.finish(ctx, log, sig, key, doc, OutcomeNoResponse, endHangup)
	}

	leadID := sig.LeadID
	if leadID == 0 && found {
		leadID = sess.LeadID
	}
	lead := o.findLead(ctx, leadID)

	if o.shouldRecord(sig, speech) {
		o.Note(ctx, sig.CallID, "asr_fallback_to_recording", map[string]any{"turn": sig.Turn})
		doc := o.d.Docs.RecordFallback(cat.Text(language.MsgRecordingRetry), sig.CallID, leadID, sig.Turn)
		return o.finish(ctx, log, sig, key, doc, OutcomeRecordingFallback, endNone)
	}

	if found && sess.Stage == session.StagePermission {
		switch cat.ClassifyPermission(speech) {
		case language.PermissionDeclined:
			o.event(ctx, audit.Event{Type: audit.EventPermissionDeclined, CallID: sig.CallID, LeadID: leadID})
			doc := o.d.Docs.Hangup(cat.Text(language.MsgNotInterested))
			return o.finish(ctx, log, sig, key, doc, OutcomePermissionDenied, endTerminal)
		case language.PermissionGranted:
			o.merge(ctx, log, sig.CallID, session.SetStage(session.StageConversation))
			o.Note(ctx, sig.CallID, "permission_granted", nil)
		default:
			doc := o.d.Docs.Continue(cat.Text(language.MsgPermissionQuestion), sig.CallID, leadID, sig.Turn)
			return o.finish(ctx, log, sig, key, doc, OutcomePermissionRepeat, endNone)
		}
	}

	if cat.IsNotInterested(speech) {
		o.event(ctx, audit.Event{Type: audit.EventNotInterested, CallID: sig.CallID, LeadID: leadID})
		doc := o.d.Docs.Hangup(cat.Text(language.MsgNotInterested))
		return o.finish(ctx, log, sig, key, doc, OutcomeNotInterested, endTerminal)
	}

	if o.d.Engine == nil {
		log.Error("no decision engine configured")
		o.ended(ctx, sig.CallID, leadID, "technical_error")
		doc := o.d.Docs.Hangup(cat.Text(language.MsgTechnicalError))
		return o.finish(ctx, log, sig, key, doc, OutcomeTechnicalError, endTerminal)
	}

	in := o.d.Normalizer.ToInternal(ctx, speech)
	o.noteFallback(ctx, log, sig.CallID, "to_internal", in)

	history := sess.History
	o.appendHistory(ctx, sig.CallID, session.LangCaller, session.RoleUser, speech)
	o.appendHistory(ctx, sig.CallID, session.LangInternal, session.RoleUser, in.Text)

	d, source := o.decide(ctx, log, lead, history, sess.PendingSlots, speech, in.Text)
	o.d.Metrics.Decision(source)
	o.Note(ctx, sig.CallID, "agent_decision", map[string]any{
		"source": source,
		"action": string(d.Kind()),
		"chars":  utf8.RuneCountInString(d.Reply),
	})

	patches := []session.Patch{session.SetLastAction(string(d.Kind()), d.Payload())}
	switch a := d.Action.(type) {
	case agent.OfferSlots:
		patches = append(patches, session.SetPendingSlots(a.Slots))
	case agent.BookMeeting:
		patches = append(patches, session.ClearPendingSlots())
	}
	o.merge(ctx, log, sig.CallID, patches...)

	o.appendHistory(ctx, sig.CallID, session.LangInternal, session.RoleAssistant, d.Reply)
	out := o.d.Normalizer.ToCaller(ctx, d.Reply)
	o.noteFallback(ctx, log, sig.CallID, "to_caller", out)
	o.appendHistory(ctx, sig.CallID, session.LangCaller, session.RoleAssistant, out.Text)
	log.Info("agent replied", "decision", source, "action", string(d.Kind()), o.d.Transcript.Attr("reply", out.Text))

	if d.Action == nil && cat.IsClosing(d.Reply, out.Text) {
		o.Note(ctx, sig.CallID, "goodbye_detected", nil)
		d.Action = agent.EndCall{Reason: "closing statement"}
	}

	switch a := d.Action.(type) {
	case agent.EndCall:
		o.ended(ctx, sig.CallID, leadID, a.Reason)
		return o.finish(ctx, log, sig, key, o.d.Docs.Hangup(out.Text), OutcomeEndCall, endTerminal)
	case agent.OfferSlots:
		return o.finish(ctx, log, sig, key, o.d.Docs.OfferSlots(out.Text, sig.CallID, leadID, sig.Turn), OutcomeOfferSlots, endNone)
	case agent.BookMeeting:
		o.d.Metrics.Booked()
		if o.d.Outcomes != nil {
			if err := o.d.Outcomes.MeetingBooked(ctx, sig.CallID, leadID, a.Meeting.ID); err != nil {
				log.Warn("audit meeting booked failed", "err", err)
			}
		}
		return o.finish(ctx, log, sig, key, o.d.Docs.MeetingConfirmed(out.Text), OutcomeMeetingBooked, endTerminal)
	default:
		return o.finish(ctx, log, sig, key, o.d.Docs.Continue(out.Text, sig.CallID, leadID, sig.Turn), OutcomeContinue, endNone)
	}
}

// CallStatus handles the provider's status callback. Terminal statuses
// drop the session; the debug log and final responses stay.
func (o *Orchestrator) CallStatus(ctx context.Context, callID string, status CallStatus) {
	o.Note(ctx, callID, "call_status", map[string]any{"status": string(status)})
	if !status.IsTerminal() {
		return
	}
	sess, found := o.loadSession(ctx, o.log(ctx), callID)
	if !found {
		return
	}
	o.terminate(ctx, callID)
	o.ended(ctx, callID, sess.LeadID, string(status))
}

// decide picks the slot the caller named when slots are pending, and asks
// the engine otherwise. An engine offer while slots are pending becomes a
// clarifying question about the existing offer.
func (o *Orchestrator) decide(ctx context.Context, log *slog.Logger, lead *leads.Lead, history []session.Turn,
	pending []calendar.Slot, raw, internal string) (agent.Decision, string) {
	if len(pending) > 0 && lead != nil {
		if idx, ok := calendar.InferSelection(pending, raw, internal); ok {
			d, err := agent.BookSlot(ctx, o.d.Scheduler, lead, pending, idx)
			if err != nil {
				log.Warn("booking inferred slot failed", "slot", idx, "err", err)
			}
			return d, DecisionSlotInference
		}
	}

	d := o.d.Engine.Decide(ctx, lead, history, internal)
	if d.Kind() == agent.ActionOfferSlots && len(pending) > 0 {
		return agent.Decision{Reply: agent.RepeatOfferReply(pending)}, DecisionRepeatGuard
	}
	return d, o.d.Engine.Name()
}

func (o *Orchestrator) shouldRecord(sig TurnSignal, speech string) bool {
	if !sig.AllowRecordingFallback || !o.d.RecordingFallback || sig.Source != SourceLive {
		return false
	}
	if o.d.RecordingReady == nil || !o.d.RecordingReady() {
		return false
	}
	if o.d.Normalizer.Passthrough() {
		return false
	}
	return !o.d.Normalizer.HasCallerScript(speech)
}

func (o *Orchestrator) replay(ctx context.Context, log *slog.Logger, sess session.Session, found bool, callID, key string) (twiml.Document, bool) {
	doc, ok := "", false
	if found {
		doc, ok = sess.CachedResponse(key)
	}
	if !ok {
		var err error
		doc, ok, err = o.d.Sessions.FinalResponse(ctx, callID, key)
		if err != nil {
			log.Warn("final response lookup failed", "err", err)
		}
	}
	if !ok {
		return twiml.Document{}, false
	}
	o.d.Metrics.Replay()
	o.d.Metrics.Outcome(OutcomeReplay)
	o.Note(ctx, callID, "idempotent_replay", map[string]any{"key": key})
	return twiml.Document{Body: doc, ContentType: twiml.ContentType}, true
}

// finish caches doc under key before it is returned.
func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, sig TurnSignal, key string, doc twiml.Document, outcome string, end ending) twiml.Document {
	o.merge(ctx, log, sig.CallID, session.CacheResponse(key, doc.Body))
	if end != endNone {
		if err := o.d.Sessions.RememberFinal(ctx, sig.CallID, key, doc.Body); err != nil {
			log.Warn("remember final response failed", "err", err)
		}
	}
	if end == endTerminal {
		o.terminate(ctx, sig.CallID)
	}
	o.d.Metrics.Outcome(outcome)
	o.Note(ctx, sig.CallID, "turn_completed", map[string]any{"outcome": outcome, "turn": sig.Turn})
	log.Debug("turn completed", "outcome", outcome)
	return doc
}

// loadSession treats store errors as a missing session so the call keeps
// going statelessly.
func (o *Orchestrator) loadSession(ctx context.Context, log *slog.Logger, callID string) (session.Session, bool) {
	s, ok, err := o.d.Sessions.Get(ctx, callID)
	if err != nil {
		log.Warn("session read failed", "err", err)
		return session.Session{}, false
	}
	return s, ok
}

func (o *Orchestrator) findLead(ctx context.Context, id int64, phones ...string) *leads.Lead {
	if o.d.Leads == nil {
		return nil
	}
	var (
		l   leads.Lead
		err error
	)
	switch {
	case id > 0:
		l, err = o.d.Leads.Get(ctx, id)
	case len(phones) > 0:
		l, err = o.d.Leads.FindByPhone(ctx, phones...)
	default:
		return nil
	}
	if err != nil {
		if !errors.Is(err, leads.ErrNotFound) {
			o.log(ctx).Warn("lead lookup failed", "lead_id", id, "err", err)
		}
		return nil
	}
	return &l
}

func (o *Orchestrator) merge(ctx context.Context, log *slog.Logger, callID string, patches ...session.Patch) {
	if _, err := o.d.Sessions.Merge(ctx, callID, patches...); err != nil {
		log.Warn("session merge failed", "err", err)
	}
}

func (o *Orchestrator) appendHistory(ctx context.Context, callID string, lang session.Lang, role session.Role, text string) {
	if err := o.d.Sessions.AppendHistory(ctx, callID, lang, role, text); err != nil {
		o.log(ctx).Warn("history append failed", "call_sid", callID, "lang", string(lang), "err", err)
	}
	if lang == session.LangCaller {
		o.Note(ctx, callID, "transcript_turn", map[string]any{"role": string(role), "content": text})
	}
}

func (o *Orchestrator) terminate(ctx context.Context, callID string) {
	if err := o.d.Sessions.Delete(ctx, callID); err != nil {
		o.log(ctx).Warn("session delete failed", "call_sid", callID, "err", err)
	}
}

func (o *Orchestrator) ended(ctx context.Context, callID string, leadID int64, reason string) {
	o.event(ctx, audit.Event{Type: audit.EventCallEnded, CallID: callID, LeadID: leadID, Reason: reason})
}

func (o *Orchestrator) event(ctx context.Context, e audit.Event) {
	if o.d.Outcomes == nil {
		return
	}
	if err := o.d.Outcomes.Append(ctx, e); err != nil {
		o.log(ctx).Warn("audit append failed", "type", string(e.Type), "call_sid", e.CallID, "err", err)
	}
}

func (o *Orchestrator) noteFallback(ctx context.Context, log *slog.Logger, callID, direction string, r language.Result) {
	if !r.Fallback {
		return
	}
	o.d.Metrics.Fallback(direction, string(r.Reason))
	o.Note(ctx, callID, "normalization_fallback", map[string]any{"direction": direction, "reason": string(r.Reason)})
	log.Warn("normalization fallback", "direction", direction, "reason", string(r.Reason), "err", r.Err)
}

// Note records a debug event for the call. It is a no-op when debug events
// are disabled.
func (o *Orchestrator) Note(ctx context.Context, callID, typ string, payload map[string]any) {
	if err := o.d.Sessions.AppendDebugEvent(ctx, callID, typ, payload); err != nil {
		o.log(ctx).Debug("debug event dropped", "call_sid", callID, "type", typ, "err", err)
	}
}
