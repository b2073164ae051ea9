package twiml

import (
	"bytes"
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"
)

// ContentType is the content type of every document the builder renders.
const ContentType = "application/xml"

// Document is an opaque provider response. Callers forward it verbatim.
type Document struct {
	Body        string
	ContentType string
}

type InputMode string

const (
	InputRecord InputMode = "record"
	InputGather InputMode = "gather"
)

const (
	recordingPath = "/twilio/process-recording"
	speechPath    = "/twilio/process-speech"
)

type response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type say struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type record struct {
	XMLName   xml.Name `xml:"Record"`
	PlayBeep  bool     `xml:"playBeep,attr"`
	MaxLength int      `xml:"maxLength,attr"`
	Timeout   int      `xml:"timeout,attr"`
	Action    string   `xml:"action,attr"`
	Method    string   `xml:"method,attr"`
}

type gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Language      string   `xml:"language,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
}

type pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Builder renders TwiML for the turn pipeline. Every spoken string passes
// through Sanitize, so no <Say> is ever empty.
type Builder struct {
	BaseURL       string
	Language      string
	Voice         string
	Input         InputMode
	RecordMaxLen  int
	RecordTimeout int

	// Caller-language texts used by compound documents.
	FallbackText  string
	AskTimeText   string
	ConfirmedText string
}

// Greeting speaks text and waits for the first caller turn (turn 0).
func (b *Builder) Greeting(text, callID string, leadID int64) Document {
	return b.render(b.say(text), b.input(callID, leadID, 0, b.Input))
}

// Continue speaks text and waits for the input of turn+1.
func (b *Builder) Continue(text, callID string, leadID int64, turn int) Document {
	return b.render(b.say(text), b.input(callID, leadID, turn+1, b.Input))
}

// OfferSlots speaks the offer, asks which time suits, and waits for turn+1.
func (b *Builder) OfferSlots(text, callID string, leadID int64, turn int) Document {
	return b.render(b.say(text), b.say(b.AskTimeText), b.input(callID, leadID, turn+1, b.Input))
}

// RecordFallback re-prompts through a recording for the same turn. It is
// used when live transcription came back in the wrong script.
func (b *Builder) RecordFallback(text, callID string, leadID int64, turn int) Document {
	return b.render(b.say(text), b.input(callID, leadID, turn, InputRecord))
}

// MeetingConfirmed speaks the confirmation, a follow-up line, and hangs up.
func (b *Builder) MeetingConfirmed(text string) Document {
	return b.render(b.say(text), pause{Length: 1}, b.say(b.ConfirmedText), hangup{})
}

// Hangup speaks text and ends the call.
func (b *Builder) Hangup(text string) Document {
	return b.render(b.say(text), hangup{})
}

func (b *Builder) say(text string) say {
	return say{Language: b.Language, Voice: b.Voice, Text: Sanitize(text, b.fallback())}
}

func (b *Builder) fallback() string {
	if s := strings.TrimSpace(b.FallbackText); s != "" {
		return s
	}
	return "..."
}

func (b *Builder) input(callID string, leadID int64, turn int, mode InputMode) any {
	if mode == InputGather {
		return gather{
			Input:         "speech",
			Language:      b.Language,
			SpeechTimeout: "auto",
			Action:        b.actionURL(speechPath, callID, leadID, turn),
			Method:        "POST",
		}
	}
	return record{
		PlayBeep:  false,
		MaxLength: positive(b.RecordMaxLen, 15),
		Timeout:   positive(b.RecordTimeout, 2),
		Action:    b.actionURL(recordingPath, callID, leadID, turn),
		Method:    "POST",
	}
}

func (b *Builder) actionURL(path, callID string, leadID int64, turn int) string {
	q := url.Values{}
	q.Set("call_sid", callID)
	if leadID > 0 {
		q.Set("lead_id", strconv.FormatInt(leadID, 10))
	}
	q.Set("turn", strconv.Itoa(turn))
	return strings.TrimRight(b.BaseURL, "/") + path + "?" + q.Encode()
}

func (b *Builder) render(verbs ...any) Document {
	r := response{Verbs: verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	// The verb structs are fixed and always encodable.
	_ = enc.Encode(r)
	_ = enc.Flush()
	return Document{Body: buf.String(), ContentType: ContentType}
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
