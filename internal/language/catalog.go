package language

import (
	"strings"
	"unicode"
)

// MessageKey names a fixed, pre-approved caller-language message.
type MessageKey string

const (
	MsgGreeting           MessageKey = "greeting_default"
	MsgListening          MessageKey = "listening"
	MsgAskTime            MessageKey = "ask_time"
	MsgNoResponse         MessageKey = "no_response_retry"
	MsgTechnicalError     MessageKey = "technical_error"
	MsgGoodbye            MessageKey = "goodbye"
	MsgMeetingConfirmed   MessageKey = "meeting_confirmed"
	MsgPermissionAsk      MessageKey = "permission_ask"
	MsgPermissionQuestion MessageKey = "permission_question"
	MsgNotInterested      MessageKey = "not_interested_goodbye"
	MsgRecordingRetry     MessageKey = "asr_retry_recording"
	MsgFallbackShort      MessageKey = "fallback_short"
)

// Catalog is the caller-language policy data: fixed messages plus the
// phrase sets used by the permission gate and the fast paths.
type Catalog struct {
	// Tag is the primary language subtag, e.g. "he".
	Tag    string
	Name   string
	Script *unicode.RangeTable

	Messages      map[MessageKey]string
	Affirmative   []string
	Negative      []string
	NotInterested []string
	Goodbye       []string
	EchoMarkers   []string
}

// CatalogFor picks the catalog for a BCP-47 tag such as "he-IL". Unknown
// languages get the English catalog.
func CatalogFor(tag string) Catalog {
	switch PrimaryTag(tag) {
	case "he", "iw":
		return hebrew
	default:
		return english
	}
}

// PrimaryTag returns the lower-cased language subtag of tag.
func PrimaryTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// Text returns the message for key, falling back to the short fallback.
func (c Catalog) Text(key MessageKey) string {
	if s := c.Messages[key]; s != "" {
		return s
	}
	return c.Messages[MsgFallbackShort]
}

type PermissionAnswer int

const (
	PermissionUnclear PermissionAnswer = iota
	PermissionGranted
	PermissionDeclined
)

// ClassifyPermission checks negative and not-interested phrases before
// affirmative ones, so "not interested, stop calling" declines.
func (c Catalog) ClassifyPermission(text string) PermissionAnswer {
	switch {
	case HasAnyPhrase(text, c.Negative), HasAnyPhrase(text, c.NotInterested):
		return PermissionDeclined
	case HasAnyPhrase(text, c.Affirmative):
		return PermissionGranted
	default:
		return PermissionUnclear
	}
}

func (c Catalog) IsNotInterested(text string) bool {
	return HasAnyPhrase(text, c.NotInterested)
}

// IsInstructionEcho reports transcripts that parrot transcription
// instructions back instead of the caller's words.
func (c Catalog) IsInstructionEcho(text string) bool {
	return HasAnyPhrase(text, c.EchoMarkers)
}

var closingPatterns = []string{
	"have a good day", "have a nice day", "have a great day", "have a wonderful day",
	"have a great one", "goodbye", "bye", "take care", "thanks for your time",
}

// IsClosing reports whether either the internal reply or its caller-language
// rendering reads like the end of the call.
func (c Catalog) IsClosing(internal, caller string) bool {
	return HasAnyPhrase(internal, closingPatterns) || HasAnyPhrase(caller, c.Goodbye)
}

// HasAnyPhrase matches whole words: "כן" does not match inside "מוכן" and
// "bye" does not match inside "maybe".
func HasAnyPhrase(text string, phrases []string) bool {
	t := " " + foldWords(text) + " "
	for _, p := range phrases {
		fp := foldWords(p)
		if fp == "" {
			continue
		}
		if strings.Contains(t, " "+fp+" ") {
			return true
		}
	}
	return false
}

// foldWords lower-cases text and replaces punctuation with single spaces.
func foldWords(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if r == '’' {
			r = '\''
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || r == '\'' || r == '"' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// ContainsScript reports whether text has at least one rune from table.
// A nil table accepts any non-blank text.
func ContainsScript(text string, table *unicode.RangeTable) bool {
	if table == nil {
		return strings.TrimSpace(text) != ""
	}
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}
