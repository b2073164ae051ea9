package language

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// InternalTag is the language the decision engines work in.
const InternalTag = "en"

// Translator turns text from one language tag into another.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

type Reason string

const (
	ReasonTranslated    Reason = "translated"
	ReasonPassthrough   Reason = "passthrough"
	ReasonEmpty         Reason = "empty"
	ReasonDisabled      Reason = "disabled"
	ReasonUnavailable   Reason = "unavailable"
	ReasonError         Reason = "error"
	ReasonScriptMissing Reason = "script_missing"
)

// Result is the outcome of a normalization step. Text is never empty.
type Result struct {
	Text     string
	Fallback bool
	Reason   Reason
	Err      error
}

// Normalizer converts between the caller's language and the internal
// language. Both directions are total: failures become marked placeholders
// (inbound) or the catalog's technical-error message (outbound).
type Normalizer struct {
	translator Translator
	enabled    bool
	catalog    Catalog
}

// NewNormalizer builds a normalizer. A nil translator means translation is
// unavailable.
func NewNormalizer(t Translator, enabled bool, catalog Catalog) *Normalizer {
	return &Normalizer{translator: t, enabled: enabled, catalog: catalog}
}

func (n *Normalizer) Catalog() Catalog { return n.catalog }

// Passthrough reports whether the caller already speaks the internal language.
func (n *Normalizer) Passthrough() bool { return n.catalog.Tag == InternalTag }

// ToInternal never returns empty text.
func (n *Normalizer) ToInternal(ctx context.Context, callerText string) Result {
	text := strings.TrimSpace(callerText)
	switch {
	case text == "":
		return Result{Text: "[empty speech]", Fallback: true, Reason: ReasonEmpty}
	case n.Passthrough():
		return Result{Text: text, Reason: ReasonPassthrough}
	case !n.enabled:
		return n.placeholder("not translated", text, ReasonDisabled, nil)
	case n.translator == nil:
		return n.placeholder("translation unavailable", text, ReasonUnavailable, nil)
	}

	out, err := n.translator.Translate(ctx, text, n.catalog.Tag, InternalTag)
	if err != nil {
		return n.placeholder("translation error", text, ReasonError, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return n.placeholder("translation empty", text, ReasonError, nil)
	}
	return Result{Text: out, Reason: ReasonTranslated}
}

// ToCaller never returns empty text or text outside the caller's script.
func (n *Normalizer) ToCaller(ctx context.Context, internalText string) Result {
	text := strings.TrimSpace(internalText)
	switch {
	case text == "":
		return n.technical(ReasonEmpty, nil)
	case n.Passthrough():
		return Result{Text: text, Reason: ReasonPassthrough}
	case !n.enabled:
		return n.technical(ReasonDisabled, nil)
	case n.translator == nil:
		return n.technical(ReasonUnavailable, nil)
	}

	out, err := n.translator.Translate(ctx, text, InternalTag, n.catalog.Tag)
	if err != nil {
		return n.technical(ReasonError, err)
	}
	out = strings.TrimSpace(out)
	if out == "" || !ContainsScript(out, n.catalog.Script) {
		return n.technical(ReasonScriptMissing, nil)
	}
	return Result{Text: out, Reason: ReasonTranslated}
}

// HasCallerScript reports whether a transcript contains the caller
// language's script. Passthrough catalogs always pass.
func (n *Normalizer) HasCallerScript(text string) bool {
	if n.Passthrough() {
		return true
	}
	return ContainsScript(text, n.catalog.Script)
}

func (n *Normalizer) placeholder(what, text string, reason Reason, err error) Result {
	return Result{
		Text:     fmt.Sprintf("[%s speech - %s: %s]", n.catalog.Name, what, preview(text, 50)),
		Fallback: true,
		Reason:   reason,
		Err:      err,
	}
}

func (n *Normalizer) technical(reason Reason, err error) Result {
	return Result{Text: n.catalog.Text(MsgTechnicalError), Fallback: true, Reason: reason, Err: err}
}

func preview(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
