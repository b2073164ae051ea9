package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// twilioAPI is the slice of the v2010 REST service the provider calls.
type twilioAPI interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
	FetchAccount(sid string) (*twilioApi.ApiV2010Account, error)
}

// TwilioProvider places calls through the Twilio REST API. Answered calls
// fetch their first TwiML from the voice webhook under BaseURL.
type TwilioProvider struct {
	api        twilioAPI
	accountSID string
	callerID   string
	baseURL    string
}

func NewTwilioProvider(accountSID, authToken, callerID, baseURL string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{
		api:        client.Api,
		accountSID: accountSID,
		callerID:   callerID,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.api.FetchAccount(p.accountSID); err != nil {
		return fmt.Errorf("twilio account fetch: %w", err)
	}
	return nil
}

func (p *TwilioProvider) Dial(ctx context.Context, req DialRequest) (DialResult, error) {
	if strings.TrimSpace(req.To) == "" {
		return DialResult{}, ErrInvalidDial
	}
	if p.callerID == "" || p.baseURL == "" {
		return DialResult{}, errors.New("telephony: caller id and public base url are required for outbound calls")
	}
	if err := ctx.Err(); err != nil {
		return DialResult{}, err
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(p.callerID)
	params.SetUrl(p.voiceURL(req.LeadID))
	params.SetMethod("POST")
	params.SetStatusCallback(p.baseURL + callStatusPath)
	params.SetStatusCallbackMethod("POST")
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})

	call, err := p.api.CreateCall(params)
	if err != nil {
		return DialResult{}, fmt.Errorf("twilio create call: %w", err)
	}
	res := DialResult{To: req.To, LeadID: req.LeadID}
	if call.Sid != nil {
		res.CallSID = *call.Sid
	}
	if call.Status != nil {
		res.Status = *call.Status
	}
	return res, nil
}

func (p *TwilioProvider) voiceURL(leadID int64) string {
	u := p.baseURL + voicePath
	if leadID > 0 {
		u += "?" + url.Values{"lead_id": {strconv.FormatInt(leadID, 10)}}.Encode()
	}
	return u
}
