package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Roeeht/Agent-Messiah/internal/agent"
	"github.com/Roeeht/Agent-Messiah/internal/calendar"
	"github.com/Roeeht/Agent-Messiah/internal/campaign"
	"github.com/Roeeht/Agent-Messiah/internal/leads"
	"github.com/Roeeht/Agent-Messiah/internal/reporting"
	"github.com/Roeeht/Agent-Messiah/internal/session"
	"github.com/Roeeht/Agent-Messiah/internal/telephony"
	"github.com/Roeeht/Agent-Messiah/pkg/logger"
)

// MeetingLister is the read side of the booking store.
type MeetingLister interface {
	Meetings(ctx context.Context) ([]calendar.Meeting, error)
}

// CampaignRunner runs an outbound campaign over leads.
type CampaignRunner interface {
	Run(ctx context.Context, leadIDs []int64) (campaign.Report, error)
}

// OutcomeReporter summarizes call outcomes over a time range.
type OutcomeReporter interface {
	OutcomeSummary(ctx context.Context, req reporting.OutcomeSummaryRequest) (reporting.OutcomeSummary, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Leads    leads.Registry
	Meetings MeetingLister
	Engine   agent.Engine
	Sessions session.Store
	Debug    bool
	Dialer   campaign.Dialer
	Campaign CampaignRunner
	Reports  OutcomeReporter

	// Now is used for default report ranges. Nil means time.Now.
	Now func() time.Time
}

// --- Read models ---

func (h Handlers) ListMeetings(c *gin.Context) {
	if h.Meetings == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "meetings not configured"})
		return
	}
	ms, err := h.Meetings.Meetings(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list meetings failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "meetings lookup failed"})
		return
	}
	if ms == nil {
		ms = []calendar.Meeting{}
	}
	c.JSON(http.StatusOK, gin.H{"meetings": ms})
}

func (h Handlers) ListLeads(c *gin.Context) {
	if h.Leads == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "leads not configured"})
		return
	}
	ls, err := h.Leads.List(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list leads failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "leads lookup failed"})
		return
	}
	if ls == nil {
		ls = []leads.Lead{}
	}
	c.JSON(http.StatusOK, gin.H{"leads": ls})
}

// --- Agent ---

type agentTurnRequest struct {
	LeadID  int64           `json:"lead_id"`
	Message string          `json:"message"`
	History []agent.RawTurn `json:"history"`
}

type agentTurnResponse struct {
	Reply   string          `json:"reply"`
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AgentTurn runs one text-only decision without telephony or sessions.
func (h Handlers) AgentTurn(c *gin.Context) {
	if h.Engine == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "decision engine not configured"})
		return
	}
	var req agentTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}
	lead, ok := h.lead(c, req.LeadID)
	if !ok {
		return
	}
	d := h.Engine.Decide(c.Request.Context(), lead, agent.NormalizeHistory(req.History), req.Message)
	c.JSON(http.StatusOK, agentTurnResponse{Reply: d.Reply, Action: string(d.Kind()), Payload: d.Payload()})
}

// lead resolves an optional lead id. It writes the error response itself.
func (h Handlers) lead(c *gin.Context, id int64) (*leads.Lead, bool) {
	if id == 0 {
		return nil, true
	}
	if h.Leads == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "leads not configured"})
		return nil, false
	}
	l, err := h.Leads.Get(c.Request.Context(), id)
	if errors.Is(err, leads.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return nil, false
	}
	if err != nil {
		logger.FromGin(c).Error("lead lookup failed", "lead_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lead lookup failed"})
		return nil, false
	}
	return &l, true
}

// --- Call inspection ---

type transcriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CallDebug returns the debug log and transcript of a call. It answers 404
// while debug events are disabled so the endpoint does not reveal calls.
func (h Handlers) CallDebug(c *gin.Context) {
	if !h.Debug || h.Sessions == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call debug is disabled"})
		return
	}
	ctx := c.Request.Context()
	callID := c.Param("call_sid")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	sess, found, err := h.Sessions.Get(ctx, callID)
	if err != nil {
		logger.FromGin(c).Warn("debug session read failed", "call_sid", callID, "err", err)
	}
	events, err := h.Sessions.DebugEvents(ctx, callID)
	if err != nil {
		logger.FromGin(c).Warn("debug events read failed", "call_sid", callID, "err", err)
	}
	if !found && len(events) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}

	transcript := transcriptFromEvents(events)
	if len(transcript) == 0 {
		for _, t := range sess.CallerHistory {
			transcript = append(transcript, transcriptEntry{Role: string(t.Role), Content: t.Content})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"call_sid":   callID,
		"transcript": transcript,
		"history":    sess.History,
		"events":     events,
		"summary": gin.H{
			"session_found":    found,
			"lead_id":          sess.LeadID,
			"stage":            sess.Stage,
			"history_turns":    len(sess.History),
			"caller_turns":     len(sess.CallerHistory),
			"idempotency_keys": len(sess.Responses),
		},
	})
}

func transcriptFromEvents(events []session.DebugEvent) []transcriptEntry {
	out := []transcriptEntry{}
	for _, e := range events {
		if e.Type != "transcript_turn" {
			continue
		}
		role, _ := e.Payload["role"].(string)
		content, _ := e.Payload["content"].(string)
		if role == "" || strings.TrimSpace(content) == "" {
			continue
		}
		out = append(out, transcriptEntry{Role: role, Content: content})
	}
	return out
}

// --- Outbound ---

type outboundCallRequest struct {
	LeadID int64 `json:"lead_id"`
}

func (h Handlers) OutboundCall(c *gin.Context) {
	if h.Dialer == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "telephony not configured"})
		return
	}
	var req outboundCallRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LeadID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "lead_id required"})
		return
	}
	lead, ok := h.lead(c, req.LeadID)
	if !ok {
		return
	}
	res, err := h.Dialer.Dial(c.Request.Context(), telephony.DialRequest{To: lead.Phone, LeadID: lead.ID})
	if err != nil {
		logger.FromGin(c).Error("outbound dial failed", "lead_id", lead.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "dial failed"})
		return
	}
	c.JSON(http.StatusAccepted, res)
}

type campaignRequest struct {
	LeadIDs []int64 `json:"lead_ids"`
}

// OutboundCampaign dials the listed leads, or all leads, sequentially.
// The request stays open for the whole campaign.
func (h Handlers) OutboundCampaign(c *gin.Context) {
	if h.Campaign == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "telephony not configured"})
		return
	}
	var req campaignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	rep, err := h.Campaign.Run(c.Request.Context(), req.LeadIDs)
	if err != nil {
		logger.FromGin(c).Warn("campaign stopped", "err", err)
		c.JSON(http.StatusOK, gin.H{"status": "campaign_interrupted", "error": err.Error(), "total_leads": rep.Total, "results": rep.Results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "campaign_completed", "total_leads": rep.Total, "results": rep.Results})
}

// --- Reports ---

// OutcomeReport summarizes outcomes in [from, to). Both bounds are RFC 3339;
// the default range is the last 24 hours.
func (h Handlers) OutcomeReport(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "reports not configured"})
		return
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	to := now().UTC()
	from := to.Add(-24 * time.Hour)
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
	}
	var leadID int64
	if v := c.Query("lead_id"); v != "" {
		if leadID, err = strconv.ParseInt(v, 10, 64); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "lead_id must be an integer"})
			return
		}
	}

	out, err := h.Reports.OutcomeSummary(c.Request.Context(), reporting.OutcomeSummaryRequest{
		Range:  reporting.TimeRange{From: from, To: to},
		LeadID: leadID,
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("outcome report failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}
