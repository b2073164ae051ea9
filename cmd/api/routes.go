package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Roeeht/Agent-Messiah/internal/auth"
	"github.com/Roeeht/Agent-Messiah/internal/config"
	"github.com/Roeeht/Agent-Messiah/internal/httpapi"
	"github.com/Roeeht/Agent-Messiah/internal/rbac"
	"github.com/Roeeht/Agent-Messiah/internal/telephony"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, a *app) {
	// public
	health := httpapi.Health{Checks: a.Checks}
	r.GET("/healthz", health.Live)
	r.GET("/readyz", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Provider webhooks. Signature validation is opt-in per environment.
	webhooks := r.Group("/")
	if cfg.Twilio.ValidateSignature {
		webhooks.Use(telephony.RequireSignature(telephony.NewTwilioValidator(cfg.Twilio.AuthToken), cfg.App.BaseURL))
	}
	telephony.TwilioWebhookHandler{Calls: a.Calls, Transcriber: a.Transcriber}.Register(webhooks)

	// operator API
	v1 := r.Group("/v1")
	if a.Auth == nil {
		v1.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "operator API disabled (JWT_SECRET unset)"})
		})
	} else {
		v1.Use(auth.RequireAccessToken(a.Auth))
	}

	h := httpapi.Handlers{
		Leads:    a.Leads,
		Meetings: a.Calendar,
		Engine:   a.Engine,
		Sessions: a.Sessions,
		Debug:    cfg.Debug.CallEvents,
		Dialer:   a.Provider,
		Campaign: a.Campaign,
		Reports:  a.Reports,
	}

	v1.GET("/me", func(c *gin.Context) {
		id, _ := auth.IdentityFrom(c.Request.Context())
		c.JSON(http.StatusOK, id)
	})

	// READ routes
	read := v1.Group("")
	read.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleViewer))
	{
		read.GET("/meetings", h.ListMeetings)
		read.GET("/leads", h.ListLeads)
		read.GET("/calls/:call_sid/debug", h.CallDebug)
		read.GET("/reports/outcomes", h.OutcomeReport)
	}

	// OPERATOR routes
	ops := v1.Group("")
	ops.Use(rbac.RequireAnyRole(rbac.RoleOperator))
	{
		ops.POST("/agent/turn", h.AgentTurn)
		ops.POST("/outbound/calls", h.OutboundCall)
		ops.POST("/outbound/campaign", h.OutboundCampaign)
	}
}
