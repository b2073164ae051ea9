package telephony

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"

	"github.com/Roeeht/Agent-Messiah/pkg/logger"
)

const signatureHeader = "X-Twilio-Signature"

// SignatureValidator checks a provider request signature.
type SignatureValidator interface {
	Validate(url string, params map[string]string, expectedSignature string) bool
}

func NewTwilioValidator(authToken string) SignatureValidator {
	v := client.NewRequestValidator(authToken)
	return &v
}

// RequireSignature rejects webhook requests whose signature does not
// match. The signed URL is rebuilt from baseURL because the service
// usually sits behind a proxy that rewrites scheme and host.
func RequireSignature(v SignatureValidator, baseURL string) gin.HandlerFunc {
	base := strings.TrimRight(baseURL, "/")
	return func(c *gin.Context) {
		log := logger.FromGin(c)
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}
		sig := c.GetHeader(signatureHeader)
		u := base + c.Request.URL.RequestURI()
		if sig == "" || !v.Validate(u, formParams(c.Request), sig) {
			log.Warn("webhook signature rejected", "path", c.Request.URL.Path, "has_signature", sig != "")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}
