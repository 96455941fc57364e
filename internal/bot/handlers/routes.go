package handlers

import "github.com/gin-gonic/gin"

// Route paths served by the relay.
const (
	WebhookPath = "/webhook"
	UsagePath   = "/usage"
)

// RegisterRoutes attaches the webhook and usage endpoints. Other methods on
// these paths are answered with 405 by the router.
func RegisterRoutes(r gin.IRoutes, deps HandlerDeps) {
	r.POST(WebhookPath, NewWebhookHandler(deps))
	r.GET(UsagePath, NewUsageHandler(deps))
}
