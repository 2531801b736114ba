package router

import (
	"github.com/gin-gonic/gin"

	"conicore/internal/config"
	"conicore/internal/handler"
	"conicore/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	scanH *handler.ScanHandler,
	langH *handler.LanguageHandler,
	assistH *handler.AssistHandler,
	paymentH *handler.PaymentHandler,
	whatsappH *handler.WhatsAppHandler,
	staffH *handler.StaffHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Document scanning
	ocr := v1.Group("/ocr")
	ocr.POST("/invoice", scanH.ScanInvoice)
	ocr.POST("/customer", scanH.ScanCustomer)
	ocr.POST("/receipt", scanH.ScanStock)
	ocr.POST("/pricelist", scanH.ScanPriceList)
	ocr.POST("/route", scanH.ScanRoute)

	// Language detection
	v1.POST("/language/detect", langH.Detect)

	// AI assistant
	ai := v1.Group("/ai")
	ai.POST("/chat", assistH.Chat)
	ai.POST("/followup", assistH.FollowUp)
	ai.POST("/insights", assistH.Insights)
	ai.POST("/recommendations", assistH.Recommendations)

	// Payments
	pay := v1.Group("/payments")
	pay.POST("/links", paymentH.CreateLink)
	pay.POST("/onboard", paymentH.Onboard)
	pay.POST("/webhook", paymentH.Webhook)

	// WhatsApp
	wa := v1.Group("/whatsapp")
	wa.GET("/webhook", whatsappH.Verify)
	wa.POST("/webhook", whatsappH.Webhook)
	wa.POST("/send", whatsappH.Send)

	// Staff import
	v1.POST("/staff/upload", staffH.Upload)

	return r
}
