package main

import (
	"fmt"
	"log"

	"conicore/internal/config"
	"conicore/internal/email/noop"
	"conicore/internal/email/ses"
	"conicore/internal/engine"
	"conicore/internal/handler"
	"conicore/internal/payments"
	"conicore/internal/port"
	"conicore/internal/router"
	"conicore/internal/service"
	s3storage "conicore/internal/storage/s3"
	"conicore/internal/whatsapp"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Provider fallback engine
	registry := engine.NewRegistry(cfg)
	executor := engine.NewExecutor()
	orch := engine.NewOrchestrator(registry, executor, cfg.Engine.TotalBudgetSecs)

	// Scan archive (optional)
	var archive port.ObjectStorage
	if cfg.S3.Enabled {
		archive, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Follow-up email channel
	var emailSender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		emailSender = noop.NewNoopSender()
	}

	// Initialize services
	scanSvc := service.NewScanService(orch, archive, cfg.S3.Bucket)
	assistSvc := service.NewAssistService(orch, emailSender, cfg.Business)
	gateway := payments.NewGateway(cfg.Stripe)
	waClient := whatsapp.NewClient(cfg.WhatsApp)

	// Initialize handlers
	scanH := handler.NewScanHandler(scanSvc, registry)
	langH := handler.NewLanguageHandler()
	assistH := handler.NewAssistHandler(assistSvc)
	paymentH := handler.NewPaymentHandler(gateway)
	whatsappH := handler.NewWhatsAppHandler(waClient)
	staffH := handler.NewStaffHandler()
	healthH := handler.NewHealthHandler(registry, cfg.Engine.HealthTimeoutSecs)

	// Setup router
	r := router.Setup(cfg, scanH, langH, assistH, paymentH, whatsappH, staffH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
