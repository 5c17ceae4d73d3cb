package main

import (
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/nurpe/repairdesk/internal/auth"
	"github.com/nurpe/repairdesk/internal/backend"
	"github.com/nurpe/repairdesk/internal/config"
	"github.com/nurpe/repairdesk/internal/excel"
	httphandler "github.com/nurpe/repairdesk/internal/http"
	"github.com/nurpe/repairdesk/internal/http/middleware"
	"github.com/nurpe/repairdesk/internal/logger"
	"github.com/nurpe/repairdesk/internal/pdf"
	"github.com/nurpe/repairdesk/internal/service"
	"github.com/nurpe/repairdesk/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)
	clock := clockwork.NewRealClock()

	shop := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
	sessions := session.NewStore(clock, session.Options{
		AmountDebounce: cfg.Orders.AmountDebounce,
		DefaultStatus:  cfg.Orders.DefaultStatus,
		SingleSelect: session.SingleSelect{
			Fault:  cfg.Orders.IsSingleSelect("falla"),
			Repair: cfg.Orders.IsSingleSelect("reparacion"),
		},
	})

	orderService := service.NewOrderService(shop, log)
	importService := service.NewImportService(shop, log)
	documentService := service.NewDocumentService(pdf.NewGenerator(cfg.Orders.ShopName), pdf.FileName, excel.NewGenerator(), clock)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	if !tokenParser.Enabled() {
		log.Warn().Msg("JWT_ACCESS_SECRET not set, requests run as the anonymous operator")
	}
	handler := httphandler.NewHandler(sessions, orderService, importService, documentService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Str("backend", cfg.Backend.BaseURL).Msg("starting repairdesk")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
