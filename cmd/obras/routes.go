package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	budgetget "gestion-obras/http-server/budget/get"
	reportexcel "gestion-obras/http-server/report/excel"
	otdelete "gestion-obras/http-server/work-orders/delete"
	otget "gestion-obras/http-server/work-orders/get"
	otsave "gestion-obras/http-server/work-orders/save"
	ottransition "gestion-obras/http-server/work-orders/transition"
	otupdate "gestion-obras/http-server/work-orders/update"
	"gestion-obras/internal/config"
	"gestion-obras/internal/middleware/auth"
	budgetservice "gestion-obras/internal/service/budget"
	"gestion-obras/internal/service/lifecycle"
	"gestion-obras/internal/service/report"
	"gestion-obras/internal/storage/mysql"
)

func routes(cfg config.Config, log *slog.Logger, storage *mysql.Storage,
	lifecycleService *lifecycle.Service, budgetService *budgetservice.Service,
	reportService *report.Service) *chi.Mux {

	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.Actor(log, storage))

		r.Get("/ordenes", otget.GetWorkOrders(log, lifecycleService))
		r.Post("/ordenes", otsave.CreateWorkOrder(log, lifecycleService))
		r.Get("/ordenes/{id}", otget.GetWorkOrder(log, lifecycleService))
		r.Put("/ordenes/{id}", otupdate.UpdateWorkOrder(log, lifecycleService))
		r.Delete("/ordenes/{id}", otdelete.DeleteWorkOrder(log, lifecycleService))

		r.Post("/ordenes/{id}/aprobar", ottransition.ApproveWorkOrder(log, lifecycleService))
		r.Post("/ordenes/{id}/iniciar", ottransition.StartWorkOrder(log, lifecycleService))
		r.Post("/ordenes/{id}/cerrar", ottransition.CloseWorkOrder(log, lifecycleService))

		r.Get("/rubros/{id}/presupuesto", budgetget.GetBudgetStatus(log, budgetService))

		r.Get("/obras/{id}/reporte/excel", reportexcel.GenerateObraReport(log, reportService))
	})

	return router
}
