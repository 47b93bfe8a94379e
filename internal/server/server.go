package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-grid/internal/logging"
	"parking-grid/internal/parking"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
	hub        *Hub
	stopHub    context.CancelFunc
}

func NewServer(port string, garage *parking.Garage) *Server {
	handler := NewHandler(garage)
	registry := newRegistry(garage)
	metrics := newHTTPMetrics(registry)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(hubCtx)

	garage.OnChange(func(ctx context.Context) {
		lot, err := garage.Lot()
		if err != nil {
			return
		}
		hub.Broadcast(ctx, eventLotUpdated, newStatusResponse(lot.Snapshot(ctx)))
	})

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(garage.Telemetry().Tracer()))
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(metrics.Middleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		var initial *Message
		if lot, err := garage.Lot(); err == nil {
			initial = &Message{Event: eventLotUpdated, Data: newStatusResponse(lot.Snapshot(r.Context()))}
		}
		hub.ServeWS(w, r, initial)
	})

	r.Route("/api/parking-lot", func(r chi.Router) {
		r.Post("/", handler.CreateParkingLot)
		r.Get("/", handler.GetStatus)
		r.Post("/park", handler.ParkVehicle)
		r.Post("/remove", handler.RemoveVehicle)
		r.Get("/spaces/{row}/{col}", handler.InspectSpace)
		r.Get("/spaces/{row}/{col}/available", handler.SpaceAvailability)
		r.Get("/rows/{row}", handler.RenderRow)
		r.Get("/find/{plate}", handler.FindByPlate)
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		hub:        hub,
		stopHub:    stopHub,
	}
}

// Handler exposes the router so it can be mounted in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	s.stopHub()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
