// Package app assembles the dispatch platform from its components.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/careline/dispatch/api/dispatch"
	"github.com/careline/dispatch/config"
	coredispatch "github.com/careline/dispatch/core/dispatch"
	"github.com/careline/dispatch/core/events"
	"github.com/careline/dispatch/core/facility"
	"github.com/careline/dispatch/core/location"
	"github.com/careline/dispatch/core/priority"
	"github.com/careline/dispatch/core/routing"
	"github.com/careline/dispatch/infra/logger"
	"github.com/careline/dispatch/infra/metrics"
	inframqtt "github.com/careline/dispatch/infra/mqtt"
	infrarouting "github.com/careline/dispatch/infra/routing"
)

// Service orchestrates the dispatch manager and its adapters.
type Service struct {
	Manager    *coredispatch.Manager
	Fleet      *coredispatch.Fleet
	Locations  *location.Store
	Facilities *facility.Store
	Buses      *events.Buses

	cfg     *config.Config
	gateway *inframqtt.Gateway
	bridge  *inframqtt.Bridge
	api     *http.Server
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	var route routing.Client
	if cfg.GoogleAPIKey != "" {
		oracle, err := infrarouting.NewGoogleClient(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("routing client: %w", err)
		}
		route = routing.NewDegradedClient(oracle, cfg.Routing, logger.New("routing"))
	} else {
		log.Warnf("no routing API key configured, running on straight-line estimates")
		route = routing.NewDegradedClient(nil, cfg.Routing, logger.New("routing"))
	}

	fleet := coredispatch.NewFleet()
	locations := location.NewStore(cfg.Location)
	facilities := facility.NewStore()
	selector := facility.NewSelector(facilities, route, cfg.Facility, logger.New("facility"))
	buses := events.NewBuses()
	sink := metrics.NewSink(cfg.Metrics)

	manager, err := coredispatch.NewManager(cfg.Dispatch, coredispatch.Deps{
		Fleet:      fleet,
		Locations:  locations,
		Route:      route,
		Engine:     priority.New(cfg.Priority),
		Selector:   selector,
		Facilities: facilities,
		Buses:      buses,
		Sink:       sink,
		Log:        logger.New("dispatch"),
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}

	svc := &Service{
		Manager:    manager,
		Fleet:      fleet,
		Locations:  locations,
		Facilities: facilities,
		Buses:      buses,
		cfg:        cfg,
		log:        log,
	}

	if cfg.MQTT.Broker != "" {
		gateway, err := inframqtt.NewGateway(cfg.MQTT, manager)
		if err != nil {
			return nil, fmt.Errorf("mqtt gateway: %w", err)
		}
		svc.gateway = gateway
		svc.bridge = inframqtt.NewBridge(gateway, buses)
	} else {
		log.Warnf("no MQTT broker configured, fleet telemetry disabled")
	}

	handler := dispatch.NewHandler(manager, fleet, locations, facilities, selector, logger.New("api"))
	svc.api = &http.Server{Addr: cfg.APIAddr, Handler: handler.Router()}
	return svc, nil
}

// Run starts the matcher, adapters and servers, then blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Manager.Run(ctx)
	if s.bridge != nil {
		go s.bridge.Run(ctx)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			addr := ":" + strconv.Itoa(s.cfg.Metrics.PrometheusPort)
			if err := metrics.StartPromServer(ctx, addr, logger.New("metrics")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		if err := s.api.Shutdown(context.Background()); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("dispatch API listening on %s", s.cfg.APIAddr)
	if err := s.api.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.gateway != nil {
		s.gateway.Disconnect()
	}
	s.Buses.Close()
	return nil
}
