package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/careline/dispatch/core/geo"
	"github.com/careline/dispatch/core/model"
	"github.com/careline/dispatch/infra/logger"
)

// Core is the slice of the dispatch manager the gateway drives.
type Core interface {
	RecordLocation(ctx context.Context, sample model.LocationSample)
	AssignmentForVehicle(vehicleID string) (model.Assignment, bool)
	Advance(ctx context.Context, assignmentID string, to model.DispatchState, actor, note string) (model.Assignment, error)
	SetVehicleStatus(vehicleID string, status model.VehicleStatus) error
}

// pahoClient is the subset of the paho client the gateway uses; tests swap in
// a fake.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Gateway subscribes to fleet telemetry topics and feeds the dispatch core.
type Gateway struct {
	cli  pahoClient
	cfg  Config
	core Core
	log  logger.Logger
}

// locationReport is the wire format of a position sample. The vehicle ID
// comes from the topic, not the payload.
type locationReport struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AccuracyM  float64 `json:"accuracy_m"`
	SpeedKMH   float64 `json:"speed_kmh"`
	HeadingDeg float64 `json:"heading_deg"`
	Timestamp  int64   `json:"timestamp_ms"`
}

// statusReport is a crew-initiated state change: either a transition of the
// vehicle's active assignment, or an availability override (out_of_service,
// available) for the vehicle itself.
type statusReport struct {
	State string `json:"state"`
	Actor string `json:"actor"`
	Note  string `json:"note"`
}

// NewGateway connects to the broker and subscribes to the telemetry topics.
func NewGateway(cfg Config, core Core) (*Gateway, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt-gateway")
	g := &Gateway{cfg: cfg, core: core, log: log}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected, subscribing to fleet telemetry")
		if token := c.Subscribe(cfg.LocationTopic, g.qos("location"), g.onLocation); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.LocationTopic, token.Error())
		}
		if token := c.Subscribe(cfg.StatusTopic, g.qos("status"), g.onStatus); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.StatusTopic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	g.cli = cli
	return g, nil
}

func (g *Gateway) qos(kind string) byte {
	if q, ok := g.cfg.QoS[kind]; ok {
		return q
	}
	return 0
}

// vehicleFromTopic extracts the wildcard segment, e.g. fleet/amb-12/location.
func vehicleFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func (g *Gateway) onLocation(_ paho.Client, msg paho.Message) {
	vehicleID := vehicleFromTopic(msg.Topic())
	if vehicleID == "" {
		g.log.Warnf("location report on malformed topic %s", msg.Topic())
		return
	}
	var rep locationReport
	if err := json.Unmarshal(msg.Payload(), &rep); err != nil {
		g.log.Errorf("decode location from %s: %v", vehicleID, err)
		return
	}
	sample := model.LocationSample{
		VehicleID:  vehicleID,
		Position:   geo.Point{Lat: rep.Lat, Lon: rep.Lon},
		AccuracyM:  rep.AccuracyM,
		SpeedKMH:   rep.SpeedKMH,
		HeadingDeg: rep.HeadingDeg,
		Source:     "mqtt",
	}
	if rep.Timestamp > 0 {
		sample.Timestamp = time.UnixMilli(rep.Timestamp)
	}
	g.core.RecordLocation(context.Background(), sample)
}

func (g *Gateway) onStatus(_ paho.Client, msg paho.Message) {
	vehicleID := vehicleFromTopic(msg.Topic())
	var rep statusReport
	if err := json.Unmarshal(msg.Payload(), &rep); err != nil {
		g.log.Errorf("decode status from %s: %v", vehicleID, err)
		return
	}
	switch rep.State {
	case string(model.VehicleOutOfService), string(model.VehicleAvailable):
		if err := g.core.SetVehicleStatus(vehicleID, model.VehicleStatus(rep.State)); err != nil {
			g.log.Warnf("status %s from %s rejected: %v", rep.State, vehicleID, err)
		}
		return
	}
	a, ok := g.core.AssignmentForVehicle(vehicleID)
	if !ok {
		g.log.Warnf("status %s from %s: no active assignment", rep.State, vehicleID)
		return
	}
	actor := rep.Actor
	if actor == "" {
		actor = "crew:" + vehicleID
	}
	if _, err := g.core.Advance(context.Background(), a.ID, model.DispatchState(rep.State), actor, rep.Note); err != nil {
		g.log.Warnf("status %s from %s rejected: %v", rep.State, vehicleID, err)
	}
}

// Disconnect gracefully closes the MQTT connection.
func (g *Gateway) Disconnect() {
	if g.cli != nil && g.cli.IsConnected() {
		g.cli.Disconnect(250)
	}
}
