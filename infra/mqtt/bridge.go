package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/careline/dispatch/core/events"
	"github.com/careline/dispatch/infra/logger"
)

// Bridge republishes core dispatch events onto broker topics so mobile units
// and dashboards can follow assignments live.
type Bridge struct {
	cli     pahoClient
	cfg     Config
	buses   *events.Buses
	log     logger.Logger
	backoff time.Duration
}

// NewBridge attaches an event bridge to an existing gateway connection.
func NewBridge(g *Gateway, buses *events.Buses) *Bridge {
	return &Bridge{
		cli:     g.cli,
		cfg:     g.cfg,
		buses:   buses,
		log:     logger.New("mqtt-bridge"),
		backoff: time.Duration(g.cfg.BackoffMS) * time.Millisecond,
	}
}

// Run forwards events until the context ends. Each bus gets its own
// subscription so a burst on one topic cannot drop events on another.
func (b *Bridge) Run(ctx context.Context) {
	queued := b.buses.Queued.Subscribe()
	assignments := b.buses.Assignments.Subscribe()
	transitions := b.buses.Transitions.Subscribe()
	defer b.buses.Queued.Unsubscribe(queued)
	defer b.buses.Assignments.Unsubscribe(assignments)
	defer b.buses.Transitions.Unsubscribe(transitions)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-queued:
			if !ok {
				return
			}
			b.publish(b.cfg.EventPrefix+"/queued", ev)
		case ev, ok := <-assignments:
			if !ok {
				return
			}
			b.publish(b.cfg.EventPrefix+"/assignments", ev)
		case ev, ok := <-transitions:
			if !ok {
				return
			}
			b.publish(b.cfg.EventPrefix+"/transitions", ev)
		}
	}
}

func (b *Bridge) publish(topic string, ev any) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Errorf("encode event for %s: %v", topic, err)
		return
	}
	qos := byte(0)
	if q, ok := b.cfg.QoS["events"]; ok {
		qos = q
	}
	var publishErr error
	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		token := b.cli.Publish(topic, qos, false, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			return
		}
		b.log.Errorf("publish %s attempt %d failed: %v", topic, attempt+1, publishErr)
		time.Sleep(b.backoff * time.Duration(1<<attempt))
	}
}
