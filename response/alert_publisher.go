package response

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/models/service"
	"github.com/op/go-logging"
)

// Publisher sends a message to a queue topic. network.NSQClient
// implements this.
type Publisher interface {
	Publish(topic string, data []byte) error
}

// AlertPublisher publishes one alert per newly seen violation.
//
// A tampered file stays tampered until someone fixes it, and we'd
// otherwise alert on it every sweep. The publisher remembers the
// last alertMemory violation keys (identifier plus actual digest),
// so it alerts once per distinct tampering. If the file changes
// again, the digest changes and so does the key. Once a sweep no
// longer reports an identifier, its key is forgotten, so the same
// tampering applied again later raises a new alert.
type AlertPublisher struct {
	Client Publisher
	Topic  string
	Logger *logging.Logger
	seen   *service.RingList
	open   map[string]string
	mutex  sync.Mutex
}

const alertMemory = 512

func NewAlertPublisher(client Publisher, topic string, logger *logging.Logger) *AlertPublisher {
	if topic == "" {
		topic = constants.TopicIntegrityAlert
	}
	return &AlertPublisher{
		Client: client,
		Topic:  topic,
		Logger: logger,
		seen:   service.NewRingList(alertMemory),
		open:   make(map[string]string),
	}
}

func (p *AlertPublisher) LogForAnalysis(ctx context.Context, violations []*integrity.Violation) error {
	return p.publish(constants.ActionLogForAnalysis, violations)
}

func (p *AlertPublisher) EnhanceMonitoring(ctx context.Context, violations []*integrity.Violation) error {
	return p.publish(constants.ActionEnhanceMonitoring, violations)
}

func (p *AlertPublisher) DefensiveMeasures(ctx context.Context, violations []*integrity.Violation) error {
	return p.publish(constants.ActionDefensiveMeasures, violations)
}

func (p *AlertPublisher) EmergencyLockdown(ctx context.Context, violations []*integrity.Violation) error {
	return p.publish(constants.ActionEmergencyLockdown, violations)
}

// ObserveSweep forgets the alert for every identifier whose
// violation is gone or has changed since it was published.
func (p *AlertPublisher) ObserveSweep(ctx context.Context, result *integrity.SweepResult) {
	current := make(map[string]string, len(result.Violations))
	for _, v := range result.Violations {
		current[v.Identifier] = v.Key()
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for identifier, key := range p.open {
		if current[identifier] != key {
			p.seen.Del(key)
			delete(p.open, identifier)
		}
	}
}

func (p *AlertPublisher) publish(action string, violations []*integrity.Violation) error {
	threat := integrity.MaxThreatLevel(integrity.Severities(violations)...)
	var errs []error
	for _, v := range violations {
		if !p.seen.AddIfAbsent(v.Key()) {
			continue
		}
		data, err := integrity.NewAlert(action, threat, v).ToJSON()
		if err == nil {
			err = p.Client.Publish(p.Topic, data)
		}
		if err != nil {
			// Forget the key so the next sweep tries again.
			p.seen.Del(v.Key())
			errs = append(errs, fmt.Errorf("Alert for %s: %w", v.Identifier, err))
			continue
		}
		p.mutex.Lock()
		p.open[v.Identifier] = v.Key()
		p.mutex.Unlock()
		p.Logger.Infof("Published %s alert for %s to %s", action, v.Identifier, p.Topic)
	}
	return errors.Join(errs...)
}
