package workers

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/nsqio/go-nsq"
)

// AlertConsumer reads integrity alerts from NSQ and writes them to
// the alerter's log, where log shipping picks them up.
type AlertConsumer struct {
	// Context contains the config, logger and clients.
	Context *common.Context

	// Settings describe which topic and channel to read and how
	// many alerts to handle at once.
	Settings *Settings

	// NSQConsumer delivers messages to HandleMessage.
	NSQConsumer *nsq.Consumer

	// ProcessChannel holds alerts waiting to be logged.
	ProcessChannel chan *integrity.Alert

	// KillChannel receives SIGINT and SIGTERM.
	KillChannel chan os.Signal

	counts map[integrity.ThreatLevel]int
	mutex  sync.Mutex
}

func NewAlertConsumer(context *common.Context, settings *Settings) *AlertConsumer {
	return &AlertConsumer{
		Context:        context,
		Settings:       settings,
		ProcessChannel: make(chan *integrity.Alert, settings.ChannelBufferSize),
		KillChannel:    make(chan os.Signal, 1),
		counts:         make(map[integrity.ThreatLevel]int),
	}
}

// Run starts the processing goroutines, registers with NSQ and
// blocks until the consumer stops after SIGINT or SIGTERM.
func (c *AlertConsumer) Run() error {
	c.Context.Logger.Info("Starting with worker settings:")
	c.Context.Logger.Info(c.Settings.ToJSON())
	c.Start()
	if err := c.RegisterAsNsqConsumer(); err != nil {
		return err
	}
	signal.Notify(c.KillChannel, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-c.KillChannel
		c.Context.Logger.Warningf("Alerter received %s. Disconnecting from NSQ.", sig)
		c.NSQConsumer.ChangeMaxInFlight(0)
		c.NSQConsumer.Stop()
	}()
	<-c.NSQConsumer.StopChan
	c.Context.Logger.Info("Alerter stopped")
	return nil
}

// Start spins up Settings.NumberOfWorkers goroutines that log
// alerts from the ProcessChannel.
func (c *AlertConsumer) Start() {
	workers := c.Settings.NumberOfWorkers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go c.processAlerts()
	}
}

// RegisterAsNsqConsumer registers this worker as an NSQ consumer on
// Settings.NSQTopic and Settings.NSQChannel. Note that as soon as you
// call this, your worker will start handling messages if any are
// available.
func (c *AlertConsumer) RegisterAsNsqConsumer() error {
	lookupd := c.Context.Config.NsqLookupd
	if lookupd == "" {
		return fmt.Errorf("Alerter requires NSQ_LOOKUPD")
	}
	config := nsq.NewConfig()
	config.Set("heartbeat_interval", "10s")
	config.Set("max_in_flight", c.Settings.ChannelBufferSize)
	config.MaxAttempts = c.Settings.MaxAttempts
	config.DefaultRequeueDelay = c.Settings.RequeueTimeout
	consumer, err := nsq.NewConsumer(c.Settings.NSQTopic, c.Settings.NSQChannel, config)
	if err != nil {
		return err
	}
	c.NSQConsumer = consumer
	c.NSQConsumer.AddHandler(c)
	if err = c.NSQConsumer.ConnectToNSQLookupd(lookupd); err != nil {
		return fmt.Errorf("Cannot connect to nsqlookupd at %s: %v", lookupd, err)
	}
	c.Context.Logger.Infof("Registered as NSQ consumer on %s/%s", c.Settings.NSQTopic, c.Settings.NSQChannel)
	return nil
}

// HandleMessage decodes an alert and queues it for logging. Malformed
// messages are logged and finished rather than requeued, since they
// will never decode.
func (c *AlertConsumer) HandleMessage(message *nsq.Message) error {
	body := strings.TrimSpace(string(message.Body))
	alert, err := integrity.AlertFromJSON(message.Body)
	if err != nil || alert.Violation == nil {
		c.Context.Logger.Errorf("Discarding malformed alert %s: %s", string(message.ID[:]), body)
		return nil
	}
	if c.Settings.MaxAttempts > 0 && message.Attempts > c.Settings.MaxAttempts {
		c.Context.Logger.Errorf("Dropping alert for %s after %d attempts", alert.Violation.Identifier, message.Attempts)
		return nil
	}
	c.ProcessChannel <- alert
	return nil
}

// Counts returns the number of alerts logged so far, by threat.
func (c *AlertConsumer) Counts() map[integrity.ThreatLevel]int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	counts := make(map[integrity.ThreatLevel]int, len(c.counts))
	for level, count := range c.counts {
		counts[level] = count
	}
	return counts
}

func (c *AlertConsumer) processAlerts() {
	for alert := range c.ProcessChannel {
		c.processAlert(alert)
	}
}

func (c *AlertConsumer) processAlert(alert *integrity.Alert) {
	message := fmt.Sprintf("[%s] %s on %s: %s", alert.Threat, alert.Action, alert.Host, alert.Violation.String())
	switch alert.Threat {
	case integrity.ThreatCritical:
		c.Context.Logger.Critical(message)
	case integrity.ThreatHigh:
		c.Context.Logger.Error(message)
	case integrity.ThreatMedium:
		c.Context.Logger.Warning(message)
	default:
		c.Context.Logger.Info(message)
	}
	c.mutex.Lock()
	c.counts[alert.Threat]++
	c.mutex.Unlock()
}
