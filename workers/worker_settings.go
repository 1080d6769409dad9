package workers

import (
	"encoding/json"
	"time"

	"github.com/APTrust/integrity-services/models/common"
)

// Settings contains settings for the alert consumer.
type Settings struct {
	// ChannelBufferSize is the size of the buffer for the
	// ProcessChannel. It is also the consumer's max_in_flight,
	// since nsqd should not hand us more alerts than we can hold.
	ChannelBufferSize int

	// MaxAttempts is the number of times nsqd may deliver an alert
	// before we log it as undeliverable and drop it.
	MaxAttempts uint16

	// NSQChannel is the NSQ channel the consumer should subscribe
	// to to receive alerts. Each channel gets its own copy of every
	// alert, so two alerters on different channels both see all of
	// them.
	NSQChannel string

	// NSQTopic is the NSQ topic the monitor publishes alerts to.
	NSQTopic string

	// NumberOfWorkers is the number of go routines that process
	// alerts. Processing is cheap, so one or two is plenty.
	NumberOfWorkers int

	// RequeueTimeout describes how long nsqd should wait before
	// redelivering an alert we could not process.
	RequeueTimeout time.Duration
}

// NewAlertSettings returns consumer settings for the alert topic
// named in config.
func NewAlertSettings(config *common.Config) *Settings {
	return &Settings{
		ChannelBufferSize: 20,
		MaxAttempts:       5,
		NSQChannel:        config.AlertTopic + "_alerter_chan",
		NSQTopic:          config.AlertTopic,
		NumberOfWorkers:   2,
		RequeueTimeout:    1 * time.Minute,
	}
}

func (settings *Settings) ToJSON() string {
	data, _ := json.Marshal(settings)
	return string(data)
}
