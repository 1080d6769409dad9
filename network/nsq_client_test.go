package network_test

import (
	"net/http"
	"testing"

	"github.com/APTrust/integrity-services/network"
	"github.com/APTrust/integrity-services/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNSQPublish(t *testing.T) {
	nsqd := testutil.NewNsqdServer()
	defer nsqd.Close()

	client := network.NewNSQClient(nsqd.URL)
	require.Nil(t, client.Publish("integrity_alert_topic", []byte(`{"action":"x"}`)))
	messages := nsqd.Messages("integrity_alert_topic")
	require.Len(t, messages, 1)
	assert.Equal(t, `{"action":"x"}`, string(messages[0]))
}

func TestNSQPublishFailure(t *testing.T) {
	nsqd := testutil.NewNsqdServer()
	defer nsqd.Close()
	nsqd.FailWith(http.StatusInternalServerError)

	client := network.NewNSQClient(nsqd.URL)
	err := client.Publish("integrity_alert_topic", []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 500")
	assert.Contains(t, err.Error(), "E_FAILED")
}

func TestNSQPublishNoServer(t *testing.T) {
	client := network.NewNSQClient("http://127.0.0.1:1")
	err := client.Publish("integrity_alert_topic", []byte("{}"))
	assert.Error(t, err)
}
