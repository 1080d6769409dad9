package network

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type NSQClient struct {
	URL        string
	httpClient *http.Client
}

// NewNSQClient returns a new NSQ client that will publish to the nsqd
// HTTP endpoint at url, which usually ends with :4151.
//
// Note that this client provides write access to the queue, so we can
// publish alerts. It does not read. The alerter reads.
func NewNSQClient(url string) *NSQClient {
	return &NSQClient{
		URL:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish posts data to the specified NSQ topic.
func (client *NSQClient) Publish(topic string, data []byte) error {
	pubURL := fmt.Sprintf("%s/pub?topic=%s", client.URL, url.QueryEscape(topic))
	resp, err := client.httpClient.Post(pubURL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("Nsqd returned an error when publishing: %v", err)
	}
	if resp == nil {
		return fmt.Errorf("No response from nsqd at '%s'. Is it running?", pubURL)
	}

	// nsqd sends a simple OK. We have to read the response body,
	// or the connection will hang open forever.
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyText := "[no response body]"
		if len(body) > 0 {
			bodyText = string(body)
		}
		return fmt.Errorf("nsqd returned status code %d when attempting to publish. "+
			"Response body: %s", resp.StatusCode, bodyText)
	}
	return nil
}
