package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// These types allow us to mock http responses from nsqd and S3.

// NsqdServer accepts publishes on /pub the way nsqd's HTTP interface
// does and remembers every message body by topic.
type NsqdServer struct {
	URL      string
	server   *httptest.Server
	messages map[string][][]byte
	status   int
	mutex    sync.Mutex
}

func NewNsqdServer() *NsqdServer {
	nsqd := &NsqdServer{
		messages: make(map[string][][]byte),
		status:   http.StatusOK,
	}
	nsqd.server = httptest.NewServer(http.HandlerFunc(nsqd.handle))
	nsqd.URL = nsqd.server.URL
	return nsqd
}

// FailWith makes every later publish return status.
func (nsqd *NsqdServer) FailWith(status int) {
	nsqd.mutex.Lock()
	nsqd.status = status
	nsqd.mutex.Unlock()
}

// Messages returns the bodies published to topic, in order.
func (nsqd *NsqdServer) Messages(topic string) [][]byte {
	nsqd.mutex.Lock()
	defer nsqd.mutex.Unlock()
	return append([][]byte(nil), nsqd.messages[topic]...)
}

func (nsqd *NsqdServer) Close() {
	nsqd.server.Close()
}

func (nsqd *NsqdServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/pub" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	topic := r.URL.Query().Get("topic")
	body, _ := io.ReadAll(r.Body)
	nsqd.mutex.Lock()
	defer nsqd.mutex.Unlock()
	if nsqd.status != http.StatusOK {
		w.WriteHeader(nsqd.status)
		w.Write([]byte("E_FAILED"))
		return
	}
	nsqd.messages[topic] = append(nsqd.messages[topic], body)
	w.Write([]byte("OK"))
}
