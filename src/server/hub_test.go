package server

import (
	"testing"
	"time"

	"industry-analyze/src/logger"
	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func newTestHub() *APIServer {
	return &APIServer{
		Logger:       logger.NewLogger("test"),
		clients:      make(map[*Client]struct{}),
		broadcast:    make(chan *models.MQuoteUpdate, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		latestQuotes: make(map[string]models.MRealtimeQuote),
	}
}

func newHubClient(s *APIServer) *Client {
	return &Client{hub: s, send: make(chan *models.MQuoteUpdate, 256)}
}

func waitForConnections(t *testing.T, s *APIServer, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.connectionCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("connection count never reached %d, got %d", want, s.connectionCount())
}

// -----------------------------------------------------------------------------
// Connection tracking
// -----------------------------------------------------------------------------

func TestHubTracksConnectionsUnderConcurrentReads(t *testing.T) {
	s := newTestHub()
	go s.handleWebsockets()
	defer s.Stop()

	// Hammer the health-side read while the hub mutates the client set
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				s.connectionCount()
			}
		}
	}()
	defer close(stop)

	var clients []*Client
	for i := 0; i < 50; i++ {
		c := newHubClient(s)
		clients = append(clients, c)
		s.register <- c
	}
	waitForConnections(t, s, 50)

	for _, c := range clients {
		s.unregister <- c
	}
	waitForConnections(t, s, 0)
}

// -----------------------------------------------------------------------------
// Broadcast
// -----------------------------------------------------------------------------

func TestHubBroadcastReachesClients(t *testing.T) {
	s := newTestHub()
	go s.handleWebsockets()
	defer s.Stop()

	c := newHubClient(s)
	s.register <- c

	initial := <-c.send
	if initial.Type != "INITIAL" {
		t.Fatalf("Type = %q, want INITIAL on connect", initial.Type)
	}

	s.Broadcast(map[string]models.MRealtimeQuote{"600519": {Code: "600519"}})

	select {
	case update := <-c.send:
		if update.Type != "UPDATE" {
			t.Errorf("Type = %q, want UPDATE", update.Type)
		}
		if _, ok := update.Quotes["600519"]; !ok {
			t.Errorf("update missing the broadcast quote: %+v", update.Quotes)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered to the client")
	}

	// A later connect sees the retained snapshot
	late := newHubClient(s)
	s.register <- late

	snapshot := <-late.send
	if _, ok := snapshot.Quotes["600519"]; !ok {
		t.Errorf("initial snapshot missing the retained quote: %+v", snapshot.Quotes)
	}
}

// -----------------------------------------------------------------------------
// Shutdown
// -----------------------------------------------------------------------------

func TestHubStopDisconnectsClients(t *testing.T) {
	s := newTestHub()
	go s.handleWebsockets()

	c := newHubClient(s)
	s.register <- c
	<-c.send // INITIAL
	waitForConnections(t, s, 1)

	s.Stop()
	s.Stop() // safe to call twice
	waitForConnections(t, s, 0)

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected the send channel closed after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed after shutdown")
	}

	// Broadcast after shutdown must not block
	delivered := make(chan struct{})
	go func() {
		s.Broadcast(map[string]models.MRealtimeQuote{"600519": {Code: "600519"}})
		close(delivered)
	}()
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked after shutdown")
	}
}
