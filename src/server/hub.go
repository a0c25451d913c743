package server

import (
	"encoding/json"
	"net/http"
	"time"

	"industry-analyze/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. All clients-map mutations happen
// here, under stateMutex so concurrent health reads stay safe.
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			// Send current quote snapshot on connect
			initial := s.snapshotUpdate("INITIAL", client.subscribed())
			s.stateMutex.Unlock()
			client.send <- initial

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case update := <-s.broadcast:
			// Fold the update into the retained snapshot
			s.stateMutex.Lock()
			for code, q := range update.Quotes {
				s.latestQuotes[code] = q
			}

			for client := range s.clients {
				filtered := filterUpdate(update, client.subscribed())
				if len(filtered.Quotes) == 0 {
					continue
				}
				select {
				case client.send <- filtered:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()

		case <-s.done:
			s.stateMutex.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()
			return
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues a quote update for all connected clients. A no-op once
// the hub has shut down.
func (s *APIServer) Broadcast(quotes map[string]models.MRealtimeQuote) {
	update := &models.MQuoteUpdate{
		Type:      "UPDATE",
		Quotes:    quotes,
		Timestamp: time.Now().Unix(),
	}
	select {
	case s.broadcast <- update:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------

// snapshotUpdate builds a payload from the retained snapshot, filtered to
// the subscription. Caller holds stateMutex.
func (s *APIServer) snapshotUpdate(updateType string, symbols map[string]struct{}) *models.MQuoteUpdate {
	quotes := make(map[string]models.MRealtimeQuote)
	for code, q := range s.latestQuotes {
		if len(symbols) > 0 {
			if _, ok := symbols[code]; !ok {
				continue
			}
		}
		quotes[code] = q
	}
	return &models.MQuoteUpdate{
		Type:      updateType,
		Quotes:    quotes,
		Timestamp: time.Now().Unix(),
	}
}

// -----------------------------------------------------------------------------

// filterUpdate restricts an update to a client's subscription. An empty
// subscription means everything.
func filterUpdate(update *models.MQuoteUpdate, symbols map[string]struct{}) *models.MQuoteUpdate {
	if len(symbols) == 0 {
		return update
	}

	quotes := make(map[string]models.MRealtimeQuote)
	for code, q := range update.Quotes {
		if _, ok := symbols[code]; ok {
			quotes[code] = q
		}
	}
	return &models.MQuoteUpdate{
		Type:      update.Type,
		Quotes:    quotes,
		Timestamp: update.Timestamp,
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MQuoteUpdate, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	client.setSubscription(cmd.Symbols)

	// Answer with a snapshot restricted to the new subscription
	s.stateMutex.RLock()
	response := s.snapshotUpdate("INITIAL", client.subscribed())
	s.stateMutex.RUnlock()

	select {
	case client.send <- response:
	default:
	}
}
