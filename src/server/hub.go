package server

import (
	"encoding/json"
	"net/http"

	"smc-analysis/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *WebServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Add(1)
			// Send initial state on connect
			client.send <- s.snapshot()

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				s.clientCount.Add(-1)
				close(client.send)
			}

		case message := <-s.broadcast:
			// The cache is maintained by UpdateState; the hub never keeps a
			// reference to the payload, clients may still be marshalling it
			// after the next merge.
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					s.clientCount.Add(-1)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateState merges new data into the cached state without broadcasting.
// The cache holds only the latest candle window per symbol and timeframe.
func (s *WebServer) UpdateState(data *models.MLatestData) {
	if data == nil {
		return
	}

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if s.latestState.Ticks == nil {
		s.latestState.Ticks = make(map[string]models.MTick)
	}
	for sym, tick := range data.Ticks {
		s.latestState.Ticks[sym] = tick
	}

	if s.latestState.Candles == nil {
		s.latestState.Candles = make(map[string]map[string][]models.MCandle)
	}
	for sym, windows := range data.Candles {
		if s.latestState.Candles[sym] == nil {
			s.latestState.Candles[sym] = make(map[string][]models.MCandle)
		}
		for tf, candles := range windows {
			s.latestState.Candles[sym][tf] = candles
		}
	}

	s.latestState.Timestamp = data.Timestamp
	s.latestState.ProcessingMetrics = data.ProcessingMetrics
	s.latestState.Type = "UPDATE"
}

// -----------------------------------------------------------------------------
// State Snapshots
//
// Responses built from the cache copy its maps. Clients marshal messages on
// their own goroutines, and UpdateState keeps mutating the cached maps under
// the write lock; handing out the live maps would race with those merges.
// Candle slices are replaced wholesale on merge, never appended to, so
// sharing the slice headers is safe.
// -----------------------------------------------------------------------------

func copyTicks(src map[string]models.MTick) map[string]models.MTick {
	dst := make(map[string]models.MTick, len(src))
	for sym, tick := range src {
		dst[sym] = tick
	}
	return dst
}

func copyWindows(src map[string][]models.MCandle) map[string][]models.MCandle {
	dst := make(map[string][]models.MCandle, len(src))
	for tf, candles := range src {
		dst[tf] = candles
	}
	return dst
}

// -----------------------------------------------------------------------------

// snapshot returns a copy of the cached state safe to hand to a client.
func (s *WebServer) snapshot() *models.MLatestData {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	candles := make(map[string]map[string][]models.MCandle, len(s.latestState.Candles))
	for sym, windows := range s.latestState.Candles {
		candles[sym] = copyWindows(windows)
	}

	return &models.MLatestData{
		Type:              s.latestState.Type,
		Ticks:             copyTicks(s.latestState.Ticks),
		Candles:           candles,
		Timestamp:         s.latestState.Timestamp,
		ProcessingMetrics: s.latestState.ProcessingMetrics,
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues a state update for all connected clients.
func (s *WebServer) Broadcast(payload *models.MLatestData) {
	if payload == nil {
		return
	}
	payload.Type = "UPDATE"
	s.broadcast <- payload
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

func (s *WebServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MLatestData, 256),
	}

	s.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *WebServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	s.stateMutex.RLock()
	var response *models.MLatestData

	if cmd.ClientType == "dashboard" {
		response = s.dashboardResponse(cmd.Symbols, cmd.Timeframe)
	} else {
		response = s.symbolViewResponse(cmd.Symbols, cmd.Timeframe)
	}
	s.stateMutex.RUnlock()

	// Non-blocking send, the Hub loop prunes slow clients on broadcast
	select {
	case client.send <- response:
	default:
	}
}

// -----------------------------------------------------------------------------
// Response Filtering
// -----------------------------------------------------------------------------

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// symbolViewResponse filters ticks by symbol and candles by symbol and
// timeframe. Empty filters mean "everything".
func (s *WebServer) symbolViewResponse(symbols []string, timeframe string) *models.MLatestData {
	filteredTicks := make(map[string]models.MTick)
	if len(symbols) == 0 {
		filteredTicks = copyTicks(s.latestState.Ticks)
	} else {
		for sym, tick := range s.latestState.Ticks {
			if contains(symbols, sym) {
				filteredTicks[sym] = tick
			}
		}
	}

	filteredCandles := make(map[string]map[string][]models.MCandle)

	pick := func(sym string, windows map[string][]models.MCandle) {
		if timeframe != "" {
			if data, exists := windows[timeframe]; exists {
				filteredCandles[sym] = map[string][]models.MCandle{timeframe: data}
			}
			return
		}
		filteredCandles[sym] = copyWindows(windows)
	}

	if len(symbols) == 0 {
		for sym, windows := range s.latestState.Candles {
			pick(sym, windows)
		}
	} else {
		for _, sym := range symbols {
			if windows, exists := s.latestState.Candles[sym]; exists {
				pick(sym, windows)
			}
		}
	}

	return &models.MLatestData{
		Type:              "INITIAL",
		Ticks:             filteredTicks,
		Candles:           filteredCandles,
		Timestamp:         s.latestState.Timestamp,
		ProcessingMetrics: s.latestState.ProcessingMetrics,
	}
}

// -----------------------------------------------------------------------------

// dashboardResponse returns candle history for one timeframe across all
// requested symbols, plus the full tick snapshot for the header row.
func (s *WebServer) dashboardResponse(symbols []string, timeframe string) *models.MLatestData {
	filteredCandles := make(map[string]map[string][]models.MCandle)

	if timeframe == "" {
		return &models.MLatestData{
			Type:              "INITIAL",
			Ticks:             make(map[string]models.MTick),
			Candles:           filteredCandles,
			Timestamp:         s.latestState.Timestamp,
			ProcessingMetrics: s.latestState.ProcessingMetrics,
		}
	}

	if len(symbols) == 0 {
		for sym, windows := range s.latestState.Candles {
			if data, exists := windows[timeframe]; exists {
				filteredCandles[sym] = map[string][]models.MCandle{timeframe: data}
			}
		}
	} else {
		for _, sym := range symbols {
			if windows, exists := s.latestState.Candles[sym]; exists {
				if data, exists := windows[timeframe]; exists {
					filteredCandles[sym] = map[string][]models.MCandle{timeframe: data}
				}
			}
		}
	}

	return &models.MLatestData{
		Type:              "INITIAL",
		Ticks:             copyTicks(s.latestState.Ticks),
		Candles:           filteredCandles,
		Timestamp:         s.latestState.Timestamp,
		ProcessingMetrics: s.latestState.ProcessingMetrics,
	}
}
