package handlers

import (
	"net/http"
	"sync"

	"presalecontrol/internal/handlers/business"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the CORS middleware already vets origins for the REST surface;
	// the feed carries public progress data only
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedConn serializes writes to a single websocket connection. gorilla
// allows at most one concurrent writer per connection, and broadcasts can
// race the initial subscribe frame.
type feedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (fc *feedConn) writeJSON(v interface{}) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.conn.WriteJSON(v)
}

// feedHub fans sale progress updates out to websocket subscribers, keyed by
// sale id.
type feedHub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[*feedConn]bool
}

var hub = &feedHub{subscribers: make(map[uint]map[*feedConn]bool)}

func (h *feedHub) add(saleID uint, fc *feedConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[saleID] == nil {
		h.subscribers[saleID] = make(map[*feedConn]bool)
	}
	h.subscribers[saleID][fc] = true
}

func (h *feedHub) remove(saleID uint, fc *feedConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[saleID], fc)
	fc.conn.Close()
}

// broadcast writes a payload to every subscriber of a sale. Dead
// connections are dropped on write failure.
func (h *feedHub) broadcast(saleID uint, payload interface{}) {
	h.mu.RLock()
	conns := make([]*feedConn, 0, len(h.subscribers[saleID]))
	for fc := range h.subscribers[saleID] {
		conns = append(conns, fc)
	}
	h.mu.RUnlock()

	for _, fc := range conns {
		if err := fc.writeJSON(payload); err != nil {
			log.Debugf("Dropping feed subscriber for sale %d: %v", saleID, err)
			h.remove(saleID, fc)
		}
	}
}

// BroadcastSaleStatus pushes the current status to every subscriber of a
// sale.
func BroadcastSaleStatus(saleID uint) {
	status, err := business.GetSaleStatus(saleID)
	if err != nil {
		log.Warnf("Feed broadcast skipped for sale %d: %v", saleID, err)
		return
	}
	hub.broadcast(saleID, status)
}

// SaleFeed upgrades the connection and streams sale status updates until
// the client goes away. An initial status frame is sent on subscribe.
func SaleFeed(c *gin.Context) {
	id, ok := saleIDParam(c)
	if !ok {
		return
	}
	if _, err := business.GetSaleStatus(id); err != nil {
		c.JSON(saleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("Feed upgrade failed: %v", err)
		return
	}
	fc := &feedConn{conn: conn}
	hub.add(id, fc)

	if status, err := business.GetSaleStatus(id); err == nil {
		if err := fc.writeJSON(status); err != nil {
			hub.remove(id, fc)
			return
		}
	}

	// read loop exists only to observe the close
	go func() {
		defer hub.remove(id, fc)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
