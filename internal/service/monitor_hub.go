package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"lan_exam_backend/pkg/logger"
	"lan_exam_backend/pkg/monitoring"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 监考事件类型
const (
	EventLogin         = "LOGIN"
	EventLogout        = "LOGOUT"
	EventExamStarted   = "EXAM_STARTED"
	EventExamSubmitted = "EXAM_SUBMITTED"
	EventTabSwitch     = "TAB_SWITCH"
)

const (
	monitorChannel = "exam:monitor"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

type MonitorEvent struct {
	Type     string                 `json:"type"`
	UserID   uint                   `json:"user_id"`
	Username string                 `json:"username,omitempty"`
	IP       string                 `json:"ip,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Time     time.Time              `json:"time"`
}

type monitorClient struct {
	hub   *MonitorHub
	conn  *websocket.Conn
	send  chan []byte
	admin string
}

// readPump 只处理 pong 和关闭，管理端不会上行业务消息
func (c *monitorClient) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("Monitor connection closed unexpectedly", zap.Error(err), zap.String("admin", c.admin))
			}
			return
		}
	}
}

func (c *monitorClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 每个事件单独一帧，前端按 JSON 逐条解析
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// MonitorHub 把考试事件实时推送给已连接的管理端；配置了 Redis 时经频道广播，支持多实例
type MonitorHub struct {
	Redis *redis.Client

	clients    map[*monitorClient]struct{}
	register   chan *monitorClient
	unregister chan *monitorClient
	broadcast  chan []byte
	connected  atomic.Int64
	upgrader   websocket.Upgrader

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewMonitorHub(rdb *redis.Client, origins []string) *MonitorHub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &MonitorHub{
		Redis:      rdb,
		clients:    make(map[*monitorClient]struct{}),
		register:   make(chan *monitorClient),
		unregister: make(chan *monitorClient),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// Start 订阅成功后才返回，之后发布的事件不会丢失
func (h *MonitorHub) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel

	var pubsub *redis.PubSub
	if h.Redis != nil {
		pubsub = h.Redis.Subscribe(ctx, monitorChannel)
		if _, err := pubsub.Receive(ctx); err != nil {
			cancel()
			pubsub.Close()
			return err
		}
		go func() {
			for msg := range pubsub.Channel() {
				h.enqueue([]byte(msg.Payload))
			}
		}()
	}

	go h.run(ctx, pubsub)
	return nil
}

func (h *MonitorHub) run(ctx context.Context, pubsub *redis.PubSub) {
	defer close(h.done)
	defer func() {
		if pubsub != nil {
			pubsub.Close()
		}
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.connected.Store(0)
		monitoring.MonitorClients.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.connected.Add(1)
			monitoring.MonitorClients.Inc()
			logger.Log.Info("Monitor client connected", zap.String("admin", c.admin))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.connected.Add(-1)
				monitoring.MonitorClients.Dec()
				logger.Log.Info("Monitor client disconnected", zap.String("admin", c.admin))
			}

		case payload := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// 消费过慢的连接直接断开
					delete(h.clients, c)
					close(c.send)
					h.connected.Add(-1)
					monitoring.MonitorClients.Dec()
				}
			}
		}
	}
}

// Publish 非阻塞；未启用或缓冲已满时丢弃事件，不影响考试流程
func (h *MonitorHub) Publish(ctx context.Context, ev MonitorEvent) {
	if h == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Log.Error("Failed to encode monitor event", zap.Error(err))
		return
	}
	monitoring.MonitorEvents.WithLabelValues(ev.Type).Inc()

	if h.Redis != nil {
		err := h.Redis.Publish(ctx, monitorChannel, payload).Err()
		if err == nil {
			return
		}
		logger.Log.Warn("Redis publish failed, delivering locally", zap.Error(err))
	}
	h.enqueue(payload)
}

func (h *MonitorHub) enqueue(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		logger.Log.Debug("Monitor broadcast buffer full, event dropped")
	}
}

func (h *MonitorHub) leave(c *monitorClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Connected 当前实例上的管理端连接数
func (h *MonitorHub) Connected() int {
	return int(h.connected.Load())
}

// ServeWs 升级连接并挂到 hub 上
func (h *MonitorHub) ServeWs(w http.ResponseWriter, r *http.Request, admin string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err), zap.String("admin", admin))
		return
	}

	c := &monitorClient{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		admin: admin,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Close 断开所有连接并停止订阅
func (h *MonitorHub) Close() {
	if h == nil || h.cancel == nil {
		return
	}
	h.once.Do(func() {
		h.cancel()
		<-h.done
	})
}
