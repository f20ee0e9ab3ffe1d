package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/goroutine"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/metrics"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// Hub управляет всеми WebSocket клиентами. Пользователь получает события,
// где он указан адресатом; администраторские подключения получают все события.
type Hub struct {
	mu         sync.RWMutex
	clients    map[int64]map[*Client]struct{}
	admins     map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	log        *logrus.Entry
}

type message struct {
	userIDs []int64
	payload []byte
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		admins:     make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        logger.Component("ws"),
	}
}

// Run запускает главный цикл хаба до отмены ctx. Состояние клиентов
// меняется только в этой горутине.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// Start запускает Run в отдельной горутине с перехватом паник.
func (h *Hub) Start(ctx context.Context) {
	goroutine.SafeGoWithContext(ctx, "ws-hub", h.Run)
}

// Register добавляет клиента. После остановки хаба возвращает false.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify реализует service.Notifier. Если очередь переполнена, событие
// отбрасывается: вызывающий никогда не ждёт медленных подписчиков.
func (h *Hub) Notify(_ context.Context, events ...service.Event) {
	for _, ev := range events {
		raw, err := json.Marshal(map[string]any{
			"type": ev.Type,
			"data": ev,
		})
		if err != nil {
			h.log.WithError(err).Error("не удалось сериализовать событие")
			continue
		}

		select {
		case h.broadcast <- message{userIDs: ev.UserIDs, payload: raw}:
		default:
			h.log.WithField("type", ev.Type).Warn("очередь событий переполнена, событие отброшено")
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.admin {
		h.admins[client] = struct{}{}
	} else {
		if _, ok := h.clients[client.userID]; !ok {
			h.clients[client.userID] = make(map[*Client]struct{})
		}
		h.clients[client.userID][client] = struct{}{}
	}
	metrics.ActiveWebSocketClients.Inc()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	removed := false
	if _, ok := h.admins[client]; ok {
		delete(h.admins, client)
		removed = true
	}
	if clients, ok := h.clients[client.userID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			removed = true
		}
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
	if removed {
		close(client.send)
		metrics.ActiveWebSocketClients.Dec()
	}
}

func (h *Hub) send(msg message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := make(map[*Client]struct{})
	deliver := func(client *Client) {
		if _, ok := delivered[client]; ok {
			return
		}
		delivered[client] = struct{}{}
		select {
		case client.send <- msg.payload:
		default:
			// Медленный клиент: отключаем, он переподключится.
			h.removeLocked(client)
		}
	}

	for _, userID := range msg.userIDs {
		for client := range h.clients[userID] {
			deliver(client)
		}
	}
	for client := range h.admins {
		deliver(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.admins {
		h.removeLocked(client)
	}
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// Connected возвращает число открытых подключений пользователя.
func (h *Hub) Connected(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// ConnectedAdmins возвращает число администраторских подключений.
func (h *Hub) ConnectedAdmins() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.admins)
}
