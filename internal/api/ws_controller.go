package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Дашборд и сервер ходят с разных доменов — origin не проверяем
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSController обрабатывает WebSocket подключения дашбордов
type WSController struct {
	hub *Hub
}

// NewWSController создает новый контроллер
func NewWSController(hub *Hub) *WSController {
	return &WSController{hub: hub}
}

// ServeDashboardWS обрабатывает подключение дашборда
// GET /ws/dashboard
func (wc *WSController) ServeDashboardWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ Ошибка обновления WebSocket соединения: %v", err)
		return
	}

	wc.hub.AddClient(conn)
	log.Printf("🖥️ Дашборд подключен. Всего подключений: %d", wc.hub.GetClientsCount())

	defer func() {
		wc.hub.RemoveClient(conn)
		log.Printf("🖥️ Дашборд отключен. Осталось подключений: %d", wc.hub.GetClientsCount())
	}()

	// Читаем входящие только ради ping/pong и детекта разрыва
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WebSocket ошибка: %v", err)
			}
			break
		}
	}
}
