package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/code-100-precent/TableEcho/pkg/config"
	"github.com/code-100-precent/TableEcho/pkg/recognizer"
	"github.com/code-100-precent/TableEcho/pkg/voice"
)

// Handlers HTTP与WebSocket接入层
type Handlers struct {
	db          *gorm.DB
	coordinator *voice.Coordinator
	relay       *recognizer.Relay
}

// NewHandlers 创建接入层
func NewHandlers(db *gorm.DB, coordinator *voice.Coordinator, relay *recognizer.Relay) *Handlers {
	return &Handlers{
		db:          db,
		coordinator: coordinator,
		relay:       relay,
	}
}

// Register 注册全部路由
func (h *Handlers) Register(engine *gin.Engine) {
	prefix := "/api"
	if config.GlobalConfig != nil && config.GlobalConfig.APIPrefix != "" {
		prefix = config.GlobalConfig.APIPrefix
	}
	r := engine.Group(prefix)

	// 电话网关回调
	r.POST("/call/start", h.HandleCallStart)
	r.POST("/call/transcript", h.HandleTranscript)
	r.POST("/call/stop", h.HandleCallStop)

	// 双向流式通话
	r.GET("/call/stream", h.HandleCallStream)

	// 运营侧查询
	r.GET("/calls", h.ListCallRecords)
	r.GET("/calls/:callId", h.GetCallRecord)
	r.GET("/reservations", h.ListReservations)
}
