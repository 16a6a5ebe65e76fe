package chat

import (
	"context"
	"net/http"
	"strings"

	"PPHub/global/config"
	"PPHub/logger"
	"PPHub/tools/safe"
	"PPHub/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server websocket 接入与在线查询的 HTTP 入口
type Server struct {
	hub      *Hub
	ws       config.WSConfig
	auth     *security.Options // nil 表示不校验连接令牌
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, ws config.WSConfig, auth config.AuthConfig) *Server {
	s := &Server{hub: hub, ws: ws}
	if auth.JWTSecret != "" {
		opts := security.DefaultOptions([]byte(auth.JWTSecret))
		if auth.JWTAlg != "" {
			opts.Alg = auth.JWTAlg
		}
		s.auth = &opts
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(ws.AllowedOrigins),
	}
	return s
}

func (s *Server) Routes(r gin.IRoutes) {
	r.GET("/ws", s.HandleWS)
	r.GET("/presence/online", s.HandleOnline)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
}

// HandleWS 握手前校验 userId（与可选 token），之后读循环同步处理每一帧
func (s *Server) HandleWS(c *gin.Context) {
	userID := c.Query("userId")
	if Normalize(userID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if s.auth != nil {
		sub, err := security.Verify(*s.auth, bearerToken(c))
		if err != nil || Normalize(sub) != Normalize(userID) {
			logger.Info("[HandleWS] unauthorized", zap.String("user", userID), zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 常见：非 WebSocket 请求/握手失败
		logger.Info("[HandleWS] upgrade failed", zap.Error(err))
		return
	}

	sess := NewSession(userID, ws, s.ws.SendBuffer)
	logger.Info("[HandleWS] connected", zap.String("user", sess.Identity()), zap.String("session", sess.ID))
	s.hub.Connect(sess)
	safe.SafeGo(func() { sess.writePump(s.ws) })

	ctx := context.Background()
	sess.readPump(s.ws, func(data []byte) {
		s.hub.HandleFrame(ctx, sess, data)
	}, func() {
		s.hub.Touch(sess)
	})

	s.hub.Disconnect(sess)
	sess.Close()
	logger.Info("[HandleWS] disconnected", zap.String("user", sess.Identity()), zap.String("session", sess.ID))
}

// HandleOnline 当前在线身份列表
func (s *Server) HandleOnline(c *gin.Context) {
	users := s.hub.Registry().Identities()
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// originChecker 白名单为空时放行所有来源
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
}
