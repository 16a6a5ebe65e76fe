package chat

import (
	"net"
	"sync"
	"time"

	"PPHub/global/config"
	"PPHub/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Session 一条 websocket 连接。
// 出站帧先进缓冲队列，由唯一的写协程按序写出，保证单连接 FIFO。
type Session struct {
	ID          string
	UserID      string // 连接时传入的原始 userId
	ConnectedAt time.Time

	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession conn 可为 nil（仅队列，测试用）
func NewSession(userID string, conn *websocket.Conn, sendBuffer int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
	}
}

func (s *Session) Identity() string { return Normalize(s.UserID) }

// Emit 直接写给本连接（回执/错误），不经注册表
func (s *Session) Emit(event string, payload any) bool {
	b, err := EncodeFrame(event, payload)
	if err != nil {
		logger.Error("[Session] encode frame", zap.String("event", event), zap.Error(err))
		return false
	}
	return s.enqueue(b)
}

// enqueue 非阻塞；队列满视为慢连接，异步关闭
func (s *Session) enqueue(b []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- b:
		return true
	default:
		logger.Warn("[Session] send queue full, closing",
			zap.String("user", s.UserID), zap.String("session", s.ID))
		go s.Close() // 可能在注册表锁内被调用
		return false
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) Done() <-chan struct{} { return s.done }

// writePump 唯一写协程：队列帧 + 定时 ping；退出时关闭底层连接
func (s *Session) writePump(cfg config.WSConfig) {
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case b := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				logger.Info("[WS] write failed", zap.String("session", s.ID), zap.Error(err))
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(cfg.WriteWait))
			return
		}
	}
}

// readPump 只读不写；出错即退出。onFrame 在本协程内同步执行。
func (s *Session) readPump(cfg config.WSConfig, onFrame func([]byte), onPong func()) {
	if cfg.ReadLimit > 0 {
		s.conn.SetReadLimit(cfg.ReadLimit)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		if onPong != nil {
			onPong()
		}
		return nil
	})

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Info("[WS] peer closed", zap.String("session", s.ID))
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Info("[WS] read timeout", zap.String("session", s.ID))
			} else {
				logger.Info("[WS] read err", zap.String("session", s.ID), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		onFrame(data)
	}
}
