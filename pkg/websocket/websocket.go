package websocketPkg

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/env"
)

const DefaultPoolSize = 4

// IWebsocket is the client for the remote face and eye detection service.
type IWebsocket interface {
	DetectFace(frame []byte) (*entity.FaceDetectionResult, error)
	IsConnected() bool
	Reconnect() error
	CloseConnections()
}

type detectorResponse struct {
	FaceDetected bool    `json:"face_detected"`
	EyesDetected bool    `json:"eyes_detected"`
	Confidence   float64 `json:"confidence"`
	Error        string  `json:"error,omitempty"`
}

// webSocketClient keeps a fixed pool of connections. The service answers
// frames strictly in order on each connection, so a connection carries one
// frame at a time and a slow frame only holds up its own slot.
type webSocketClient struct {
	url string
	log *logrus.Logger

	slots []*detectorConn
	free  chan *detectorConn

	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

type detectorConn struct {
	id     int
	client *webSocketClient

	mu   sync.Mutex
	conn *websocket.Conn
}

// New dials AI_FACE_DETECTION_URL in the background with
// AI_FACE_DETECTION_POOL_SIZE connections. Frames sent before a connection
// is up trigger a synchronous reconnect of that slot.
func New(log *logrus.Logger) IWebsocket {
	url := os.Getenv("AI_FACE_DETECTION_URL")
	if url == "" {
		url = "ws://localhost:8000/api/v1/face/ws"
	}

	client := NewFaceDetectionClient(url, env.GetEnvAsInt("AI_FACE_DETECTION_POOL_SIZE", DefaultPoolSize), log)
	go client.connectInBackground()

	return client
}

func NewFaceDetectionClient(url string, poolSize int, log *logrus.Logger) *webSocketClient {
	if poolSize < 1 {
		poolSize = 1
	}

	c := &webSocketClient{
		url:          url,
		log:          log,
		free:         make(chan *detectorConn, poolSize),
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}
	for i := 0; i < poolSize; i++ {
		slot := &detectorConn{id: i, client: c}
		c.slots = append(c.slots, slot)
		c.free <- slot
	}
	return c
}

func (c *webSocketClient) connectInBackground() {
	if err := c.Reconnect(); err != nil {
		c.log.WithFields(logrus.Fields{
			"url":   c.url,
			"error": err.Error(),
		}).Warn("Initial connection to face detection service failed, will retry on demand")
		return
	}
	c.log.WithFields(logrus.Fields{
		"url":       c.url,
		"pool_size": len(c.slots),
	}).Info("Connected to face detection service")
}

// IsConnected reports whether at least one slot holds a live connection.
func (c *webSocketClient) IsConnected() bool {
	for _, slot := range c.slots {
		if slot.connected() {
			return true
		}
	}
	return false
}

// Reconnect redials every slot and returns the joined dial errors.
func (c *webSocketClient) Reconnect() error {
	var errs []error
	for _, slot := range c.slots {
		if err := slot.reconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *webSocketClient) CloseConnections() {
	for _, slot := range c.slots {
		slot.close()
	}
}

// DetectFace sends one encoded frame on the next free connection and waits
// for the verdict.
func (c *webSocketClient) DetectFace(frame []byte) (*entity.FaceDetectionResult, error) {
	slot := <-c.free
	defer func() { c.free <- slot }()

	return slot.detect(frame)
}

func (s *detectorConn) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *detectorConn) reconnect() error {
	c := s.client

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	if c.url == "" {
		return fmt.Errorf("face detection URL not configured")
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.WithField("error", err.Error()).Warn("Error sending pong to face detection service")
		}
		return nil
	})

	s.conn = conn
	go s.keepAlive(conn)

	return nil
}

func (s *detectorConn) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// keepAlive pings conn until it is replaced, closed, or a ping fails.
func (s *detectorConn) keepAlive(conn *websocket.Conn) {
	c := s.client
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		if s.conn != conn {
			s.mu.Unlock()
			return
		}

		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout)); err != nil {
			c.log.WithFields(logrus.Fields{
				"slot":  s.id,
				"error": err.Error(),
			}).Warn("Ping to face detection service failed, marking connection as dead")
			s.conn = nil
			conn.Close()
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

func (s *detectorConn) getConnection() (*websocket.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, fmt.Errorf("not connected to face detection service")
	}
	return s.conn, nil
}

// drop forgets conn if it is still the slot's connection.
func (s *detectorConn) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == conn {
		s.conn = nil
	}
	conn.Close()
}

func (s *detectorConn) detect(frame []byte) (*entity.FaceDetectionResult, error) {
	c := s.client

	conn, err := s.getConnection()
	if err != nil {
		if err := s.reconnect(); err != nil {
			return nil, fmt.Errorf("cannot connect to face detection service: %w", err)
		}
		if conn, err = s.getConnection(); err != nil {
			return nil, err
		}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		s.drop(conn)
		return nil, fmt.Errorf("error sending face frame: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		s.drop(conn)
		return nil, fmt.Errorf("error reading face detection response: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	var resp detectorResponse
	if err := jsoniter.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling face detection response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("face detection service: %s", resp.Error)
	}

	c.log.WithFields(logrus.Fields{
		"slot":          s.id,
		"frame_bytes":   len(frame),
		"face_detected": resp.FaceDetected,
		"eyes_detected": resp.EyesDetected,
		"confidence":    resp.Confidence,
	}).Debug("Face detection result")

	return &entity.FaceDetectionResult{
		FaceDetected: resp.FaceDetected,
		EyesDetected: resp.EyesDetected,
		Confidence:   resp.Confidence,
	}, nil
}
