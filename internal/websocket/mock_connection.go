package websocket

import (
	"errors"
	"sync"
	"time"
)

// ErrMockClosed is returned by a closed MockConnection.
var ErrMockClosed = errors.New("connection closed")

// MockConnection is an in-memory Connection for tests. Reads block until
// a message is queued with Push or the connection is closed.
type MockConnection struct {
	mu            sync.Mutex
	written       []MockMessage
	incoming      chan MockMessage
	closed        bool
	done          chan struct{}
	WriteErr      error
	RemoteAddress string
	ReadLimit     int64
}

// MockMessage is one frame seen by a MockConnection.
type MockMessage struct {
	Type int
	Data []byte
}

// NewMockConnection creates an open mock connection.
func NewMockConnection() *MockConnection {
	return &MockConnection{
		incoming:      make(chan MockMessage, 16),
		done:          make(chan struct{}),
		RemoteAddress: "127.0.0.1:54321",
	}
}

// Push queues a frame for ReadMessage.
func (m *MockConnection) Push(messageType int, data []byte) {
	m.incoming <- MockMessage{Type: messageType, Data: data}
}

// Written returns the frames written so far.
func (m *MockConnection) Written() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockMessage(nil), m.written...)
}

// IsClosed reports whether Close was called.
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// WriteMessage implements Connection.
func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMockClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.written = append(m.written, MockMessage{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

// ReadMessage implements Connection.
func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-m.incoming:
		return msg.Type, msg.Data, nil
	case <-m.done:
		return 0, nil, ErrMockClosed
	}
}

// Close implements Connection.
func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// SetReadDeadline implements Connection.
func (m *MockConnection) SetReadDeadline(time.Time) error { return nil }

// SetWriteDeadline implements Connection.
func (m *MockConnection) SetWriteDeadline(time.Time) error { return nil }

// SetReadLimit implements Connection.
func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	m.ReadLimit = limit
	m.mu.Unlock()
}

// SetPongHandler implements Connection.
func (m *MockConnection) SetPongHandler(func(string) error) {}

// RemoteAddr implements Connection.
func (m *MockConnection) RemoteAddr() string { return m.RemoteAddress }
