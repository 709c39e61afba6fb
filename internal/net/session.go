package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sectorjam/server/internal/net/packet"
)

// SessionOptions sizes a session's queues and limits.
type SessionOptions struct {
	InQueueSize   int
	OutQueueSize  int
	PacketsPerSec int           // 0 = unlimited
	IdleTimeout   time.Duration // 0 = never; any inbound frame resets it
}

// Session is one control connection. A reader and a writer goroutine move
// frames between the socket and the queues; everything else, including
// Player and the output buffer, belongs to the game loop.
type Session struct {
	ID   uint64
	conn net.Conn
	opts SessionOptions

	state atomic.Int32 // packet.SessionState

	InQueue  chan []byte // frames for the game loop
	OutQueue chan []byte // frames for the writer

	IP     string
	Player string // alias of the bound player, empty until hello

	outBuf [][]byte

	limiter *rate.Limiter // nil when unlimited, reader only

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, opts SessionOptions, log *zap.Logger) *Session {
	s := &Session{
		ID:       id,
		conn:     conn,
		opts:     opts,
		InQueue:  make(chan []byte, opts.InQueueSize),
		OutQueue: make(chan []byte, opts.OutQueueSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
	if opts.PacketsPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.PacketsPerSec), opts.PacketsPerSec)
	}
	s.state.Store(int32(packet.StateHandshake))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Bind attaches the session to a player. Game loop only.
func (s *Session) Bind(alias string) {
	s.Player = alias
	s.SetState(packet.StateBound)
}

// Start launches the reader and the writer. The writer greets the client
// with S_READY before anything the game loop sends.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a packet until the next FlushOutput. Game loop only.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// Buffered returns the number of packets waiting for FlushOutput.
func (s *Session) Buffered() int { return len(s.outBuf) }

// FlushOutput hands the buffered packets to the writer. A client that lets
// OutQueue fill up is too slow to keep and gets disconnected.
func (s *Session) FlushOutput() {
	defer func() { s.outBuf = s.outBuf[:0] }()
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("output queue full, dropping slow client", zap.Int("queued", len(s.OutQueue)))
			s.Close()
			return
		}
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func (s *Session) readLoop() {
	defer s.Close()

	for {
		if s.opts.IdleTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
		}
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if s.limiter != nil && !s.limiter.Allow() {
			s.log.Warn("packet rate exceeded, disconnecting", zap.Int("limit", s.opts.PacketsPerSec))
			return
		}

		// Blocks rather than drops: a lost stop_* command would leave a
		// ship thrusting.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.Close()

	ready := packet.NewWriter(packet.S_OPCODE_READY)
	ready.WriteH(packet.ProtocolVersion)
	ready.WriteD(int32(s.ID))
	if !s.write(ready.Bytes()) {
		return
	}

	for {
		select {
		case data := <-s.OutQueue:
			if !s.write(data) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) write(data []byte) bool {
	s.log.Debug("TX", zap.Uint8("op", data[0]), zap.Int("len", len(data)))
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := WriteFrame(s.conn, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}
