package playback

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/battlesnake-replay/internal/grid"
)

type Msg interface{ isPlaybackMsg() }

// Join registers a viewer. Outbox must be buffered since the current frame
// is sent on it right away. The session closes Outbox on Leave, when the
// viewer falls behind, and on shutdown.
type Join struct {
	ClientID string
	Outbox   chan Update
}

func (Join) isPlaybackMsg() {}

type Leave struct{ ClientID string }

func (Leave) isPlaybackMsg() {}

// Seek moves the shared cursor to Turn. Reply, if set, receives nil or the
// render error; it should be buffered.
type Seek struct {
	Turn  int
	Reply chan error
}

func (Seek) isPlaybackMsg() {}

type Step struct {
	Delta int
	Reply chan error
}

func (Step) isPlaybackMsg() {}

// Play advances one turn per Interval until the last turn. A zero Interval
// uses the session default.
type Play struct{ Interval time.Duration }

func (Play) isPlaybackMsg() {}

type Pause struct{}

func (Pause) isPlaybackMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isPlaybackMsg() {}

type Shutdown struct{}

func (Shutdown) isPlaybackMsg() {}

type timerFired struct{ gen int }

func (timerFired) isPlaybackMsg() {}

// Update is broadcast whenever the cursor moves. Err is set instead of Frame
// when autoplay stops on a turn that cannot be rendered.
type Update struct {
	Version int
	Frame   grid.Frame
	Err     error
}

type View struct {
	Version    int
	Turn       int
	Playing    bool
	NumClients int
}

// Session is a shared playback cursor over one match. All viewers joined to
// a session see the same turn.
type Session struct {
	inbox     chan Msg
	projector *grid.Projector
	log       *zap.Logger

	turn     int
	version  int
	clients  map[string]chan Update
	interval time.Duration
	playing  bool
	timer    *time.Timer
	timerGen int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSession(parent context.Context, p *grid.Projector, interval time.Duration, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		inbox:     make(chan Msg, 64),
		projector: p,
		log:       log,
		clients:   make(map[string]chan Update),
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}

	go s.loop()
	return s
}

// Projector is immutable and may be used directly for stateless renders.
func (s *Session) Projector() *grid.Projector { return s.projector }

// Send delivers msg unless the session has shut down.
func (s *Session) Send(msg Msg) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case s.inbox <- msg:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				frame, err := s.projector.Render(s.turn)
				s.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Update{Version: s.version, Frame: frame, Err: err}

			case Leave:
				if ch, ok := s.clients[msg.ClientID]; ok {
					close(ch)
					delete(s.clients, msg.ClientID)
				}

			case Seek:
				reply(msg.Reply, s.moveTo(msg.Turn))
				s.stopAtEnd()

			case Step:
				reply(msg.Reply, s.moveTo(s.turn+msg.Delta))
				s.stopAtEnd()

			case Play:
				if msg.Interval > 0 {
					s.interval = msg.Interval
				}
				if s.turn >= s.projector.Turns()-1 {
					break
				}
				s.playing = true
				s.arm()

			case Pause:
				s.stop()

			case timerFired:
				if msg.gen != s.timerGen || !s.playing {
					break // stale
				}
				if s.stopAtEnd() {
					break
				}
				if err := s.moveTo(s.turn + 1); err != nil {
					s.log.Warn("autoplay stopped", zap.Int("turn", s.turn+1), zap.Error(err))
					s.stop()
					s.broadcast(Update{Version: s.version, Err: err})
					break
				}
				if !s.stopAtEnd() {
					s.arm()
				}

			case GetState:
				msg.Reply <- View{
					Version:    s.version,
					Turn:       s.turn,
					Playing:    s.playing,
					NumClients: len(s.clients),
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

// moveTo renders turn and, only if that succeeds, makes it current.
func (s *Session) moveTo(turn int) error {
	frame, err := s.projector.Render(turn)
	if err != nil {
		return err
	}
	s.turn = turn
	s.version++
	s.broadcast(Update{Version: s.version, Frame: frame})
	return nil
}

func (s *Session) arm() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(s.interval, func() {
		select {
		case s.inbox <- timerFired{gen: gen}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) stop() {
	s.playing = false
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// stopAtEnd pauses autoplay once the cursor sits on the last turn.
func (s *Session) stopAtEnd() bool {
	if s.turn < s.projector.Turns()-1 {
		return false
	}
	s.stop()
	return true
}

func (s *Session) shutdown() {
	s.stop()
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(up Update) {
	for id, ch := range s.clients {
		select {
		case ch <- up:
		default:
			// Slow viewer; drop it rather than stall playback.
			s.log.Debug("dropping slow client", zap.String("client_id", id))
			close(ch)
			delete(s.clients, id)
		}
	}
}

func reply(ch chan error, err error) {
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}
