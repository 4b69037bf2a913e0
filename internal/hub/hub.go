package hub

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/battlesnake-replay/internal/grid"
	"github.com/DoyleJ11/battlesnake-replay/internal/playback"
)

type HubMsg interface{ isHubMsg() }

// CreateMatch registers a new match under Code. Reply receives nil when the
// code is already taken.
type CreateMatch struct {
	Code      string
	Projector *grid.Projector
	Reply     chan *playback.Session
}

type GetMatch struct {
	Code  string
	Reply chan *playback.Session
}

type ListMatches struct {
	Reply chan []string
}

type RemoveMatch struct {
	Code string
}

type ShutdownHub struct{}

func (CreateMatch) isHubMsg() {}
func (GetMatch) isHubMsg()    {}
func (ListMatches) isHubMsg() {}
func (RemoveMatch) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Hub owns every loaded match, keyed by its code.
type Hub struct {
	inbox    chan HubMsg
	matches  map[string]*playback.Session
	interval time.Duration
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, interval time.Duration, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		matches:  make(map[string]*playback.Session),
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			// Sessions share our context and stop on their own.
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateMatch:
				if h.matches[msg.Code] != nil {
					msg.Reply <- nil
					break
				}
				s := playback.NewSession(h.ctx, msg.Projector, h.interval, h.log.With(zap.String("match", msg.Code)))
				h.matches[msg.Code] = s
				h.log.Info("match loaded", zap.String("match", msg.Code), zap.Int("turns", msg.Projector.Turns()))
				msg.Reply <- s

			case GetMatch:
				msg.Reply <- h.matches[msg.Code] // May be nil

			case ListMatches:
				codes := make([]string, 0, len(h.matches))
				for code := range h.matches {
					codes = append(codes, code)
				}
				slices.Sort(codes)
				msg.Reply <- codes

			case RemoveMatch:
				if s := h.matches[msg.Code]; s != nil {
					s.Send(playback.Shutdown{})
					delete(h.matches, msg.Code)
				}

			case ShutdownHub:
				for _, s := range h.matches {
					s.Send(playback.Shutdown{})
				}
				clear(h.matches)
				h.cancel()
			}
		}
	}
}

// Create is CreateMatch as a call. It returns nil if the code is taken or
// the hub or ctx is done.
func (h *Hub) Create(ctx context.Context, code string, p *grid.Projector) *playback.Session {
	reply := make(chan *playback.Session, 1)
	return call(ctx, h, CreateMatch{Code: code, Projector: p, Reply: reply}, reply)
}

func (h *Hub) Get(ctx context.Context, code string) *playback.Session {
	reply := make(chan *playback.Session, 1)
	return call(ctx, h, GetMatch{Code: code, Reply: reply}, reply)
}

func (h *Hub) List(ctx context.Context) []string {
	reply := make(chan []string, 1)
	return call(ctx, h, ListMatches{Reply: reply}, reply)
}

func call[T any](ctx context.Context, h *Hub, msg HubMsg, reply <-chan T) T {
	var zero T
	select {
	case h.inbox <- msg:
	case <-ctx.Done():
		return zero
	case <-h.ctx.Done():
		return zero
	}
	select {
	case v := <-reply:
		return v
	case <-ctx.Done():
		return zero
	case <-h.ctx.Done():
		return zero
	}
}
