package core

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mindchat/mindchat/internal/backend"
	"github.com/mindchat/mindchat/internal/config"
	"github.com/mindchat/mindchat/internal/models"
)

// User-facing texts for failed submissions. Backend error details are logged, never shown.
const (
	MsgConnectionError = "I'm having trouble connecting right now. Please check your connection and try again."
	MsgNotReady        = "I'm still getting ready. Please wait a moment and try again."
	MsgGenericFailure  = "Sorry, something went wrong while processing your message. Please try again."
)

// ChatBackend sends the conversation to the remote chat endpoint.
type ChatBackend interface {
	Chat(ctx context.Context, turns []models.Turn) (*backend.ChatReply, error)
}

// ReadinessGate decides whether submissions are currently allowed.
type ReadinessGate interface {
	Ready() bool
	MarkNotReady()
}

type SessionOptions struct {
	Greeting       string
	RollbackPolicy string
	// Gate is optional; without it the backend is treated as always ready.
	Gate ReadinessGate
}

// Submission is one accepted request, created by Begin and settled by Finish.
type Submission struct {
	Generation uint64
	Turn       models.Turn
	Messages   []models.Turn
	ctx        context.Context
}

func (s *Submission) Context() context.Context {
	return s.ctx
}

// ChatSession is the submission state machine: Idle -> Submitting -> Settled/Failed.
type ChatSession struct {
	mu         sync.Mutex
	store      *MessageStore
	backend    ChatBackend
	gate       ReadinessGate
	greeting   string
	rollback   bool
	locked     bool
	crisis     bool
	alert      string
	accepted   uint64
	generation uint64
	cancel     context.CancelFunc
	listeners  []func(models.SessionSnapshot)
}

func NewChatSession(chat ChatBackend, opts SessionOptions) *ChatSession {
	greeting := opts.Greeting
	if strings.TrimSpace(greeting) == "" {
		greeting = config.DefaultGreeting
	}
	return &ChatSession{
		store:    NewMessageStore(models.Greeting(greeting)),
		backend:  chat,
		gate:     opts.Gate,
		greeting: greeting,
		rollback: opts.RollbackPolicy == config.RollbackRemove,
	}
}

// OnChange registers a listener that receives a snapshot after every state change.
func (s *ChatSession) OnChange(fn func(models.SessionSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Begin applies the submission guard and, when it passes, takes the lock and
// appends the user turn. A rejected attempt changes nothing.
func (s *ChatSession) Begin(ctx context.Context, input string) (*Submission, bool) {
	text := strings.TrimSpace(input)
	if text == "" {
		return nil, false
	}
	// Ask the gate before taking our own lock; the gate has listeners of its own.
	if s.gate != nil && !s.gate.Ready() {
		log.Debug().Msg("Submission rejected: backend not ready")
		return nil, false
	}

	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		log.Debug().Msg("Submission rejected: request already in flight")
		return nil, false
	}

	s.locked = true
	s.alert = ""
	s.accepted++
	turn := models.NewUserTurn(text)
	s.store.Append(turn)

	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	sub := &Submission{
		Generation: s.generation,
		Turn:       turn,
		Messages:   s.store.Turns(),
		ctx:        reqCtx,
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Info().Str("turn_id", turn.ID).Uint64("generation", sub.Generation).Msg("Submitting message")
	s.notify(snap)
	return sub, true
}

// Complete dispatches an accepted submission and settles it.
func (s *ChatSession) Complete(sub *Submission) {
	reply, err := s.dispatch(sub)
	s.Finish(sub, reply, err)
}

// Submit runs the whole protocol synchronously. It reports whether the
// attempt passed the guard.
func (s *ChatSession) Submit(ctx context.Context, input string) bool {
	sub, ok := s.Begin(ctx, input)
	if !ok {
		return false
	}
	s.Complete(sub)
	return true
}

func (s *ChatSession) dispatch(sub *Submission) (reply *backend.ChatReply, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply = nil
			err = errors.Errorf("chat backend panicked: %v", r)
		}
	}()
	return s.backend.Chat(sub.ctx, sub.Messages)
}

// Finish interprets the outcome of a submission. The lock is released on
// every path, including a panic during interpretation. Results from a session
// generation that was reset in the meantime are dropped.
func (s *ChatSession) Finish(sub *Submission, reply *backend.ChatReply, err error) {
	s.mu.Lock()
	if sub.Generation != s.generation {
		s.mu.Unlock()
		log.Info().Uint64("generation", sub.Generation).Msg("Discarding response from a previous chat")
		return
	}

	markNotReady := false
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Failed to interpret chat response")
			s.failLocked(sub)
		}
		s.locked = false
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		snap := s.snapshotLocked()
		s.mu.Unlock()

		if markNotReady && s.gate != nil {
			s.gate.MarkNotReady()
		}
		s.notify(snap)
	}()

	markNotReady = s.interpretLocked(sub, reply, err)
}

// interpretLocked applies the response cases in priority order and reports
// whether the backend said it is not ready.
func (s *ChatSession) interpretLocked(sub *Submission, reply *backend.ChatReply, err error) bool {
	switch {
	case err != nil && backend.IsTransport(err):
		log.Warn().Err(err).Str("turn_id", sub.Turn.ID).Msg("Chat request did not complete")
		if s.rollback {
			s.rollbackLocked(sub)
			s.alert = MsgConnectionError
		} else {
			s.store.Append(models.NewNoticeTurn(MsgConnectionError))
		}
		return false
	case err != nil && backend.IsNotReady(err):
		log.Warn().Err(err).Msg("Chat rejected: backend not ready")
		s.store.Append(models.NewNoticeTurn(MsgNotReady))
		return true
	case err != nil:
		log.Warn().Err(err).Str("turn_id", sub.Turn.ID).Msg("Chat request failed")
		s.failLocked(sub)
		return false
	case reply == nil:
		log.Warn().Str("turn_id", sub.Turn.ID).Msg("Chat backend returned no reply")
		s.failLocked(sub)
		return false
	}

	turn := models.NewAssistantTurn(reply.Response)
	s.store.Append(turn)
	if reply.Crisis {
		log.Warn().Str("turn_id", turn.ID).Msg("Crisis flag raised; showing support resources")
		s.crisis = true
	}
	return false
}

func (s *ChatSession) failLocked(sub *Submission) {
	if s.rollback {
		s.rollbackLocked(sub)
		s.alert = MsgGenericFailure
		return
	}
	s.store.Append(models.NewNoticeTurn(MsgGenericFailure))
}

func (s *ChatSession) rollbackLocked(sub *Submission) {
	if last, ok := s.store.Last(); ok && last.ID == sub.Turn.ID {
		s.store.RollbackLast()
	}
}

// NewChat resets the conversation to the greeting. Readiness is left alone.
func (s *ChatSession) NewChat() {
	s.mu.Lock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.locked = false
	s.crisis = false
	s.alert = ""
	s.store.Reset([]models.Turn{models.Greeting(s.greeting)})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Info().Uint64("generation", snap.Generation).Msg("Started new chat")
	s.notify(snap)
}

func (s *ChatSession) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChatSession) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

func (s *ChatSession) Turns() []models.Turn {
	return s.store.Turns()
}

func (s *ChatSession) snapshotLocked() models.SessionSnapshot {
	return models.SessionSnapshot{
		Turns:      s.store.Turns(),
		Locked:     s.locked,
		Crisis:     s.crisis,
		Alert:      s.alert,
		Accepted:   s.accepted,
		Generation: s.generation,
	}
}

func (s *ChatSession) notify(snap models.SessionSnapshot) {
	s.mu.Lock()
	listeners := append([]func(models.SessionSnapshot){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}
