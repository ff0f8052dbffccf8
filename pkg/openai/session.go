package openai

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
)

// SessionState is the lifecycle state of a Session.
type SessionState string

const (
	StateIdle          SessionState = "Idle"
	StateAwaitingReply SessionState = "AwaitingReply"
)

type sessionTrigger string

const (
	triggerSend          sessionTrigger = "Send"
	triggerReplyReceived sessionTrigger = "ReplyReceived"
	triggerSendFailed    sessionTrigger = "SendFailed"
)

// Session is a single chat conversation. It owns the transcript that is sent
// in full on every turn.
//
// Send, Bootstrap, Push and Reset serialize on a session lock, so a session
// may be shared, but turns are strictly sequential. A failed Send leaves the
// user message in the transcript and appends nothing else.
type Session struct {
	// Params are sent with every turn. Change them only between turns.
	Params ChatParams

	model    string
	ep       endpoint
	recorder Recorder

	mu       sync.Mutex
	id       string
	messages []Message
	fsm      *stateless.StateMachine
}

func newSession(model string, ep endpoint, recorder Recorder) *Session {
	s := &Session{
		model:    model,
		ep:       ep,
		recorder: recorder,
		id:       uuid.NewString(),
		fsm:      stateless.NewStateMachine(StateIdle),
	}
	s.fsm.Configure(StateIdle).
		Permit(triggerSend, StateAwaitingReply)
	s.fsm.Configure(StateAwaitingReply).
		Permit(triggerReplyReceived, StateIdle).
		Permit(triggerSendFailed, StateIdle)
	return s
}

// ID identifies the conversation towards the Recorder.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Model returns the model the session talks to.
func (s *Session) Model() string { return s.model }

// State reports whether a turn is in flight.
func (s *Session) State() SessionState {
	return s.fsm.MustState().(SessionState)
}

// History returns a copy of the transcript.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Bootstrap appends messages with roles assigned by AssignRoles. On an empty
// session the first one becomes the system prompt.
func (s *Session) Bootstrap(messages ...string) {
	if len(messages) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	roles := AssignRoles(len(s.messages), len(messages))
	batch := make([]Message, len(messages))
	for i, content := range messages {
		batch[i] = Message{Role: roles[i], Content: content}
	}
	s.append(context.Background(), batch...)
}

// Instructions is an alias of Bootstrap.
func (s *Session) Instructions(messages ...string) { s.Bootstrap(messages...) }

// Push appends messages as given, without role bookkeeping.
func (s *Session) Push(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(context.Background(), msgs...)
}

// Reset empties the transcript and starts a new conversation id.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.id = uuid.NewString()
}

// Send appends message as a user turn, submits the transcript and returns the
// trimmed content of the reply, which is appended as well.
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	resp, err := s.SendMessage(ctx, message)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// SendMessage is Send returning the whole response envelope. Only the first
// choice is appended to the transcript.
func (s *Session) SendMessage(ctx context.Context, message string) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.append(ctx, Message{Role: RoleUser, Content: message})
	s.transition(triggerSend)

	req := chatRequest{
		Model:      s.model,
		Messages:   s.messages,
		ChatParams: s.Params,
	}
	s.ep.log.Debug("sending chat turn", "session", s.id, "model", s.model, "messages", len(s.messages))

	var resp ChatResponse
	err := s.ep.post(ctx, "chat", "chat/completions", req, &resp)
	if err == nil && len(resp.Choices) == 0 {
		err = &Error{Op: "chat", Kind: ErrEmptyChoices}
	}
	if err != nil {
		s.transition(triggerSendFailed)
		return nil, err
	}

	s.append(ctx, resp.Choices[0].Message)
	s.transition(triggerReplyReceived)
	return &resp, nil
}

// append must be called with s.mu held.
func (s *Session) append(ctx context.Context, msgs ...Message) {
	s.messages = append(s.messages, msgs...)
	if s.recorder == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, m := range msgs {
		if err := s.recorder.Record(ctx, s.id, m); err != nil {
			s.ep.log.Warn("failed to record message", "session", s.id, "role", m.Role, "error", err)
		}
	}
}

func (s *Session) transition(trigger sessionTrigger) {
	if err := s.fsm.Fire(trigger); err != nil {
		s.ep.log.Warn("session FSM fire error", "trigger", trigger, "error", err)
	}
}
