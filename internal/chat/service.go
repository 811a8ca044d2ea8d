package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Greeting opens every conversation, matching the portal's welcome message.
const Greeting = "Hello! How can I help you today?"

const respondTimeout = 30 * time.Second

type conversation struct {
	mu       sync.Mutex
	nextID   int
	messages []Message
}

func newConversation() *conversation {
	c := &conversation{nextID: 1}
	c.append(FromAssistant, Greeting)
	return c
}

// append must be called with c.mu held except from newConversation.
func (c *conversation) append(sender Sender, text string) Message {
	m := Message{ID: c.nextID, Sender: sender, Text: text, SentAt: time.Now()}
	c.nextID++
	c.messages = append(c.messages, m)
	return m
}

// Service keeps one ordered, process-local conversation per identity. Nothing
// is persisted; a restart starts every conversation over.
type Service struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*conversation

	assistant Assistant // nil when no collaborator is configured
	logger    *zap.Logger
}

func NewService(assistant Assistant, logger *zap.Logger) *Service {
	return &Service{
		conversations: make(map[uuid.UUID]*conversation),
		assistant:     assistant,
		logger:        logger,
	}
}

func (s *Service) conversationFor(identityID uuid.UUID) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[identityID]
	if !ok {
		c = newConversation()
		s.conversations[identityID] = c
	}
	return c
}

// History returns a snapshot of the conversation in order.
func (s *Service) History(identityID uuid.UUID) []Message {
	c := s.conversationFor(identityID)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Send appends a user message. Blank input is a no-op and returns false. When
// an assistant is configured its reply is requested in the background and
// appended once it resolves; a failed reply is logged and dropped, never
// retried.
func (s *Service) Send(ctx context.Context, identityID uuid.UUID, text string) (Message, bool) {
	if strings.TrimSpace(text) == "" {
		return Message{}, false
	}

	c := s.conversationFor(identityID)
	c.mu.Lock()
	m := c.append(FromUser, text)
	history := make([]Message, len(c.messages))
	copy(history, c.messages)
	c.mu.Unlock()

	if s.assistant != nil {
		// Detached from the request context: the conversation outlives the
		// HTTP request that triggered the reply.
		go s.requestReply(c, history)
	}
	return m, true
}

func (s *Service) requestReply(c *conversation, history []Message) {
	ctx, cancel := context.WithTimeout(context.Background(), respondTimeout)
	defer cancel()

	reply, err := s.assistant.Respond(ctx, history)
	if err != nil {
		s.logger.Warn("assistant reply failed", zap.Error(err))
		return
	}
	if reply == "" {
		return
	}
	c.mu.Lock()
	c.append(FromAssistant, reply)
	c.mu.Unlock()
}
