package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"medilens/internal/format"
	"medilens/internal/model"
	"medilens/internal/webhook"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageEmpty    = errors.New("message content is empty")
	ErrInvalidContext  = errors.New("unknown session context")
)

// SessionStore and MessageStore are implemented by the gorm repositories;
// tests substitute in-memory fakes.
type SessionStore interface {
	Create(session *model.Session) error
	ListByUserID(userID uint) ([]model.Session, error)
	GetByIDAndUserID(sessionID, userID uint) (*model.Session, error)
	Touch(sessionID uint) error
	DeleteByIDAndUserID(sessionID, userID uint) error
}

type MessageStore interface {
	ListBySessionID(sessionID uint, limit int) ([]model.Message, error)
	DeleteBySessionID(sessionID uint) error
}

// AsyncMessagePublisher enqueues messages for durable persistence. Publish
// failures are logged and the chat flow continues.
type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// AssistantClient is the outbound webhook; implemented by webhook.Client.
type AssistantClient interface {
	Configured() bool
	Send(ctx context.Context, p webhook.Payload) ([]byte, error)
}

type ChatService struct {
	sessions     SessionStore
	messages     MessageStore
	users        UserStore
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	assistant    AssistantClient
	logger       *zap.Logger
}

func NewChatService(
	sessions SessionStore,
	messages MessageStore,
	users UserStore,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	assistant AssistantClient,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		sessions:     sessions,
		messages:     messages,
		users:        users,
		publisher:    publisher,
		historyCache: historyCache,
		assistant:    assistant,
		logger:       logger,
	}
}

type CreateSessionInput struct {
	UserID  uint
	Title   string
	Context string
}

func (s *ChatService) CreateSession(input CreateSessionInput) (*model.Session, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	if !model.ValidContext(input.Context) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContext, input.Context)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultTitle(input.Context)
	}

	session := &model.Session{
		UserID:  input.UserID,
		Title:   title,
		Context: input.Context,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func defaultTitle(context string) string {
	switch context {
	case model.ContextUpload:
		return "Prescription Upload"
	case model.ContextMedicineSearch:
		return "Medicine Search"
	default:
		return "New Conversation"
	}
}

func (s *ChatService) ListSessions(userID uint) ([]model.Session, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessions.ListByUserID(userID)
}

func (s *ChatService) DeleteSession(userID, sessionID uint) error {
	if userID == 0 || sessionID == 0 {
		return ErrInvalidInput
	}
	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if err := s.messages.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessions.DeleteByIDAndUserID(sessionID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(context.Background(), sessionID)
	}
	return nil
}

type SendMessageInput struct {
	UserID    uint
	SessionID uint
	// Content is the typed message. ExtractedText, when present, takes
	// priority and Content is ignored; the two never combine.
	Content       string
	ExtractedText string
}

type SendMessageResult struct {
	UserMessage model.Message `json:"user_message"`
	BotMessage  model.Message `json:"bot_message"`
}

// SendMessage runs one exchange: persist the user's message, call the
// assistant, persist the reply. Every assistant failure is converted into a
// bot-authored error message; the only errors returned are input problems,
// so a failed exchange still leaves the session ready for the next send.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	if input.UserID == 0 || input.SessionID == 0 {
		return nil, ErrInvalidInput
	}

	content := strings.TrimSpace(input.Content)
	attachmentType := model.AttachmentText
	if extracted := strings.TrimSpace(input.ExtractedText); extracted != "" {
		content = extracted
		attachmentType = model.AttachmentFile
	}
	if content == "" {
		return nil, ErrMessageEmpty
	}

	session, err := s.sessions.GetByIDAndUserID(input.SessionID, input.UserID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	user, err := s.users.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidInput
	}

	userMessage := model.Message{
		SessionID:      session.ID,
		UserID:         user.ID,
		Role:           model.RoleUser,
		Content:        content,
		AttachmentType: attachmentType,
		CreatedAt:      time.Now(),
	}
	s.persist(ctx, userMessage)

	botMessage := model.Message{
		SessionID:      session.ID,
		UserID:         user.ID,
		Role:           model.RoleBot,
		Content:        s.askAssistant(ctx, session, user, content),
		AttachmentType: model.AttachmentText,
		CreatedAt:      time.Now(),
	}
	s.persist(ctx, botMessage)

	if err := s.sessions.Touch(session.ID); err != nil {
		s.logger.Warn("bump session failed", zap.Uint("session_id", session.ID), zap.Error(err))
	}

	return &SendMessageResult{
		UserMessage: userMessage,
		BotMessage:  botMessage,
	}, nil
}

// persist enqueues a message for the persist worker and invalidates the
// cached transcript. Best-effort: a failure is logged and the exchange
// continues.
func (s *ChatService) persist(ctx context.Context, msg model.Message) {
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, msg.SessionID)
		_ = s.historyCache.DeleteHistory(ctx, msg.SessionID)
	}
	if s.publisher == nil {
		s.logger.Warn("no message publisher configured; message not persisted",
			zap.Uint("session_id", msg.SessionID))
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn("publish message for persistence failed",
			zap.Uint("session_id", msg.SessionID), zap.Error(err))
	}
}

// askAssistant calls the webhook and always returns display text: the
// formatted reply on success, a phrased error bubble on any failure.
func (s *ChatService) askAssistant(ctx context.Context, session *model.Session, user *model.User, content string) string {
	if s.assistant == nil || !s.assistant.Configured() {
		return "The AI assistant is not configured yet. Ask your administrator to set the webhook URL."
	}

	raw, err := s.assistant.Send(ctx, webhook.Payload{
		Message:   content,
		Context:   session.Context,
		SessionID: strconv.FormatUint(uint64(session.ID), 10),
		UserEmail: user.Email,
		UserName:  user.Name(),
	})
	if err != nil {
		s.logger.Warn("assistant call failed",
			zap.Uint("session_id", session.ID), zap.Error(err))
		return assistantErrorReply(err)
	}

	reply := format.FromBody(raw)
	if strings.TrimSpace(reply) == "" {
		return "The assistant returned an empty response. Please try again."
	}
	return reply
}

func assistantErrorReply(err error) string {
	var statusErr *webhook.StatusError
	switch {
	case errors.Is(err, webhook.ErrTimeout):
		return "The assistant took too long to respond. Please try sending your message again."
	case errors.Is(err, webhook.ErrUnreachable):
		return "The assistant could not be reached. Check your connection and try again."
	case errors.Is(err, webhook.ErrNotConfigured):
		return "The AI assistant is not configured yet. Ask your administrator to set the webhook URL."
	case errors.As(err, &statusErr):
		switch statusErr.StatusCode {
		case http.StatusNotFound:
			return "The assistant endpoint was not found (404). The workflow may be unpublished or the URL may be wrong."
		case http.StatusInternalServerError:
			return "The assistant ran into an internal error (500). Please try again in a moment."
		case http.StatusForbidden:
			return "Access to the assistant was denied (403). The endpoint may require different credentials."
		default:
			return fmt.Sprintf("The assistant returned an unexpected status (%d). Please try again.", statusErr.StatusCode)
		}
	default:
		return "Something went wrong while contacting the assistant. Please try again."
	}
}

// GetHistory replays the stored transcript, serving from the cache when it
// is present and not dirty.
func (s *ChatService) GetHistory(userID, sessionID uint, limit int) ([]model.Message, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	ctx := context.Background()
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messages.ListBySessionID(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
