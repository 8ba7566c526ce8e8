package chat

import (
	"context"
	"errors"

	"prism/internal/db"
	"prism/internal/logging"
	"prism/internal/middleware"
	"prism/internal/svc"
	"prism/internal/types"
)

// ErrConversationNotFound is returned when the conversation does not
// exist or belongs to another user.
var ErrConversationNotFound = errors.New("conversation not found")

type GetConversationLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Get a conversation with its full message history
func NewGetConversationLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetConversationLogic {
	return &GetConversationLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetConversationLogic) GetConversation(req *types.GetConversationRequest) (*types.GetConversationResponse, error) {
	conv, err := ownedConversation(l.ctx, l.svcCtx, req.ConversationId)
	if err != nil {
		return nil, err
	}

	msgs, err := l.svcCtx.DB.ListMessages(l.ctx, conv.ID)
	if err != nil {
		l.Errorf("Failed to load messages for %s: %v", conv.ID, err)
		return nil, err
	}

	resp := &types.GetConversationResponse{
		Conversation: toAPIConversation(conv),
		Messages:     make([]types.Message, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toAPIMessage(m))
	}
	return resp, nil
}

// ownedConversation loads a conversation and verifies it belongs to the
// caller. Another user's conversation reads as not found.
func ownedConversation(ctx context.Context, svcCtx *svc.ServiceContext, id string) (db.Conversation, error) {
	conv, err := svcCtx.DB.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return db.Conversation{}, ErrConversationNotFound
		}
		return db.Conversation{}, err
	}
	if conv.UserID != middleware.GetUserID(ctx) {
		return db.Conversation{}, ErrConversationNotFound
	}
	return conv, nil
}
