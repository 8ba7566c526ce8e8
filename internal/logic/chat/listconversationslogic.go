package chat

import (
	"context"
	"time"

	"prism/internal/db"
	"prism/internal/logging"
	"prism/internal/middleware"
	"prism/internal/svc"
	"prism/internal/types"
)

type ListConversationsLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// List the caller's conversations, starred first
func NewListConversationsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListConversationsLogic {
	return &ListConversationsLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListConversationsLogic) ListConversations() (*types.ListConversationsResponse, error) {
	userID := middleware.GetUserID(l.ctx)
	convs, err := l.svcCtx.DB.ListConversations(l.ctx, userID)
	if err != nil {
		l.Errorf("Failed to list conversations: %v", err)
		return nil, err
	}

	resp := &types.ListConversationsResponse{
		Conversations: make([]types.Conversation, 0, len(convs)),
	}
	for _, c := range convs {
		resp.Conversations = append(resp.Conversations, toAPIConversation(c))
	}
	return resp, nil
}

func toAPIConversation(c db.Conversation) types.Conversation {
	return types.Conversation{
		Id:        c.ID,
		Title:     c.Title,
		Starred:   c.Starred,
		ModelName: c.ModelName,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toAPIMessage(m db.Message) types.Message {
	return types.Message{
		Id:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}
