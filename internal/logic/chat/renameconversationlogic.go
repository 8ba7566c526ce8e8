package chat

import (
	"context"
	"errors"
	"strings"

	"prism/internal/logging"
	"prism/internal/svc"
	"prism/internal/types"
)

type RenameConversationLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Rename a conversation
func NewRenameConversationLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RenameConversationLogic {
	return &RenameConversationLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RenameConversationLogic) RenameConversation(req *types.RenameConversationRequest) (*types.RenameConversationResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.New("title required")
	}
	if len(title) > 200 {
		title = title[:200]
	}

	conv, err := ownedConversation(l.ctx, l.svcCtx, req.ConversationId)
	if err != nil {
		return nil, err
	}

	if err := l.svcCtx.DB.UpdateConversationTitle(l.ctx, conv.ID, title); err != nil {
		l.Errorf("Failed to rename conversation %s: %v", conv.ID, err)
		return nil, err
	}

	return &types.RenameConversationResponse{
		Id:    conv.ID,
		Title: title,
	}, nil
}
