package chat

import (
	"context"

	"prism/internal/logging"
	"prism/internal/svc"
	"prism/internal/types"
)

type StarConversationLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Star or unstar a conversation
func NewStarConversationLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StarConversationLogic {
	return &StarConversationLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *StarConversationLogic) StarConversation(req *types.StarConversationRequest) (*types.StarConversationResponse, error) {
	conv, err := ownedConversation(l.ctx, l.svcCtx, req.ConversationId)
	if err != nil {
		return nil, err
	}

	if err := l.svcCtx.DB.SetConversationStarred(l.ctx, conv.ID, req.Starred); err != nil {
		l.Errorf("Failed to star conversation %s: %v", conv.ID, err)
		return nil, err
	}

	return &types.StarConversationResponse{
		Id:      conv.ID,
		Starred: req.Starred,
	}, nil
}
