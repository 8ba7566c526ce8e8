package chat

import (
	"context"

	"prism/internal/logging"
	"prism/internal/svc"
	"prism/internal/types"
)

type DeleteConversationLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Delete a conversation and its messages
func NewDeleteConversationLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteConversationLogic {
	return &DeleteConversationLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteConversationLogic) DeleteConversation(req *types.DeleteConversationRequest) (*types.DeleteConversationResponse, error) {
	conv, err := ownedConversation(l.ctx, l.svcCtx, req.ConversationId)
	if err != nil {
		return nil, err
	}

	if err := l.svcCtx.DB.DeleteConversation(l.ctx, conv.ID); err != nil {
		l.Errorf("Failed to delete conversation %s: %v", conv.ID, err)
		return nil, err
	}

	return &types.DeleteConversationResponse{Success: true}, nil
}
