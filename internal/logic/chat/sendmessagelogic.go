package chat

import (
	"context"

	"prism/internal/dispatch"
	"prism/internal/logging"
	"prism/internal/middleware"
	"prism/internal/provider"
	"prism/internal/svc"
	"prism/internal/types"
)

type SendMessageLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Send message (creates conversation if needed)
func NewSendMessageLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SendMessageLogic {
	return &SendMessageLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SendMessageLogic) SendMessage(req *types.SendMessageRequest, images []provider.MediaInput) (*types.SendMessageResponse, error) {
	id, err := l.svcCtx.Dispatcher.Dispatch(l.ctx, &dispatch.Request{
		ConversationID: req.ConversationId,
		UserID:         middleware.GetUserID(l.ctx),
		ChannelID:      req.ChannelId,
		Text:           req.Message,
		Images:         images,
		Mode:           dispatch.ResolveMode(req.Model),
		WebSearch:      req.WebSearch,
		Video: dispatch.VideoOptions{
			DurationSeconds: req.DurationSeconds,
			NumberOfVideos:  req.NumberOfVideos,
			AspectRatio:     req.AspectRatio,
		},
	})
	if err != nil {
		l.Errorf("Failed to accept message: %v", err)
		return nil, err
	}

	return &types.SendMessageResponse{
		Status:         "processing",
		ConversationId: id,
		Message:        "Message accepted",
	}, nil
}
