package chat

import (
	"context"
	"time"

	"prism/internal/logging"
	"prism/internal/middleware"
	"prism/internal/svc"
	"prism/internal/types"
)

type ListVideosLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// List the caller's generated videos, newest first
func NewListVideosLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListVideosLogic {
	return &ListVideosLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListVideosLogic) ListVideos() (*types.ListVideosResponse, error) {
	userID := middleware.GetUserID(l.ctx)
	videos, err := l.svcCtx.DB.ListGeneratedVideos(l.ctx, userID)
	if err != nil {
		l.Errorf("Failed to list videos: %v", err)
		return nil, err
	}

	resp := &types.ListVideosResponse{
		Videos: make([]types.GeneratedVideo, 0, len(videos)),
	}
	for _, v := range videos {
		resp.Videos = append(resp.Videos, types.GeneratedVideo{
			Id:        v.ID,
			Prompt:    v.Prompt,
			VideoUrl:  v.VideoURL,
			CreatedAt: v.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}
