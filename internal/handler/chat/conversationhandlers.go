package chat

import (
	"errors"
	"net/http"

	"prism/internal/httputil"
	"prism/internal/logic/chat"
	"prism/internal/svc"
	"prism/internal/types"
)

// List conversations for the current user
func ListConversationsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := chat.NewListConversationsLogic(r.Context(), svcCtx)
		resp, err := l.ListConversations()
		if err != nil {
			respondError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

// Get a conversation with its messages
func GetConversationHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GetConversationRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := chat.NewGetConversationLogic(r.Context(), svcCtx)
		resp, err := l.GetConversation(&req)
		if err != nil {
			respondError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

// Star or unstar a conversation
func StarConversationHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.StarConversationRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := chat.NewStarConversationLogic(r.Context(), svcCtx)
		resp, err := l.StarConversation(&req)
		if err != nil {
			respondError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

// Delete a conversation
func DeleteConversationHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DeleteConversationRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := chat.NewDeleteConversationLogic(r.Context(), svcCtx)
		resp, err := l.DeleteConversation(&req)
		if err != nil {
			respondError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

// Rename a conversation
func RenameConversationHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RenameConversationRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := chat.NewRenameConversationLogic(r.Context(), svcCtx)
		resp, err := l.RenameConversation(&req)
		if err != nil {
			respondError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

// List the user's generated videos
func ListVideosHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := chat.NewListVideosLogic(r.Context(), svcCtx)
		resp, err := l.ListVideos()
		if err != nil {
			respondError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, chat.ErrConversationNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.Error(w, err)
}
