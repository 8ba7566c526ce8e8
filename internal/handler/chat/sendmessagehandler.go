package chat

import (
	"errors"
	"net/http"
	"strings"

	"prism/internal/dispatch"
	"prism/internal/httputil"
	"prism/internal/logic/chat"
	"prism/internal/provider"
	"prism/internal/svc"
	"prism/internal/types"
)

// Image attachments arrive as multipart file fields under this name.
const imageField = "attachments"

// Send message (creates conversation if needed)
func SendMessageHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(svcCtx.Uploads.MaxBytes()); err != nil {
				httputil.Error(w, err)
				return
			}
		}

		var req types.SendMessageRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		images, err := readImages(svcCtx, r)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		l := chat.NewSendMessageLogic(r.Context(), svcCtx)
		resp, err := l.SendMessage(&req, images)
		if err != nil {
			if errors.Is(err, dispatch.ErrEmptySubmission) {
				httputil.ErrorWithCode(w, http.StatusBadRequest, err.Error())
				return
			}
			if errors.Is(err, dispatch.ErrConversationNotFound) {
				httputil.NotFound(w, err.Error())
				return
			}
			httputil.Error(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

func readImages(svcCtx *svc.ServiceContext, r *http.Request) ([]provider.MediaInput, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var images []provider.MediaInput
	for _, fh := range r.MultipartForm.File[imageField] {
		img, err := svcCtx.Uploads.ReadImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}
