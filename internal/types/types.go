package types

// Request/response types for the HTTP API. Field names follow the JSON
// shapes the web client consumes.

type SendMessageRequest struct {
	ConversationId string `form:"conversation_id"`
	Message        string `form:"message"`
	Model          string `form:"model"`
	WebSearch      bool   `form:"web_search"`
	ChannelId      string `form:"channel_id"`

	// Video-mode options, ignored elsewhere.
	DurationSeconds int    `form:"durationSeconds"`
	NumberOfVideos  int    `form:"numberOfVideos"`
	AspectRatio     string `form:"aspect_ratio"`
}

type SendMessageResponse struct {
	Status         string `json:"status"`
	ConversationId string `json:"conversation_id"`
	Message        string `json:"message"`
}

type Conversation struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Starred   bool   `json:"starred"`
	ModelName string `json:"model_name,omitempty"`
	CreatedAt string `json:"created_at"`
}

type Message struct {
	Id        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type GetConversationRequest struct {
	ConversationId string `path:"conversationId"`
}

type GetConversationResponse struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}

type StarConversationRequest struct {
	ConversationId string `path:"conversationId"`
	Starred        bool   `json:"starred"`
}

type StarConversationResponse struct {
	Id      string `json:"id"`
	Starred bool   `json:"starred"`
}

type DeleteConversationRequest struct {
	ConversationId string `path:"conversationId"`
}

type DeleteConversationResponse struct {
	Success bool `json:"success"`
}

type RenameConversationRequest struct {
	ConversationId string `path:"conversationId"`
	Title          string `json:"title"`
}

type RenameConversationResponse struct {
	Id    string `json:"id"`
	Title string `json:"title"`
}

type GeneratedVideo struct {
	Id        string `json:"id"`
	Prompt    string `json:"prompt"`
	VideoUrl  string `json:"video_url"`
	CreatedAt string `json:"created_at"`
}

type ListVideosResponse struct {
	Videos []GeneratedVideo `json:"videos"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}
