package svc

import (
	"context"
	"time"

	"prism/internal/config"
	"prism/internal/db"
	"prism/internal/dispatch"
	"prism/internal/logging"
	"prism/internal/provider"
	"prism/internal/realtime"
	"prism/internal/uploads"
)

// ServiceContext carries the shared dependencies handlers and logic need.
type ServiceContext struct {
	Config config.Config

	DB         *db.Store
	Hub        *realtime.Hub
	Uploads    *uploads.Store
	Dispatcher *dispatch.Dispatcher

	gemini *provider.GeminiProvider
}

// NewServiceContext creates a new service context. Pass a *db.Store to
// reuse an existing database connection, or nil to create a new one.
func NewServiceContext(c config.Config, database ...*db.Store) (*ServiceContext, error) {
	var db0 *db.Store
	if len(database) > 0 {
		db0 = database[0]
	}
	return newServiceContext(c, db0)
}

func newServiceContext(c config.Config, database *db.Store) (*ServiceContext, error) {
	svc := &ServiceContext{
		Config: c,
		Hub:    realtime.NewHub(),
	}

	if database != nil {
		svc.DB = database
		logging.Info("Using shared database connection")
	} else {
		var err error
		database, err = db.NewSQLite(c.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		svc.DB = database
		logging.Infof("SQLite database initialized at %s", c.Database.SQLitePath)
	}

	files, err := uploads.NewStore(c.Uploads.Dir, c.Uploads.MaxBytes)
	if err != nil {
		return nil, err
	}
	svc.Uploads = files

	providers := dispatch.Providers{}

	if c.Providers.GoogleAPIKey != "" {
		gemini, err := provider.NewGeminiProvider(context.Background(), c.Providers.GoogleAPIKey, c.Providers.GeminiModel)
		if err != nil {
			logging.Errorf("Gemini provider unavailable: %v", err)
		} else {
			svc.gemini = gemini
			providers.Chat = gemini
			// Side tasks run on the cheaper flash model.
			providers.Titler = modelOverride{gemini, c.Providers.GeminiFlashModel}
			logging.Infof("Gemini provider initialized (model %s)", c.Providers.GeminiModel)
		}
		providers.Image = provider.NewImageProvider(c.Providers.GoogleAPIKey, c.Providers.ImageModel)
		providers.Video = provider.NewVideoProvider(c.Providers.GoogleAPIKey, c.Providers.VideoModel,
			time.Duration(c.Jobs.VideoPollSeconds)*time.Second)
		logging.Info("Media providers initialized")
	} else {
		logging.Warn("GOOGLE_API_KEY not set - chat, image, and video generation disabled")
	}

	if c.Providers.GroqAPIKey != "" {
		groq := provider.NewGroqProvider(c.Providers.GroqAPIKey, c.Providers.GroqModel)
		providers.Fast = groq
		if providers.Titler == nil {
			providers.Titler = groq
		}
		logging.Infof("Groq provider initialized (model %s)", c.Providers.GroqModel)
	} else {
		logging.Info("GROQ_API_KEY not set - fast inference disabled")
	}

	if c.Providers.SerperAPIKey != "" {
		providers.Search = provider.NewSearchClient(c.Providers.SerperAPIKey)
		logging.Info("Web search initialized")
	} else {
		logging.Info("SERPER_API_KEY not set - web search disabled")
	}

	svc.Dispatcher = dispatch.NewDispatcher(svc.DB, svc.Hub, svc.Uploads, providers, dispatch.Config{
		StreamThreshold:  c.Stream.BufferThreshold,
		TextTimeout:      time.Duration(c.Jobs.TextTimeoutSeconds) * time.Second,
		VideoTimeout:     time.Duration(c.Jobs.VideoTimeoutSeconds) * time.Second,
		SummaryThreshold: c.Jobs.SummaryThreshold,
		Retry: provider.RetryPolicy{
			MaxAttempts: c.Jobs.RetryAttempts,
			Delay:       time.Duration(c.Jobs.RetryDelaySeconds) * time.Second,
		},
	})

	return svc, nil
}

// modelOverride pins a completer to a specific model unless the request
// names its own.
type modelOverride struct {
	inner provider.Completer
	model string
}

func (m modelOverride) Complete(ctx context.Context, req *provider.ChatRequest) (string, error) {
	if req.Model == "" && m.model != "" {
		req.Model = m.model
	}
	return m.inner.Complete(ctx, req)
}

// Close releases provider clients and the database connection. In-flight
// jobs should be drained first via Dispatcher.Wait.
func (svc *ServiceContext) Close() {
	if svc.gemini != nil {
		svc.gemini.Close()
	}
	if svc.DB != nil {
		svc.DB.Close()
		logging.Info("SQLite database connection closed")
	}
	logging.Info("Service context closed")
}
