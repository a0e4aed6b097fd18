package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"front/controllers"
	"front/middlewares"
	"front/services"
	"front/views"
)

type Deps struct {
	Controller *controllers.Controller
	Sessions   services.SessionStore
	Session    middlewares.SessionOptions
	Logger     *zap.Logger
	HotReload  bool
}

func SetupRouter(deps Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(middlewares.Recovery(deps.Logger))
	r.Use(middlewares.Logger(deps.Logger))
	r.Use(middlewares.CORS())

	if err := views.Install(r, deps.HotReload); err != nil {
		return nil, err
	}

	ctl := deps.Controller

	r.GET("/healthz", controllers.Health)

	web := r.Group("/", middlewares.Sessions(deps.Sessions, deps.Session, deps.Logger))

	// 公開ページ
	web.GET("/login", ctl.LoginPage)
	web.POST("/api/login", ctl.Login)
	web.GET("/api/logout", ctl.Logout)
	web.POST("/api/logout", ctl.Logout)

	auth := web.Group("/", middlewares.LoginRequired(deps.Logger))

	// チャット
	auth.GET("/", ctl.Home)
	auth.GET("/conversation/:id", ctl.ConversationPage)
	auth.POST("/api/set-llm", ctl.SetLLM)
	auth.POST("/api/chat", ctl.CreateChat)
	auth.GET("/api/chat", ctl.StreamChat)
	auth.GET("/api/chat/ws", ctl.ChatSocket)

	// 設定
	auth.GET("/settings", ctl.Settings)
	auth.GET("/settings/chat-history", ctl.ChatHistorySettings)
	auth.DELETE("/api/conversations/delete/all", ctl.DeleteAllConversations)
	auth.DELETE("/api/conversations/:id", ctl.DeleteConversation)

	auth.GET("/settings/connection-settings", ctl.ConnectionSettings)
	auth.GET("/api/config/connection-endpoint", ctl.GetConnectionEndpoint)
	auth.POST("/api/config/connection-endpoint", ctl.UpdateConnectionEndpoint)

	auth.GET("/settings/users", ctl.UsersSettings)
	auth.DELETE("/api/users/:id", ctl.DeleteUser)
	auth.GET("/settings/users/edit/:id", ctl.EditUserForm)
	auth.POST("/api/users/edit/:id", ctl.EditUser)
	auth.GET("/settings/users/new", ctl.NewUserForm)
	auth.POST("/api/users/new", ctl.CreateUser)

	auth.GET("/settings/knowledge-base", ctl.KnowledgeBaseSettings)
	auth.DELETE("/api/knowledge-base/:id", ctl.DeleteKnowledgeBase)
	auth.GET("/settings/knowledge-base/edit/:id", ctl.EditKnowledgeBaseForm)
	auth.POST("/api/knowledge-base/edit/:id", ctl.EditKnowledgeBase)
	auth.GET("/settings/knowledge-base/new", ctl.NewKnowledgeBaseForm)
	auth.POST("/api/knowledge-base/new", ctl.CreateKnowledgeBase)
	auth.POST("/api/knowledge-base/bulk", ctl.BulkCreateKnowledgeBases)

	return r, nil
}
