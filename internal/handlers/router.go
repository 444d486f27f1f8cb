package handlers

import (
	"fidolity-token-api/internal/middleware"
	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/services"
	"fidolity-token-api/internal/store"

	"github.com/gin-gonic/gin"
)

// Router handles HTTP routing setup
type Router struct {
	balance     *BalanceHandler
	chat        *ChatHandler
	wallet      *WalletHandler
	token       *TokenHandler
	staking     *StakingHandler
	marketplace *MarketplaceHandler
	agents      *AgentHandler
	ai          *AIHandler
	health      *HealthHandler
	auth        services.AuthServiceInterface
}

// NewRouter creates a Router with a handler per resource over s
func NewRouter(s store.Store, balanceService services.BalanceServiceInterface, auth services.AuthServiceInterface, health *HealthHandler) *Router {
	return &Router{
		balance:     NewBalanceHandler(balanceService),
		chat:        NewChatHandler(s),
		wallet:      NewWalletHandler(s),
		token:       NewTokenHandler(s),
		staking:     NewStakingHandler(s),
		marketplace: NewMarketplaceHandler(s),
		agents:      NewAgentHandler(s),
		ai:          NewAIHandler(s),
		health:      health,
		auth:        auth,
	}
}

// SetupRoutes configures the /api routes. Token writes require an API key with the token:admin scope.
func (r *Router) SetupRoutes(engine *gin.Engine) {
	api := engine.Group("/api")
	{
		api.GET("/", r.health.GetInfo)
		api.GET("/health", r.health.GetAPIHealth)

		api.GET("/chat/history/:wallet", r.chat.GetHistory)
		api.POST("/chat/message", r.chat.SaveMessage)
		api.DELETE("/chat/history/:wallet", r.chat.DeleteHistory)

		api.GET("/wallet/activity/:wallet", r.wallet.GetActivity)
		api.POST("/wallet/transaction", r.wallet.RecordTransaction)
		api.PATCH("/wallet/transaction/:signature", r.wallet.UpdateTransactionStatus)
		api.GET("/wallet/balance/:wallet", r.balance.GetBalance)
		api.POST("/wallet/balances", r.balance.GetBalances)
		api.GET("/user/spending/:wallet", r.wallet.GetSpending)

		api.GET("/token/info", r.token.ListTokens)
		api.GET("/token/info/:symbol", r.token.GetToken)

		api.GET("/staking/config", r.staking.GetConfig)
		api.GET("/staking/stakes", r.staking.GetTokenStakes)
		api.GET("/staking/stakes/:wallet", r.staking.GetWalletStakes)
		api.POST("/staking/stakes", r.staking.CreateStake)
		api.POST("/staking/unstake", r.staking.Unstake)

		api.GET("/marketplace/items", r.marketplace.ListItems)
		api.GET("/marketplace/items/:id", r.marketplace.GetItem)
		api.POST("/marketplace/items", r.marketplace.CreateItem)
		api.GET("/marketplace/purchases/:wallet", r.marketplace.GetPurchases)

		api.GET("/agents/drafts/:wallet", r.agents.GetDrafts)
		api.POST("/agents/drafts", r.agents.CreateDraft)
		api.GET("/agents/reviews/:item", r.agents.GetReviews)
		api.POST("/agents/listing-fees", r.agents.RecordListingFee)

		api.POST("/ai/chat", r.ai.Chat)
	}

	admin := api.Group("", middleware.AuthMiddleware(r.auth), middleware.RequireScope(models.ScopeTokenAdmin))
	{
		admin.POST("/token/info", r.token.CreateToken)
		admin.PATCH("/token/info/:symbol", r.token.UpdateToken)
	}
}

// SetupHealthRoutes configures health check routes
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.health.GetHealth)
		health.GET("/live", r.health.GetLiveness)
		health.GET("/ready", r.health.GetReadiness)
		health.GET("/db", r.health.GetDatabaseHealth)
	}
}
