package routes

import (
	"github.com/commboard/lottery-engine/internal/config"
	"github.com/commboard/lottery-engine/internal/handlers"
	"github.com/commboard/lottery-engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies holds the handlers the router wires up
type HandlerDependencies struct {
	LotteryHandler      *handlers.LotteryHandler
	DonationHandler     *handlers.DonationHandler
	NotificationHandler *handlers.NotificationHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		// Lottery lifecycle routes
		lotteries := protected.Group("/lotteries")
		{
			lotteries.POST("", deps.LotteryHandler.CreateLottery)
			lotteries.GET("/:id", deps.LotteryHandler.GetLotteryByID)
			lotteries.GET("/state/:state", deps.LotteryHandler.GetLotteriesByState)
			lotteries.DELETE("/:id", deps.LotteryHandler.DeleteDraft)
			lotteries.POST("/:id/packets", deps.LotteryHandler.AddPacket)
			lotteries.GET("/:id/packets", deps.LotteryHandler.GetPackets)
			lotteries.POST("/:id/publish", deps.LotteryHandler.Publish)
			lotteries.POST("/:id/end", deps.LotteryHandler.EndEarly)
			lotteries.GET("/:id/winners", deps.LotteryHandler.GetWinners)
		}

		// Entry ledger routes
		packets := protected.Group("/packets")
		{
			packets.POST("/:id/entries", deps.LotteryHandler.RegisterEntry)
			packets.DELETE("/:id/entries", deps.LotteryHandler.WithdrawEntry)
		}

		// Donation and shipping routes
		donations := protected.Group("/donations")
		{
			donations.POST("", deps.DonationHandler.CreateDonation)
			donations.POST("/:id/submit", deps.DonationHandler.SubmitDonation)
			donations.POST("/:id/merchandise", deps.DonationHandler.AddMerchandisePacket)
			donations.GET("/:id/merchandise", deps.DonationHandler.GetMerchandiseByDonation)
		}
		protected.POST("/merchandise/:id/ship", deps.DonationHandler.MarkShipped)

		// Notification routes
		notifications := protected.Group("/notifications")
		{
			notifications.GET("/recipient/:id", deps.NotificationHandler.GetRecordsByRecipient)
			notifications.GET("/lottery/:id", deps.NotificationHandler.GetRecordsByLottery)
			notifications.POST("/silence", deps.NotificationHandler.Silence)
		}
	}

	return router
}
