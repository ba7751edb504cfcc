package router

import (
	"github.com/gin-gonic/gin"
	"github.com/velvethour/venue-app/controllers"
	"github.com/velvethour/venue-app/live"
	"github.com/velvethour/venue-app/middlewares"
	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/services"
	"gorm.io/gorm"
)

// Deps carries the singleton service instances built in main. The
// reservation lifecycle in particular must be shared: it holds the
// transient table staging map.
type Deps struct {
	Routing   *services.RoutingEngine
	Lifecycle *services.ReservationLifecycle
	Pipeline  *services.SalePipeline
	FollowUp  *services.FollowUpScheduler
	Floor     *services.FloorPlan
}

func SetupRouter(db *gorm.DB, deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware())
	r.Use(middlewares.LoggerMiddleware())
	// Global limiter must be registered before the route groups or the
	// handlers never pass through it.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	routing := deps.Routing
	pipeline := deps.Pipeline
	followUp := deps.FollowUp
	lifecycle := deps.Lifecycle
	floor := deps.Floor

	// Controllers
	staffCtrl := controllers.NewStaffController(db)
	threadCtrl := controllers.NewThreadController(db, routing)
	resCtrl := controllers.NewReservationController(db, lifecycle)
	floorCtrl := controllers.NewFloorController(db, floor)
	saleCtrl := controllers.NewSaleController(db, pipeline)
	memberCtrl := controllers.NewMemberController(db, routing, lifecycle, followUp)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Login/register behind the strict limiter.
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", staffCtrl.Register)
		public.POST("/login", staffCtrl.Login)
	}

	// Member-facing endpoints. Member identity arrives from the host
	// application's session layer; the core treats it as opaque.
	members := r.Group("/members")
	{
		members.POST("", memberCtrl.CreateMember)
		members.POST("/:member_id/messages", memberCtrl.SendMessage)
		members.GET("/:member_id/messages", memberCtrl.GetLog)
		members.POST("/:member_id/reservations", memberCtrl.RequestReservation)
		members.POST("/:member_id/follow-up", memberCtrl.RespondFollowUp)
	}

	// Staff endpoints.
	staff := r.Group("/staff")
	staff.Use(middlewares.AuthMiddleware())
	{
		staff.GET("/profile", staffCtrl.GetProfile)
		staff.GET("/roster", staffCtrl.GetAllStaff)

		// Threads / inbox
		staff.GET("/threads", threadCtrl.GetThreads)
		staff.POST("/threads/:thread_id/reply", threadCtrl.ReplyThread)
		staff.POST("/threads/:thread_id/move", threadCtrl.MoveThread)
		staff.POST("/threads/:thread_id/retag", threadCtrl.RetagThread)
		staff.POST("/threads/security-alert", threadCtrl.CreateSecurityAlert)
		staff.POST("/threads/compose", threadCtrl.Compose)
		staff.POST("/threads/message-owner", threadCtrl.MessageOwner)

		// Reservation queue
		staff.GET("/reservations", resCtrl.GetReservations)
		staff.POST("/reservations", middlewares.RequireRole(models.RoleManager, models.RoleVIPHost), resCtrl.CreateManual)
		staff.POST("/reservations/walk-in", middlewares.RequireRole(models.RoleManager, models.RoleVIPHost), resCtrl.WalkIn)
		staff.POST("/reservations/:reservation_id/accept", middlewares.RequireRole(models.RoleManager, models.RoleVIPHost), resCtrl.Accept)
		staff.POST("/reservations/:reservation_id/decline", middlewares.RequireRole(models.RoleManager, models.RoleVIPHost), resCtrl.Decline)
		staff.POST("/reservations/:reservation_id/table", resCtrl.SelectTable)
		staff.POST("/reservations/:reservation_id/seat", resCtrl.Seat)

		// Floor plan (derived)
		staff.GET("/floor", floorCtrl.GetFloor)
		staff.GET("/floor/:table_num", floorCtrl.GetTableStatus)

		// Sales, comps, calendar
		staff.GET("/sales", middlewares.RequireRole(), saleCtrl.GetSales)
		staff.POST("/comps", middlewares.RequireRole(), saleCtrl.IssueComp)
		staff.GET("/comps", middlewares.RequireRole(), saleCtrl.GetComps)
		staff.GET("/calendar/:date_key", saleCtrl.GetCalendar)

		// Staff management (owner)
		staff.PATCH("/roster/:staff_id/active", middlewares.RequireRole(), staffCtrl.SetActive)
	}

	// Live dashboard updates.
	ws := r.Group("/ws")
	ws.Use(middlewares.AuthMiddleware())
	{
		ws.GET("", live.Handler)
	}

	return r
}
