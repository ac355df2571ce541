package controllers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/middleware"
	"github.com/kendall-kelly/field-service-admin/services"
)

// RouterOptions configures SetupRouter
type RouterOptions struct {
	// CORSOrigins lists the front-end origins allowed to call the console
	CORSOrigins []string

	// OperatorGate runs before the session check on protected routes
	OperatorGate []gin.HandlerFunc

	// Exporter uploads ticket reports; nil disables exports
	Exporter *services.TicketExporter
}

// SetupRouter builds the console's HTTP routes
func SetupRouter(console *services.Console, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	cc := NewConsoleController(console, opts.Exporter)

	router.POST("/login", cc.Login)
	router.POST("/logout", cc.Logout)
	router.GET("/session", cc.GetSession)

	protected := append(append([]gin.HandlerFunc{}, opts.OperatorGate...), middleware.RequireSession(console.Session))

	admin := router.Group("/admin", protected...)
	{
		admin.GET("/engineers", cc.RedirectEngineers)
		admin.GET("/engineers/:status", cc.ListEngineers)
		admin.GET("/engineers/:status/:id", cc.GetEngineer)
		admin.POST("/engineers/:id/:action", cc.DecideEngineer)

		admin.GET("/tickets", cc.RedirectTickets)
		admin.GET("/tickets/:status", cc.ListTickets)
		admin.GET("/tickets/:status/:id", cc.GetTicket)
		admin.POST("/tickets", cc.CreateTicket)
		admin.PUT("/tickets/:id/assign", cc.AssignEngineer)
		admin.POST("/tickets/:id/status", cc.ChangeTicketStatus)
		admin.POST("/tickets/:id/payment", cc.InitiatePayment)

		admin.GET("/ticket-expertise", cc.GetTicketExpertise)
		admin.GET("/assignable-engineers", cc.ListAssignableEngineers)
		admin.POST("/exports/tickets/:status", cc.ExportTickets)
	}

	confirm := router.Group("/confirm", protected...)
	{
		confirm.GET("", cc.GetConfirmation)
		confirm.POST("", cc.Confirm)
		confirm.DELETE("", cc.CancelConfirmation)
	}

	payment := router.Group("/payment", protected...)
	{
		payment.GET("", cc.GetPayment)
		payment.DELETE("", cc.CancelPayment)
	}

	// Notices stay readable after the session ends so the expiry message can be shown
	router.GET("/notices", append(append([]gin.HandlerFunc{}, opts.OperatorGate...), cc.GetNotices)...)

	return router
}
