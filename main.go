package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/velvethour/venue-app/config"
	"github.com/velvethour/venue-app/models"
	"github.com/velvethour/venue-app/router"
	"github.com/velvethour/venue-app/services"
	"github.com/velvethour/venue-app/utils"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	routing := services.NewRoutingEngine(db)
	pipeline := services.NewSalePipeline(db, routing)
	followUp := services.NewFollowUpScheduler(db, routing)
	lifecycle := services.NewReservationLifecycle(db, routing, pipeline, followUp)
	floor := services.NewFloorPlan(db)

	// Deliver any follow-ups that came due while the process was down,
	// then keep polling.
	followUp.FireDue()
	followUp.Start()
	defer followUp.Stop()

	r := router.SetupRouter(db, router.Deps{
		Routing:   routing,
		Lifecycle: lifecycle,
		Pipeline:  pipeline,
		FollowUp:  followUp,
		Floor:     floor,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Member{},
		&models.MemberMessage{},
		&models.Staff{},
		&models.Promoter{},
		&models.PromoterGuest{},
		&models.Thread{},
		&models.ThreadMessage{},
		&models.Reservation{},
		&models.Sale{},
		&models.Comp{},
		&models.CalendarEvent{},
		&models.FollowUpJob{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
