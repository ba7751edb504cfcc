package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database from environment configuration. DB_DRIVER
// selects mysql (production) or sqlite (local/dev); DB_DSN overrides the
// connection string entirely.
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	dsn := os.Getenv("DB_DSN")

	switch driver {
	case "", "mysql":
		if dsn == "" {
			user := os.Getenv("DB_USER")
			pass := os.Getenv("DB_PASSWORD")
			host := os.Getenv("DB_HOST")
			if host == "" {
				host = "127.0.0.1:3306"
			}
			name := os.Getenv("DB_NAME")
			if name == "" {
				name = "venue"
			}
			dsn = fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", user, pass, host, name)
		}
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		if dsn == "" {
			dsn = "venue.db"
		}
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}
