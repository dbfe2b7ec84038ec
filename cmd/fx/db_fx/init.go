package db_fx

import (
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"memberly/internal/infra"
)

var Module = fx.Provide(
	provideDB, provideLogger)

func provideDB() *gorm.DB {
	db := infra.InitPostgresql()
	if err := infra.AutoMigrate(db); err != nil {
		log.Fatalf("Error running migrations: %v", err)
	}
	return db
}

func provideLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
