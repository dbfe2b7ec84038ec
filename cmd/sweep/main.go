package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"memberly/cmd/fx/billing_fx"
	"memberly/cmd/fx/db_fx"
	"memberly/cmd/fx/member_fx"
	"memberly/cmd/fx/plan_fx"
	"memberly/cmd/fx/scheduler_fx"
	"memberly/cmd/fx/subscription_fx"
	"memberly/internal/services"
)

// Runs a single billing sweep and exits. Meant for external schedulers and
// for catching up after downtime without waiting on the in-process cron.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment directly")
	}

	app := fx.New(
		db_fx.Module,
		member_fx.Module,
		plan_fx.Module,
		subscription_fx.Module,
		billing_fx.Module,
		scheduler_fx.Module,

		fx.Invoke(runOnce),
		fx.NopLogger,
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	if err := app.Stop(context.Background()); err != nil {
		log.Fatalf("Failed to stop: %v", err)
	}
}

func runOnce(scheduler services.ISchedulerService) {
	if err := scheduler.RunSweep(context.Background()); err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
}
