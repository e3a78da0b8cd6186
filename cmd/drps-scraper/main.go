package main

import (
	"context"

	"drps-backend/cmd/drps-scraper/commands"
	"drps-backend/lib/serviceutil"
	"drps-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	err := telemetry.SetupFromEnv(ctx, "drps-scraper")
	if err != nil {
		serviceutil.Fatal("failed to set up telemetry", err)
	}
	defer telemetry.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
