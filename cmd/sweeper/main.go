// Command sweeper deletes expired refresh tokens once and exits. Run it from
// cron or a scheduled job; it shares configuration with the server.
package main

import (
	"context"
	"log"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/server"
	"github.com/dmitrijs2005/taskboard/internal/server/config"
)

const sweepTimeout = time.Minute

func main() {

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	cfg := config.LoadConfig()

	err := server.SweepOnce(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("%v", err)
	}

}
