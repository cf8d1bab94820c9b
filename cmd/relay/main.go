package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlibekovAA/channel-relay/internal/common/bootstrap"
	"github.com/AlibekovAA/channel-relay/internal/common/idgen"
	"github.com/AlibekovAA/channel-relay/internal/common/logger"
	srv "github.com/AlibekovAA/channel-relay/internal/common/server"
	relayhttp "github.com/AlibekovAA/channel-relay/internal/relay/http"
)

func main() {
	app, err := bootstrap.NewRelayApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
	log := app.Log
	defer log.Close()

	app.StartHub()

	handler := relayhttp.NewHandler(app.Hub, idgen.NewUUIDGenerator(), app.Config, log)
	server := srv.NewServer(srv.DefaultServerConfig(app.Config.HTTPPort), handler)

	log.WithFields(context.Background(), logger.Fields{
		"port":   app.Config.HTTPPort,
		"shards": app.Hub.ShardCount(),
		"action": "relay_start",
	}).Info("relay configured")

	srv.StartWithGracefulShutdownAndHooks(server, log, "relay", []srv.ShutdownHook{app.StopHub})
}
