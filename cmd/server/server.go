package main

import (
	"context"
	"net/http"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/areaattack/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	cfg, err := server.LoadConfig(nil)
	if err != nil {
		log.Fatalln(err)
	}
	cfg.ApplyLogLevel()

	shapes, err := server.LoadShapes(cfg.FieldsDir)
	if err != nil {
		log.Fatalln(err)
	}
	log.Infof("loaded fields %v", shapes.Names())

	Server := Server{
		GameServer: server.NewGameServer(cfg, shapes),
	}
	go Server.GameServer.Loop(context.Background())
	Server.routes()
	log.Printf("Listening on port %s", cfg.Port)
	log.Fatalln(http.ListenAndServe(":"+cfg.Port, Server.router))
}
