package main

import (
	"log"

	"github.com/tt67wq/xianyu-spider/internal/database"
	"github.com/tt67wq/xianyu-spider/internal/server"
	"github.com/tt67wq/xianyu-spider/pkg/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.LoadConfig("config.yml")

	repo := database.InitDB(cfg.Database.Path)
	defer repo.Close()

	log.Println("Starting search API server...")
	server.Start(repo, cfg)
}
