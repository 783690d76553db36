package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/config"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/remote"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/server"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config (defaults used when empty)")
	flag.Parse()

	log.Println("=== STARTING TERRITORY OBSERVER ===")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Config error:", err)
	}

	log.Printf("Connecting to %s...", cfg.ServiceURL)
	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := remote.Dial(dialCtx, cfg.ServiceURL)
	cancel()
	if err != nil {
		log.Fatal("Service connection failed:", err)
	}
	defer client.Close()
	log.Println("Connected!")

	// Start the prediction engine in background
	sess := session.New(cfg, client)
	go sess.Run()
	defer sess.Stop()

	// Fan state out to viewers
	hub := server.NewHub(sess)
	go hub.Run()

	log.Println("Setting up router...")
	r := server.SetupRouter(hub, sess)
	log.Printf("Viewer server starting at port %s", cfg.ListenPort)
	if err := r.Run(":" + cfg.ListenPort); err != nil {
		log.Fatal("Server failed:", err)
	}
}
