package main

import (
	"fmt"
	"log"
	"os"

	"bookchat/internal/api"
	"bookchat/internal/config"
	"bookchat/internal/db"
	"bookchat/internal/dialogue"
	"bookchat/internal/gateway"
	"bookchat/internal/recommend"
	redisdb "bookchat/internal/redis"
	"bookchat/internal/script"
	"bookchat/internal/topic"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	rdb := redisdb.NewClient(cfg)

	spec := script.Default()
	if cfg.Bot.ScriptPath != "" {
		spec, err = script.Load(cfg.Bot.ScriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Script error: %v\n", err)
			os.Exit(1)
		}
	}
	table, err := script.Compile(spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Script error: %v\n", err)
		os.Exit(1)
	}

	registry := topic.Default()
	if cfg.Bot.TopicsPath != "" {
		registry, err = topic.Load(cfg.Bot.TopicsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Topics error: %v\n", err)
			os.Exit(1)
		}
	}

	var history topic.HistorySource
	if cfg.History.URL != "" {
		history = gateway.NewHistoryClient(cfg.History.URL, cfg.History.Token, cfg.HistoryTimeout())
	} else {
		log.Printf("[Main] no history service configured, topic seeding disabled")
	}

	var recs dialogue.RecommendationSource
	if cfg.Recommend.URL != "" {
		client := gateway.NewRecommendClient(cfg.Recommend.URL, cfg.RecommendTimeout())
		recs = recommend.NewCache(client, rdb, cfg.RecommendCacheTTL())
	} else {
		log.Printf("[Main] no recommendation service configured, {rec} responses disabled")
	}

	var titles *gateway.TitleFetcher
	if cfg.Recommend.FetchTitles {
		titles = gateway.NewTitleFetcher(cfg.RecommendTimeout())
	}

	svc := api.NewBotService(cfg, table, registry, history, recs, titles, rdb)

	r := api.SetupRouter(cfg, svc, rdb)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting %s on %s%s\n", cfg.BotName(), addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
