package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bookchat/internal/config"
	"bookchat/internal/db"
	"bookchat/internal/dialogue"
	"bookchat/internal/gateway"
	redisdb "bookchat/internal/redis"
	"bookchat/internal/recommend"
	"bookchat/internal/script"
	"bookchat/internal/topic"
	"bookchat/internal/transcript"
)

var (
	configPath string
	handleFlag string
)

var rootCmd = &cobra.Command{
	Use:   "bookchat",
	Short: "Talk to the book recommendation bot on the terminal",
	Long: `bookchat runs one scripted conversation on stdin/stdout. The bot walks
its dialogue tree, picks up topics you mention and suggests something to
read. Without a config file it runs with the built-in script and no
external services.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.json (optional)")
	rootCmd.Flags().StringVarP(&handleFlag, "handle", "u", "", "your handle (prompted when omitted)")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var cfg *config.Config
	if configPath != "" {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := db.Init(cfg); err != nil {
			return fmt.Errorf("db: %w", err)
		}
	} else {
		cfg = &config.Config{}
	}

	spec := script.Default()
	if cfg.Bot.ScriptPath != "" {
		var err error
		spec, err = script.Load(cfg.Bot.ScriptPath)
		if err != nil {
			return fmt.Errorf("script: %w", err)
		}
	}
	table, err := script.Compile(spec)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}

	registry := topic.Default()
	if cfg.Bot.TopicsPath != "" {
		registry, err = topic.Load(cfg.Bot.TopicsPath)
		if err != nil {
			return fmt.Errorf("topics: %w", err)
		}
	}

	in := bufio.NewScanner(os.Stdin)

	handle := strings.TrimPrefix(strings.TrimSpace(handleFlag), "@")
	for handle == "" {
		fmt.Print("Who are you? @")
		if !in.Scan() {
			return in.Err()
		}
		handle = strings.TrimPrefix(strings.TrimSpace(in.Text()), "@")
	}

	tracker := topic.NewTracker(registry, nil)
	if cfg.History.URL != "" {
		history := gateway.NewHistoryClient(cfg.History.URL, cfg.History.Token, cfg.HistoryTimeout())
		tracker.SeedFromHistory(ctx, handle, history)
	}

	var recs dialogue.RecommendationSource
	if cfg.Recommend.URL != "" {
		client := gateway.NewRecommendClient(cfg.Recommend.URL, cfg.RecommendTimeout())
		if cfg.Redis.Addr != "" {
			recs = recommend.NewCache(client, redisdb.NewClient(cfg), cfg.RecommendCacheTTL())
		} else {
			recs = client
		}
	}

	var titles *gateway.TitleFetcher
	if cfg.Recommend.FetchTitles {
		titles = gateway.NewTitleFetcher(cfg.RecommendTimeout())
	}

	resolver := dialogue.NewResolver(registry, tracker, recs, titles, cfg.Recommend.ItemURL, handle, nil)
	engine := dialogue.NewEngine(table, tracker, resolver, nil)

	var recorder *transcript.Recorder
	if db.DB != nil {
		recorder, err = transcript.StartRecorder(db.DB, handle, cfg.BotName())
		if err != nil {
			log.Printf("[CLI] failed to open transcript: %v", err)
		}
	}
	defer recorder.Close(tracker.Asked())

	bot := cfg.BotName()
	fmt.Printf("%s is listening. Say hi! (ctrl-d to quit)\n", bot)

	turn := script.TurnStart
	input := ""
	skip := false
	for {
		if !skip {
			fmt.Printf("@%s> ", handle)
			if !in.Scan() {
				fmt.Println()
				return in.Err()
			}
			input = in.Text()
			if strings.TrimSpace(input) == "" {
				continue
			}
			recorder.Record("user", turn, input)
		}

		reply, next, skipNext, err := engine.Respond(ctx, input, turn)
		if err != nil {
			return fmt.Errorf("dialogue: %w", err)
		}
		recorder.Record("bot", turn, reply)
		fmt.Printf("%s> %s\n", bot, reply)

		if next == script.TurnEnd {
			return nil
		}
		turn = next
		skip = skipNext
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
