// Command finpilot is a terminal front end for the finance-assistant task
// pipeline: an AI-style chat REPL, a receipt scanner, account connections
// and an asynq worker.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohans/finpilot"
	"github.com/mohans/finpilot/queue"
)

var (
	configPath string
	redisAddr  string
)

func main() {
	root := &cobra.Command{
		Use:           "finpilot",
		Short:         "Personal finance assistant pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config")
	root.AddCommand(chatCmd(), scanCmd(), connectCmd(), workerCmd(), tipsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (finpilot.Config, error) {
	if configPath == "" {
		return finpilot.DefaultConfig(), nil
	}
	return finpilot.LoadConfig(configPath)
}

// newPipeline builds a wall-clock pipeline and a channel that receives every
// committed task.
func newPipeline() (*finpilot.Pipeline, <-chan finpilot.Task, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}
	p := finpilot.New(finpilot.NewMemoryStore(),
		finpilot.WithConfig(cfg),
		finpilot.WithLogger(log))
	done := make(chan finpilot.Task, 16)
	p.Subscribe(func(t finpilot.Task) { done <- t })
	return p, done, nil
}

func waitFor(done <-chan finpilot.Task, id string) finpilot.Task {
	for t := range done {
		if t.ID == id {
			return t
		}
	}
	return finpilot.Task{}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with the finance assistant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, done, err := newPipeline()
			if err != nil {
				return err
			}
			fmt.Println("finpilot: ask me about your finances (empty line to quit)")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					return nil
				}
				id, err := p.Submit(cmd.Context(), finpilot.KindChatMessage, finpilot.ChatMessageInput{Text: line})
				if err != nil {
					fmt.Println("!", err)
					continue
				}
				task := waitFor(done, id)
				if task.Status != finpilot.StatusResolved {
					fmt.Println("! reply failed:", deref(task.ErrorMsg))
					continue
				}
				var res finpilot.ChatResult
				if err := json.Unmarshal([]byte(*task.ResultJSON), &res); err != nil {
					return err
				}
				fmt.Println(res.ReplyText)
			}
		},
	}
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>",
		Short: "Scan a receipt image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, done, err := newPipeline()
			if err != nil {
				return err
			}
			input := finpilot.ReceiptUploadInput{
				FileName:  args[0],
				MediaType: mime.TypeByExtension(filepath.Ext(args[0])),
			}
			id, err := p.Submit(cmd.Context(), finpilot.KindReceiptUpload, input)
			if err != nil {
				return err
			}
			fmt.Println("processing receipt...")
			task := waitFor(done, id)
			if task.Status != finpilot.StatusResolved {
				return fmt.Errorf("scan failed: %s", deref(task.ErrorMsg))
			}
			var res finpilot.ReceiptResult
			if err := json.Unmarshal([]byte(*task.ResultJSON), &res); err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", res.StoreName, res.Date)
			for _, item := range res.Items {
				fmt.Printf("  %-24s x%d  %s\n", item.Name, item.Quantity, item.UnitPrice.StringFixed(2))
			}
			fmt.Printf("  tax %s  total %s\n", res.Tax.StringFixed(2), res.Total.StringFixed(2))
			return nil
		},
	}
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <bank|upi|card> <name>",
		Short: "Connect an account provider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, done, err := newPipeline()
			if err != nil {
				return err
			}
			input := finpilot.AccountConnectInput{
				Provider:    finpilot.ProviderType(args[0]),
				AccountName: args[1],
			}
			id, err := p.Submit(cmd.Context(), finpilot.KindAccountConnect, input)
			if err != nil {
				return err
			}
			fmt.Println("connecting...")
			task := waitFor(done, id)
			if task.Status != finpilot.StatusResolved {
				return fmt.Errorf("connect failed: %s", deref(task.ErrorMsg))
			}
			for _, rec := range p.Accounts().Connected() {
				fmt.Printf("connected: %-4s %s\n", rec.Provider, rec.AccountName)
			}
			return nil
		},
	}
}

func workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the asynq resolution worker",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			store := finpilot.NewMemoryStore()
			processor := queue.NewProcessor(
				asynq.RedisClientOpt{Addr: redisAddr},
				store,
				queue.ProcessorConfig{Concurrency: 5, Logger: log},
			)
			processor.RegisterDefaults(cfg, finpilot.NewAccountRegistry(), 0)
			log.Info("worker started", zap.String("redis", redisAddr))
			return processor.Run()
		},
	}
	cmd.Flags().StringVar(&redisAddr, "redis", "127.0.0.1:6379", "redis address")
	return cmd
}

func tipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tips",
		Short: "Print today's financial tip",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tip := finpilot.NewTipRotator(cfg.Tips).Current()
			fmt.Printf("%s: %s\n", tip.Title, tip.Description)
			return nil
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return "unknown"
	}
	return *s
}
