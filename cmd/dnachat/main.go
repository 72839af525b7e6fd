package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/chzyer/readline"

	"github.com/dnalab/dnachat/pkg/config"
	"github.com/dnalab/dnachat/pkg/dna"
	"github.com/dnalab/dnachat/pkg/fallacy"
	"github.com/dnalab/dnachat/pkg/gemini"
	"github.com/dnalab/dnachat/pkg/logger"
	"github.com/dnalab/dnachat/pkg/session"
	"github.com/dnalab/dnachat/pkg/store"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "dnachat"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app wires the full runtime: config, logging, store, gateway, controller.
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	st   *store.Store
	reg  *dna.Registry
	ctrl *session.Controller
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg.StorePath(), log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	client := gemini.NewClient(cfg.Gemini, cfg.Gemini.APIKey, cfg.RequestTimeout(), log)
	conv := dna.NewConversationLog(st, log)
	reg := dna.NewRegistry(st, conv, log)
	ctrl := session.NewController(reg, conv, st, client, log)
	if err := ctrl.Initialize(); err != nil {
		st.Close()
		return nil, fmt.Errorf("initialize session: %w", err)
	}

	return &app{cfg: cfg, log: log, st: st, reg: reg, ctrl: ctrl}, nil
}

func (a *app) Close() {
	a.log.Sync()
	if err := a.st.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close store: %v\n", err)
	}
}

func chatLoop(a *app) error {
	if !a.ctrl.CredentialConfigured() {
		fmt.Println("No API key configured. Set one with: dnachat auth set-key <key>")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     filepath.Join(os.TempDir(), ".dnachat_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		return simpleChatLoop(a)
	}
	defer rl.Close()

	printActiveBanner(a)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}

		runTurn(a, input)
	}
}

func simpleChatLoop(a *app) error {
	printActiveBanner(a)
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("You: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Println("\nGoodbye!")
			return nil
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}
		runTurn(a, input)
	}
}

func printActiveBanner(a *app) {
	if profile, ok := a.reg.Active(); ok {
		fmt.Printf("Debating %s\n", profile.Name)
		if profile.Summary != "" {
			fmt.Printf("  %s\n", profile.Summary)
		}
	}
	fmt.Println("Interactive mode (Ctrl+C to exit)")
	fmt.Println()
}

// runTurn sends one message and renders the reply. A failed turn still
// renders: the error message is part of the conversation.
func runTurn(a *app, input string) {
	ctx := context.Background()

	msg, err := a.ctrl.SendMessage(ctx, input)
	if err != nil {
		if msg.Content == "" {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("\n%s\n\n", msg.Content)
		return
	}

	fmt.Printf("\n%s\n", msg.Content)
	for _, f := range msg.DetectedFallacies {
		entry := fallacy.Describe(f)
		fmt.Printf("  [fallacy] %s: %s\n", entry.Name, entry.Description)
		if entry.Example != "" {
			fmt.Printf("            e.g. %q\n", entry.Example)
		}
	}
	fmt.Println()

	speakReply(a, ctx, msg.Content)
}

// speakReply writes synthesized audio next to the store when TTS is on.
// Synthesis failure never disturbs the committed turn.
func speakReply(a *app, ctx context.Context, text string) {
	audio, err := a.ctrl.Speak(ctx, text)
	if err != nil {
		a.log.Warn("speech synthesis failed", "error", err)
		return
	}
	if len(audio) == 0 {
		return
	}

	path := filepath.Join(a.cfg.DataPath(), "last_reply.wav")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		a.log.Warn("write audio file", "path", path, "error", err)
		return
	}
	fmt.Printf("  [audio] %s\n", path)
}
