package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"atlas-assistant-be/pkg/client"

	"github.com/fatih/color"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	baseURL := flag.String("url", "http://localhost:3000/api/assistant/v1", "assistant API root")
	user := flag.String("user", "", "user session id (random when empty)")
	dir := flag.String("dir", defaultStorageDir(), "directory for conversation history")
	flag.Parse()

	m, err := client.NewManager(client.Options{
		BaseURL:       *baseURL,
		UserSessionID: *user,
		StorageDir:    *dir,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, red("failed to start:"), err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m.OnChange(func(msgs []client.ChatMessage) {
		if n := len(msgs); n > 0 && msgs[n-1].IsPlaceholder {
			fmt.Println(gray(msgs[n-1].Content))
		}
	})
	m.Track("chat_opened", map[string]interface{}{"client": "terminal"})

	fmt.Println(bold("Atlas Technosoft assistant"), gray("(/reset to start over, /quit to exit)"))
	for _, msg := range m.Messages() {
		printMessage(msg)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(cyan("you> "))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return
		case "/reset":
			if err := m.Reset(); err != nil {
				fmt.Println(red("reset failed:"), err)
			}
			fmt.Println(gray("New conversation started."))
			continue
		}

		reply, err := m.Ask(ctx, line)
		if err != nil {
			fmt.Println(red(err.Error()))
			continue
		}
		printMessage(reply)
		if ctx.Err() != nil {
			return
		}
	}
}

func printMessage(msg client.ChatMessage) {
	if msg.Role == client.RoleUser {
		fmt.Println(cyan("you> ") + msg.Content)
		return
	}

	label := green("atlas> ")
	if msg.IsError {
		label = red("atlas> ")
	}
	fmt.Println(label + msg.Content)

	if msg.Confidence != nil {
		fmt.Println(gray(fmt.Sprintf("  confidence %.2f", *msg.Confidence)))
	}
	for _, r := range msg.WebSearchResults {
		fmt.Println(gray("  source: "+r.Source+" "), r.URL)
	}
	for _, q := range msg.SuggestedQuestions {
		fmt.Println(yellow("  ? " + q))
	}
}

func defaultStorageDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir + string(os.PathSeparator) + "atlas-assistant"
}
