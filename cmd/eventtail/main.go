package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"atlas-assistant-be/internal/config"
	"atlas-assistant-be/pkg/events"
	pktNats "atlas-assistant-be/pkg/nats"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

func main() {
	cfg := config.Load()
	url := flag.String("nats", cfg.App.NatsURL, "NATS server URL")
	filter := flag.String("type", ">", "event type to follow, e.g. ASSISTANT_QUERY_TIMEOUT")
	durable := flag.String("durable", "", "durable consumer name (empty follows new events only)")
	flag.Parse()

	if *url == "" {
		log.Fatal("NATS URL is required (set NATS_URL or -nats)")
	}

	sub, err := pktNats.NewSubscriber(*url)
	if err != nil {
		log.Fatalf("Unable to connect: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sub.Subscribe(ctx, pktNats.SubjectFor(*filter), *durable, func(_ context.Context, e events.Event) error {
		printEvent(e)
		return nil
	})
	if err != nil {
		log.Fatalf("Unable to subscribe: %v", err)
	}

	fmt.Println(gray("Following " + pktNats.SubjectFor(*filter) + " ..."))
	<-ctx.Done()
}

func printEvent(e events.Event) {
	payload, _ := json.Marshal(e.Payload())
	fmt.Printf("%s %s %s\n",
		gray(e.Timestamp().Format("15:04:05.000")),
		colorFor(e.EventType())(e.EventType()),
		string(payload),
	)
}

func colorFor(eventType string) func(a ...interface{}) string {
	switch {
	case strings.HasPrefix(eventType, events.ClientEventPrefix):
		return cyan
	case eventType == events.AssistantQueryFailed || eventType == events.AssistantBreakerOpen:
		return red
	case eventType == events.AssistantQueryTimeout:
		return yellow
	}
	return green
}
