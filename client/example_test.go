// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/agentoven/a2a-go"
	"github.com/agentoven/a2a-go/client"
)

func ExampleClient_SendMessageText() {
	ctx := context.Background()

	c, err := client.New("https://agent.example.com/a2a", client.WithBearerToken("token"))
	if err != nil {
		log.Fatal(err)
	}
	if _, err := c.Discover(ctx); err != nil {
		log.Fatal(err)
	}

	task, err := c.SendMessageText(ctx, "Summarize Q4 report")
	if err != nil {
		log.Fatal(err)
	}
	for !task.IsTerminal() && !task.IsInterrupted() {
		if task, err = c.GetTask(ctx, task.ID); err != nil {
			log.Fatal(err)
		}
	}
	if err := a2a.TaskOutcomeError(task); err != nil {
		log.Fatal(err)
	}
	fmt.Println(task.LastArtifact().TextContent())
}

func ExampleClient_SendStreamingText() {
	c, err := client.New("https://agent.example.com/a2a")
	if err != nil {
		log.Fatal(err)
	}

	s, err := c.SendStreamingText(context.Background(), "Write a haiku")
	if err != nil {
		log.Fatal(err)
	}
	for ev, err := range s.All() {
		if err != nil {
			log.Print(err)
			continue
		}
		if ev.Type == a2a.EventArtifactChunk {
			fmt.Print(ev.Chunk)
		}
	}
	fmt.Println()
	fmt.Println("final state:", s.State())
}

func ExampleClient_GetTask_errors() {
	c, err := client.New("https://agent.example.com/a2a")
	if err != nil {
		log.Fatal(err)
	}

	_, err = c.GetTask(context.Background(), "unknown")
	switch {
	case errors.Is(err, a2a.ErrTaskNotFound):
		fmt.Println("no such task")
	case client.IsTemporary(err):
		fmt.Println("agent unavailable, try again later:", client.StatusCode(err))
	case err != nil:
		log.Fatal(err)
	}
}

func ExampleNewPushReceiver() {
	receiver := client.NewPushReceiver(func(_ context.Context, ev *a2a.PushNotificationEvent) error {
		fmt.Println(ev.Event.TaskID, ev.Event.Type)
		return nil
	}, client.WithReceiverAuth(a2a.BearerAuth("hook-token")))

	http.Handle("/hooks/a2a", receiver)
	log.Fatal(http.ListenAndServe(":8090", nil))
}
