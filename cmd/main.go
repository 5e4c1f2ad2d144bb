package main

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kyra-dev/discord-presence-go/client"
	"github.com/kyra-dev/discord-presence-go/events"
)

func main() {
	// Create a new Discord RPC client with your application's ID
	cli := client.NewClient("your_application_id_here")
	cli.SetVerbose(true)

	// Event called when the connection to Discord is ready. Persist
	// keeps the listener registered for the life of the client.
	cli.OnReady(func(ctx events.Context) {
		log.Println("READY event, info:", ctx.Event)
	}).Persist()

	// Event called when an error occurs
	cli.OnError(func(ctx events.Context) {
		log.Println("Error:", ctx.Event["error"])
	}).Persist()

	// Event called when someone joins your activity via Rich Presence.
	// Keeping the handle lets us detach the listener later.
	join := cli.OnActivityJoin(func(ctx events.Context) {
		log.Println("ACTIVITY_JOIN secret:", ctx.Event["secret"])
	})
	defer join.Remove()

	// Connect to Discord IPC
	if err := cli.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer cli.Close()

	// Define an activity to display in Discord Rich Presence
	activity := client.Activity{
		Type:    client.Playing,
		State:   "Editing a project",
		Details: "Working on Go modules",
		Assets: &client.Assets{
			LargeImage: "ide-logo",
			SmallImage: "editor-icon",
			LargeText:  "My IDE",
			SmallText:  "Code Editor",
		},
		Timestamps: &client.Timestamps{
			Start: time.Now().Unix(),
		},
		Party: &client.Party{
			ID:   uuid.New().String(),
			Size: []int{1, 5}, // current, max
		},
		Buttons: []client.Button{
			{Label: "Open Project Docs", Url: "https://example.com/docs"},
			{Label: "Visit Repository", Url: "https://example.com/repo"},
		},
	}

	// Set the activity in Discord
	if err := cli.SetActivity(activity); err != nil {
		log.Fatalf("Failed to set activity: %v", err)
	}

	log.Println("Activity set successfully, keeping the process alive...")
	select {} // keep the program running
}
