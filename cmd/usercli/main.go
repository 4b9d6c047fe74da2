// Package main provides the user CLI entry point for testing.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	"github.com/osa030/releasebox/internal/api/apiv1"
	apiconnect "github.com/osa030/releasebox/internal/api/connect"
)

var (
	app    = kingpin.New("releasebox-usercli", "releasebox user client for testing")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("RELEASEBOX_SERVER").String()

	catalogCmd = app.Command("catalog", "Show the release catalog")
	queueCmd   = app.Command("queue", "Show the playback queue")
	statusCmd  = app.Command("status", "Show the player status")

	// countdown command
	countdownCmd   = app.Command("countdown", "Show the countdown to the next release")
	countdownWatch = countdownCmd.Flag("watch", "Redraw until the release unlocks").Short('w').Bool()

	// play command
	playCmd     = app.Command("play", "Play a track")
	playRelease = playCmd.Arg("release", "Release index").Required().Int()
	playTrack   = playCmd.Arg("track", "Track index (default: first track)").Default("0").Int()

	playIndexCmd = app.Command("play-index", "Play a queue entry")
	playIndexArg = playIndexCmd.Arg("index", "Queue index").Required().Int()

	toggleCmd = app.Command("toggle", "Toggle play/pause")

	seekCmd   = app.Command("seek", "Seek within the current track")
	seekRatio = seekCmd.Arg("ratio", "Position between 0 and 1").Required().Float64()

	reloadCmd    = app.Command("reload", "Reload the catalog")
	subscribeCmd = app.Command("subscribe", "Subscribe to notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(http.DefaultClient, *server)
	ctx := context.Background()

	var err error
	switch command {
	case catalogCmd.FullCommand():
		err = showCatalog(ctx, client)
	case queueCmd.FullCommand():
		err = showQueue(ctx, client)
	case countdownCmd.FullCommand():
		err = showCountdown(ctx, client, *countdownWatch)
	case statusCmd.FullCommand():
		err = showStatus(ctx, client)
	case playCmd.FullCommand():
		err = printCommand(client.PlayTrack(ctx, *playRelease, *playTrack))
	case playIndexCmd.FullCommand():
		err = printCommand(client.PlayIndex(ctx, *playIndexArg))
	case toggleCmd.FullCommand():
		err = printCommand(client.TogglePlayPause(ctx))
	case seekCmd.FullCommand():
		err = printCommand(client.Seek(ctx, *seekRatio))
	case reloadCmd.FullCommand():
		err = reload(ctx, client)
	case subscribeCmd.FullCommand():
		err = subscribe(ctx, client)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func showCatalog(ctx context.Context, client *apiconnect.Client) error {
	cat, err := client.GetCatalog(ctx)
	if err != nil {
		return err
	}
	printCatalog(cat)
	return nil
}

func printCatalog(cat *apiv1.Catalog) {
	fmt.Printf("%s  (%d releases, %d upcoming, loaded %s)\n", cat.Artist.Name, cat.ReleaseCount, cat.UpcomingCount, cat.LoadedAt)

	rows := make([][]string, 0, len(cat.Releases))
	for _, rel := range cat.Releases {
		rows = append(rows, []string{
			strconv.Itoa(rel.Index),
			rel.ReleaseDate,
			rel.Title,
			rel.Kind,
			strconv.Itoa(len(rel.Tracks)),
			formatPlayable(rel.Playable),
		})
	}
	fmt.Println(renderTable([]string{"#", "Date", "Title", "Type", "Tracks", "State"}, rows, 0, 4))
}

func showQueue(ctx context.Context, client *apiconnect.Client) error {
	entries, err := client.GetQueue(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			e.Title,
			e.ReleaseTitle,
			fmt.Sprintf("%d/%d", e.ReleaseIndex, e.TrackIndex),
		})
	}
	fmt.Println(renderTable([]string{"#", "Track", "Release", "Address"}, rows, 0))
	return nil
}

func showCountdown(ctx context.Context, client *apiconnect.Client, watch bool) error {
	cd, err := client.GetCountdown(ctx)
	if err != nil {
		return err
	}
	if !watch || !cd.Active {
		fmt.Println(formatCountdown(cd))
		return nil
	}

	stream, err := client.SubscribeNotifications(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	redraw := isTerminal(os.Stdout)
	for stream.Receive() {
		n := stream.Msg()
		if n.Countdown == nil {
			continue
		}
		line := formatCountdown(n.Countdown)
		if redraw {
			fmt.Printf("\r\033[K%s", line)
		} else {
			fmt.Println(line)
		}
		if n.Type == apiv1.NotificationUnlocked {
			fmt.Println()
			fmt.Println(colorize("Unlocked!", text.FgGreen, text.Bold))
			return nil
		}
	}
	return stream.Err()
}

func formatCountdown(cd *apiv1.Countdown) string {
	if !cd.Active {
		return "No upcoming release"
	}
	return fmt.Sprintf("%s unlocks in %s (%s)", cd.Title, colorize(cd.Remaining, text.FgCyan), cd.ReleaseDate)
}

func showStatus(ctx context.Context, client *apiconnect.Client) error {
	st, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}
	printStatus(st)
	return nil
}

func printStatus(st *apiv1.PlayerStatus) {
	fmt.Printf("State: %s\n", formatState(st.State))
	fmt.Printf("Queue length: %d\n", st.QueueLength)
	if st.Entry == nil {
		return
	}
	fmt.Printf("Now playing: [%d] %s - %s\n", st.CurrentIndex, st.Entry.Title, st.Entry.ReleaseTitle)
	position := formatMs(st.PositionMs)
	if st.Ratio != nil {
		fmt.Printf("Position: %s / %s (%.0f%%)\n", position, formatMs(st.DurationMs), *st.Ratio*100)
	} else {
		fmt.Printf("Position: %s\n", position)
	}
}

func printCommand(resp *apiv1.CommandResponse, err error) error {
	if err != nil {
		return err
	}
	if resp.Result.Accepted {
		fmt.Printf("Success: %s\n", resp.Result.Message)
	} else {
		fmt.Printf("Rejected [%s]: %s\n", resp.Result.Code, resp.Result.Message)
	}
	printStatus(&resp.Status)
	return nil
}

func reload(ctx context.Context, client *apiconnect.Client) error {
	resp, err := client.Reload(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Reloaded: %s\n", resp.Result.Message)
	printCatalog(&resp.Catalog)
	return nil
}

func subscribe(ctx context.Context, client *apiconnect.Client) error {
	stream, err := client.SubscribeNotifications(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		os.Exit(0)
	}()

	for stream.Receive() {
		printNotification(stream.Msg())
	}
	return stream.Err()
}

func printNotification(n *apiv1.Notification) {
	fmt.Printf("\n[Sequence: %d] === %s ===\n", n.SequenceNo, n.Type)

	switch n.Type {
	case apiv1.NotificationCountdown, apiv1.NotificationUnlocked:
		if n.Countdown != nil {
			fmt.Println(formatCountdown(n.Countdown))
		}
	case apiv1.NotificationMediaCommand:
		if n.MediaCommand != nil {
			fmt.Printf("Media: %s %s at %s\n", n.MediaCommand.Type, n.MediaCommand.AudioURL, formatMs(n.MediaCommand.PositionMs))
		}
	default:
		if n.Catalog != nil {
			printCatalog(n.Catalog)
		}
		if n.Player != nil {
			printStatus(n.Player)
		}
	}
}

func formatPlayable(playable bool) string {
	if playable {
		return colorize("unlocked", text.FgGreen)
	}
	return colorize("locked", text.FgYellow)
}

func formatState(state string) string {
	switch state {
	case "playing":
		return colorize("▶️  Playing", text.FgGreen)
	case "paused":
		return "⏸  Paused"
	case "empty":
		return "⏹  Empty"
	default:
		return "❓ Unknown"
	}
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
