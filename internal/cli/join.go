package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grepsan/huddle/internal/client"
	"github.com/grepsan/huddle/internal/ui"
)

var (
	serverURL   string
	displayName string
)

var joinCmd = &cobra.Command{
	Use:   "join [room-id]",
	Short: "Join a room and chat from the terminal",
	Long:  `Join connects to the signaling server, enters the given room (generating a memorable room ID if none is given), and relays chat. Media negotiation events from browser peers are shown but not acted on.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJoin,
}

func init() {
	joinCmd.Flags().StringVarP(&serverURL, "server", "s", "ws://localhost:3000/ws", "signaling server websocket URL")
	joinCmd.Flags().StringVarP(&displayName, "name", "n", "", "display name shown in chat (default: user id prefix)")
	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, args []string) error {
	roomID := ""
	if len(args) == 1 {
		roomID = args[0]
	}
	if roomID == "" {
		roomID = client.GenerateRoomID()
	}

	c := client.NewClient(serverURL)
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()

	name := displayName
	if name == "" {
		name = c.UserID()[:8]
	}

	if err := c.Join(roomID); err != nil {
		return err
	}

	fmt.Println(ui.TitleStyle.Render("room: " + roomID))
	ui.PrintSuccess("joined as " + name)

	handler := client.NewHandler(c)
	go handler.Start()

	// Read chat lines from stdin in the background.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				lines <- line
			}
		}
		close(lines)
	}()

	for {
		select {
		case <-handler.Done():
			return fmt.Errorf("connection closed")

		case users := <-handler.AllUsers:
			if len(users) == 0 {
				ui.PrintMuted("you are the first one here")
			} else {
				ui.PrintMuted("already here: " + strings.Join(users, ", "))
			}

		case user := <-handler.UserConnected:
			ui.PrintMuted("→ " + user + " joined")

		case user := <-handler.UserDisconnected:
			ui.PrintMuted("← " + user + " left")

		case chat := <-handler.Chat:
			fmt.Printf("%s %s\n", ui.NameStyle.Render(chat.Name+":"), chat.Message)

		case <-handler.Offer:
			ui.PrintMuted("(peer sent a media offer; this client is text-only)")

		case <-handler.Answer:

		case <-handler.Candidate:

		case errText := <-handler.Error:
			ui.PrintError(errText)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := c.SendChat(name, line); err != nil {
				return err
			}
		}
	}
}
