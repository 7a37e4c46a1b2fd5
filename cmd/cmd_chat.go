package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"fitnest/client/internal/chathub"
	"fitnest/client/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat <partner-id>",
	Short: "Open a live chat with a match",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := current.requireSession(); err != nil {
		return err
	}
	partnerID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errors.New(current.t("chat.invalid_partner"))
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	manager := chathub.NewManager(current.session, current.api, chathub.Options{
		BaseURL:    current.cfg.BaseURL,
		ChatConfig: current.cfg.Chat,
		Logger:     current.logger.Named("chat"),
	})
	defer manager.CloseAll()

	sess, err := manager.Open(ctx, partnerID)
	if errors.Is(err, chathub.ErrInvalidPartner) {
		return errors.New(current.t("chat.invalid_partner"))
	}
	if err != nil {
		return err
	}

	names := map[int64]string{current.session.UserID: "you"}
	if p, err := current.api.UserPublicProfile(ctx, partnerID); err == nil {
		names[partnerID] = p.Username
		if p.FullName != "" {
			names[partnerID] = p.FullName
		}
	} else {
		current.logger.Debug("partner profile unavailable", zap.Error(err))
		names[partnerID] = "#" + strconv.FormatInt(partnerID, 10)
	}

	fmt.Fprintln(out, current.t("chat.prompt"))
	lines := readLines(cmd.InOrStdin())
	view := &chatView{out: out, names: names}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sess.Changes():
			view.render(sess)
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := sess.Send(ctx, partnerID, line); err != nil {
				fmt.Fprintln(out, "!", err)
			}
		}
	}
}

// chatFeed is the part of a chat session the view reads.
type chatFeed interface {
	Status() string
	HistoryErr() error
	HistoryLoaded() bool
	Messages() []models.ChatMessage
}

// chatView prints what changed since the last render.
type chatView struct {
	out         io.Writer
	names       map[int64]string
	printed     int
	status      string
	historyNote bool
}

func (v *chatView) render(s chatFeed) {
	if status := s.Status(); status != v.status {
		v.status = status
		fmt.Fprintf(v.out, "[%s]\n", current.t(status))
	}
	if s.HistoryErr() != nil && !v.historyNote {
		v.historyNote = true
		fmt.Fprintln(v.out, current.t("chat.history_failed"))
	}

	msgs := s.Messages()
	if s.HistoryLoaded() && len(msgs) == 0 && v.printed == 0 && !v.historyNote {
		v.historyNote = true
		fmt.Fprintln(v.out, current.t("chat.empty"))
	}
	// Until history settles the list is only the buffered tail; wait so
	// history is printed first.
	if !s.HistoryLoaded() {
		return
	}
	for _, m := range msgs[min(v.printed, len(msgs)):] {
		fmt.Fprintln(v.out, v.format(m))
	}
	v.printed = len(msgs)
}

func (v *chatView) format(m models.ChatMessage) string {
	stamp := ""
	if t, err := time.Parse(time.RFC3339Nano, m.Timestamp); err == nil {
		stamp = t.Local().Format("15:04") + " "
	}
	return fmt.Sprintf("%s%s: %s", stamp, v.names[m.SenderID], m.Content)
}

// readLines feeds stdin lines into a channel closed at EOF.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}
