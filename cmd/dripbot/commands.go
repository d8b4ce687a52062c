package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sweeney/dripbot/internal/chat"
	"github.com/sweeney/dripbot/internal/history"
	"github.com/sweeney/dripbot/internal/words"
)

func newSendCmd(o *options) *cobra.Command {
	var (
		message string
		test    bool
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to Mattermost as DripBot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closer, err := setup(cmd, o)
			if err != nil {
				return err
			}
			defer closer.Close()

			w, err := chat.NewWebhook(o.chatConfig())
			if err != nil {
				return fmt.Errorf("init chat: %w", err)
			}
			return sendMessage(cmd.Context(), w, o, message, test)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&message, "message", "m", "", "message to be sent to the channel")
	f.StringVarP(&o.channel, "channel", "c", o.channel, "Mattermost channel to send the message to")
	f.StringVarP(&o.username, "username", "u", o.username, "user name the message comes from")
	f.StringVarP(&o.iconURL, "icon-url", "i", o.iconURL, "URL of the icon shown as the avatar")
	f.BoolVarP(&test, "test", "t", false, "send to the test channel as the test user")
	f.StringVar(&o.testChannel, "test-channel", o.testChannel, "channel used by --test")
	f.StringVar(&o.testUsername, "test-username", o.testUsername, "user name used by --test")
	cmd.MarkFlagRequired("message")
	return cmd
}

// payloadSender is the part of chat.Webhook used by send.
type payloadSender interface {
	SendAs(ctx context.Context, p chat.Payload) error
}

func sendMessage(ctx context.Context, s payloadSender, o *options, message string, test bool) error {
	if message == "" {
		return fmt.Errorf("message is empty")
	}
	p := chat.Payload{
		Text:     message,
		Channel:  o.channel,
		Username: o.username,
		IconURL:  o.iconURL,
	}
	if test {
		p.Channel = o.testChannel
		p.Username = o.testUsername
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.sendTimeout)
	defer cancel()
	if err := s.SendAs(ctx, p); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func newWordsCmd(o *options) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Print generated announcement phrases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd, o); err != nil {
				return err
			}
			tables, err := o.loadTables()
			if err != nil {
				return fmt.Errorf("load letter tables: %w", err)
			}
			g := words.NewGenerator(tables)
			for i := 0; i < n; i++ {
				phrase, err := g.Phrase()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), phrase)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 10, "number of phrases")
	return cmd
}

func newHistoryCmd(o *options) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent announcements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd, o); err != nil {
				return err
			}
			if o.history == "" {
				return fmt.Errorf("history is disabled")
			}
			store, err := history.NewSQLiteStore(o.history)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), n)
			if err != nil {
				return err
			}
			printHistory(cmd, entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 20, "number of entries")
	return cmd
}

func printHistory(cmd *cobra.Command, entries []history.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT\tPHRASE\tERROR")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Time.Local().Format("2006-01-02 15:04:05"), e.Event, e.Phrase, e.Error)
	}
	w.Flush()
}
