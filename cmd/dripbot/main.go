// Command dripbot announces fresh coffee to Mattermost from a button on a
// Raspberry Pi and counts the pot down on a NeoPixel ring.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/dripbot/internal/chat"
	"github.com/sweeney/dripbot/internal/config"
	"github.com/sweeney/dripbot/internal/gpio"
	"github.com/sweeney/dripbot/internal/logging"
	"github.com/sweeney/dripbot/internal/logic"
	"github.com/sweeney/dripbot/internal/ring"
	"github.com/sweeney/dripbot/internal/words"
)

// options holds every setting, filled from flags and then from the config
// file for flags that were not set explicitly.
type options struct {
	configPath string
	logFile    string
	debug      bool

	mmURL        string
	mmKey        string
	channel      string
	username     string
	iconURL      string
	testChannel  string
	testUsername string
	insecure     bool
	sendTimeout  time.Duration

	chip           string
	buttonPin      int
	ringKind       string
	ringPin        int
	ringCount      int
	ringBrightness int

	freshCountdown time.Duration
	dashDelay      time.Duration
	holdoff        time.Duration
	poll           time.Duration
	heartbeat      time.Duration

	broker   string
	clientID string
	httpAddr string
	history  string
	tables   string
}

func defaultOptions() *options {
	mc := logic.DefaultConfig()
	return &options{
		configPath:     config.DefaultConfigPath(),
		logFile:        config.DefaultLogPath(),
		username:       "DripBot",
		testChannel:    "scratch-area",
		testUsername:   "DripBot Test",
		sendTimeout:    mc.SendTimeout,
		chip:           gpio.DefaultChip,
		buttonPin:      gpio.DefaultPin,
		ringKind:       "ws281x",
		ringPin:        ring.DefaultHardware.Pin,
		ringCount:      ring.DefaultHardware.Count,
		ringBrightness: ring.DefaultHardware.Brightness,
		freshCountdown: mc.FreshCountdown,
		dashDelay:      mc.DashDelay,
		holdoff:        mc.Holdoff,
		poll:           20 * time.Millisecond,
		heartbeat:      15 * time.Minute,
		broker:         "tcp://localhost:1883",
		clientID:       "dripbot",
		httpAddr:       ":8080",
		history:        config.DefaultHistoryPath(),
	}
}

func main() {
	if err := newRootCmd(defaultOptions()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(o *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dripbot",
		Short:         "Coffee pot announcer and countdown ring",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", o.configPath, "TOML config file")
	pf.StringVar(&o.logFile, "log-file", o.logFile, "log file (empty to disable)")
	pf.BoolVar(&o.debug, "debug", false, "log at debug level to file and console")
	pf.StringVar(&o.mmURL, "mm-url", "", "Mattermost server URL")
	pf.StringVar(&o.mmKey, "mm-key", "", "Mattermost incoming webhook key")
	pf.BoolVar(&o.insecure, "insecure", false, "skip TLS verification for the Mattermost server")
	pf.DurationVar(&o.sendTimeout, "send-timeout", o.sendTimeout, "timeout for one webhook post")
	pf.StringVar(&o.history, "history-db", o.history, "SQLite announcement history (empty to disable)")
	pf.StringVar(&o.tables, "tables", "", "directory of letter tables (default: built in)")

	rootCmd.AddCommand(newRunCmd(o))
	rootCmd.AddCommand(newSendCmd(o))
	rootCmd.AddCommand(newWordsCmd(o))
	rootCmd.AddCommand(newHistoryCmd(o))
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadConfig merges the config file into o. Flags set on the command line
// win over file values.
func loadConfig(cmd *cobra.Command, o *options) error {
	fc, err := config.LoadConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyConfig(cmd, "mm-url", &o.mmURL, fc.Mattermost.URL)
	applyConfig(cmd, "mm-key", &o.mmKey, fc.Mattermost.APIKey)
	applyConfig(cmd, "channel", &o.channel, fc.Mattermost.Channel)
	applyConfig(cmd, "username", &o.username, fc.Mattermost.Username)
	applyConfig(cmd, "icon-url", &o.iconURL, fc.Mattermost.IconURL)
	applyConfig(cmd, "test-channel", &o.testChannel, fc.Mattermost.TestChannel)
	applyConfig(cmd, "test-username", &o.testUsername, fc.Mattermost.TestUsername)
	applyConfig(cmd, "insecure", &o.insecure, fc.Mattermost.InsecureSkipVerify)
	applyConfig(cmd, "send-timeout", &o.sendTimeout, fc.Mattermost.Timeout.Ptr())

	applyConfig(cmd, "chip", &o.chip, fc.Hardware.Chip)
	applyConfig(cmd, "pin", &o.buttonPin, fc.Hardware.ButtonPin)
	applyConfig(cmd, "ring", &o.ringKind, fc.Hardware.Ring)
	applyConfig(cmd, "ring-pin", &o.ringPin, fc.Hardware.RingPin)
	applyConfig(cmd, "ring-count", &o.ringCount, fc.Hardware.RingCount)
	applyConfig(cmd, "brightness", &o.ringBrightness, fc.Hardware.RingBrightness)

	applyConfig(cmd, "fresh-countdown", &o.freshCountdown, fc.Timing.FreshCountdown.Ptr())
	applyConfig(cmd, "dash-delay", &o.dashDelay, fc.Timing.DashDelay.Ptr())
	applyConfig(cmd, "holdoff", &o.holdoff, fc.Timing.Holdoff.Ptr())
	applyConfig(cmd, "poll", &o.poll, fc.Timing.Poll.Ptr())
	applyConfig(cmd, "heartbeat", &o.heartbeat, fc.Timing.Heartbeat.Ptr())

	applyConfig(cmd, "broker", &o.broker, fc.MQTT.Broker)
	applyConfig(cmd, "client-id", &o.clientID, fc.MQTT.ClientID)
	applyConfig(cmd, "http", &o.httpAddr, fc.HTTP.Addr)
	applyConfig(cmd, "history-db", &o.history, fc.History.Path)
	applyConfig(cmd, "log-file", &o.logFile, fc.Log.File)
	applyConfig(cmd, "debug", &o.debug, fc.Log.Debug)
	applyConfig(cmd, "tables", &o.tables, fc.Words.TablesDir)
	return nil
}

// applyConfig copies a file value into target unless the named flag was set.
func applyConfig[T any](cmd *cobra.Command, name string, target, value *T) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// setup loads config and installs the logger. The closer releases the log file.
func setup(cmd *cobra.Command, o *options) (io.Closer, error) {
	if err := loadConfig(cmd, o); err != nil {
		return nil, err
	}
	closer, err := logging.Setup(logging.Config{File: o.logFile, Console: cmd.ErrOrStderr(), Debug: o.debug})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	slog.Debug("config loaded", "path", o.configPath)
	return closer, nil
}

func (o *options) chatConfig() chat.Config {
	return chat.Config{
		URL:                o.mmURL,
		APIKey:             o.mmKey,
		Channel:            o.channel,
		Username:           o.username,
		IconURL:            o.iconURL,
		InsecureSkipVerify: o.insecure,
		Timeout:            o.sendTimeout,
	}
}

func (o *options) machineConfig() logic.Config {
	mc := logic.DefaultConfig()
	mc.FreshCountdown = o.freshCountdown
	mc.DashDelay = o.dashDelay
	mc.Holdoff = o.holdoff
	mc.SendTimeout = o.sendTimeout
	return mc
}

func (o *options) loadTables() (*words.Tables, error) {
	if o.tables == "" {
		return words.DefaultTables()
	}
	return words.LoadTablesDir(o.tables)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print a commented default config file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.DefaultConfigTemplate())
		},
	}
}
