// Command inputshare-client is the desktop input-sharing client: it
// connects to a server, runs the session engine, and exposes a tray icon
// plus a local diagnostics endpoint. Command structure follows the
// teacher's cobra-based layout pattern, adapted to this client's smaller
// surface (connect/status/version instead of switch/list/ui).
package main

import (
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"inputshare/internal/autostart"
	"inputshare/internal/config"
	"inputshare/internal/diag"
	"inputshare/internal/eventloop"
	"inputshare/internal/hotkey"
	"inputshare/internal/obs"
	"inputshare/internal/osutils"
	"inputshare/internal/resolve"
	"inputshare/internal/screen"
	"inputshare/internal/session"
	"inputshare/internal/stream"
	"inputshare/internal/transportimpl"
	"inputshare/internal/tray"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "inputshare-client",
		Short: "Desktop input-sharing client",
	}
	root.AddCommand(newConnectCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running client's diagnostics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(fmt.Sprintf("http://%s/api/status", addr))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, err = fmt.Println(resp.Status)
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:18080", "diagnostics server address")
	return cmd
}

func newConnectCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to the configured server and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func runClient(debugFlag bool) error {
	cfgMgr, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfgMgr.Load(); err != nil {
		obs.Warn("failed to load config", obs.Fields{"error": err.Error()})
	}
	cfg := cfgMgr.Get()
	obs.EnableDebug(cfg.Debug || debugFlag)

	if cfg.ServerAddress == "" {
		return fmt.Errorf("no server_address configured; edit the config file and retry")
	}

	loop := eventloop.New()
	scr := screen.NewReference(loop)

	endpoint, err := buildEndpoint(cfg)
	if err != nil {
		return err
	}

	crypto, err := buildCryptoOptions(cfg)
	if err != nil {
		return err
	}

	var tf stream.TransportFactory
	if cfg.Transport == "ws" {
		tf = transportimpl.WSFactory{}
	} else {
		tf = transportimpl.TCPFactory{}
	}

	sess := session.New(loop, session.Params{
		Name:             cfg.Name,
		Endpoint:         endpoint,
		Screen:           scr,
		TransportFactory: tf,
		Resolver:         resolve.NewResolver(),
		Crypto:           crypto,
	})

	// manualReconnect lets goroutines outside the loop (tray clicks,
	// global hotkeys) ask for a reconnect without touching session state
	// themselves; the session is only ever driven from loop.Run's own
	// goroutine.
	manualReconnect := eventloop.NewType("cmd.manualReconnect")
	loop.Subscribe(manualReconnect, sess, func(eventloop.Event) {
		sess.Disconnect("")
		sess.Connect()
	})
	requestReconnect := func() { loop.Post(eventloop.Event{Type: manualReconnect, Target: sess}) }

	// retryConnect is posted from a timer goroutine once the retry delay
	// has elapsed, so the reconnect itself still runs on the loop.
	retryConnect := eventloop.NewType("cmd.retryConnect")
	loop.Subscribe(retryConnect, sess, func(eventloop.Event) { sess.Connect() })
	scheduleRetry := func() {
		time.AfterFunc(5*time.Second, func() { loop.Post(eventloop.Event{Type: retryConnect, Target: sess}) })
	}

	loop.Subscribe(session.Connected, sess, func(eventloop.Event) {
		obs.Info("session active", nil)
	})
	loop.Subscribe(session.ConnectionFailed, sess, func(ev eventloop.Event) {
		info := ev.Data.(session.ConnectionFailedInfo)
		obs.Warn("connect failed, retrying in 5s", obs.Fields{"reason": info.Message})
		scheduleRetry()
	})
	loop.Subscribe(session.Disconnected, sess, func(eventloop.Event) {
		obs.Info("disconnected, reconnecting in 5s", nil)
		scheduleRetry()
	})

	if cfg.DiagAddr != "" {
		if runtime.GOOS == "windows" {
			if _, portStr, err := net.SplitHostPort(cfg.DiagAddr); err == nil {
				if port, err := strconv.Atoi(portStr); err == nil {
					go func() {
						if err := osutils.EnsureFirewallRule(port); err != nil {
							obs.Warn("firewall rule setup failed", obs.Fields{"error": err.Error()})
						}
					}()
				}
			}
		}
		d := diag.New(cfg.Name, sess)
		go func() {
			if err := d.Serve(cfg.DiagAddr); err != nil {
				obs.Error("diagnostics server stopped", obs.Fields{"error": err.Error()})
			}
		}()
	}

	if cfg.StartOnBoot && !autostart.IsEnabled() {
		if err := autostart.Enable(); err != nil {
			obs.Warn("failed to enable autostart", obs.Fields{"error": err.Error()})
		}
	}

	hkMgr := hotkey.NewManager()
	if cfg.ReconnectHotkey != "" {
		if _, err := hkMgr.Register(cfg.ReconnectHotkey, func() {
			obs.Info("manual reconnect requested", nil)
			requestReconnect()
		}); err != nil {
			obs.Warn("failed to register reconnect hotkey", obs.Fields{"error": err.Error()})
		}
	}
	if err := hkMgr.Start(); err != nil {
		obs.Warn("hotkey engine failed to start", obs.Fields{"error": err.Error()})
	}

	t := tray.New(fmt.Sprintf("inputshare-client: %s", cfg.Name))
	t.AddMenuItem("Reconnect now", requestReconnect)
	t.AddSeparator()
	t.AddMenuItem("Quit", func() { t.Stop() })

	go loop.Run()
	requestReconnect()

	// shutdown carries an OS signal onto the loop so sess.Close runs on
	// loop.Run's goroutine like every other session call.
	shutdown := eventloop.NewType("cmd.shutdown")
	loop.Subscribe(shutdown, sess, func(eventloop.Event) {
		sess.Close()
		t.Stop()
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		obs.Info("shutting down", nil)
		loop.Post(eventloop.Event{Type: shutdown, Target: sess})
	}()

	t.Run()
	return nil
}

func buildEndpoint(cfg *config.Config) (stream.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(cfg.ServerAddress)
	if err != nil {
		return stream.Endpoint{}, fmt.Errorf("server_address %q: %w", cfg.ServerAddress, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return stream.Endpoint{}, fmt.Errorf("server_address %q: invalid port: %w", cfg.ServerAddress, err)
	}
	return stream.Endpoint{Network: true, Host: host, Port: port}, nil
}

func buildCryptoOptions(cfg *config.Config) (stream.Options, error) {
	if !cfg.CryptoEnabled {
		return stream.Options{Mode: stream.Disabled}, nil
	}
	key, err := hex.DecodeString(cfg.CryptoKeyHex)
	if err != nil {
		return stream.Options{}, fmt.Errorf("crypto_key_hex: %w", err)
	}
	return stream.Options{Mode: stream.Enabled, Key: key}, nil
}

