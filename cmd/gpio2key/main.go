// Command gpio2key turns GPIO buttons into key presses on a virtual
// keyboard and powers the host off when a power switch line is enabled.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/sweeney/gpio2key/internal/config"
	"github.com/sweeney/gpio2key/internal/gpio"
	"github.com/sweeney/gpio2key/internal/keyboard"
	"github.com/sweeney/gpio2key/internal/listener"
	"github.com/sweeney/gpio2key/internal/logic"
	"github.com/sweeney/gpio2key/internal/mqtt"
	"github.com/sweeney/gpio2key/internal/power"
	"github.com/sweeney/gpio2key/internal/status"
	"github.com/sweeney/gpio2key/internal/web"
)

const version = "0.1.0"

type options struct {
	configPath string
	device     string
	logLevel   string
	raspberry  bool
	printState bool
	dryRun     bool
	broker     string
	httpAddr   string
}

func parseArgs(args []string) (*options, error) {
	app := kingpin.New("gpio2key", "Map GPIO buttons to virtual keyboard keys.")
	app.Version(version)

	var o options
	app.Flag("config", "Configuration file").Short('c').Default("config.toml").StringVar(&o.configPath)
	app.Flag("device", "GPIO character device").Short('d').Default(gpio.DefaultDevice).StringVar(&o.device)
	app.Flag("log-level", "Log level (trace, debug, info, warn, error)").Short('l').Default("info").StringVar(&o.logLevel)
	app.Flag("raspberry", "Use the Raspberry Pi register backend instead of the character device").BoolVar(&o.raspberry)
	app.Flag("print-state", "Print the current state of every configured line and exit").BoolVar(&o.printState)
	app.Flag("dry-run", "Log power switch activations instead of powering off").BoolVar(&o.dryRun)
	app.Flag("broker", "MQTT broker address, overrides the config file").StringVar(&o.broker)
	app.Flag("http", "HTTP status address, overrides the config file").StringVar(&o.httpAddr)

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}
	return &o, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpio2key: %v\n", err)
		os.Exit(2)
	}
	if err := setupLogging(opts.logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "gpio2key: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func setupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

func run(opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.broker != "" {
		cfg.MQTT.Broker = opts.broker
	}
	if opts.httpAddr != "" {
		cfg.HTTP.Addr = opts.httpAddr
	}
	logConfig(cfg)

	chip, backend, err := openChip(opts)
	if err != nil {
		return err
	}
	defer chip.Close()

	keys, switches, err := bindLines(chip, cfg)
	if err != nil {
		return err
	}
	defer closeLines(keys, switches)

	if opts.printState {
		return printState(os.Stdout, keys, switches)
	}

	kb, err := keyboard.NewUinput(cfg.Keycodes())
	if err != nil {
		return err
	}
	defer kb.Close()
	log.Infof("virtual keyboard %q created", keyboard.DeviceName)

	var shutdowner power.Shutdowner = power.System{}
	if opts.dryRun {
		shutdowner = power.DryRun{}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.PollInterval().Milliseconds(),
		DebounceMs:  cfg.Debounce().Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat().Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Device:      opts.device,
		Backend:     backend,
		DryRun:      opts.dryRun,
	}, keyInfos(keys), switchOffsets(switches))

	observers := []listener.Observer{tracker}

	var (
		publisher mqtt.Publisher
		conn      mqtt.ConnectionStatus
		relay     *mqtt.Relay
	)
	if cfg.MQTT.Broker != "" {
		rp := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.Client(), mqtt.TopicsFor(cfg.MQTT.Prefix()))
		publisher, conn = rp, rp
		defer publisher.Close()

		relay = mqtt.NewRelay(publisher, mqtt.DefaultRelaySize)
		observers = append(observers, relay)
		publishLifecycle(publisher, conn, tracker, mqtt.EventStartup, "")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTP.Addr)
	}

	l := listener.New(listener.Config{
		Keyboard:      kb,
		Keys:          keys,
		PowerSwitches: switches,
		Shutdowner:    shutdowner,
		PollInterval:  cfg.PollInterval(),
		Observers:     observers,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go watchSignals(sigCh, l.Exit())

	done := make(chan struct{})
	if publisher != nil {
		go monitor(publisher, conn, tracker, cfg.MQTT.Heartbeat(), done)
	}

	l.Run()
	close(done)

	if relay != nil {
		relay.Close()
		if n := relay.Dropped(); n > 0 {
			log.Warnf("mqtt: %d events dropped while the relay was full", n)
		}
		publishLifecycle(publisher, conn, tracker, mqtt.EventShutdown, l.Exit().Reason())
	}
	return nil
}

func logConfig(cfg *config.Config) {
	log.Infof("config: poll=%v debounce=%v active_low=%v", cfg.PollInterval(), cfg.Debounce(), cfg.ActiveLow())
	for _, k := range cfg.Keys {
		fields := log.Fields{
			"gpio":       k.GPIO,
			"keycode":    k.Keycode,
			"debounce":   cfg.KeyDebounce(k),
			"active_low": cfg.KeyActiveLow(k),
		}
		if rp := k.RepeatPolicy(); rp != nil {
			fields["repeat_delay"] = rp.Delay
			fields["repeat_rate"] = rp.Rate
		}
		log.WithFields(fields).Info("config: key")
	}
	for _, s := range cfg.PowerSwitches {
		log.WithFields(log.Fields{"gpio": s.GPIO, "active_low": s.ActiveLow}).Info("config: power switch")
	}
	if cfg.MQTT.Broker != "" {
		log.Infof("config: mqtt broker=%s prefix=%s heartbeat=%v", cfg.MQTT.Broker, cfg.MQTT.Prefix(), cfg.MQTT.Heartbeat())
	}
}

func openChip(opts *options) (gpio.Chip, string, error) {
	if opts.raspberry {
		chip, err := gpio.OpenRaspberryChip()
		if err != nil {
			return nil, "", err
		}
		return chip, "raspberry", nil
	}
	chip, err := gpio.OpenCdevChip(opts.device)
	if err != nil {
		return nil, "", err
	}
	return chip, "cdev", nil
}

// bindLines requests every configured line and builds the key state
// machines. On error the lines already requested are released.
func bindLines(chip gpio.Chip, cfg *config.Config) ([]listener.Key, []listener.PowerSwitch, error) {
	var keys []listener.Key
	var switches []listener.PowerSwitch

	for _, k := range cfg.Keys {
		line, err := chip.Line(k.GPIO, cfg.KeyActiveLow(k))
		if err != nil {
			closeLines(keys, switches)
			return nil, nil, fmt.Errorf("key %s: %w", k.Keycode, err)
		}
		keys = append(keys, listener.Key{
			Line:   line,
			Offset: k.GPIO,
			State:  logic.NewKeyState(k.Keycode, cfg.KeyDebounce(k), k.RepeatPolicy()),
		})
	}
	for _, s := range cfg.PowerSwitches {
		line, err := chip.Line(s.GPIO, s.ActiveLow)
		if err != nil {
			closeLines(keys, switches)
			return nil, nil, fmt.Errorf("power switch: %w", err)
		}
		switches = append(switches, listener.PowerSwitch{Line: line, Offset: s.GPIO})
	}
	return keys, switches, nil
}

func closeLines(keys []listener.Key, switches []listener.PowerSwitch) {
	for _, k := range keys {
		if err := k.Line.Close(); err != nil {
			log.Warnf("close gpio %d: %v", k.Offset, err)
		}
	}
	for _, s := range switches {
		if err := s.Line.Close(); err != nil {
			log.Warnf("close gpio %d: %v", s.Offset, err)
		}
	}
}

func printState(w io.Writer, keys []listener.Key, switches []listener.PowerSwitch) error {
	for _, k := range keys {
		v, err := k.Line.Read()
		if err != nil {
			return fmt.Errorf("read gpio %d: %w", k.Offset, err)
		}
		fmt.Fprintf(w, "key %s gpio %d: %s\n", k.State.Key, k.Offset, v)
	}
	for _, s := range switches {
		v, err := s.Line.Read()
		if err != nil {
			return fmt.Errorf("read gpio %d: %w", s.Offset, err)
		}
		fmt.Fprintf(w, "power switch gpio %d: %s\n", s.Offset, v)
	}
	return nil
}

func keyInfos(keys []listener.Key) []status.KeyInfo {
	infos := make([]status.KeyInfo, 0, len(keys))
	for _, k := range keys {
		infos = append(infos, status.KeyInfo{
			GPIO:    k.Offset,
			Keycode: k.State.Key.String(),
			Repeat:  k.State.Repeat() != nil,
		})
	}
	return infos
}

func switchOffsets(switches []listener.PowerSwitch) []int {
	offsets := make([]int, 0, len(switches))
	for _, s := range switches {
		offsets = append(offsets, s.Offset)
	}
	return offsets
}

func signalReason(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return listener.ReasonSIGINT
	case syscall.SIGTERM:
		return listener.ReasonSIGTERM
	}
	return "UNKNOWN"
}

// watchSignals sets the exit flag on the first signal. The polling loop
// notices it at the next tick boundary.
func watchSignals(sig <-chan os.Signal, exit *listener.ExitFlag) {
	s, ok := <-sig
	if !ok {
		return
	}
	log.Infof("received %v, shutting down", s)
	exit.Set(signalReason(s))
}

// publishLifecycle publishes a retained STARTUP or SHUTDOWN event carrying
// a full status snapshot.
func publishLifecycle(pub mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker, event, reason string) {
	if conn != nil {
		tracker.SetMQTTConnected(conn.IsConnected())
	}
	snap := tracker.Snapshot()
	err := pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Warnf("failed to publish %s event: %v", event, err)
		return
	}
	log.Infof("published %s event", event)
}

const connCheckInterval = time.Second

// monitor keeps the tracker's MQTT state current and publishes a
// HEARTBEAT every heartbeat interval (0 disables) until done is closed.
func monitor(pub mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, done <-chan struct{}) {
	check := time.NewTicker(connCheckInterval)
	defer check.Stop()

	var hb <-chan time.Time
	if heartbeat > 0 {
		t := time.NewTicker(heartbeat)
		defer t.Stop()
		hb = t.C
	}
	monitorLoop(pub, conn, tracker, check.C, hb, done)
}

func monitorLoop(pub mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker, check, heartbeat <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-check:
			tracker.SetMQTTConnected(conn.IsConnected())
		case <-heartbeat:
			tracker.SetMQTTConnected(conn.IsConnected())
			snap := tracker.Snapshot()
			log.Debugf("heartbeat: uptime=%v events=%d", snap.Uptime().Truncate(time.Second), snap.TotalEvents())
			err := pub.PublishSystem(mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      mqtt.EventHeartbeat,
				RawPayload: status.FormatStatusEvent(snap, mqtt.EventHeartbeat, ""),
			})
			if err != nil {
				log.Warnf("heartbeat publish error: %v", err)
			}
		}
	}
}
