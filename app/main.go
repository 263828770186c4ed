package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tbapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/fatih/color"
	"github.com/go-pkgz/fileutils"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/tg-moderator/app/bot"
	"github.com/umputun/tg-moderator/app/events"
	"github.com/umputun/tg-moderator/app/webapi"
	"github.com/umputun/tg-moderator/lib/flood"
	"github.com/umputun/tg-moderator/lib/matcher"
	"github.com/umputun/tg-moderator/lib/spamrule"
	"github.com/umputun/tg-moderator/lib/toxic"
)

type options struct {
	Telegram struct {
		Token   string        `long:"token" env:"TOKEN" description:"telegram bot token" required:"true"`
		Group   string        `long:"group" env:"GROUP" description:"group name/id" required:"true"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"http client timeout for telegram"`
	} `group:"telegram" namespace:"telegram" env-namespace:"TELEGRAM"`

	SuperUsers []string `long:"super" env:"SUPER_USER" env-delim:"," description:"super-users, allowed to reset moderation state"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable moderation rotated logs"`
		FileName   string `long:"file" env:"FILE" default:"tg-moderator.log" description:"location of moderation log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	Server struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable web server"`
		ListenAddr string `long:"listen" env:"LISTEN" default:":8080" description:"listen address"`
		AuthPasswd string `long:"auth" env:"AUTH" default:"" description:"basic auth password for user 'tg-moderator'"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Files struct {
		Lexicon        string `long:"lexicon" env:"LEXICON" default:"data/lexicon.txt" description:"toxic words, builtin list if missing"`
		SpamKeywords   string `long:"spam-keywords" env:"SPAM_KEYWORDS" default:"data/spam-keywords.txt" description:"spam phrases, builtin list if missing"`
		InviteKeywords string `long:"invite-keywords" env:"INVITE_KEYWORDS" default:"data/invite-keywords.txt" description:"game invitation phrases, builtin list if missing"`
	} `group:"files" namespace:"files" env-namespace:"FILES"`

	Moderation struct {
		RemovalDelay   time.Duration `long:"removal-delay" env:"REMOVAL_DELAY" default:"2s" description:"delay between removal announcement and removal"`
		ConfidenceMode string        `long:"confidence-mode" env:"CONFIDENCE_MODE" default:"sum" choice:"sum" choice:"mean" description:"how to combine violation confidences"`
		HistorySize    int           `long:"history-size" env:"HISTORY_SIZE" default:"500" description:"message history size"`
		FloodWindow    time.Duration `long:"flood-window" env:"FLOOD_WINDOW" default:"60s" description:"flood detection window"`
		FloodMax       int           `long:"flood-max" env:"FLOOD_MAX" default:"5" description:"max messages per window"`
		FloodMaxUsers  int           `long:"flood-max-users" env:"FLOOD_MAX_USERS" default:"0" description:"max tracked users, unlimited if 0"`
		SpamThreshold  float64       `long:"spam-threshold" env:"SPAM_THRESHOLD" default:"0.7" description:"spam score threshold"`
		NoSpamReply    bool          `long:"no-spam-reply" env:"NO_SPAM_REPLY" description:"do not reply to spam messages"`
		NoInvite       bool          `long:"no-invite" env:"NO_INVITE" description:"do not announce game invitations"`
	} `group:"moderation" namespace:"moderation" env-namespace:"MODERATION"`

	StartupMsg string `long:"startup-msg" env:"STARTUP_MSG" default:"" description:"startup message"`
	Dry        bool   `long:"dry" env:"DRY" description:"dry mode, no removals"`
	Kick       bool   `long:"kick" env:"KICK" description:"kick instead of permanent ban, user can join again"`
	Dbg        bool   `long:"dbg" env:"DEBUG" description:"debug mode"`
	TGDbg      bool   `long:"tg-dbg" env:"TG_DEBUG" description:"telegram debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("tg-moderator %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	setupLog(opts.Dbg, opts.Telegram.Token, opts.Server.AuthPasswd)
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	if opts.Dry {
		log.Print("[WARN] dry mode, no actual removals")
	}

	// make telegram bot
	tbAPI, err := tbapi.NewBotAPIWithClient(opts.Telegram.Token, tbapi.APIEndpoint,
		&http.Client{Timeout: opts.Telegram.Timeout})
	if err != nil {
		return fmt.Errorf("can't make telegram bot, %w", err)
	}
	tbAPI.Debug = opts.TGDbg

	// make moderation log
	loggerWr, err := makeModLogWriter(opts)
	if err != nil {
		return fmt.Errorf("can't make moderation log writer, %w", err)
	}
	defer loggerWr.Close()

	supers := events.NewSuperUsers(opts.SuperUsers...)
	tgListener := &events.TelegramListener{
		TbAPI:      tbAPI,
		ModLogger:  makeModLogger(loggerWr),
		Group:      opts.Telegram.Group,
		BotID:      tbAPI.Self.ID,
		SuperUsers: supers,
		StartupMsg: opts.StartupMsg,
		Dry:        opts.Dry,
		Kick:       opts.Kick,
	}

	// restrict resets to super users only if configured explicitly, chat admins are added by listener
	var resetters bot.SuperUser
	if len(opts.SuperUsers) > 0 {
		resetters = supers
	}
	moderator, err := makeModerator(ctx, opts, tgListener, resetters)
	if err != nil {
		return fmt.Errorf("can't make moderator, %w", err)
	}
	tgListener.Moderator = moderator
	defer moderator.Wait() // let scheduled removals finish

	if opts.Server.Enabled {
		srv := webapi.NewServer(webapi.Config{ListenAddr: opts.Server.ListenAddr, Moderator: moderator,
			AuthPasswd: opts.Server.AuthPasswd, Version: revision})
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("[ERROR] web server failed, %v", err)
			}
		}()
	}

	log.Printf("[DEBUG] telegram listener config: {group: %s, super: %v, dry: %v, kick: %v}",
		tgListener.Group, opts.SuperUsers, tgListener.Dry, tgListener.Kick)

	// run telegram listener and event processor loop
	if err := tgListener.Do(ctx); err != nil {
		return fmt.Errorf("telegram listener failed, %w", err)
	}
	return nil
}

// makeModerator creates moderation engine with lexicon and keyword files loaded
func makeModerator(ctx context.Context, opts options, transport bot.Transport, supers bot.SuperUser) (*bot.Moderator, error) {
	lexicon, err := loadLexicon(opts.Files.Lexicon)
	if err != nil {
		return nil, err
	}

	cfg := bot.Config{
		Toxic: toxic.Config{
			Lexicon:        lexicon,
			HistorySize:    opts.Moderation.HistorySize,
			ConfidenceMode: toxic.ConfidenceMode(opts.Moderation.ConfidenceMode),
		},
		Flood: flood.Config{
			Window:      opts.Moderation.FloodWindow,
			MaxMessages: opts.Moderation.FloodMax,
			MaxUsers:    opts.Moderation.FloodMaxUsers,
		},
		Spam:         spamrule.Config{Threshold: opts.Moderation.SpamThreshold},
		RemovalDelay: opts.Moderation.RemovalDelay,
		NoSpamReply:  opts.Moderation.NoSpamReply,
		NoInvite:     opts.Moderation.NoInvite,
		SuperUsers:   supers,
	}
	moderator := bot.New(transport, cfg)
	log.Printf("[DEBUG] moderator config: {lexicon: %d, confidence: %s, flood: %+v, spam: %+v, removal delay: %v}",
		len(lexicon), cfg.Toxic.ConfidenceMode, cfg.Flood, cfg.Spam, cfg.RemovalDelay)

	files := bot.KeywordFiles{}
	if fileutils.IsFile(opts.Files.SpamKeywords) {
		files.Spam = opts.Files.SpamKeywords
	} else {
		log.Printf("[INFO] spam keywords file %q not found, builtin keywords used", opts.Files.SpamKeywords)
	}
	if fileutils.IsFile(opts.Files.InviteKeywords) {
		files.Invite = opts.Files.InviteKeywords
	} else {
		log.Printf("[INFO] invite keywords file %q not found, builtin keywords used", opts.Files.InviteKeywords)
	}
	if err := moderator.LoadKeywords(ctx, files); err != nil {
		return nil, fmt.Errorf("can't load keywords, %w", err)
	}
	return moderator, nil
}

// loadLexicon reads toxic words from the file, nil (builtin lexicon) if file missing
func loadLexicon(path string) ([]string, error) {
	if !fileutils.IsFile(path) {
		log.Printf("[INFO] lexicon file %q not found, builtin lexicon used", path)
		return nil, nil
	}
	fh, err := os.Open(path) //nolint:gosec // path from options
	if err != nil {
		return nil, fmt.Errorf("can't open lexicon %s, %w", path, err)
	}
	defer fh.Close()

	res, err := matcher.LoadLexicon(fh)
	if err != nil {
		return nil, fmt.Errorf("can't load lexicon %s, %w", path, err)
	}
	log.Printf("[INFO] lexicon loaded from %s, %d words", path, len(res))
	return res, nil
}

// makeModLogger creates moderation logger to keep reports about toxic and spam messages
// it writes json lines to the provided writer
func makeModLogger(wr io.Writer) events.ModLogger {
	return events.ModLoggerFunc(func(msg *bot.Message, outcome *bot.Outcome) {
		entry := events.NewModLogEntry(msg, outcome)
		log.Printf("[INFO] moderated message from %s, toxic: %v, spam: %v", bot.DisplayName(*msg), entry.Toxic, entry.Spam)
		line, err := json.Marshal(&entry)
		if err != nil {
			log.Printf("[WARN] can't marshal json, %v", err)
			return
		}
		if _, err := wr.Write(append(line, '\n')); err != nil {
			log.Printf("[WARN] can't write to log, %v", err)
		}
	})
}

// makeModLogWriter creates moderation log writer
// it parses options and makes lumberjack logger with rotation
func makeModLogWriter(opts options) (accessLog io.WriteCloser, err error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	// size is in bytes with optional k, m or g suffix, rotation works in whole megabytes
	megabytes := func(inp string) (int, error) {
		inp = strings.ToLower(strings.TrimSpace(inp))
		if inp == "" {
			return 0, errors.New("empty value")
		}
		mult := int64(1)
		switch inp[len(inp)-1] {
		case 'k':
			mult = 1 << 10
		case 'm':
			mult = 1 << 20
		case 'g':
			mult = 1 << 30
		}
		if mult > 1 {
			inp = inp[:len(inp)-1]
		}
		val, perr := strconv.ParseInt(inp, 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("can't parse %q: %w", inp, perr)
		}
		if val <= 0 {
			return 0, fmt.Errorf("size %d is not positive", val)
		}
		return int(max(val*mult>>20, 1)), nil
	}

	maxSize, err := megabytes(opts.Logger.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("can't parse logger max size: %w", err)
	}

	log.Printf("[INFO] moderation log %s, rotate at %dM, keep %d", opts.Logger.FileName, maxSize, opts.Logger.MaxBackups)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    maxSize,
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	nonEmpty := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
