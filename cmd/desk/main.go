// desk is the operator console for pending IMSI requests.
//
// With no command it opens the interactive requests screen. The list,
// export and attach commands run a single operation and exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2"

	"imsidesk/internal/auth"
	"imsidesk/internal/config"
	"imsidesk/internal/domain/imsi"
	"imsidesk/internal/domain/request"
	"imsidesk/internal/export"
	"imsidesk/internal/provider/mno"
	"imsidesk/internal/services/requests"
	"imsidesk/internal/tui"
)

type options struct {
	apiURL       string
	pageSize     int
	exportDir    string
	logLevel     string
	accessToken  string
	refreshToken string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.Load()

	command := ""
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	opts := options{
		apiURL:    cfg.MNO.BaseURL,
		pageSize:  cfg.MNO.PageLimit,
		exportDir: cfg.App.ExportDir,
		logLevel:  cfg.App.LogLevel,
	}
	flagSet := pflag.NewFlagSet("desk "+command, pflag.ContinueOnError)
	flagSet.StringVar(&opts.apiURL, "api-url", opts.apiURL, "operator API base URL")
	flagSet.IntVar(&opts.pageSize, "page-size", opts.pageSize, "rows per page")
	flagSet.StringVar(&opts.exportDir, "export-dir", opts.exportDir, "directory for "+request.ExportFileName)
	flagSet.StringVar(&opts.logLevel, "log-level", opts.logLevel, "debug, info, warn or error")
	flagSet.StringVar(&opts.accessToken, "token", cfg.Auth.AccessToken, "access token (default: stored session)")
	flagSet.StringVar(&opts.refreshToken, "refresh-token", cfg.Auth.RefreshToken, "refresh token")

	var page int
	var msisdn, imsiValue, confirm string
	switch command {
	case "list":
		flagSet.IntVar(&page, "page", 1, "page to show")
	case "attach":
		flagSet.StringVar(&msisdn, "msisdn", "", "subscriber number including country code")
		flagSet.StringVar(&imsiValue, "imsi", "", "15 digit IMSI")
		flagSet.StringVar(&confirm, "confirm", "", "IMSI confirmation (default: --imsi)")
	case "", "export":
	default:
		return fmt.Errorf("unknown command %q (want list, export or attach)", command)
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg.App.LogLevel = opts.logLevel
	closeLog, err := setupLogging(cfg.App, command == "")
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := openSession(ctx, cfg, opts)
	if err != nil {
		return err
	}
	client := mno.New(opts.apiURL, cfg.MNO.TimeoutSec, session)
	saver := export.NewFileSaver(opts.exportDir)

	if command == "" {
		return runTUI(ctx, session, client, saver, opts.pageSize)
	}

	screen := requests.NewScreen(client,
		requests.WithPageSize(opts.pageSize),
		requests.WithSaver(saver),
		requests.WithNotifier(requests.NotifierFunc(func(msg string) { fmt.Println(msg) })),
		requests.WithReporter(requests.ReporterFunc(func(op string, err error) {
			log.Debug().Err(err).Str("op", op).Msg("operation failed")
			fmt.Fprintln(os.Stderr, requests.Describe(err))
		})),
	)
	if err := screen.Activate(ctx, session); err != nil {
		return err
	}

	switch command {
	case "list":
		if page > 1 {
			if err := screen.ChangePage(ctx, page); err != nil {
				return err
			}
		}
		printList(screen.State())
	case "export":
		path, err := screen.BulkDownload(ctx)
		if err != nil {
			return err
		}
		fmt.Println(path)
	case "attach":
		if confirm == "" {
			confirm = imsiValue
		}
		if err := screen.SelectRow(request.Case{MSISDN: msisdn}); err != nil {
			return err
		}
		if err := screen.SubmitIMSI(ctx, imsi.Submission{IMSI: imsiValue, ConfirmIMSI: confirm}); err != nil {
			return err
		}
	}
	return nil
}

func runTUI(ctx context.Context, session *auth.Session, client *mno.Client, saver *export.FileSaver, pageSize int) error {
	feed := tui.NewFeed()
	screen := requests.NewScreen(client,
		requests.WithPageSize(pageSize),
		requests.WithSaver(saver),
		requests.WithNotifier(feed),
		requests.WithReporter(feed),
	)
	model := tui.NewModel(ctx, screen, session, feed)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func openSession(ctx context.Context, cfg config.Cfg, opts options) (*auth.Session, error) {
	var store auth.TokenStore = auth.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		store = auth.NewRedisStore(rdb, cfg.Redis.SessionKey, cfg.Redis.SessionTTL)
	}

	refresher := auth.NewOAuth2Refresher(cfg.Auth.TokenURL, cfg.Auth.ClientID, cfg.Auth.ClientSecret)
	session := auth.NewSession(refresher, store,
		auth.WithClientID(cfg.Auth.ClientID),
		auth.WithReservedRoles(cfg.Auth.ReservedRoles),
		auth.WithLogout(func() {
			log.Warn().Msg("session ended, log in again to continue")
		}),
	)

	var initial *oauth2.Token
	if opts.accessToken != "" || opts.refreshToken != "" {
		initial = &oauth2.Token{AccessToken: opts.accessToken, RefreshToken: opts.refreshToken}
	}
	if err := session.Start(ctx, initial); err != nil {
		return nil, fmt.Errorf("start session (set AUTH_ACCESS_TOKEN or --token): %w", err)
	}
	return session, nil
}

// setupLogging writes human readable logs to stderr, or to the log file
// while the full screen UI owns the terminal
func setupLogging(app config.AppCfg, toFile bool) (func(), error) {
	zerolog.SetGlobalLevel(app.Level())
	if !toFile {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return func() {}, nil
	}
	f, err := os.OpenFile(app.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return func() { f.Close() }, nil
}

func printList(st requests.State) {
	if st.Empty() {
		fmt.Println("No requests found")
		return
	}
	fmt.Printf("%-12s %s\n", "Request ID", "MSISDN")
	for _, c := range st.Cases {
		fmt.Printf("%-12d %s\n", c.RequestID, c.MSISDN)
	}
	fmt.Println(st.Window.Caption())
	if st.Window.ShowPagination() {
		fmt.Printf("page %d of %d\n", st.Window.CurrentPage, st.Window.Pages())
	}
}
