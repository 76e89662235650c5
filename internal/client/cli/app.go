package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/ledgerlock/ledgerlock/internal/client/config"
	"github.com/ledgerlock/ledgerlock/internal/client/repositories/accounts"
	"github.com/ledgerlock/ledgerlock/internal/client/repositories/records"
	"github.com/ledgerlock/ledgerlock/internal/client/services"
	"github.com/ledgerlock/ledgerlock/internal/client/session"
	"github.com/ledgerlock/ledgerlock/internal/client/storage"
	"github.com/ledgerlock/ledgerlock/internal/client/transport"
	"github.com/ledgerlock/ledgerlock/internal/logging"
)

// App wires the client together: local database, account registry, and,
// once signed in, the encrypted store plus the background sync engine.
// At most one session is active at a time.
type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	accounts *services.AccountService
	records  records.Repository
	client   transport.Client
	reader   *bufio.Reader

	sess       *session.Session
	store      *services.LocalStore
	engine     *services.SyncEngine
	stopEngine context.CancelFunc
	engineDone chan struct{}
}

// NewApp opens the local database, applies migrations and builds the
// signed-out application. Sign-in state is established later via Login.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		accounts: services.NewAccountService(accounts.NewSQLiteRepository(db)),
		records:  records.NewSQLiteRepository(db),
		client:   transport.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout),
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run drives the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Println("LedgerLock (type 'help' for commands)")
	if err := a.client.Ping(ctx); err != nil {
		a.logger.Warn(ctx, "server unreachable", "error", err)
		fmt.Println("Server unreachable; local changes will sync when it returns.")
	}
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.promptStatus, scanner)
}

// Close ends any active session and releases the database and transport.
func (a *App) Close() {
	a.endSession()
	_ = a.client.Close()
	_ = a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.sess != nil && !a.sess.Closed()
}

// beginSession attaches the store and starts the sync engine for sess.
func (a *App) beginSession(sess *session.Session) {
	a.sess = sess
	a.store = services.NewLocalStore(sess, a.records, a.logger)
	a.engine = services.NewSyncEngine(a.store, a.client, a.config.DebounceInterval, a.logger, nil)
	a.store.SetScheduler(a.engine)

	ctx, cancel := context.WithCancel(context.Background())
	a.stopEngine = cancel
	a.engineDone = make(chan struct{})
	go func() {
		defer close(a.engineDone)
		a.engine.Run(ctx)
	}()
}

// endSession stops the engine, destroys the key and clears sign-in state.
// Safe to call when no session is active.
func (a *App) endSession() {
	if a.stopEngine != nil {
		a.stopEngine()
		<-a.engineDone
		a.stopEngine = nil
		a.engineDone = nil
	}
	if a.sess != nil {
		a.sess.Close()
	}
	a.sess = nil
	a.store = nil
	a.engine = nil
}

func (a *App) promptStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s %s)", a.sess.Name(), a.engine.Status())
}
