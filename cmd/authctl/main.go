// Command authctl is a terminal client for the console backend. It keeps the
// session between runs and routes every command through the same guard the
// web console uses.
//
//	authctl login -u alice -p secret
//	authctl status
//	authctl list tasks
//	authctl open /tasks
//	authctl logout
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	auth "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/storage/file"
	"github.com/goliatone/go-auth-client/storage/redisstore"
	"github.com/goliatone/go-auth-client/storage/sqlstore"
)

const usage = `usage: authctl [-config file] [-v] <command> [args]

commands:
  login -u <nickname> -p <password> [-redirect path]
  logout
  status
  open <path>
  list <data-sources|storages|tasks>
  execute <task-id> <task-type>
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "authctl:", err)
		}
		os.Exit(1)
	}
}

// errReported marks failures the user was already told about
var errReported = errors.New("reported")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("authctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	configPath := fs.String("config", "", "path to a YAML config file")
	verbose := fs.Bool("v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	opts, err := auth.LoadOptions(*configPath)
	if err != nil {
		return err
	}

	loggers := newLoggers(*verbose)

	storage, closeStorage, err := openStorage(ctx, opts)
	if err != nil {
		return err
	}
	defer closeStorage()

	app, err := newApp(opts, storage, loggers, stdout, stderr)
	if err != nil {
		return err
	}
	app.session.Initialize(ctx)

	return app.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

type closer func()

// openStorage picks the persisted record backend: SQLite, then Redis, then
// a JSON file under the user config dir.
func openStorage(ctx context.Context, opts auth.Options) (auth.Storage, closer, error) {
	switch {
	case opts.SQLiteDSN != "":
		store, err := sqlstore.Open(ctx, opts.SQLiteDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case opts.RedisURL != "":
		store, err := redisstore.Connect(ctx, opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis storage: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	}

	path := opts.SessionFile
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, nil, fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "authctl", "session.json")
	}
	return file.New(path), func() {}, nil
}
