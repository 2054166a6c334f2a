package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"

	auth "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/activitymap"
	"github.com/goliatone/go-auth-client/resources"
	"github.com/goliatone/go-print"
)

type app struct {
	session     *auth.SessionStore
	guard       *auth.Guard
	router      *auth.Router
	client      *auth.Client
	dataSources *resources.DataSources
	storages    *resources.Storages
	tasks       *resources.Tasks
	stdout      io.Writer
	stderr      io.Writer
}

func newApp(opts auth.Options, storage auth.Storage, loggers auth.LoggerProvider, stdout, stderr io.Writer) (*app, error) {
	_, activityLogger := auth.ResolveLogger("auth.activity", loggers, auth.NopLogger())

	session := auth.NewSessionStore(nil, storage,
		auth.WithSessionConfig(opts),
		auth.WithLoggerProvider(loggers),
		auth.WithActivitySink(activitymap.LogSink(activityLogger, activitymap.WithActorFallback("authctl"))),
	)

	guard := auth.NewGuard(session,
		auth.WithGuardConfig(opts),
		auth.WithGuardLoggerProvider(loggers),
	)

	router := auth.NewRouter(guard, auth.WithRouterLoggerProvider(loggers))

	client, err := auth.NewClient(opts, session,
		auth.WithNavigator(router),
		auth.WithNotifier(auth.NotifierFunc(func(n auth.Notice) {
			fmt.Fprintln(stderr, n.Message)
		})),
		auth.WithClientLoggerProvider(loggers),
	)
	if err != nil {
		return nil, err
	}
	session.SetAuthenticator(auth.NewAPIAuthenticator(client))

	return &app{
		session:     session,
		guard:       guard,
		router:      router,
		client:      client,
		dataSources: resources.NewDataSources(client),
		storages:    resources.NewStorages(client),
		tasks:       resources.NewTasks(client),
		stdout:      stdout,
		stderr:      stderr,
	}, nil
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.stdout, "logged out")
		return nil
	case "status":
		return a.status(ctx)
	case "open":
		if len(args) != 1 {
			return errors.New("open: expected a path")
		}
		return a.open(ctx, args[0])
	case "list":
		if len(args) != 1 {
			return errors.New("list: expected a resource name")
		}
		return a.list(ctx, args[0])
	case "execute":
		if len(args) != 2 {
			return errors.New("execute: expected a task id and a task type")
		}
		return a.execute(ctx, args[0], args[1])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	nickname := fs.String("u", "", "nickname")
	password := fs.String("p", "", "password")
	redirect := fs.String("redirect", "", "path to open after login")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := a.session.Login(ctx, auth.Credentials{Nickname: *nickname, Password: *password})
	if err != nil {
		if auth.IsValidationError(err) && !isResponse(err) {
			return fmt.Errorf("login: nickname and password are required")
		}
		return fmt.Errorf("login: %w", reported(err))
	}

	identity, _ := a.session.Identity()
	fmt.Fprintf(a.stdout, "logged in as %s\n", identity)

	loginPage := auth.Location{Path: a.guard.LoginPath()}
	if *redirect != "" {
		loginPage.Query = url.Values{a.guard.RedirectParam(): {*redirect}}
	}
	// the guard sends an authenticated login visit to the resume target
	return a.open(ctx, loginPage.FullPath())
}

func (a *app) status(ctx context.Context) error {
	if !a.session.IsAuthenticated() || !a.session.CheckTokenExpiry(ctx) {
		fmt.Fprintln(a.stdout, "not logged in")
		return nil
	}
	identity, _ := a.session.Identity()
	fmt.Fprintf(a.stdout, "logged in as %s until %s\n", identity, a.session.ExpiresAt().Format("2006-01-02 15:04:05 MST"))
	return nil
}

func (a *app) open(ctx context.Context, path string) error {
	loc, err := a.router.Navigate(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, loc.FullPath())
	return nil
}

// enter navigates to path and reports whether the guard let the user in
func (a *app) enter(ctx context.Context, path string) (bool, error) {
	loc, err := a.router.Navigate(ctx, path)
	if err != nil {
		return false, err
	}
	if a.guard.IsLoginPath(loc.Path) {
		fmt.Fprintf(a.stderr, "login required, run: authctl login -u <nickname> -p <password> -redirect %s\n", path)
		return false, nil
	}
	return true, nil
}

func (a *app) list(ctx context.Context, resource string) error {
	resource = strings.Trim(resource, "/")

	var fetch func(context.Context) (any, error)
	switch resource {
	case "data-sources":
		fetch = func(ctx context.Context) (any, error) { return a.dataSources.List(ctx) }
	case "storages":
		fetch = func(ctx context.Context) (any, error) { return a.storages.List(ctx) }
	case "tasks":
		fetch = func(ctx context.Context) (any, error) { return a.tasks.List(ctx) }
	default:
		return fmt.Errorf("list: unknown resource %q", resource)
	}

	ok, err := a.enter(ctx, "/"+resource)
	if err != nil {
		return err
	}
	if !ok {
		return errReported
	}

	items, err := fetch(ctx)
	if err != nil {
		return reported(err)
	}
	fmt.Fprintln(a.stdout, print.MaybePrettyJSON(items))
	return nil
}

func (a *app) execute(ctx context.Context, id, taskType string) error {
	ok, err := a.enter(ctx, "/tasks")
	if err != nil {
		return err
	}
	if !ok {
		return errReported
	}

	result, err := a.tasks.Execute(ctx, id, taskType, nil)
	if err != nil {
		return reported(err)
	}
	fmt.Fprintln(a.stdout, print.MaybePrettyJSON(result))
	return nil
}

func isResponse(err error) bool {
	return auth.StatusCode(err) != 0
}

// reported hides errors the client already turned into a notice
func reported(err error) error {
	if isResponse(err) || auth.IsNetworkError(err) || auth.IsRequestSetup(err) {
		return errReported
	}
	return err
}
