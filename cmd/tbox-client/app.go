package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tbox/dashboard/client/session"
	"github.com/tbox/dashboard/client/store"
	"github.com/tbox/dashboard/models"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const usage = `usage: tbox-client <command> [flags]

commands:
  signup   -name NAME -email EMAIL [-tbox DEVICE]   create an account
  login    -email EMAIL                             log in and keep the session
  dashboard [DEVICE]                                show the latest vehicle status
  activity [-limit N]                               show recent sign-in activity
  whoami                                            show the cached identity
  logout                                            forget the local session
`

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errUnauthorized = errors.New("not logged in or session expired, run: tbox-client login")

type app struct {
	api           *session.APIClient
	sessions      *store.SessionStore
	in            *bufio.Reader
	out           io.Writer
	logger        *zap.Logger
	verifyTimeout time.Duration
}

func newApp(api *session.APIClient, sessions *store.SessionStore, in io.Reader, out io.Writer, logger *zap.Logger) *app {
	return &app{
		api:      api,
		sessions: sessions,
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger,
	}
}

func (a *app) withVerifyTimeout(timeout time.Duration) *app {
	a.verifyTimeout = timeout
	return a
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errors.New("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "signup":
		return a.signup(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "dashboard":
		return a.dashboard(ctx, rest)
	case "activity":
		return a.activity(ctx, rest)
	case "whoami":
		return a.whoami(ctx)
	case "logout":
		return a.logout(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	tbox := fs.String("tbox", "", "device name of your telematics box")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *name == "" {
		if *name, err = a.prompt("Full name: "); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = a.prompt("Email: "); err != nil {
			return err
		}
	}
	password, err := a.password()
	if err != nil {
		return err
	}

	err = a.api.Signup(ctx, session.SignupRequest{
		FullName: *name,
		Email:    *email,
		Password: password,
		Tbox:     *tbox,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "User registered successfully")
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = a.prompt("Email: "); err != nil {
			return err
		}
	}
	password, err := a.password()
	if err != nil {
		return err
	}

	record, err := a.api.Login(ctx, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Login successful, welcome %s\n", record.Identity.FullName)
	return nil
}

// dashboard gates on the session before fetching any vehicle data
func (a *app) dashboard(ctx context.Context, args []string) error {
	device := ""
	if len(args) > 0 {
		device = args[0]
	}

	view := &terminalView{app: a, ctx: ctx, device: device}
	nav := &terminalNavigator{logger: a.logger}
	guard := session.NewGuard(a.sessions, session.NewLocalValidator(), a.api.Verifier(), view, nav).
		WithTimeout(a.verifyTimeout).
		WithLogger(a.logger)

	pass := guard.Mount(ctx)
	defer pass.Unmount()

	state, err := pass.Wait(ctx)
	if err != nil {
		return err
	}
	if state != session.Authorized {
		return errUnauthorized
	}
	return view.err
}

func (a *app) activity(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("activity", flag.ContinueOnError)
	fs.SetOutput(a.out)
	limit := fs.Int("limit", 20, "number of events")
	if err := fs.Parse(args); err != nil {
		return err
	}

	events, err := a.api.AuthEvents(ctx, *limit)
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrDenied) {
		return errUnauthorized
	}
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Fprintf(a.out, "%s  %-16s %-7s %s\n", e.CreatedAt.Local().Format(time.RFC3339), e.Action, e.Channel, e.IPAddress)
	}
	return nil
}

// whoami prints the identity cached at login. It makes no network call and
// may show stale details.
func (a *app) whoami(ctx context.Context) error {
	record, ok, err := a.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errUnauthorized
	}

	fmt.Fprintf(a.out, "%s <%s>\n", record.Identity.FullName, record.Identity.Email)
	fmt.Fprintf(a.out, "credential: %s\n", session.NewLocalValidator().Check(record.Token))
	return nil
}

func (a *app) logout(ctx context.Context) error {
	nav := &terminalNavigator{logger: a.logger}
	if err := session.NewTerminator(a.sessions, a.api.Jar(), a.api.BaseURL(), nav).Terminate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out successfully")
	return nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) password() (string, error) {
	fmt.Fprint(a.out, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// terminalView prints the vehicle status once the session is authorized.
type terminalView struct {
	app    *app
	ctx    context.Context
	device string
	err    error
}

func (v *terminalView) Loading() {
	fmt.Fprintln(v.app.out, "Checking session...")
}

func (v *terminalView) Protected(record store.SessionRecord) {
	fmt.Fprintf(v.app.out, "Welcome to the dashboard, %s\n", record.Identity.FullName)

	device := v.device
	if device == "" {
		user, err := v.app.api.User(v.ctx, record.Identity.ID)
		if err != nil {
			v.err = err
			return
		}
		if !user.HasTbox() {
			v.err = errors.New("no telematics box linked to this account, pass a device name")
			return
		}
		device = *user.Tbox
	}

	vehicle, err := v.app.api.Vehicle(v.ctx, device)
	if err != nil {
		v.err = err
		return
	}
	v.err = printVehicle(v.app.out, vehicle)
}

// terminalNavigator has no screens to switch to; the caller prints the login
// hint instead.
type terminalNavigator struct {
	logger *zap.Logger
}

func (n *terminalNavigator) Navigate(path string) {
	n.logger.Debug("redirect", zap.String("path", path))
}

func printVehicle(w io.Writer, v *models.Vehicle) error {
	fmt.Fprintf(w, "Device:        %s (%s)\n", v.DeviceName, v.DeviceID)
	fmt.Fprintf(w, "Type:          %s %s\n", v.DeviceType, v.Version)
	fmt.Fprintf(w, "License plate: %s\n", v.LicensePlate())
	fmt.Fprintf(w, "Last event:    %s at %s\n", v.Event, v.TimeStamp)

	entries, err := v.StatusEntries()
	if err != nil {
		return fmt.Errorf("failed to decode vehicle status: %w", err)
	}
	for _, entry := range entries {
		for key, value := range entry {
			fmt.Fprintf(w, "  %s: %v\n", key, value)
		}
	}
	return nil
}
