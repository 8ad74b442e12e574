// Package console implements the command loop of the stock console
package console

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/stockadmin/console/internal/models"
	"github.com/stockadmin/console/internal/navigation"
	"go.uber.org/zap"
)

// ErrQuit is returned by Execute for the quit command
var ErrQuit = errors.New("quit")

// API is the inventory backend as seen by the console
type API interface {
	Login(ctx context.Context, email, password string) (models.Session, error)
	Logout(ctx context.Context)
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category models.Category) (*models.Category, error)
	ListMovements(ctx context.Context, productID int) ([]models.Movement, error)
	CreateMovement(ctx context.Context, req models.MovementRequest) (*models.Movement, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListRoles(ctx context.Context) ([]models.RoleInfo, error)
}

// Navigator admits console paths through route guards
type Navigator interface {
	Navigate(path string) (navigation.Result, error)
	AfterLogin(returnURL string) (navigation.Result, error)
}

// SessionSource exposes the current session
type SessionSource interface {
	Snapshot() models.Session
}

// App runs console commands against the API. Data commands first navigate
// to their view so that route guards decide before any request is sent.
type App struct {
	api       API
	navigator Navigator
	sessions  SessionSource
	loginPath string
	out       io.Writer
	logger    *zap.Logger

	mu        sync.Mutex
	current   string
	returnURL string
}

// NewApp creates a console app writing to out
func NewApp(api API, navigator Navigator, sessions SessionSource, loginPath string, out io.Writer, logger *zap.Logger) *App {
	return &App{
		api:       api,
		navigator: navigator,
		sessions:  sessions,
		loginPath: loginPath,
		out:       &syncWriter{w: out},
		logger:    logger,
	}
}

// syncWriter serializes writes so that notices printed from request
// goroutines never split a line written by the command loop
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Current returns the path of the view the console is on
func (a *App) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// SessionExpired moves the console to the login view after a failed token refresh.
// It may be called from any goroutine.
func (a *App) SessionExpired() {
	a.mu.Lock()
	if a.current != "" && a.current != a.loginPath {
		a.returnURL = a.current
	}
	a.current = a.loginPath
	a.mu.Unlock()

	fmt.Fprintln(a.out, "session expired, please log in again")
}

// Start navigates to the initial path
func (a *App) Start(path string) error {
	_, err := a.navigate(path)
	return err
}

// Run reads commands line by line until EOF, quit or ctx is done
func (a *App) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	a.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := a.Execute(ctx, strings.Fields(scanner.Text()))
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(a.out, "error: %s\n", describe(err))
		}
		a.prompt()
	}
	return scanner.Err()
}

func (a *App) prompt() {
	fmt.Fprintf(a.out, "%s> ", a.Current())
}

// Execute runs a single command
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "help":
		a.help()
		return nil
	case "quit", "exit":
		return ErrQuit
	case "whoami":
		return a.whoami()
	case "navigate", "go":
		if len(args) != 1 {
			return usage("navigate <path>")
		}
		_, err := a.navigate(args[0])
		return err
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.api.Logout(ctx)
		_, err := a.navigate(a.loginPath)
		return err
	case "products":
		return a.products(ctx)
	case "product":
		return a.product(ctx, args)
	case "categories":
		return a.categories(ctx)
	case "add-category":
		return a.addCategory(ctx, args)
	case "movements":
		return a.movements(ctx, args)
	case "move":
		return a.move(ctx, args)
	case "users":
		return a.users(ctx)
	case "roles":
		return a.roles(ctx)
	}

	return fmt.Errorf("unknown command %q, try help", cmd)
}

func (a *App) help() {
	fmt.Fprint(a.out, `commands:
  login <email> <password> [returnURL]
  logout
  whoami
  navigate <path>
  products
  product <id>
  categories
  add-category <name> [description]
  movements [productID]
  move <productID> <in|out|adjust> <quantity> [note]
  users
  roles
  quit
`)
}

// navigate runs the navigator and reports where the console ended up.
// It returns true when the requested view was admitted without a redirect.
func (a *App) navigate(path string) (bool, error) {
	result, err := a.navigator.Navigate(path)
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	a.current = result.Path
	if result.ReturnURL != "" {
		a.returnURL = result.ReturnURL
	}
	a.mu.Unlock()

	a.logger.Debug("navigated",
		zap.String("requested", path),
		zap.String("path", result.Path),
		zap.String("view", result.View),
		zap.Int("hops", len(result.Steps)),
	)

	if result.Redirected() {
		last := result.Steps[len(result.Steps)-2]
		fmt.Fprintf(a.out, "%s: %s, now on %s\n", path, last.Decision.Kind, result.Path)
		return false, nil
	}
	return true, nil
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usage("login <email> <password> [returnURL]")
	}

	session, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", session.Email, session.Role)

	a.mu.Lock()
	returnURL := a.returnURL
	a.returnURL = ""
	a.mu.Unlock()
	if len(args) == 3 {
		returnURL = args[2]
	}

	result, err := a.navigator.AfterLogin(returnURL)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.current = result.Path
	a.mu.Unlock()
	fmt.Fprintf(a.out, "now on %s\n", result.Path)
	return nil
}

func (a *App) whoami() error {
	s := a.sessions.Snapshot()
	if !s.Authenticated() {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (user %d, role %s)\n", s.Email, s.UserID, s.Role)
	return nil
}

func (a *App) products(ctx context.Context) error {
	if ok, err := a.navigate("/products"); !ok {
		return err
	}
	products, err := a.api.ListProducts(ctx)
	if err != nil {
		return err
	}

	tw := a.table("ID", "SKU", "NAME", "CATEGORY", "PRICE", "STOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.2f\t%d\n", p.ID, p.SKU, p.Name, p.CategoryID, p.Price, p.Stock)
	}
	return tw.Flush()
}

func (a *App) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("product <id>")
	}
	if ok, err := a.navigate("/products/" + args[0]); !ok {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}

	p, err := a.api.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "#%d %s %s\ncategory %d, price %.2f, stock %d\n", p.ID, p.SKU, p.Name, p.CategoryID, p.Price, p.Stock)
	return nil
}

func (a *App) categories(ctx context.Context) error {
	if ok, err := a.navigate("/categories"); !ok {
		return err
	}
	categories, err := a.api.ListCategories(ctx)
	if err != nil {
		return err
	}

	tw := a.table("ID", "NAME", "DESCRIPTION")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
	}
	return tw.Flush()
}

func (a *App) addCategory(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("add-category <name> [description]")
	}
	if ok, err := a.navigate("/categories/new"); !ok {
		return err
	}

	category, err := a.api.CreateCategory(ctx, models.Category{
		Name:        args[0],
		Description: strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created category #%d %s\n", category.ID, category.Name)
	return nil
}

func (a *App) movements(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return usage("movements [productID]")
	}
	productID := 0
	if len(args) == 1 {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid product id %q", args[0])
		}
		productID = id
	}
	if ok, err := a.navigate("/movements"); !ok {
		return err
	}

	movements, err := a.api.ListMovements(ctx, productID)
	if err != nil {
		return err
	}

	tw := a.table("ID", "PRODUCT", "TYPE", "QTY", "USER", "AT", "NOTE")
	for _, m := range movements {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\t%s\t%s\n",
			m.ID, m.ProductID, m.Type, m.Quantity, m.UserID, m.CreatedAt.Format("2006-01-02 15:04"), m.Note)
	}
	return tw.Flush()
}

func (a *App) move(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usage("move <productID> <in|out|adjust> <quantity> [note]")
	}
	productID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[2])
	}
	if ok, err := a.navigate("/movements/new"); !ok {
		return err
	}

	movement, err := a.api.CreateMovement(ctx, models.MovementRequest{
		ProductID: productID,
		Type:      models.MovementType(args[1]),
		Quantity:  quantity,
		Note:      strings.Join(args[3:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "recorded movement #%d (%s %d) for product %d\n", movement.ID, movement.Type, movement.Quantity, movement.ProductID)
	return nil
}

func (a *App) users(ctx context.Context) error {
	if ok, err := a.navigate("/users"); !ok {
		return err
	}
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}

	tw := a.table("ID", "EMAIL", "NAME", "ROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role)
	}
	return tw.Flush()
}

func (a *App) roles(ctx context.Context) error {
	if ok, err := a.navigate("/roles"); !ok {
		return err
	}
	roles, err := a.api.ListRoles(ctx)
	if err != nil {
		return err
	}

	tw := a.table("ROLE", "DESCRIPTION")
	for _, r := range roles {
		fmt.Fprintf(tw, "%s\t%s\n", r.Name, r.Description)
	}
	return tw.Flush()
}

// table renders aligned columns into a buffer that Flush writes out in one piece
type table struct {
	*tabwriter.Writer
	buf bytes.Buffer
	out io.Writer
}

func (t *table) Flush() error {
	if err := t.Writer.Flush(); err != nil {
		return err
	}
	_, err := t.out.Write(t.buf.Bytes())
	return err
}

func (a *App) table(headers ...string) *table {
	t := &table{out: a.out}
	t.Writer = tabwriter.NewWriter(&t.buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(t, strings.Join(headers, "\t"))
	return t
}

func usage(text string) error {
	return fmt.Errorf("usage: %s", text)
}

// describe renders API failures by kind
func describe(err error) string {
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Kind {
	case models.ErrorKindNetwork:
		return "backend unreachable"
	case models.ErrorKindTimeout:
		return "request timed out"
	case models.ErrorKindRefreshFailed:
		return "session expired"
	}
	if apiErr.HTTPStatus != 0 {
		return fmt.Sprintf("%s (%d): %s", apiErr.Kind, apiErr.HTTPStatus, apiErr.Message)
	}
	return fmt.Sprintf("%s: %s", apiErr.Kind, apiErr.Message)
}
