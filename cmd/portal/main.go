package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/device-portal/internal/catalog"
	"github.com/example/device-portal/internal/demo"
	"github.com/example/device-portal/internal/portalerr"
	"github.com/example/device-portal/internal/session"
)

// httpCatalogBackend fetches device snapshots from the portal API so the
// catalog engine can run locally.
type httpCatalogBackend struct {
	baseURL string
	client  *http.Client
}

func (b *httpCatalogBackend) FetchCategory(ctx context.Context, accessToken, category string) ([]catalog.Device, error) {
	url := b.baseURL + "/devices/snapshot"
	if category != "" {
		url += "?category=" + category
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, portalerr.Wrap(portalerr.KindTransient, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = fmt.Sprintf("snapshot request failed with status %d", resp.StatusCode)
		}
		return nil, portalerr.New(portalerr.KindFromStatus(resp.StatusCode), e.Code, e.Error)
	}

	var devices []catalog.Device
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return nil, portalerr.Wrap(portalerr.KindTransient, "", err)
	}
	return devices, nil
}

func main() {
	log.Println("[Portal] Starting portal client...")

	var (
		backend        session.Backend
		catalogBackend catalog.Backend
	)
	switch mode := getEnv("BACKEND", "demo"); mode {
	case "demo":
		b := demo.NewBackend(15 * time.Minute)
		if err := demo.Seed(b); err != nil {
			log.Fatalf("[Portal] Failed to seed demo backend: %v", err)
		}
		backend = b
		catalogBackend = b
		log.Println("[Portal] Using seeded demo backend (try buyer@acme.example / Buy3r!pass)")
	case "http":
		baseURL := getEnv("PORTAL_URL", "http://localhost:8080")
		backend = session.NewHTTPBackend(baseURL, nil)
		catalogBackend = &httpCatalogBackend{baseURL: strings.TrimRight(baseURL, "/"), client: http.DefaultClient}
		log.Printf("[Portal] Using portal API at %s", baseURL)
	default:
		log.Fatalf("[Portal] Unknown BACKEND %q (want demo or http)", mode)
	}

	manager := session.NewManager(backend, session.NewMemoryStore())
	loader := catalog.NewLoader(manager, catalogBackend)

	repl{
		manager: manager,
		loader:  loader,
		query:   catalog.NewQuery(""),
	}.run()
}

type repl struct {
	manager *session.Manager
	loader  *catalog.Loader
	query   catalog.Query
}

func (r repl) run() {
	fmt.Println("Device portal. Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(r.prompt())
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}
		r.dispatch(fields[0], fields[1:])
	}
	fmt.Println("Bye.")
}

func (r *repl) prompt() string {
	user, ok := r.manager.CurrentUser()
	if !ok {
		return "portal> "
	}
	if r.manager.ExpiringSoon() {
		return fmt.Sprintf("%s (session expiring in %s)> ", user.Email, r.manager.ExpiresIn().Round(time.Second))
	}
	return fmt.Sprintf("%s> ", user.Email)
}

func (r *repl) dispatch(cmd string, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "help":
		r.printHelp()
	case "login":
		r.login(ctx, args)
	case "register":
		r.register(ctx, args)
	case "logout":
		r.manager.Logout(ctx)
		fmt.Println("Logged out.")
	case "whoami":
		r.whoami()
	case "status":
		r.status()
	case "refresh":
		if err := r.manager.Refresh(ctx); err != nil {
			fmt.Printf("Refresh failed: %v\n", err)
			return
		}
		fmt.Printf("Session refreshed, valid for %s.\n", r.manager.ExpiresIn().Round(time.Second))
	case "browse":
		category := ""
		if len(args) > 0 {
			category = args[0]
		}
		r.query = catalog.NewQuery(category)
		r.load(ctx)
	case "search":
		r.query = r.query.WithSearch(strings.Join(args, " "))
		r.load(ctx)
	case "toggle":
		if len(args) != 2 {
			fmt.Printf("Usage: toggle <%s> <value>\n", strings.Join(catalog.FacetFields, "|"))
			return
		}
		r.query = r.query.Toggle(args[0], args[1])
		r.load(ctx)
	case "page":
		if len(args) != 1 {
			fmt.Println("Usage: page <number>")
			return
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Println("Usage: page <number>")
			return
		}
		r.query = r.query.WithPage(n)
		r.load(ctx)
	case "facets":
		r.printFacets()
	default:
		fmt.Printf("Unknown command %q. Type 'help'.\n", cmd)
	}
}

func (r *repl) printHelp() {
	fmt.Println(`Commands:
  login <email> <password>              authenticate
  register <email> <password> <company> create a buyer account
  logout                                end the session
  whoami                                show the authenticated user
  status                                show session state
  refresh                               exchange the refresh token now
  browse [category]                     load the catalog for one category
  search <text>                         free-text search within the category
  toggle <field> <value>                flip a facet selection
  page <n>                              jump to a result page
  facets                                show facet options for the last result
  quit                                  exit`)
}

func (r *repl) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: login <email> <password>")
		return
	}
	outcome, err := r.manager.Login(ctx, args[0], args[1])
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	if outcome.PendingApproval {
		fmt.Println("Your account is awaiting administrator approval.")
		return
	}
	fmt.Printf("Welcome, %s (%s).\n", outcome.User.Email, outcome.User.Company)
}

func (r *repl) register(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: register <email> <password> <company>")
		return
	}
	outcome, err := r.manager.Register(ctx, args[0], args[1], strings.Join(args[2:], " "))
	if err != nil {
		fmt.Printf("Registration failed: %v\n", err)
		return
	}
	if outcome.PendingApproval {
		fmt.Println("Account created. An administrator must approve it before you can sign in.")
		return
	}
	fmt.Printf("Welcome, %s.\n", outcome.User.Email)
}

func (r *repl) whoami() {
	user, ok := r.manager.CurrentUser()
	if !ok {
		fmt.Println("Not logged in.")
		return
	}
	fmt.Printf("%s — %s (%s)\n", user.Email, user.Company, user.Role)
}

func (r *repl) status() {
	fmt.Printf("Session state: %s\n", r.manager.State())
	if remaining := r.manager.ExpiresIn(); remaining > 0 {
		fmt.Printf("Access token valid for %s", remaining.Round(time.Second))
		if r.manager.ExpiringSoon() {
			fmt.Print(" (expiring soon)")
		}
		fmt.Println()
	}
}

func (r *repl) load(ctx context.Context) {
	result, err := r.loader.Load(ctx, r.query)
	if err != nil {
		if err == catalog.ErrSuperseded {
			return
		}
		fmt.Printf("Catalog load failed: %v\n", err)
		return
	}
	r.printResult(result)
}

func (r *repl) printResult(result *catalog.Result) {
	fmt.Printf("Page %d/%d — %d device(s)\n", result.Page, result.TotalPages, result.Total)
	for _, d := range result.Items {
		fmt.Printf("  %-10s %-32s grade %-2s %-6s %-8s $%.2f  (%d in stock)\n",
			d.ID, d.Model, d.Grade, d.Region, d.Storage, float64(d.UnitPrice)/100, d.TotalQuantity)
	}
	if len(result.Items) == 0 {
		fmt.Println("  (no devices match)")
	}
}

func (r *repl) printFacets() {
	result, ok := r.loader.Current()
	if !ok {
		fmt.Println("No catalog loaded yet. Use 'browse' first.")
		return
	}
	for _, field := range catalog.FacetFields {
		fmt.Printf("%s:\n", field)
		for _, opt := range result.Facets[field] {
			marker := " "
			if opt.Selected {
				marker = "*"
			}
			state := ""
			if !opt.Enabled {
				state = " (unavailable)"
			}
			fmt.Printf("  [%s] %s%s\n", marker, opt.Value, state)
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
