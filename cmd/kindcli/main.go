// kindcli is the terminal frontend for the kindness-acts service: browse
// the public feed, suggest and manage your own acts, keep a saved list,
// and moderate pending suggestions as an admin.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/kindacts/kindcli/internal/acts"
	"github.com/kindacts/kindcli/internal/config"
	"github.com/kindacts/kindcli/internal/fetcher"
	"github.com/kindacts/kindcli/internal/logging"
	"github.com/kindacts/kindcli/internal/models"
	"github.com/kindacts/kindcli/internal/session"
	"github.com/kindacts/kindcli/internal/store"
)

const usageText = `usage: kindcli <command> [flags]

  login      -email -password        sign in
  register   -username -email -password
  logout                             sign out
  whoami                             show the current session
  acts       list | mine | all
  acts       suggest -title -desc [-category] [-difficulty]
  acts       update  -id [-title] [-desc] [-category] [-difficulty]
  acts       delete  -id
  acts       approve -id | reject -id
  saved      list | toggle -act | unsave -id | complete -id
  completed                          your completion history
`

type app struct {
	cfg     *config.Config
	api     *fetcher.Client
	manager *session.Manager
	nav     *consoleNavigator
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	st, err := store.Open(cfg.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kindcli: %v\n", err)
		os.Exit(1)
	}

	nav := &consoleNavigator{path: "/"}
	api := fetcher.NewClient(cfg.APIBaseURL)
	mgr := session.NewManager(api, st, nil, nav, logger)
	defer mgr.Close()

	a := &app{cfg: cfg, api: api, manager: mgr, nav: nav}
	ctx := logging.IntoContext(context.Background(), logger)

	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "kindcli: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	switch args[0] {
	case "login":
		return a.login(ctx, args[1:])
	case "register":
		return a.register(ctx, args[1:])
	case "logout":
		a.manager.Logout()
		fmt.Println("signed out")
		return nil
	case "whoami":
		return a.whoami()
	case "acts":
		return a.actsCmd(ctx, args[1:])
	case "saved":
		return a.savedCmd(ctx, args[1:])
	case "completed":
		return a.completedCmd(ctx)
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	user, err := a.manager.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	user, err := a.manager.Register(ctx, *username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("account created for %s, now run: kindcli login\n", user.Username)
	return nil
}

func (a *app) whoami() error {
	sess := a.manager.Current()
	if sess == nil {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s <%s> role=%s session expires %s\n",
		sess.User.Username, sess.User.Email, sess.User.Role,
		sess.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func (a *app) actsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("acts: missing subcommand")
	}

	switch args[0] {
	case "list":
		feed := acts.NewFeed(a.api)
		if err := feed.Refetch(ctx); err != nil {
			return err
		}
		printActs(feed.Acts())
		return nil
	case "mine":
		own := acts.NewOwnActs(a.api)
		if err := own.Refetch(ctx); err != nil {
			return err
		}
		printActs(own.Acts())
		return nil
	case "all":
		a.nav.visit("/admin/dashboard")
		all := acts.NewAllActs(a.api, a.manager)
		if err := all.Refetch(ctx); err != nil {
			return err
		}
		printActs(all.Acts())
		return nil
	case "suggest":
		return a.suggest(ctx, args[1:])
	case "update":
		return a.update(ctx, args[1:])
	case "delete":
		fs := flag.NewFlagSet("acts delete", flag.ExitOnError)
		id := fs.String("id", "", "act id")
		fs.Parse(args[1:])
		mut := acts.NewMutator(a.api, a.manager)
		msg, err := mut.DeleteAct(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "approve", "reject":
		a.nav.visit("/admin/dashboard")
		fs := flag.NewFlagSet("acts "+args[0], flag.ExitOnError)
		id := fs.String("id", "", "act id")
		fs.Parse(args[1:])
		status := models.StatusApproved
		if args[0] == "reject" {
			status = models.StatusRejected
		}
		mut := acts.NewMutator(a.api, a.manager)
		act, err := mut.SetStatus(ctx, *id, status)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", act.Title, act.Status)
		return nil
	default:
		return fmt.Errorf("acts: unknown subcommand %q", args[0])
	}
}

func (a *app) suggest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("acts suggest", flag.ExitOnError)
	title := fs.String("title", "", "act title")
	desc := fs.String("desc", "", "act description")
	category := fs.String("category", "", "category")
	difficulty := fs.String("difficulty", string(models.DifficultyEasy), "easy|medium|hard")
	fs.Parse(args)

	mut := acts.NewMutator(a.api, a.manager)
	created, err := mut.CreateAct(ctx, models.NewAct{
		Title:       *title,
		Description: *desc,
		Category:    *category,
		Difficulty:  models.Difficulty(*difficulty),
	})
	if err != nil {
		return err
	}
	fmt.Printf("submitted %q (%s, id %s)\n", created.Title, created.Status, created.ID)
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("acts update", flag.ExitOnError)
	id := fs.String("id", "", "act id")
	title := fs.String("title", "", "act title")
	desc := fs.String("desc", "", "act description")
	category := fs.String("category", "", "category")
	difficulty := fs.String("difficulty", "", "easy|medium|hard")
	fs.Parse(args)

	// The backend replaces the whole document on PUT, so prefill the
	// payload from the stored act and overlay only the flags that were set.
	existing, err := a.findAct(ctx, *id)
	if err != nil {
		return err
	}
	mut := acts.NewMutator(a.api, a.manager)
	updated, err := mut.UpdateAct(ctx, *id, mergeActUpdate(existing, *title, *desc, *category, *difficulty))
	if err != nil {
		return err
	}
	fmt.Printf("updated %q (%s)\n", updated.Title, updated.Status)
	return nil
}

// findAct looks an act up among the caller's own suggestions, falling back
// to the moderation list for admins.
func (a *app) findAct(ctx context.Context, id string) (models.KindnessAct, error) {
	own := acts.NewOwnActs(a.api)
	if err := own.Refetch(ctx); err != nil {
		return models.KindnessAct{}, err
	}
	for _, act := range own.Acts() {
		if act.ID == id {
			return act, nil
		}
	}
	if a.manager.Current().IsAdmin() {
		all := acts.NewAllActs(a.api, a.manager)
		if err := all.Refetch(ctx); err != nil {
			return models.KindnessAct{}, err
		}
		for _, act := range all.Acts() {
			if act.ID == id {
				return act, nil
			}
		}
	}
	return models.KindnessAct{}, fmt.Errorf("act %s not found", id)
}

func mergeActUpdate(existing models.KindnessAct, title, desc, category, difficulty string) models.NewAct {
	payload := models.NewAct{
		Title:       existing.Title,
		Description: existing.Description,
		Category:    existing.Category,
		Difficulty:  existing.Difficulty,
		Status:      existing.Status,
	}
	if title != "" {
		payload.Title = title
	}
	if desc != "" {
		payload.Description = desc
	}
	if category != "" {
		payload.Category = category
	}
	if difficulty != "" {
		payload.Difficulty = models.Difficulty(difficulty)
	}
	return payload
}

func (a *app) savedCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("saved: missing subcommand")
	}
	saved := acts.NewSavedActs(a.api)

	switch args[0] {
	case "list":
		if err := saved.Refetch(ctx); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SAVED ID\tACT\tSAVED AT")
		for _, rec := range saved.Saved() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", rec.ID, rec.Act.Title, rec.SavedAt.Local().Format("2006-01-02"))
		}
		return w.Flush()
	case "toggle":
		fs := flag.NewFlagSet("saved toggle", flag.ExitOnError)
		actID := fs.String("act", "", "act id")
		fs.Parse(args[1:])
		if err := saved.Refetch(ctx); err != nil {
			return err
		}
		nowSaved, err := saved.Toggle(ctx, *actID)
		if err != nil {
			return err
		}
		if nowSaved {
			fmt.Println("act saved")
		} else {
			fmt.Println("act unsaved")
		}
		return nil
	case "unsave":
		fs := flag.NewFlagSet("saved unsave", flag.ExitOnError)
		id := fs.String("id", "", "saved act id")
		fs.Parse(args[1:])
		msg, err := saved.Unsave(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "complete":
		fs := flag.NewFlagSet("saved complete", flag.ExitOnError)
		id := fs.String("id", "", "saved act id")
		fs.Parse(args[1:])
		completed, msg, err := saved.Complete(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", msg, completed.Act.Title)
		return nil
	default:
		return fmt.Errorf("saved: unknown subcommand %q", args[0])
	}
}

func (a *app) completedCmd(ctx context.Context) error {
	unit := acts.NewCompletedActs(a.api, a.manager.Current().UserID())
	if err := unit.Refetch(ctx); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACT\tCOMPLETED AT")
	for _, rec := range unit.Completed() {
		fmt.Fprintf(w, "%s\t%s\n", rec.Act.Title, rec.CompletedAt.Local().Format("2006-01-02"))
	}
	return w.Flush()
}

func printActs(list []models.KindnessAct) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDIFFICULTY\tSTATUS\tBY")
	for _, act := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", act.ID, act.Title, act.Difficulty, act.Status, act.CreatedBy.Username)
	}
	w.Flush()
}
