package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"storefront/internal/app"
	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

// execFunc runs a parsed command. A non-nil result is printed as JSON on stdout.
type execFunc func(ctx context.Context, a *app.App, stderr io.Writer) (interface{}, error)

type commandFunc func(args []string, stderr io.Writer) (execFunc, error)

var commands = map[string]commandFunc{
	"login":         parseLogin,
	"clone":         parseClone,
	"clone-account": parseCloneAccount,
	"inspect":       parseInspect,
	"create-admin":  parseCreateAdmin,
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return errUsage
		}
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return nil
}

// passwordFrom prefers the flag and falls back to the named environment variable
func passwordFrom(flagValue, env string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(env)
}

func parseLogin(args []string, stderr io.Writer) (execFunc, error) {
	fs := newFlagSet("login", stderr)
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password (or CLONECTL_PASSWORD)")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if *email == "" {
		return nil, fmt.Errorf("--email is required")
	}

	return func(ctx context.Context, a *app.App, _ io.Writer) (interface{}, error) {
		token, account, err := a.AccountSvc.Login(ctx, *email, passwordFrom(*password, "CLONECTL_PASSWORD"))
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"access_token": token, "account_id": account.ID, "role": account.Role}, nil
	}, nil
}

// cloneFlags maps command line flags onto a CloneRequest
type cloneFlags struct {
	source      string
	target      string
	categories  bool
	products    bool
	strategy    string
	images      bool
	maxProducts int
	token       string
}

func (f cloneFlags) request() service.CloneRequest {
	return service.CloneRequest{
		SourceUserID: f.source,
		TargetUserID: f.target,
		Options: domain.CloneOptions{
			CloneCategories: f.categories,
			CloneProducts:   f.products,
			MergeStrategy:   domain.MergeStrategy(f.strategy),
			CopyImages:      f.images,
			MaxProducts:     f.maxProducts,
		},
	}
}

func parseCloneFlags(args []string, stderr io.Writer) (cloneFlags, error) {
	var f cloneFlags
	fs := newFlagSet("clone", stderr)
	fs.StringVar(&f.source, "source", "", "source account id")
	fs.StringVar(&f.target, "target", "", "target account id")
	fs.BoolVar(&f.categories, "categories", false, "clone categories")
	fs.BoolVar(&f.products, "products", false, "clone products")
	fs.StringVar(&f.strategy, "strategy", string(domain.MergeStrategyMerge), "merge or replace")
	fs.BoolVar(&f.images, "images", false, "copy product images")
	fs.IntVar(&f.maxProducts, "max-products", 0, "maximum source products to read (default 1000)")
	fs.StringVar(&f.token, "token", os.Getenv("CLONECTL_TOKEN"), "admin session token (or CLONECTL_TOKEN)")
	if err := parseFlags(fs, args); err != nil {
		return f, err
	}
	if f.source == "" || f.target == "" {
		return f, fmt.Errorf("--source and --target are required")
	}
	return f, nil
}

func parseClone(args []string, stderr io.Writer) (execFunc, error) {
	f, err := parseCloneFlags(args, stderr)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, a *app.App, stderr io.Writer) (interface{}, error) {
		orch := a.Orchestrator(service.VariantAdminCLI, a.SessionAuthorizer())
		report, err := orch.Run(ctx, service.Credentials{BearerToken: f.token}, f.request(), progressPrinter(stderr))
		if report != nil {
			return report, err
		}
		return nil, err
	}, nil
}

func progressPrinter(w io.Writer) service.ProgressFunc {
	return func(p domain.Progress) {
		fmt.Fprintf(w, "[%3d%%] %s\n", p.Percentage, p.Message)
	}
}

func parseCloneAccount(args []string, stderr io.Writer) (execFunc, error) {
	fs := newFlagSet("clone-account", stderr)
	template := fs.String("template", "", "template account id")
	var input service.NewAccountInput
	fs.StringVar(&input.Email, "email", "", "email of the new account")
	fs.StringVar(&input.Password, "password", "", "password of the new account (or CLONECTL_NEW_PASSWORD)")
	fs.StringVar(&input.DisplayName, "name", "", "display name of the new account")
	fs.StringVar(&input.Slug, "slug", "", "storefront slug of the new account")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	templateID, err := uuid.Parse(*template)
	if err != nil {
		return nil, fmt.Errorf("--template must be an account id")
	}
	if input.Email == "" || input.DisplayName == "" {
		return nil, fmt.Errorf("--email and --name are required")
	}

	return func(ctx context.Context, a *app.App, _ io.Writer) (interface{}, error) {
		input.Password = passwordFrom(input.Password, "CLONECTL_NEW_PASSWORD")
		if len(input.Password) < 8 {
			return nil, fmt.Errorf("password must have at least 8 characters")
		}
		result, err := a.AccountCloner.CloneAccount(ctx, templateID, input)
		if err != nil {
			return nil, err
		}
		return result, nil
	}, nil
}

func parseInspect(args []string, stderr io.Writer) (execFunc, error) {
	fs := newFlagSet("inspect", stderr)
	account := fs.String("account", "", "account id")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(*account)
	if err != nil {
		return nil, fmt.Errorf("--account must be an account id")
	}

	return func(ctx context.Context, a *app.App, _ io.Writer) (interface{}, error) {
		inv, err := a.Inventory.Inspect(ctx, id)
		if err != nil {
			return nil, err
		}
		return inv, nil
	}, nil
}

func parseCreateAdmin(args []string, stderr io.Writer) (execFunc, error) {
	fs := newFlagSet("create-admin", stderr)
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password (or CLONECTL_PASSWORD)")
	name := fs.String("name", "Administrator", "display name")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if *email == "" {
		return nil, fmt.Errorf("--email is required")
	}

	return func(ctx context.Context, a *app.App, _ io.Writer) (interface{}, error) {
		pw := passwordFrom(*password, "CLONECTL_PASSWORD")
		if len(pw) < 8 {
			return nil, fmt.Errorf("password must have at least 8 characters")
		}
		account, err := a.AccountSvc.Register(ctx, service.RegisterInput{
			Email:       *email,
			Password:    pw,
			DisplayName: *name,
			Role:        domain.RoleAdmin,
		})
		if err != nil {
			return nil, err
		}
		return account, nil
	}, nil
}
