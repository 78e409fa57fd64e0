// Command marketctl drives the marketplace API from a terminal. The
// session is kept in a local file between invocations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/duynhne/marketplace/config"
	"github.com/duynhne/marketplace/internal/client"
	"github.com/duynhne/marketplace/internal/core/domain"
	"github.com/duynhne/marketplace/pkg/logger/zerolog"
)

type cliFlags struct {
	cmd      string
	server   string
	username string
	email    string
	password string
	id       int64
	city     string
	title    string
	desc     string
	price    float64
	location string
	zip      string
	file     string
}

func main() {
	cfg := config.Load()

	var f cliFlags
	flag.StringVar(&f.cmd, "cmd", "session", "Command: register|login|logout|session|me|products|product|create|set-zip|upload")
	flag.StringVar(&f.server, "server", "", "Override API base URL (API_BASE_URL)")
	flag.StringVar(&f.username, "u", "", "Username")
	flag.StringVar(&f.email, "email", "", "Email (register)")
	flag.StringVar(&f.password, "p", os.Getenv("MARKETCTL_PASSWORD"), "Password (or MARKETCTL_PASSWORD)")
	flag.Int64Var(&f.id, "id", 0, "Product ID (product, set-zip)")
	flag.StringVar(&f.city, "city", "", "City (products filter, create)")
	flag.StringVar(&f.title, "title", "", "Title (create)")
	flag.StringVar(&f.desc, "desc", "", "Description (create)")
	flag.Float64Var(&f.price, "price", 0, "Price (create)")
	flag.StringVar(&f.location, "location", "", "Street address (create)")
	flag.StringVar(&f.zip, "zip", "", "Postal code (create, set-zip)")
	flag.StringVar(&f.file, "file", "", "Image path (upload)")
	flag.Parse()

	zerolog.Setup(cfg.Logging.Level)

	if f.server != "" {
		cfg.Client.BaseURL = f.server
	}
	if err := cfg.ValidateClient(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	api, err := client.New(client.Config{
		BaseURL:       cfg.Client.BaseURL,
		Timeout:       cfg.GetClientTimeout(),
		UploadTimeout: cfg.GetClientUploadTimeout(),
	}, client.NewFileStorage(cfg.Client.StoragePath), client.WithLogger(log.Logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := dispatch(ctx, api, f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		stop()
		os.Exit(1)
	}
	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out)
	}
}

func dispatch(ctx context.Context, api *client.Client, f cliFlags) (any, error) {
	switch f.cmd {
	case "register":
		if f.username == "" || f.email == "" || f.password == "" {
			return nil, errors.New("-u, -email and -p are required")
		}
		return api.Register(ctx, domain.RegisterRequest{Username: f.username, Email: f.email, Password: f.password})
	case "login":
		if f.username == "" || f.password == "" {
			return nil, errors.New("-u and -p are required")
		}
		return api.Login(ctx, domain.LoginRequest{Username: f.username, Password: f.password})
	case "logout":
		return nil, api.Logout(ctx)
	case "session":
		s, err := api.CurrentSession(ctx)
		if err != nil || s == nil {
			return nil, orNotLoggedIn(err)
		}
		return s.User, nil
	case "me":
		return api.Me(ctx)
	case "products":
		return api.ListProducts(ctx, domain.ProductFilter{City: f.city})
	case "product":
		if f.id <= 0 {
			return nil, errors.New("-id is required")
		}
		return api.GetProduct(ctx, f.id)
	case "create":
		if strings.TrimSpace(f.title) == "" {
			return nil, errors.New("-title is required")
		}
		return api.CreateProduct(ctx, domain.CreateProductRequest{
			Title:       f.title,
			Description: f.desc,
			Price:       f.price,
			Location:    f.location,
			City:        f.city,
			ZipCode:     f.zip,
		})
	case "set-zip":
		if f.id <= 0 || f.zip == "" {
			return nil, errors.New("-id and -zip are required")
		}
		return api.UpdateProduct(ctx, f.id, domain.UpdateProductRequest{ZipCode: &f.zip})
	case "upload":
		if f.file == "" {
			return nil, errors.New("-file is required")
		}
		file, err := os.Open(f.file)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return api.UploadImage(ctx, filepath.Base(f.file), file)
	default:
		return nil, fmt.Errorf("unknown command %q", f.cmd)
	}
}

func orNotLoggedIn(err error) error {
	if err != nil {
		return err
	}
	return errors.New("not logged in")
}

func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrServerUnreachable):
		return "server unreachable, check API_BASE_URL and your connection"
	case errors.Is(err, client.ErrUnauthorized):
		return "session expired or invalid, log in again"
	default:
		return err.Error()
	}
}
