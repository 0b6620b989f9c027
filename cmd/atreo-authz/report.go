package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/atreo/portal/internal/core/authz"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/navigation"
	"github.com/atreo/portal/internal/infrastructure/db/mongo"
)

type options struct {
	userPath string
	format   string
	module   string
	page     string
	access   string
	tab      string
	session  string
	mongoURI string
	mongoDB  string
}

type decision struct {
	Module  authz.Module `json:"module" yaml:"module"`
	Page    string       `json:"page,omitempty" yaml:"page,omitempty"`
	Access  authz.Access `json:"access,omitempty" yaml:"access,omitempty"`
	Allowed bool         `json:"allowed" yaml:"allowed"`
}

type report struct {
	User      string                   `json:"user" yaml:"user"`
	Shell     string                   `json:"shell" yaml:"shell"`
	ActiveTab domain.Tab               `json:"active_tab" yaml:"active_tab"`
	Page      domain.Page              `json:"page" yaml:"page"`
	Sidebar   []navigation.SidebarItem `json:"sidebar" yaml:"sidebar"`
	Summary   authz.Summary            `json:"permissions" yaml:"permissions"`
}

// loadUser reads a user document in the backend's wire shape. YAML is first
// converted to JSON so the same permission decoding applies to every format.
func loadUser(path string) (*domain.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
	default:
		data = jsonc.ToJSON(data)
	}

	user, err := decodeUser(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return user, nil
}

// loadMirroredUser reads the user the portal last published for a session.
func loadMirroredUser(ctx context.Context, opts options) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: opts.mongoURI, Database: opts.mongoDB})
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	raw, err := mongo.NewSessionMirrorRepository(db, 0).Get(ctx, opts.session)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("no user mirrored for session %s", opts.session)
	}
	user, err := decodeUser(raw)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", opts.session, err)
	}
	return user, nil
}

func decodeUser(data []byte) (*domain.User, error) {
	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	if !user.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", user.Role)
	}
	return &user, nil
}

func decide(u *domain.User, opts options) decision {
	d := decision{Module: authz.Module(opts.module), Page: opts.page}
	if opts.page == "" {
		d.Allowed = authz.HasModuleAccess(u, d.Module)
		return d
	}
	d.Access = authz.ParseAccess(opts.access)
	d.Allowed = authz.HasAccessType(u, d.Module, opts.page, d.Access)
	return d
}

func buildReport(u *domain.User, tab string) report {
	active := navigation.GuardTab(u, navigation.ResolveTab(u.Role, tab))
	return report{
		User:      u.ID,
		Shell:     domain.TabSetFor(u.Role).Name(),
		ActiveTab: active,
		Page:      navigation.SelectPage(u, active),
		Sidebar:   navigation.Sidebar(u),
		Summary:   authz.Summarize(u),
	}
}

func write(out io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
