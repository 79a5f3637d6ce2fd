package store

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/m3rciful/groupbot/internal/config"
)

// Firebase stores state in a Realtime Database under a root node.
type Firebase struct {
	client *db.Client
	root   string
}

// NewFirebase initialises the app from cfg. Without a credentials file the
// application default credentials are used.
func NewFirebase(ctx context.Context, cfg config.FirebaseConfig) (*Firebase, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}
	return &Firebase{client: client, root: strings.Trim(cfg.Root, "/")}, nil
}

func (f *Firebase) path(name string) string {
	if f.root == "" {
		return name
	}
	return f.root + "/" + name
}

func (f *Firebase) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := f.client.NewRef(f.path("snapshot")).Get(ctx, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("error reading snapshot: %w", err)
	}
	return snap, nil
}

func (f *Firebase) Save(ctx context.Context, snap Snapshot) error {
	if err := f.client.NewRef(f.path("snapshot")).Set(ctx, snap); err != nil {
		return fmt.Errorf("error writing snapshot: %w", err)
	}
	return nil
}

func (f *Firebase) LogActivity(ctx context.Context, a Activity) error {
	if _, err := f.client.NewRef(f.path("activity")).Push(ctx, a); err != nil {
		return fmt.Errorf("error logging activity: %w", err)
	}
	return nil
}

// RecentActivity reads the last limit pushed entries. Push keys sort by creation time.
func (f *Firebase) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		return nil, nil
	}
	nodes, err := f.client.NewRef(f.path("activity")).OrderByKey().LimitToLast(limit).GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading activity: %w", err)
	}
	out := make([]Activity, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		var a Activity
		if err := nodes[i].Unmarshal(&a); err != nil {
			return nil, fmt.Errorf("error decoding activity %s: %w", nodes[i].Key(), err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Close is a no-op; the database client holds no connections of its own.
func (f *Firebase) Close() error { return nil }
