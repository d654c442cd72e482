package services

import (
	"context"

	"waapiview/internal/domain"
)

// RemoteClient is the automation API of the authoring tool. Implementations
// must accept concurrent calls.
type RemoteClient interface {
	Connect(ctx context.Context) (domain.VersionInfo, error)
	GetChildren(ctx context.Context, path string) ([]domain.ObjectInfo, error)
	GetProperty(ctx context.Context, id string, name string) (any, error)
	GetProperties(ctx context.Context, id string) (map[string]any, error)
	GetFields(ctx context.Context, id string, fields []string) (map[string]any, error)
	GetSelected(ctx context.Context, fields []string) ([]map[string]any, error)
	Search(ctx context.Context, text string) ([]domain.Hit, error)
	GoToObjects(ctx context.Context, ids []string) error
	Disconnect() error
}

// TreeBuilder produces a complete mirror of the remote hierarchy.
type TreeBuilder interface {
	Build(ctx context.Context) (TreeResult, error)
}

type PropertySource interface {
	FetchProperties(ctx context.Context, ids []string, fields []string) ([]domain.PropertyRecord, error)
	FetchSelected(ctx context.Context, fields []string) ([]domain.PropertyRecord, error)
}
