package services

import (
	"context"
	"fmt"

	"waapiview/internal/domain"
)

var selectionIdentity = []string{"id", "name", "type", "path"}

type PropertyFetcher struct {
	session *Session
}

func NewPropertyFetcher(session *Session) *PropertyFetcher {
	return &PropertyFetcher{session: session}
}

// FetchProperties resolves every id in order. With fields set only those
// fields are requested, otherwise the full property bag. An empty id list
// returns nil without touching the remote.
func (fetcher *PropertyFetcher) FetchProperties(ctx context.Context, ids []string, fields []string) ([]domain.PropertyRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if _, _, err := fetcher.session.Ensure(ctx); err != nil {
		return nil, err
	}
	client := fetcher.session.Client()
	records := make([]domain.PropertyRecord, 0, len(ids))
	for _, id := range ids {
		var values map[string]any
		var err error
		if len(fields) > 0 {
			values, err = client.GetFields(ctx, id, fields)
			err = remoteCall("get", err)
		} else {
			values, err = client.GetProperties(ctx, id)
			err = remoteCall("getProperties", err)
		}
		if err != nil {
			fetcher.resetOnConnectionLoss(err)
			return nil, fmt.Errorf("properties of %s: %w", id, err)
		}
		records = append(records, domain.PropertyRecord{ID: id, Values: values})
	}
	return records, nil
}

// FetchSelected resolves the objects currently selected in the authoring tool.
func (fetcher *PropertyFetcher) FetchSelected(ctx context.Context, fields []string) ([]domain.PropertyRecord, error) {
	if _, _, err := fetcher.session.Ensure(ctx); err != nil {
		return nil, err
	}
	selected, err := fetcher.session.Client().GetSelected(ctx, selectionIdentity)
	if err != nil {
		err = remoteCall("getSelected", err)
		fetcher.resetOnConnectionLoss(err)
		return nil, err
	}
	ids := make([]string, 0, len(selected))
	for _, object := range selected {
		if id, ok := object["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return fetcher.FetchProperties(ctx, ids, fields)
}

func (fetcher *PropertyFetcher) resetOnConnectionLoss(err error) {
	fetcher.session.ResetOnLoss(err)
}
