package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
)

// BulkItem is one document destined for an index; ID becomes the _id so a
// re-upsert overwrites instead of duplicating.
type BulkItem struct {
	ID  string
	Doc any
}

//go:generate mockgen -source=backend.go -destination=mock/backend_mock.go -package=mock
type Backend interface {
	EnsureIndices(ctx context.Context) error
	BulkUpsert(ctx context.Context, index string, items []BulkItem) error
	Refresh(ctx context.Context, indices ...string) error
	Ping(ctx context.Context) error
}

type osBackend struct {
	client *opensearch.Client
}

func NewBackend(client *opensearch.Client) Backend {
	return &osBackend{client: client}
}

func (b *osBackend) EnsureIndices(ctx context.Context) error {
	for index, mapping := range map[string]string{
		CompanyIndex: companyMapping,
		PersonIndex:  personMapping,
	} {
		exists, err := b.client.Indices.Exists(
			[]string{index},
			b.client.Indices.Exists.WithContext(ctx),
		)
		if err != nil {
			return err
		}
		io.Copy(io.Discard, exists.Body)
		exists.Body.Close()

		if exists.StatusCode == http.StatusOK {
			continue
		}

		res, err := b.client.Indices.Create(
			index,
			b.client.Indices.Create.WithBody(strings.NewReader(mapping)),
			b.client.Indices.Create.WithContext(ctx),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("create index %s: %s", index, res.String())
		}
	}
	return nil
}

// BulkUpsert sends one _bulk request of index actions. OpenSearch reports
// per-item failures with a 200, so the response body is checked for the
// errors flag as well.
func (b *osBackend) BulkUpsert(ctx context.Context, index string, items []BulkItem) error {
	if len(items) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, item := range items {
		if err := enc.Encode(map[string]any{
			"index": map[string]any{"_index": index, "_id": item.ID},
		}); err != nil {
			return err
		}
		if err := enc.Encode(item.Doc); err != nil {
			return err
		}
	}

	res, err := b.client.Bulk(
		bytes.NewReader(body.Bytes()),
		b.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk upsert %s: %s", index, res.String())
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return err
	}
	if bulkRes.Errors {
		return fmt.Errorf("bulk upsert %s: some items were rejected", index)
	}
	return nil
}

func (b *osBackend) Refresh(ctx context.Context, indices ...string) error {
	res, err := b.client.Indices.Refresh(
		b.client.Indices.Refresh.WithIndex(indices...),
		b.client.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("refresh: %s", res.String())
	}
	return nil
}

func (b *osBackend) Ping(ctx context.Context) error {
	res, err := b.client.Ping(b.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("opensearch ping: %s", res.String())
	}
	return nil
}
