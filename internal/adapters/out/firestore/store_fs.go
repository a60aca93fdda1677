// internal/adapters/out/firestore/store_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	common "invoicer/internal/domain/common"
	"invoicer/internal/domain/docstore"
)

// StoreFS implements docstore.Store on Firestore.
type StoreFS struct {
	Client *firestore.Client
}

func NewStoreFS(client *firestore.Client) *StoreFS {
	return &StoreFS{Client: client}
}

// Compile-time check.
var _ docstore.Store = (*StoreFS)(nil)

func (s *StoreFS) col(name string) (*firestore.CollectionRef, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty collection", docstore.ErrInvalidArgument)
	}
	return s.Client.Collection(name), nil
}

// =======================
// Commands
// =======================

func (s *StoreFS) Put(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	col, err := s.col(collection)
	if err != nil {
		return "", err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		ref, _, err := col.Add(ctx, data)
		if err != nil {
			return "", wrapErr("add", collection, "", err)
		}
		return ref.ID, nil
	}

	if _, err := col.Doc(id).Set(ctx, data); err != nil {
		return "", wrapErr("set", collection, id, err)
	}
	return id, nil
}

func (s *StoreFS) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	col, err := s.col(collection)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return docstore.ErrNotFound
	}
	if len(fields) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}

	if _, err := col.Doc(id).Update(ctx, updates); err != nil {
		return wrapErr("update", collection, id, err)
	}
	return nil
}

func (s *StoreFS) Delete(ctx context.Context, collection, id string) error {
	col, err := s.col(collection)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return docstore.ErrNotFound
	}

	if _, err := col.Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return wrapErr("delete", collection, id, err)
	}
	return nil
}

// =======================
// Queries
// =======================

func (s *StoreFS) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	col, err := s.col(collection)
	if err != nil {
		return docstore.Document{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return docstore.Document{}, docstore.ErrNotFound
	}

	snap, err := col.Doc(id).Get(ctx)
	if err != nil {
		return docstore.Document{}, wrapErr("get", collection, id, err)
	}
	return toDocument(snap), nil
}

func (s *StoreFS) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	col, err := s.col(collection)
	if err != nil {
		return nil, err
	}

	query := col.Query
	for _, f := range q.Filters {
		if !docstore.ValidOp(f.Op) {
			return nil, fmt.Errorf("%w: operator %q", docstore.ErrInvalidArgument, f.Op)
		}
		query = query.Where(f.Field, f.Op, f.Value)
	}
	if field := strings.TrimSpace(q.OrderBy); field != "" {
		dir := firestore.Asc
		if q.Order == common.SortDesc {
			dir = firestore.Desc
		}
		query = query.OrderBy(field, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	it := query.Documents(ctx)
	defer it.Stop()

	out := []docstore.Document{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr("list", collection, "", err)
		}
		out = append(out, toDocument(snap))
	}
	return out, nil
}

// =======================
// Helpers
// =======================

func toDocument(snap *firestore.DocumentSnapshot) docstore.Document {
	data := snap.Data()
	if data == nil {
		data = map[string]any{}
	}
	return docstore.Document{ID: snap.Ref.ID, Data: data}
}

func wrapErr(op, collection, id string, err error) error {
	if status.Code(err) == codes.NotFound {
		return docstore.ErrNotFound
	}
	where := collection
	if id != "" {
		where += "/" + id
	}
	return fmt.Errorf("%w: firestore %s %s: %w", docstore.ErrStore, op, where, err)
}
