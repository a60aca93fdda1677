// internal/application/migration/transform.go
package migration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	common "invoicer/internal/domain/common"
)

var ErrUnknownTransform = errors.New("migration: unknown transform")

// Fields added by the transforms.
const (
	FieldLegacyID  = "legacyId"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Transform names accepted in a plan file.
const (
	TransformIdentity = "identity"
	TransformInvoice  = "invoice"
	TransformItem     = "item"
)

// Transform maps a legacy record to the target document. now is the
// migration-time clock reading for this record.
type Transform func(rec Record, now time.Time) (map[string]any, error)

// Identity copies the record with numbers normalized.
func Identity(rec Record, _ time.Time) (map[string]any, error) {
	return rec.Normalized(), nil
}

// InvoiceTransform copies the record, adds createdAt/updatedAt timestamps
// parsed from created_at/updated_at (now when absent) and legacyId.
func InvoiceTransform(rec Record, now time.Time) (map[string]any, error) {
	doc := rec.Normalized()

	createdAt, err := timestampOrNow(rec, "created_at", now)
	if err != nil {
		return nil, err
	}
	updatedAt, err := timestampOrNow(rec, "updated_at", now)
	if err != nil {
		return nil, err
	}
	doc[FieldCreatedAt] = createdAt
	doc[FieldUpdatedAt] = updatedAt

	if err := addLegacyID(doc, rec); err != nil {
		return nil, err
	}
	return doc, nil
}

// ItemTransform copies the record and adds legacyId.
func ItemTransform(rec Record, _ time.Time) (map[string]any, error) {
	doc := rec.Normalized()
	if err := addLegacyID(doc, rec); err != nil {
		return nil, err
	}
	return doc, nil
}

// TransformByName resolves a plan transform name. Empty means identity.
func TransformByName(name string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TransformIdentity:
		return Identity, nil
	case TransformInvoice, "invoices":
		return InvoiceTransform, nil
	case TransformItem, "items", "invoice_items":
		return ItemTransform, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, name)
}

func addLegacyID(doc map[string]any, rec Record) error {
	id, ok, err := rec.LegacyID()
	if err != nil {
		return err
	}
	if ok {
		doc[FieldLegacyID] = id
	}
	return nil
}

// timestampOrNow reads key as a timestamp. Missing, null and blank values
// yield now; anything else must parse.
func timestampOrNow(rec Record, key string, now time.Time) (time.Time, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return now.UTC(), nil
	}
	s, isStr := v.(string)
	if !isStr {
		return time.Time{}, fmt.Errorf("%w: %s is %T, want string", ErrMalformedExport, key, v)
	}
	if strings.TrimSpace(s) == "" {
		return now.UTC(), nil
	}
	t, err := common.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrMalformedExport, key, err)
	}
	return t, nil
}
