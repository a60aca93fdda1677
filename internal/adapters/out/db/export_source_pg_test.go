package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableFor(t *testing.T) {
	s := NewExportSourcePG(nil, "")
	assert.Equal(t, "public", s.Schema)
	assert.Equal(t, "postgres:public", s.String())

	assert.Equal(t, "invoices", s.TableFor("invoices.json"))
	assert.Equal(t, "invoice_items", s.TableFor("items.json"))
	assert.Equal(t, "clients", s.TableFor("clients.json"))
	assert.Equal(t, "payments", s.TableFor("exports/payments.json"))

	s.Tables["clients.json"] = "legacy_clients"
	assert.Equal(t, "legacy_clients", s.TableFor("clients.json"))
}

func TestLoadWithoutDatabase(t *testing.T) {
	_, err := NewExportSourcePG(nil, "legacy").Load(context.Background(), "invoices.json")
	assert.Error(t, err)
}
