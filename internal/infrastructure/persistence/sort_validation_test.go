package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "DESC"},
		{"ASC", "ASC"},
		{"asc", "ASC"},
		{"  asc  ", "ASC"},
		{"DESC", "DESC"},
		{"desc", "DESC"},
		{"sideways", "DESC"},
		{"   ", "DESC"},
		{"ASC; DROP TABLE products;--", "DESC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.input), "input %q", tt.input)
	}
}

func TestValidateSortField(t *testing.T) {
	allowed := map[string]bool{
		"id":         true,
		"created_at": true,
		"name":       true,
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input falls back", "", "created_at"},
		{"allowed field passes", "name", "name"},
		{"surrounding whitespace is trimmed", "  name  ", "name"},
		{"unknown field falls back", "price", "created_at"},
		{"case mismatch falls back", "NAME", "created_at"},
		{"quoted injection falls back", "name'; DROP TABLE products;--", "created_at"},
		{"embedded space falls back", "name id", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, allowed, "created_at"))
		})
	}

	t.Run("empty default comes back for unknown fields", func(t *testing.T) {
		assert.Equal(t, "", ValidateSortField("price", allowed, ""))
	})
}

func TestSortFieldWhitelists(t *testing.T) {
	t.Run("products sort by marketplace attributes", func(t *testing.T) {
		for _, field := range []string{"sku", "price_amount", "origin_state", "origin_community", "technique"} {
			assert.True(t, ProductSortFields[field], "missing %q", field)
		}
	})

	t.Run("orders sort by fulfillment milestones", func(t *testing.T) {
		for _, field := range []string{"order_number", "grand_total", "paid_at", "shipped_at", "delivered_at"} {
			assert.True(t, OrderSortFields[field], "missing %q", field)
		}
	})

	t.Run("users sort by account fields", func(t *testing.T) {
		for _, field := range []string{"username", "email", "last_login_at"} {
			assert.True(t, UserSortFields[field], "missing %q", field)
		}
	})

	t.Run("every whitelist carries the audit columns", func(t *testing.T) {
		for name, wl := range map[string]map[string]bool{
			"users":    UserSortFields,
			"products": ProductSortFields,
			"orders":   OrderSortFields,
		} {
			assert.True(t, wl["id"] && wl["created_at"] && wl["updated_at"], "whitelist %s", name)
		}
	})
}

func TestSortValidation_RejectsInjection(t *testing.T) {
	payloads := []string{
		"id; DROP TABLE products;--",
		"id' OR '1'='1",
		"id UNION SELECT * FROM users",
		"id, (SELECT password_hash FROM users)",
		"CASE WHEN 1=1 THEN id ELSE name END",
		"id/**/;DROP TABLE orders",
		"id\n; DROP TABLE orders",
		"' OR ''='",
	}

	for _, payload := range payloads {
		t.Run(payload[:min(len(payload), 24)], func(t *testing.T) {
			assert.Equal(t, "created_at", ValidateSortField(payload, ProductSortFields, "created_at"))
			assert.Equal(t, "DESC", ValidateSortOrder(payload))
		})
	}
}
