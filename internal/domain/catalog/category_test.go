package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	t.Run("creates category successfully", func(t *testing.T) {
		category, err := NewCategory("Cerâmica", "Peças de cerâmica artesanal")

		require.NoError(t, err)
		assert.NotNil(t, category)
		assert.Equal(t, "Cerâmica", category.Name)
		assert.Equal(t, "ceramica", category.Slug)
		assert.Equal(t, "Peças de cerâmica artesanal", category.Description)
		assert.True(t, category.IsActive)
		assert.Len(t, category.GetDomainEvents(), 1)
	})

	t.Run("generates hyphenated slug", func(t *testing.T) {
		category, err := NewCategory("Tecelagem e Fibras", "")

		require.NoError(t, err)
		assert.Equal(t, "tecelagem-e-fibras", category.Slug)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		category, err := NewCategory("", "desc")

		assert.Error(t, err)
		assert.Nil(t, category)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with one character name", func(t *testing.T) {
		category, err := NewCategory("C", "desc")

		assert.Error(t, err)
		assert.Nil(t, category)
		assert.Contains(t, err.Error(), "at least 2 characters")
	})

	t.Run("fails with name exceeding max length", func(t *testing.T) {
		category, err := NewCategory(strings.Repeat("a", 65), "desc")

		assert.Error(t, err)
		assert.Nil(t, category)
		assert.Contains(t, err.Error(), "cannot exceed 64 characters")
	})
}

func TestCategory_Update(t *testing.T) {
	t.Run("updates name and regenerates slug", func(t *testing.T) {
		category, _ := NewCategory("Cerâmica", "old")
		category.ClearDomainEvents()
		initialVersion := category.Version

		err := category.Update("Joalheria Indígena", "new description")

		require.NoError(t, err)
		assert.Equal(t, "Joalheria Indígena", category.Name)
		assert.Equal(t, "joalheria-indigena", category.Slug)
		assert.Equal(t, "new description", category.Description)
		assert.Equal(t, initialVersion+1, category.Version)
		assert.Len(t, category.GetDomainEvents(), 1)
	})

	t.Run("fails with invalid name", func(t *testing.T) {
		category, _ := NewCategory("Cerâmica", "old")

		err := category.Update("", "new")

		assert.Error(t, err)
		assert.Equal(t, "Cerâmica", category.Name)
	})
}

func TestCategory_ActivateDeactivate(t *testing.T) {
	t.Run("deactivates active category", func(t *testing.T) {
		category, _ := NewCategory("Cerâmica", "")
		category.ClearDomainEvents()

		err := category.Deactivate()

		require.NoError(t, err)
		assert.False(t, category.IsActive)
		assert.Len(t, category.GetDomainEvents(), 1)
	})

	t.Run("fails deactivating inactive category", func(t *testing.T) {
		category, _ := NewCategory("Cerâmica", "")
		require.NoError(t, category.Deactivate())

		err := category.Deactivate()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already inactive")
	})

	t.Run("reactivates category", func(t *testing.T) {
		category, _ := NewCategory("Cerâmica", "")
		require.NoError(t, category.Deactivate())

		err := category.Activate()

		require.NoError(t, err)
		assert.True(t, category.IsActive)
	})

	t.Run("fails activating active category", func(t *testing.T) {
		category, _ := NewCategory("Cerâmica", "")

		err := category.Activate()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already active")
	})
}

func TestCategory_SetSortOrder(t *testing.T) {
	category, _ := NewCategory("Cerâmica", "")
	initialVersion := category.Version

	category.SetSortOrder(5)

	assert.Equal(t, 5, category.SortOrder)
	assert.Equal(t, initialVersion+1, category.Version)
}
