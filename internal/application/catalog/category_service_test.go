package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/catalog"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	categoryRepo.On("ExistsByName", ctx, "Cerâmica").Return(false, nil)
	categoryRepo.On("ExistsBySlug", ctx, "ceramica").Return(false, nil)
	categoryRepo.On("Create", ctx, mock.Anything).Return(nil)

	svc := NewCategoryService(categoryRepo)

	result, err := svc.Create(ctx, CreateCategoryRequest{
		Name:        "Cerâmica",
		Description: "Peças em barro e argila",
	})

	require.NoError(t, err)
	assert.Equal(t, "Cerâmica", result.Name)
	assert.Equal(t, "ceramica", result.Slug)
	assert.True(t, result.IsActive)
	categoryRepo.AssertExpectations(t)
}

func TestCategoryService_Create_DuplicateName(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	categoryRepo.On("ExistsByName", ctx, "Cerâmica").Return(true, nil)

	svc := NewCategoryService(categoryRepo)

	result, err := svc.Create(ctx, CreateCategoryRequest{Name: "Cerâmica"})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CATEGORY_NAME_EXISTS", domainErr.Code)
	categoryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryService_Create_SlugCollision(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	// "Cestaria!" and "Cestaria" both normalize to "cestaria"
	categoryRepo.On("ExistsByName", ctx, "Cestaria!").Return(false, nil)
	categoryRepo.On("ExistsBySlug", ctx, "cestaria").Return(true, nil)

	svc := NewCategoryService(categoryRepo)

	result, err := svc.Create(ctx, CreateCategoryRequest{Name: "Cestaria!"})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CATEGORY_SLUG_EXISTS", domainErr.Code)
}

func TestCategoryService_GetByID(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	category, err := catalog.NewCategory("Tecelagem", "Redes e tecidos")
	require.NoError(t, err)

	categoryRepo.On("FindByID", ctx, category.ID).Return(category, nil)
	categoryRepo.On("CountProducts", ctx, category.ID).Return(int64(12), nil)

	svc := NewCategoryService(categoryRepo)

	result, err := svc.GetByID(ctx, category.ID)

	require.NoError(t, err)
	assert.Equal(t, "Tecelagem", result.Name)
	assert.Equal(t, int64(12), result.ProductCount)
}

func TestCategoryService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	id := uuid.New()
	categoryRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	svc := NewCategoryService(categoryRepo)

	result, err := svc.GetByID(ctx, id)

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CATEGORY_NOT_FOUND", domainErr.Code)
}

func TestCategoryService_List(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	first, err := catalog.NewCategory("Cerâmica", "")
	require.NoError(t, err)
	second, err := catalog.NewCategory("Cestaria", "")
	require.NoError(t, err)

	categoryRepo.On("FindAll", ctx, mock.MatchedBy(func(f *catalog.CategoryFilter) bool {
		return f.ActiveOnly && f.Page == 1 && f.Limit == 50
	})).Return([]*catalog.Category{first, second}, nil)
	categoryRepo.On("Count", ctx, mock.Anything).Return(int64(2), nil)

	svc := NewCategoryService(categoryRepo)

	results, total, err := svc.List(ctx, CategoryListFilter{ActiveOnly: true})

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(2), total)
}

func TestCategoryService_Update_RenamesAndReslugs(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	category, err := catalog.NewCategory("Tecelagem", "")
	require.NoError(t, err)

	categoryRepo.On("FindByID", ctx, category.ID).Return(category, nil)
	categoryRepo.On("ExistsByName", ctx, "Tecelagem Wayuu").Return(false, nil)
	categoryRepo.On("Update", ctx, category).Return(nil)

	svc := NewCategoryService(categoryRepo)

	newName := "Tecelagem Wayuu"
	result, err := svc.Update(ctx, category.ID, UpdateCategoryRequest{Name: &newName})

	require.NoError(t, err)
	assert.Equal(t, "Tecelagem Wayuu", result.Name)
	assert.Equal(t, "tecelagem-wayuu", result.Slug)
}

func TestCategoryService_Deactivate(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	category, err := catalog.NewCategory("Adornos", "")
	require.NoError(t, err)

	categoryRepo.On("FindByID", ctx, category.ID).Return(category, nil)
	categoryRepo.On("Update", ctx, category).Return(nil)

	svc := NewCategoryService(categoryRepo)

	result, err := svc.Deactivate(ctx, category.ID)

	require.NoError(t, err)
	assert.False(t, result.IsActive)
}

func TestCategoryService_Delete_WithProductsRefused(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	category, err := catalog.NewCategory("Cestaria", "")
	require.NoError(t, err)

	categoryRepo.On("FindByID", ctx, category.ID).Return(category, nil)
	categoryRepo.On("CountProducts", ctx, category.ID).Return(int64(4), nil)

	svc := NewCategoryService(categoryRepo)

	err = svc.Delete(ctx, category.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CATEGORY_IN_USE", domainErr.Code)
	categoryRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCategoryService_Delete_Empty(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepository)

	category, err := catalog.NewCategory("Cestaria", "")
	require.NoError(t, err)

	categoryRepo.On("FindByID", ctx, category.ID).Return(category, nil)
	categoryRepo.On("CountProducts", ctx, category.ID).Return(int64(0), nil)
	categoryRepo.On("Delete", ctx, category.ID).Return(nil)

	svc := NewCategoryService(categoryRepo)

	require.NoError(t, svc.Delete(ctx, category.ID))
	categoryRepo.AssertExpectations(t)
}

// capturingPublisher records published domain events
type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func TestCategoryService_PublishesEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("creation", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ExistsByName", ctx, "Cestaria").Return(false, nil)
		categoryRepo.On("ExistsBySlug", ctx, "cestaria").Return(false, nil)
		categoryRepo.On("Create", ctx, mock.Anything).Return(nil)

		publisher := &capturingPublisher{}
		svc := NewCategoryService(categoryRepo)
		svc.SetEventPublisher(publisher)

		_, err := svc.Create(ctx, CreateCategoryRequest{Name: "Cestaria"})

		require.NoError(t, err)
		require.Len(t, publisher.events, 1)
		assert.Equal(t, catalog.EventTypeCategoryCreated, publisher.events[0].EventType())
	})

	t.Run("deletion", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)

		category, err := catalog.NewCategory("Cestaria", "")
		require.NoError(t, err)
		category.ClearDomainEvents() // the repository hands back a settled aggregate

		categoryRepo.On("FindByID", ctx, category.ID).Return(category, nil)
		categoryRepo.On("CountProducts", ctx, category.ID).Return(int64(0), nil)
		categoryRepo.On("Delete", ctx, category.ID).Return(nil)

		publisher := &capturingPublisher{}
		svc := NewCategoryService(categoryRepo)
		svc.SetEventPublisher(publisher)

		require.NoError(t, svc.Delete(ctx, category.ID))

		require.Len(t, publisher.events, 1)
		deleted, ok := publisher.events[0].(*catalog.CategoryDeletedEvent)
		require.True(t, ok)
		assert.Equal(t, "cestaria", deleted.Slug)
	})
}
