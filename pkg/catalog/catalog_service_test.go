package catalog

import (
	"context"
	"fmt"
	"testing"

	"recipehub-backend/domain"
	"recipehub-backend/entities"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&entities.Tag{}, &entities.Ingredient{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func seedTag(t *testing.T, db *gorm.DB, name, color, slug string) *entities.Tag {
	tag := &entities.Tag{ID: uuid.New(), Name: name, Color: color, Slug: slug}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) *entities.Ingredient {
	ingredient := &entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func TestGetTags(t *testing.T) {
	db := setupTestDB(t)
	service := NewCatalogService(NewCatalogRepository(db))
	ctx := context.Background()

	seedTag(t, db, "Breakfast", "#E26C2D", "breakfast")
	seedTag(t, db, "Dinner", "#49B64E", "dinner")

	t.Run("no filter lists everything", func(t *testing.T) {
		tags, err := service.GetTags(ctx, domain.TagFilter{})
		require.NoError(t, err)
		assert.Len(t, tags, 2)
	})

	t.Run("slug filter is exact", func(t *testing.T) {
		tags, err := service.GetTags(ctx, domain.TagFilter{Slug: "dinner"})
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, "Dinner", tags[0].Name)

		tags, err = service.GetTags(ctx, domain.TagFilter{Slug: "din"})
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("color filter", func(t *testing.T) {
		tags, err := service.GetTags(ctx, domain.TagFilter{Color: "#E26C2D"})
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, "breakfast", tags[0].Slug)
	})
}

func TestGetTagByID(t *testing.T) {
	db := setupTestDB(t)
	service := NewCatalogService(NewCatalogRepository(db))
	ctx := context.Background()

	tag := seedTag(t, db, "Breakfast", "#E26C2D", "breakfast")

	found, err := service.GetTagByID(ctx, tag.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", found.Name)

	_, err = service.GetTagByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}

func TestGetIngredients(t *testing.T) {
	db := setupTestDB(t)
	service := NewCatalogService(NewCatalogRepository(db))
	ctx := context.Background()

	seedIngredient(t, db, "Salt", "tsp")
	seedIngredient(t, db, "Saffron", "g")
	seedIngredient(t, db, "Pepper", "tsp")

	t.Run("prefix search is case-insensitive", func(t *testing.T) {
		ingredients, err := service.GetIngredients(ctx, "sa")
		require.NoError(t, err)
		require.Len(t, ingredients, 2)

		names := []string{ingredients[0].Name, ingredients[1].Name}
		assert.ElementsMatch(t, []string{"Salt", "Saffron"}, names)
	})

	t.Run("prefix only, no substring match", func(t *testing.T) {
		ingredients, err := service.GetIngredients(ctx, "alt")
		require.NoError(t, err)
		assert.Empty(t, ingredients)
	})

	t.Run("wildcard characters match literally", func(t *testing.T) {
		seedIngredient(t, db, "100% cocoa", "g")

		ingredients, err := service.GetIngredients(ctx, "%")
		require.NoError(t, err)
		assert.Empty(t, ingredients)

		ingredients, err = service.GetIngredients(ctx, "100%")
		require.NoError(t, err)
		require.Len(t, ingredients, 1)
		assert.Equal(t, "100% cocoa", ingredients[0].Name)

		ingredients, err = service.GetIngredients(ctx, "_")
		require.NoError(t, err)
		assert.Empty(t, ingredients)
	})

	t.Run("empty prefix lists everything", func(t *testing.T) {
		ingredients, err := service.GetIngredients(ctx, "")
		require.NoError(t, err)
		assert.Len(t, ingredients, 4)
	})
}

func TestGetIngredientByID(t *testing.T) {
	db := setupTestDB(t)
	service := NewCatalogService(NewCatalogRepository(db))
	ctx := context.Background()

	ingredient := seedIngredient(t, db, "Salt", "tsp")

	found, err := service.GetIngredientByID(ctx, ingredient.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "tsp", found.MeasurementUnit)

	_, err = service.GetIngredientByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
}
