package recipe

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"recipehub-backend/domain"
	"recipehub-backend/entities"
	"recipehub-backend/pkg/catalog"

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
	err = db.AutoMigrate(
		&entities.User{}, &entities.Subscription{},
		&entities.Tag{}, &entities.Ingredient{},
		&entities.Recipe{}, &entities.IngredientLine{}, &entities.TagAssignment{},
		&entities.Favorite{}, &entities.ShoppingListEntry{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

type fakeStorage struct{}

func (f *fakeStorage) UploadBytes(name string, data []byte, contentType string, folder string) (string, error) {
	return folder + "/" + name + ".png", nil
}

func (f *fakeStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func newTestService(db *gorm.DB) RecipeService {
	return NewRecipeService(
		NewRecipeRepository(db),
		catalog.NewCatalogRepository(db),
		&fakeStorage{},
	)
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *entities.User {
	user := &entities.User{
		ID:       uuid.New(),
		Email:    email,
		Username: email,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestTag(t *testing.T, db *gorm.DB, name, slug string) *entities.Tag {
	tag := &entities.Tag{
		ID:    uuid.New(),
		Name:  name,
		Color: "#" + slug,
		Slug:  slug,
	}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *entities.Ingredient {
	ingredient := &entities.Ingredient{
		ID:              uuid.New(),
		Name:            name,
		MeasurementUnit: unit,
	}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func testImage() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
}

func TestCreateRecipe(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	breakfast := createTestTag(t, db, "Breakfast", "breakfast")
	dinner := createTestTag(t, db, "Dinner", "dinner")
	carrot := createTestIngredient(t, db, "Carrot", "kg")
	salt := createTestIngredient(t, db, "Salt", "tsp")

	t.Run("valid payload round-trips the full composition", func(t *testing.T) {
		req := domain.CreateRecipeRequest{
			Name:        "Carrot soup",
			Image:       testImage(),
			Description: "A soup.",
			CookingTime: 30,
			Tags:        []string{breakfast.ID.String(), dinner.ID.String()},
			Ingredients: []domain.IngredientLineRequest{
				{ID: carrot.ID.String(), Amount: 2},
				{ID: salt.ID.String(), Amount: 1},
			},
		}

		created, err := service.CreateRecipe(ctx, req, author.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "Carrot soup", created.Name)
		assert.Equal(t, 30, created.CookingTime)
		assert.Equal(t, author.ID.String(), created.Author.ID)
		assert.NotEmpty(t, created.ImageURL)

		detail, err := service.GetRecipeDetail(ctx, created.ID, author.ID.String())
		require.NoError(t, err)

		gotTags := make(map[string]bool)
		for _, tag := range detail.Tags {
			gotTags[tag.Slug] = true
		}
		assert.Equal(t, map[string]bool{"breakfast": true, "dinner": true}, gotTags)

		gotAmounts := make(map[string]int)
		for _, line := range detail.Ingredients {
			gotAmounts[line.Name] = line.Amount
		}
		assert.Equal(t, map[string]int{"Carrot": 2, "Salt": 1}, gotAmounts)
	})

	t.Run("cooking time boundary", func(t *testing.T) {
		req := domain.CreateRecipeRequest{
			Name:        "Zero time",
			Image:       testImage(),
			Description: "x",
			CookingTime: 0,
			Tags:        []string{breakfast.ID.String()},
			Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 1}},
		}
		_, err := service.CreateRecipe(ctx, req, author.ID.String())
		assert.ErrorIs(t, err, domain.ErrInvalidCookingTime)

		req.CookingTime = 1
		_, err = service.CreateRecipe(ctx, req, author.ID.String())
		assert.NoError(t, err)
	})

	t.Run("empty tag set rejected", func(t *testing.T) {
		req := domain.CreateRecipeRequest{
			Name:        "No tags",
			Image:       testImage(),
			Description: "x",
			CookingTime: 5,
			Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 1}},
		}
		_, err := service.CreateRecipe(ctx, req, author.ID.String())
		assert.ErrorIs(t, err, domain.ErrNoTags)
	})

	t.Run("duplicate ingredient rejected", func(t *testing.T) {
		req := domain.CreateRecipeRequest{
			Name:        "Dup",
			Image:       testImage(),
			Description: "x",
			CookingTime: 5,
			Tags:        []string{breakfast.ID.String()},
			Ingredients: []domain.IngredientLineRequest{
				{ID: carrot.ID.String(), Amount: 1},
				{ID: carrot.ID.String(), Amount: 2},
			},
		}
		_, err := service.CreateRecipe(ctx, req, author.ID.String())
		assert.ErrorIs(t, err, domain.ErrDuplicateIngredient)
	})

	t.Run("unresolvable tag rejected", func(t *testing.T) {
		req := domain.CreateRecipeRequest{
			Name:        "Ghost tag",
			Image:       testImage(),
			Description: "x",
			CookingTime: 5,
			Tags:        []string{uuid.NewString()},
			Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 1}},
		}
		_, err := service.CreateRecipe(ctx, req, author.ID.String())
		assert.ErrorIs(t, err, domain.ErrTagNotFound)
	})

	t.Run("unresolvable ingredient rejected", func(t *testing.T) {
		req := domain.CreateRecipeRequest{
			Name:        "Ghost ingredient",
			Image:       testImage(),
			Description: "x",
			CookingTime: 5,
			Tags:        []string{breakfast.ID.String()},
			Ingredients: []domain.IngredientLineRequest{{ID: uuid.NewString(), Amount: 1}},
		}
		_, err := service.CreateRecipe(ctx, req, author.ID.String())
		assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
	})

	t.Run("amount below one rejected", func(t *testing.T) {
		req := domain.CreateRecipeRequest{
			Name:        "Zero amount",
			Image:       testImage(),
			Description: "x",
			CookingTime: 5,
			Tags:        []string{breakfast.ID.String()},
			Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 0}},
		}
		_, err := service.CreateRecipe(ctx, req, author.ID.String())
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestUpdateRecipeReplacesComposition(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	other := createTestUser(t, db, "other@example.com")
	breakfast := createTestTag(t, db, "Breakfast", "breakfast")
	dinner := createTestTag(t, db, "Dinner", "dinner")
	carrot := createTestIngredient(t, db, "Carrot", "kg")
	salt := createTestIngredient(t, db, "Salt", "tsp")
	pepper := createTestIngredient(t, db, "Pepper", "tsp")

	created, err := service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Original",
		Image:       testImage(),
		Description: "x",
		CookingTime: 10,
		Tags:        []string{breakfast.ID.String(), dinner.ID.String()},
		Ingredients: []domain.IngredientLineRequest{
			{ID: carrot.ID.String(), Amount: 2},
			{ID: salt.ID.String(), Amount: 1},
		},
	}, author.ID.String())
	require.NoError(t, err)

	t.Run("full replace leaves no stale rows", func(t *testing.T) {
		updated, err := service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
			Name:        "Updated",
			Description: "y",
			CookingTime: 20,
			Tags:        []string{dinner.ID.String()},
			Ingredients: []domain.IngredientLineRequest{{ID: pepper.ID.String(), Amount: 3}},
		}, author.ID.String())
		require.NoError(t, err)

		assert.Equal(t, "Updated", updated.Name)
		assert.Equal(t, 20, updated.CookingTime)
		require.Len(t, updated.Tags, 1)
		assert.Equal(t, "dinner", updated.Tags[0].Slug)
		require.Len(t, updated.Ingredients, 1)
		assert.Equal(t, "Pepper", updated.Ingredients[0].Name)
		assert.Equal(t, 3, updated.Ingredients[0].Amount)

		var lineCount, tagCount int64
		require.NoError(t, db.Model(&entities.IngredientLine{}).Where("recipe_id = ?", created.ID).Count(&lineCount).Error)
		require.NoError(t, db.Model(&entities.TagAssignment{}).Where("recipe_id = ?", created.ID).Count(&tagCount).Error)
		assert.EqualValues(t, 1, lineCount)
		assert.EqualValues(t, 1, tagCount)
	})

	t.Run("image kept when omitted", func(t *testing.T) {
		detail, err := service.GetRecipeDetail(ctx, created.ID, "")
		require.NoError(t, err)
		assert.NotEmpty(t, detail.ImageURL)
	})

	t.Run("only the author may update", func(t *testing.T) {
		_, err := service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
			Name:        "Hijacked",
			Description: "z",
			CookingTime: 5,
			Tags:        []string{dinner.ID.String()},
			Ingredients: []domain.IngredientLineRequest{{ID: salt.ID.String(), Amount: 1}},
		}, other.ID.String())
		assert.ErrorIs(t, err, domain.ErrUserNotAllowed)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		_, err := service.UpdateRecipe(ctx, uuid.NewString(), domain.UpdateRecipeRequest{
			Name:        "Nope",
			Description: "z",
			CookingTime: 5,
			Tags:        []string{dinner.ID.String()},
			Ingredients: []domain.IngredientLineRequest{{ID: salt.ID.String(), Amount: 1}},
		}, author.ID.String())
		assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
	})
}

func TestFavoriteToggle(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	tag := createTestTag(t, db, "Dinner", "dinner")
	carrot := createTestIngredient(t, db, "Carrot", "kg")

	created, err := service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Description: "x",
		CookingTime: 10,
		Tags:        []string{tag.ID.String()},
		Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 2}},
	}, author.ID.String())
	require.NoError(t, err)

	t.Run("add returns compact summary", func(t *testing.T) {
		summary, err := service.AddFavorite(ctx, created.ID, fan.ID.String())
		require.NoError(t, err)
		assert.Equal(t, created.ID, summary.ID)
		assert.Equal(t, "Soup", summary.Name)
		assert.Equal(t, 10, summary.CookingTime)
		assert.NotEmpty(t, summary.ImageURL)
	})

	t.Run("second add conflicts", func(t *testing.T) {
		_, err := service.AddFavorite(ctx, created.ID, fan.ID.String())
		assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)
	})

	t.Run("favorite status visible on detail", func(t *testing.T) {
		detail, err := service.GetRecipeDetail(ctx, created.ID, fan.ID.String())
		require.NoError(t, err)
		assert.True(t, detail.IsFavorited)

		anonymous, err := service.GetRecipeDetail(ctx, created.ID, "")
		require.NoError(t, err)
		assert.False(t, anonymous.IsFavorited)
	})

	t.Run("remove succeeds once then misses", func(t *testing.T) {
		require.NoError(t, service.RemoveFavorite(ctx, created.ID, fan.ID.String()))
		assert.ErrorIs(t, service.RemoveFavorite(ctx, created.ID, fan.ID.String()), domain.ErrNotFavorited)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		_, err := service.AddFavorite(ctx, uuid.NewString(), fan.ID.String())
		assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
	})
}

func TestShoppingCartToggle(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	shopper := createTestUser(t, db, "shopper@example.com")
	tag := createTestTag(t, db, "Dinner", "dinner")
	carrot := createTestIngredient(t, db, "Carrot", "kg")

	created, err := service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Description: "x",
		CookingTime: 10,
		Tags:        []string{tag.ID.String()},
		Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 2}},
	}, author.ID.String())
	require.NoError(t, err)

	summary, err := service.AddToShoppingCart(ctx, created.ID, shopper.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, summary.ID)

	_, err = service.AddToShoppingCart(ctx, created.ID, shopper.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)

	require.NoError(t, service.RemoveFromShoppingCart(ctx, created.ID, shopper.ID.String()))
	assert.ErrorIs(t, service.RemoveFromShoppingCart(ctx, created.ID, shopper.ID.String()), domain.ErrNotInCart)
}

func TestAggregateShoppingList(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	shopper := createTestUser(t, db, "shopper@example.com")
	tag := createTestTag(t, db, "Dinner", "dinner")
	carrot := createTestIngredient(t, db, "Carrot", "kg")
	salt := createTestIngredient(t, db, "Salt", "tsp")

	first, err := service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "R1",
		Image:       testImage(),
		Description: "x",
		CookingTime: 5,
		Tags:        []string{tag.ID.String()},
		Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 2}},
	}, author.ID.String())
	require.NoError(t, err)

	second, err := service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "R2",
		Image:       testImage(),
		Description: "x",
		CookingTime: 5,
		Tags:        []string{tag.ID.String()},
		Ingredients: []domain.IngredientLineRequest{
			{ID: carrot.ID.String(), Amount: 3},
			{ID: salt.ID.String(), Amount: 1},
		},
	}, author.ID.String())
	require.NoError(t, err)

	_, err = service.AddToShoppingCart(ctx, first.ID, shopper.ID.String())
	require.NoError(t, err)
	_, err = service.AddToShoppingCart(ctx, second.ID, shopper.ID.String())
	require.NoError(t, err)

	t.Run("sums per ingredient and unit", func(t *testing.T) {
		items, err := service.GetShoppingList(ctx, shopper.ID.String())
		require.NoError(t, err)

		require.Len(t, items, 2)
		assert.Equal(t, domain.ShoppingListItem{Name: "Carrot", MeasurementUnit: "kg", Total: 5}, items[0])
		assert.Equal(t, domain.ShoppingListItem{Name: "Salt", MeasurementUnit: "tsp", Total: 1}, items[1])
	})

	t.Run("renders one line per group", func(t *testing.T) {
		items, err := service.GetShoppingList(ctx, shopper.ID.String())
		require.NoError(t, err)
		text := RenderShoppingListText(items)
		assert.Equal(t, "Carrot (kg) – 5\nSalt (tsp) – 1", text)
	})

	t.Run("empty list for other users", func(t *testing.T) {
		items, err := service.GetShoppingList(ctx, author.ID.String())
		require.NoError(t, err)
		assert.Empty(t, items)
		// An empty cart still downloads, as an empty file.
		assert.Equal(t, "", RenderShoppingListText(items))
	})
}

func TestGetRecipesFilters(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(db)
	ctx := context.Background()

	chef := createTestUser(t, db, "chef@example.com")
	baker := createTestUser(t, db, "baker@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	breakfast := createTestTag(t, db, "Breakfast", "breakfast")
	dinner := createTestTag(t, db, "Dinner", "dinner")
	carrot := createTestIngredient(t, db, "Carrot", "kg")

	soup, err := service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Description: "x",
		CookingTime: 5,
		Tags:        []string{dinner.ID.String()},
		Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 1}},
	}, chef.ID.String())
	require.NoError(t, err)

	_, err = service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Porridge",
		Image:       testImage(),
		Description: "x",
		CookingTime: 5,
		Tags:        []string{breakfast.ID.String()},
		Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 1}},
	}, baker.ID.String())
	require.NoError(t, err)

	_, err = service.AddFavorite(ctx, soup.ID, fan.ID.String())
	require.NoError(t, err)

	t.Run("filter by tag slug", func(t *testing.T) {
		recipes, count, err := service.GetRecipes(ctx, domain.RecipeListFilter{TagSlugs: []string{"dinner"}}, 1, 20, "")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Soup", recipes[0].Name)
	})

	t.Run("filter by author", func(t *testing.T) {
		recipes, count, err := service.GetRecipes(ctx, domain.RecipeListFilter{AuthorID: baker.ID.String()}, 1, 20, "")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Porridge", recipes[0].Name)
	})

	t.Run("favorited filter scoped to caller", func(t *testing.T) {
		recipes, count, err := service.GetRecipes(ctx, domain.RecipeListFilter{IsFavorited: true}, 1, 20, fan.ID.String())
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Soup", recipes[0].Name)
		assert.True(t, recipes[0].IsFavorited)
	})

	t.Run("favorited filter ignored for anonymous caller", func(t *testing.T) {
		_, count, err := service.GetRecipes(ctx, domain.RecipeListFilter{IsFavorited: true}, 1, 20, "")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})
}

func TestDeleteRecipeCascades(t *testing.T) {
	db := setupTestDB(t)
	service := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	tag := createTestTag(t, db, "Dinner", "dinner")
	carrot := createTestIngredient(t, db, "Carrot", "kg")

	created, err := service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Description: "x",
		CookingTime: 5,
		Tags:        []string{tag.ID.String()},
		Ingredients: []domain.IngredientLineRequest{{ID: carrot.ID.String(), Amount: 1}},
	}, author.ID.String())
	require.NoError(t, err)

	_, err = service.AddFavorite(ctx, created.ID, fan.ID.String())
	require.NoError(t, err)
	_, err = service.AddToShoppingCart(ctx, created.ID, fan.ID.String())
	require.NoError(t, err)

	assert.ErrorIs(t, service.DeleteRecipe(ctx, created.ID, fan.ID.String()), domain.ErrUserNotAllowed)
	require.NoError(t, service.DeleteRecipe(ctx, created.ID, author.ID.String()))

	_, err = service.GetRecipeDetail(ctx, created.ID, "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	for _, model := range []interface{}{
		&entities.IngredientLine{}, &entities.TagAssignment{},
		&entities.Favorite{}, &entities.ShoppingListEntry{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Where("recipe_id = ?", created.ID).Count(&count).Error)
		assert.EqualValues(t, 0, count)
	}
}

func TestFavoriteUniqueConstraint(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecipeRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "user@example.com")
	recipeRow := &entities.Recipe{
		ID:        uuid.New(),
		AuthorID:  user.ID,
		Name:      "Soup",
		Published: time.Now(),
	}
	require.NoError(t, db.Create(recipeRow).Error)

	first := &entities.Favorite{ID: uuid.New(), UserID: user.ID, RecipeID: recipeRow.ID, CreatedAt: time.Now()}
	require.NoError(t, repo.AddFavorite(ctx, first))

	// Duplicate insert must fail on the unique index even when the
	// existence pre-check is bypassed.
	second := &entities.Favorite{ID: uuid.New(), UserID: user.ID, RecipeID: recipeRow.ID, CreatedAt: time.Now()}
	assert.Error(t, repo.AddFavorite(ctx, second))
}
