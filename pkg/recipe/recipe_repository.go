package recipe

import (
	"context"
	"errors"

	"recipehub-backend/entities"

	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		CreateRecipeWithRelations(ctx context.Context, recipe *entities.Recipe, lines []entities.IngredientLine, tags []entities.TagAssignment) error
		ReplaceRecipeRelations(ctx context.Context, recipe *entities.Recipe, lines []entities.IngredientLine, tags []entities.TagAssignment) error
		DeleteRecipe(ctx context.Context, id string) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter RecipeQuery, page, limit int) ([]*entities.Recipe, int64, error)
		GetRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Recipe, error)
		CountRecipesByAuthor(ctx context.Context, authorID string) (int64, error)

		IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)
		IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error)
		IsFollowingAuthor(ctx context.Context, followerID, authorID string) (bool, error)
		AddFavorite(ctx context.Context, favorite *entities.Favorite) error
		RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error)
		AddShoppingListEntry(ctx context.Context, entry *entities.ShoppingListEntry) error
		RemoveShoppingListEntry(ctx context.Context, userID, recipeID string) (int64, error)

		AggregateShoppingList(ctx context.Context, userID string) ([]ShoppingListRow, error)
	}

	// RecipeQuery narrows GetRecipes. UserID scopes the favorite and
	// shopping-cart membership filters; both are skipped when it is empty.
	RecipeQuery struct {
		TagSlugs         []string
		AuthorID         string
		UserID           string
		IsFavorited      bool
		IsInShoppingCart bool
	}

	// ShoppingListRow is one aggregated (ingredient, unit) group of a
	// user's shopping list.
	ShoppingListRow struct {
		Name            string
		MeasurementUnit string
		Total           int
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipeWithRelations persists the recipe row and all of its
// ingredient lines and tag assignments in one transaction, so a recipe is
// never visible with a partial set.
func (r *recipeRepository) CreateRecipeWithRelations(ctx context.Context, recipe *entities.Recipe, lines []entities.IngredientLine, tags []entities.TagAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		for i := range tags {
			tags[i].RecipeID = recipe.ID
		}
		return tx.Create(&tags).Error
	})
}

// ReplaceRecipeRelations updates the recipe fields and swaps the full set
// of ingredient lines and tag assignments for the new payload. Full
// replace, not a diff: old child rows are deleted inside the same
// transaction as the field update.
func (r *recipeRepository) ReplaceRecipeRelations(ctx context.Context, recipe *entities.Recipe, lines []entities.IngredientLine, tags []entities.TagAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(recipe).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.IngredientLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.TagAssignment{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		for i := range tags {
			tags[i].RecipeID = recipe.ID
		}
		return tx.Create(&tags).Error
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.IngredientLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.TagAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.ShoppingListEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entities.Recipe{}).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("IngredientLines.Ingredient").
		Preload("TagAssignments.Tag").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter RecipeQuery, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64

	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN tag_assignments ON tag_assignments.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = tag_assignments.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	if filter.AuthorID != "" {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.UserID != "" && filter.IsFavorited {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", filter.UserID)
	}
	if filter.UserID != "" && filter.IsInShoppingCart {
		query = query.
			Joins("JOIN shopping_list_entries ON shopping_list_entries.recipe_id = recipes.id").
			Where("shopping_list_entries.user_id = ?", filter.UserID)
	}

	// Count on a separate session so Distinct does not leak into the
	// column list of the Find below.
	if err := query.Session(&gorm.Session{}).Distinct("recipes.id").Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Author").
		Preload("IngredientLines.Ingredient").
		Preload("TagAssignments.Tag").
		Group("recipes.id").
		Order("published desc").
		Offset(offset).Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) GetRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe

	query := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("published desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) CountRecipesByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Recipe{}).
		Where("author_id = ?", authorID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.ShoppingListEntry{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) IsFollowingAuthor(ctx context.Context, followerID, authorID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Subscription{}).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, favorite *entities.Favorite) error {
	return r.db.WithContext(ctx).Create(favorite).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	return res.RowsAffected, res.Error
}

func (r *recipeRepository) AddShoppingListEntry(ctx context.Context, entry *entities.ShoppingListEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *recipeRepository) RemoveShoppingListEntry(ctx context.Context, userID, recipeID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingListEntry{})
	return res.RowsAffected, res.Error
}

// AggregateShoppingList sums ingredient amounts across every recipe in the
// user's shopping list, grouped by (ingredient name, unit). Ordered by
// name then unit so the export is stable.
func (r *recipeRepository) AggregateShoppingList(ctx context.Context, userID string) ([]ShoppingListRow, error) {
	var rows []ShoppingListRow

	if err := r.db.WithContext(ctx).
		Table("ingredient_lines").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_lines.amount) AS total").
		Joins("JOIN shopping_list_entries ON shopping_list_entries.recipe_id = ingredient_lines.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ingredient_lines.ingredient_id").
		Where("shopping_list_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name asc, ingredients.measurement_unit asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
