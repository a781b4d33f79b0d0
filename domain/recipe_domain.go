package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessGetRecipes      = "recipes retrieved successfully"
	MessageSuccessGetRecipeDetail = "recipe retrieved successfully"
	MessageSuccessAddFavorite     = "recipe added to favorites"
	MessageSuccessRemoveFavorite  = "recipe removed from favorites"
	MessageSuccessAddToCart       = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart  = "recipe removed from shopping cart"

	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedGetRecipes      = "failed to retrieve recipes"
	MessageFailedGetRecipeDetail = "failed to retrieve recipe"
	MessageFailedAddFavorite     = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite  = "failed to remove recipe from favorites"
	MessageFailedAddToCart       = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart  = "failed to remove recipe from shopping cart"
	MessageFailedDownloadCart    = "failed to download shopping cart"

	ErrRecipeNotFound       = errors.New("recipe not found")
	ErrNoTags               = errors.New("at least one tag is required")
	ErrDuplicateTag         = errors.New("tags must not repeat")
	ErrNoIngredientLines    = errors.New("at least one ingredient is required")
	ErrDuplicateIngredient  = errors.New("ingredients must not repeat")
	ErrInvalidAmount        = errors.New("ingredient amount must be at least 1")
	ErrInvalidCookingTime   = errors.New("cooking time must be at least 1")
	ErrInvalidImagePayload  = errors.New("image payload is not valid base64")
	ErrAlreadyFavorited     = errors.New("recipe already in favorites")
	ErrNotFavorited         = errors.New("recipe not in favorites")
	ErrAlreadyInCart        = errors.New("recipe already in shopping cart")
	ErrNotInCart            = errors.New("recipe not in shopping cart")
)

type (
	IngredientLineRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required,min=1"`
	}

	CreateRecipeRequest struct {
		Name        string                  `json:"name" validate:"required"`
		Image       string                  `json:"image" validate:"required"`
		Description string                  `json:"description" validate:"required"`
		CookingTime int                     `json:"cooking_time" validate:"required,min=1"`
		Tags        []string                `json:"tags" validate:"required,min=1,dive,uuid"`
		Ingredients []IngredientLineRequest `json:"ingredients" validate:"required,min=1,dive"`
	}

	UpdateRecipeRequest struct {
		Name        string                  `json:"name" validate:"required"`
		Image       string                  `json:"image" validate:"omitempty"`
		Description string                  `json:"description" validate:"required"`
		CookingTime int                     `json:"cooking_time" validate:"required,min=1"`
		Tags        []string                `json:"tags" validate:"required,min=1,dive,uuid"`
		Ingredients []IngredientLineRequest `json:"ingredients" validate:"required,min=1,dive"`
	}

	IngredientLineResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeDetail struct {
		ID               string                   `json:"id"`
		Tags             []TagResponse            `json:"tags"`
		Author           UserProfile              `json:"author"`
		Ingredients      []IngredientLineResponse `json:"ingredients"`
		IsFavorited      bool                     `json:"is_favorited"`
		IsInShoppingCart bool                     `json:"is_in_shopping_cart"`
		Name             string                   `json:"name"`
		ImageURL         string                   `json:"image_url"`
		Description      string                   `json:"description"`
		CookingTime      int                      `json:"cooking_time"`
		Published        time.Time                `json:"published"`
	}

	// RecipeSummary is the compact projection returned by the favorite and
	// shopping-cart toggles and embedded in AuthorSummary.
	RecipeSummary struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ImageURL    string `json:"image_url"`
		CookingTime int    `json:"cooking_time"`
	}

	// RecipeListFilter narrows the recipe listing. TagSlugs are OR-ed.
	// IsFavorited and IsInShoppingCart require a caller identity and are
	// ignored when UserID is empty.
	RecipeListFilter struct {
		TagSlugs         []string
		AuthorID         string
		IsFavorited      bool
		IsInShoppingCart bool
	}

	// ShoppingListItem is one aggregated group of the shopping-list export:
	// total amount per distinct (ingredient name, unit).
	ShoppingListItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Total           int    `json:"total"`
	}
)
