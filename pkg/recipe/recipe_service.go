package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipehub-backend/domain"
	"recipehub-backend/entities"
	"recipehub-backend/internal/utils/storage"
	"recipehub-backend/pkg/catalog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, filter domain.RecipeListFilter, page, limit int, userID string) ([]domain.RecipeDetail, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID string, userID string) (domain.RecipeDetail, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeDetail, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error

		AddFavorite(ctx context.Context, recipeID string, userID string) (domain.RecipeSummary, error)
		RemoveFavorite(ctx context.Context, recipeID string, userID string) error
		AddToShoppingCart(ctx context.Context, recipeID string, userID string) (domain.RecipeSummary, error)
		RemoveFromShoppingCart(ctx context.Context, recipeID string, userID string) error

		GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error)
	}

	recipeService struct {
		recipeRepository  RecipeRepository
		catalogRepository catalog.CatalogRepository
		s3                storage.AwsS3
	}
)

func NewRecipeService(recipeRepository RecipeRepository, catalogRepository catalog.CatalogRepository, s3 storage.AwsS3) RecipeService {
	return &recipeService{
		recipeRepository:  recipeRepository,
		catalogRepository: catalogRepository,
		s3:                s3,
	}
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeListFilter, page, limit int, userID string) ([]domain.RecipeDetail, int64, error) {
	query := RecipeQuery{
		TagSlugs:         filter.TagSlugs,
		AuthorID:         filter.AuthorID,
		UserID:           userID,
		IsFavorited:      filter.IsFavorited,
		IsInShoppingCart: filter.IsInShoppingCart,
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, query, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.RecipeDetail, 0, len(recipes))
	for _, recipe := range recipes {
		detail, err := s.toRecipeDetail(ctx, recipe, userID)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, detail)
	}
	return res, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, userID string) (domain.RecipeDetail, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}
	return s.toRecipeDetail(ctx, recipe, userID)
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	authorUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeDetail{}, domain.ErrParseUUID
	}

	if req.CookingTime < 1 {
		return domain.RecipeDetail{}, domain.ErrInvalidCookingTime
	}

	lines, tags, err := s.resolveComposition(ctx, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipeID := uuid.New()

	imageURL, err := s.uploadImage(req.Image, recipeID)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipe := &entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorUUID,
		Name:        req.Name,
		ImageURL:    imageURL,
		Description: req.Description,
		CookingTime: req.CookingTime,
		Published:   time.Now(),
	}

	if err := s.recipeRepository.CreateRecipeWithRelations(ctx, recipe, lines, tags); err != nil {
		return domain.RecipeDetail{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}

	if recipe.AuthorID.String() != userID {
		return domain.RecipeDetail{}, domain.ErrUserNotAllowed
	}

	if req.CookingTime < 1 {
		return domain.RecipeDetail{}, domain.ErrInvalidCookingTime
	}

	lines, tags, err := s.resolveComposition(ctx, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	if req.Image != "" {
		imageURL, err := s.uploadImage(req.Image, recipe.ID)
		if err != nil {
			return domain.RecipeDetail{}, err
		}
		recipe.ImageURL = imageURL
	}

	recipe.Name = req.Name
	recipe.Description = req.Description
	recipe.CookingTime = req.CookingTime
	recipe.Author = nil
	recipe.IngredientLines = nil
	recipe.TagAssignments = nil

	if err := s.recipeRepository.ReplaceRecipeRelations(ctx, recipe, lines, tags); err != nil {
		return domain.RecipeDetail{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != userID {
		return domain.ErrUserNotAllowed
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID string, userID string) (domain.RecipeSummary, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeSummary{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeSummary{}, err
	}

	exists, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}
	if exists {
		return domain.RecipeSummary{}, domain.ErrAlreadyFavorited
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeSummary{}, domain.ErrParseUUID
	}

	favorite := &entities.Favorite{
		ID:        uuid.New(),
		UserID:    userUUID,
		RecipeID:  recipe.ID,
		CreatedAt: time.Now(),
	}
	if err := s.recipeRepository.AddFavorite(ctx, favorite); err != nil {
		// Concurrent duplicate insert lands on the unique index.
		return domain.RecipeSummary{}, domain.ErrAlreadyFavorited
	}

	return toRecipeSummary(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID string, userID string) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	affected, err := s.recipeRepository.RemoveFavorite(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFavorited
	}
	return nil
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, recipeID string, userID string) (domain.RecipeSummary, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeSummary{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeSummary{}, err
	}

	exists, err := s.recipeRepository.IsInShoppingCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}
	if exists {
		return domain.RecipeSummary{}, domain.ErrAlreadyInCart
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeSummary{}, domain.ErrParseUUID
	}

	entry := &entities.ShoppingListEntry{
		ID:        uuid.New(),
		UserID:    userUUID,
		RecipeID:  recipe.ID,
		CreatedAt: time.Now(),
	}
	if err := s.recipeRepository.AddShoppingListEntry(ctx, entry); err != nil {
		return domain.RecipeSummary{}, domain.ErrAlreadyInCart
	}

	return toRecipeSummary(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, recipeID string, userID string) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	affected, err := s.recipeRepository.RemoveShoppingListEntry(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotInCart
	}
	return nil
}

func (s *recipeService) GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	rows, err := s.recipeRepository.AggregateShoppingList(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ShoppingListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.ShoppingListItem{
			Name:            row.Name,
			MeasurementUnit: row.MeasurementUnit,
			Total:           row.Total,
		})
	}
	return items, nil
}

// RenderShoppingListText formats the aggregated list as the downloadable
// plain-text document, one "{name} ({unit}) – {total}" line per group.
func RenderShoppingListText(items []domain.ShoppingListItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (%s) – %d", item.Name, item.MeasurementUnit, item.Total))
	}
	return strings.Join(lines, "\n")
}

// resolveComposition validates the tag ids and ingredient lines of a
// create/update payload against the catalog and builds the join rows.
func (s *recipeService) resolveComposition(ctx context.Context, tagIDs []string, lineReqs []domain.IngredientLineRequest) ([]entities.IngredientLine, []entities.TagAssignment, error) {
	if len(tagIDs) == 0 {
		return nil, nil, domain.ErrNoTags
	}
	if len(lineReqs) == 0 {
		return nil, nil, domain.ErrNoIngredientLines
	}

	seenTags := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seenTags[id] {
			return nil, nil, domain.ErrDuplicateTag
		}
		seenTags[id] = true
	}

	seenIngredients := make(map[string]bool, len(lineReqs))
	for _, line := range lineReqs {
		if seenIngredients[line.ID] {
			return nil, nil, domain.ErrDuplicateIngredient
		}
		seenIngredients[line.ID] = true
		if line.Amount < 1 {
			return nil, nil, domain.ErrInvalidAmount
		}
	}

	tags, err := s.catalogRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, domain.ErrTagNotFound
	}

	ingredientIDs := make([]string, 0, len(lineReqs))
	for _, line := range lineReqs {
		ingredientIDs = append(ingredientIDs, line.ID)
	}
	ingredients, err := s.catalogRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(lineReqs) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	lines := make([]entities.IngredientLine, 0, len(lineReqs))
	for _, line := range lineReqs {
		ingredientUUID, err := uuid.Parse(line.ID)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		lines = append(lines, entities.IngredientLine{
			ID:           uuid.New(),
			IngredientID: ingredientUUID,
			Amount:       line.Amount,
		})
	}

	assignments := make([]entities.TagAssignment, 0, len(tags))
	for _, tag := range tags {
		assignments = append(assignments, entities.TagAssignment{
			ID:    uuid.New(),
			TagID: tag.ID,
		})
	}

	return lines, assignments, nil
}

func (s *recipeService) uploadImage(payload string, recipeID uuid.UUID) (string, error) {
	contentType, data, err := decodeImagePayload(payload)
	if err != nil {
		return "", err
	}

	objectKey, err := s.s3.UploadBytes(
		fmt.Sprintf("recipe-%s", recipeID.String()),
		data,
		contentType,
		"recipes",
	)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

// decodeImagePayload accepts a data URI ("data:image/png;base64,....") or a
// bare base64 string, which defaults to JPEG.
func decodeImagePayload(payload string) (string, []byte, error) {
	contentType := "image/jpeg"
	encoded := payload

	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ";base64,", 2)
		if len(parts) != 2 {
			return "", nil, domain.ErrInvalidImagePayload
		}
		contentType = strings.TrimPrefix(parts[0], "data:")
		encoded = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, domain.ErrInvalidImagePayload
	}
	return contentType, data, nil
}

func (s *recipeService) toRecipeDetail(ctx context.Context, recipe *entities.Recipe, userID string) (domain.RecipeDetail, error) {
	detail := domain.RecipeDetail{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		Description: recipe.Description,
		CookingTime: recipe.CookingTime,
		Published:   recipe.Published,
	}

	if recipe.Author != nil {
		detail.Author = domain.UserProfile{
			ID:        recipe.Author.ID.String(),
			Email:     recipe.Author.Email,
			Username:  recipe.Author.Username,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
		}
	}

	detail.Tags = make([]domain.TagResponse, 0, len(recipe.TagAssignments))
	for _, assignment := range recipe.TagAssignments {
		if assignment.Tag == nil {
			continue
		}
		detail.Tags = append(detail.Tags, domain.TagResponse{
			ID:    assignment.Tag.ID.String(),
			Name:  assignment.Tag.Name,
			Color: assignment.Tag.Color,
			Slug:  assignment.Tag.Slug,
		})
	}

	detail.Ingredients = make([]domain.IngredientLineResponse, 0, len(recipe.IngredientLines))
	for _, line := range recipe.IngredientLines {
		if line.Ingredient == nil {
			continue
		}
		detail.Ingredients = append(detail.Ingredients, domain.IngredientLineResponse{
			ID:              line.Ingredient.ID.String(),
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	// Anonymous callers always see false.
	if userID != "" {
		isFavorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipe.ID.String())
		if err != nil {
			return domain.RecipeDetail{}, err
		}
		detail.IsFavorited = isFavorited

		inCart, err := s.recipeRepository.IsInShoppingCart(ctx, userID, recipe.ID.String())
		if err != nil {
			return domain.RecipeDetail{}, err
		}
		detail.IsInShoppingCart = inCart

		if recipe.Author != nil {
			isSubscribed, err := s.recipeRepository.IsFollowingAuthor(ctx, userID, recipe.AuthorID.String())
			if err != nil {
				return domain.RecipeDetail{}, err
			}
			detail.Author.IsSubscribed = isSubscribed
		}
	}

	return detail, nil
}

func toRecipeSummary(recipe *entities.Recipe) domain.RecipeSummary {
	return domain.RecipeSummary{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}
