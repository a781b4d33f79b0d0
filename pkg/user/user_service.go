package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipehub-backend/domain"
	"recipehub-backend/entities"
	"recipehub-backend/internal/utils/mailing"
	"recipehub-backend/pkg/jwt"
	"recipehub-backend/pkg/recipe"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserProfile, error)
		UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID string) error
		ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error

		Subscribe(ctx context.Context, authorID string, followerID string) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, authorID string, followerID string) error
		GetSubscriptions(ctx context.Context, followerID string, recipeLimit, page, limit int) ([]domain.AuthorSummary, int64, error)
	}

	userService struct {
		userRepository   UserRepository
		recipeRepository recipe.RecipeRepository
		jwtService       jwt.JWTService
	}
)

func NewUserService(userRepository UserRepository, recipeRepository recipe.RecipeRepository, jwtService jwt.JWTService) UserService {
	return &userService{
		userRepository:   userRepository,
		recipeRepository: recipeRepository,
		jwtService:       jwtService,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	exists, err := s.userRepository.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return domain.RegisterResponse{}, err
	}
	if exists {
		return domain.RegisterResponse{}, domain.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterResponse{}, err
	}

	user := &entities.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hash),
	}

	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		// Concurrent duplicate registration lands on the unique index.
		return domain.RegisterResponse{}, domain.ErrEmailAlreadyExists
	}

	return domain.RegisterResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrCredentialsInvalid
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsInvalid
	}

	token := s.jwtService.GenerateTokenUser(user.ID.String(), domain.RoleUser)
	return domain.LoginResponse{Token: token, Role: domain.RoleUser}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserProfile, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, domain.ErrUserNotFound
		}
		return domain.UserProfile{}, err
	}

	return domain.UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *userService) UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID string) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}

	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	token, err := s.jwtService.GenerateTokenForgetPassword(map[string]any{
		"user_id": user.ID.String(),
	}, time.Minute*30)
	if err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", mailing.LoadMailConfig().AppURL, token)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Click <a href=%q>here</a> to reset your password. The link expires in 30 minutes.</p>",
		user.Username, resetLink,
	)
	return mailing.SendMail(user.Email, "Password reset", body)
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return domain.ErrPasswordResetMismatch
	}

	claims, err := s.jwtService.ValidateTokenForgetPassword(req.Token)
	if err != nil {
		return err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return domain.ErrTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.userRepository.UpdatePassword(ctx, userID, string(hash))
}

func (s *userService) Subscribe(ctx context.Context, authorID string, followerID string) (domain.SubscriptionResponse, error) {
	followerUUID, err := uuid.Parse(followerID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}
	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}

	// Compare parsed values so hex casing in the path parameter cannot
	// slip a self-follow past the guard.
	if authorUUID == followerUUID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	exists, err := s.userRepository.SubscriptionExists(ctx, followerID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if exists {
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	subscription := &entities.Subscription{
		ID:         uuid.New(),
		FollowerID: followerUUID,
		AuthorID:   authorUUID,
		CreatedAt:  time.Now(),
	}
	if err := s.userRepository.CreateSubscription(ctx, subscription); err != nil {
		// Concurrent duplicate follow lands on the unique index.
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	return domain.SubscriptionResponse{
		ID:        subscription.ID.String(),
		AuthorID:  authorID,
		CreatedAt: subscription.CreatedAt,
	}, nil
}

func (s *userService) Unsubscribe(ctx context.Context, authorID string, followerID string) error {
	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	affected, err := s.userRepository.RemoveSubscription(ctx, followerID, authorID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (s *userService) GetSubscriptions(ctx context.Context, followerID string, recipeLimit, page, limit int) ([]domain.AuthorSummary, int64, error) {
	authors, count, err := s.userRepository.GetFollowedAuthors(ctx, followerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]domain.AuthorSummary, 0, len(authors))
	for _, author := range authors {
		recipes, err := s.recipeRepository.GetRecipesByAuthor(ctx, author.ID.String(), recipeLimit)
		if err != nil {
			return nil, 0, err
		}
		recipesCount, err := s.recipeRepository.CountRecipesByAuthor(ctx, author.ID.String())
		if err != nil {
			return nil, 0, err
		}

		recipeSummaries := make([]domain.RecipeSummary, 0, len(recipes))
		for _, r := range recipes {
			recipeSummaries = append(recipeSummaries, domain.RecipeSummary{
				ID:          r.ID.String(),
				Name:        r.Name,
				ImageURL:    r.ImageURL,
				CookingTime: r.CookingTime,
			})
		}

		summaries = append(summaries, domain.AuthorSummary{
			UserProfile: domain.UserProfile{
				ID:        author.ID.String(),
				Email:     author.Email,
				Username:  author.Username,
				FirstName: author.FirstName,
				LastName:  author.LastName,
				// Trivially true: the listing only contains followed authors.
				IsSubscribed: true,
			},
			Recipes:      recipeSummaries,
			RecipesCount: recipesCount,
		})
	}

	return summaries, count, nil
}
