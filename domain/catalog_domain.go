package domain

import "errors"

var (
	MessageSuccessGetTags        = "tags retrieved successfully"
	MessageSuccessGetIngredients = "ingredients retrieved successfully"

	MessageFailedGetTags        = "failed to retrieve tags"
	MessageFailedGetIngredients = "failed to retrieve ingredients"

	ErrTagNotFound        = errors.New("tag not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
)

type (
	TagResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}

	// TagFilter matches exactly on any combination of fields; empty fields
	// are ignored.
	TagFilter struct {
		Name  string
		Color string
		Slug  string
	}

	IngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}
)
