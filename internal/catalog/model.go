package catalog

import (
	"strings"
	"time"
)

type FoodCategory string

const (
	CategoryItalian  FoodCategory = "Italian"
	CategoryJapanese FoodCategory = "Japanese"
	CategoryMexican  FoodCategory = "Mexican"
	CategoryIndian   FoodCategory = "Indian"
	CategoryAmerican FoodCategory = "American"
	CategoryChinese  FoodCategory = "Chinese"
)

var categories = []FoodCategory{
	CategoryItalian, CategoryJapanese, CategoryMexican,
	CategoryIndian, CategoryAmerican, CategoryChinese,
}

// ParseCategory matches a category case-insensitively.
func ParseCategory(s string) (FoodCategory, bool) {
	for _, c := range categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

type MenuItem struct {
	ID             string       `json:"id" bson:"id"`
	Name           string       `json:"name" bson:"name"`
	Description    string       `json:"description" bson:"description"`
	Price          float64      `json:"price" bson:"price"`
	Category       FoodCategory `json:"category" bson:"category"`
	SpicinessLevel *int         `json:"spiciness_level,omitempty" bson:"spiciness_level,omitempty"`
	IsVegetarian   bool         `json:"is_vegetarian" bson:"is_vegetarian"`
	Available      bool         `json:"available" bson:"available"`
	ImageURL       *string      `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

type Restaurant struct {
	ID          string       `json:"id" bson:"id"`
	Name        string       `json:"name" bson:"name"`
	CuisineType FoodCategory `json:"cuisine_type" bson:"cuisine_type"`
	Rating      float64      `json:"rating" bson:"rating"`
	Address     string       `json:"address" bson:"address"`
	Description string       `json:"description" bson:"description"`
	Menu        []MenuItem   `json:"menu" bson:"menu"`
	Version     int64        `json:"version" bson:"version"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
	CreatedBy   string       `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy   string       `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

func (r *Restaurant) MenuItemByName(name string) (*MenuItem, bool) {
	for i := range r.Menu {
		if r.Menu[i].Name == name {
			return &r.Menu[i], true
		}
	}
	return nil, false
}

func (r *Restaurant) MenuItemByID(id string) (*MenuItem, bool) {
	for i := range r.Menu {
		if r.Menu[i].ID == id {
			return &r.Menu[i], true
		}
	}
	return nil, false
}

type ListFilter struct {
	Cuisine    *FoodCategory
	MinRating  *float64
	Vegetarian *bool
}

// RestaurantInput is the admin payload for create and update. Version is the
// revision the caller read; zero skips the optimistic check.
type RestaurantInput struct {
	Name        string       `json:"name" validate:"required,min=2,max=100"`
	CuisineType FoodCategory `json:"cuisine_type" validate:"required,oneof=Italian Japanese Mexican Indian American Chinese"`
	Rating      float64      `json:"rating" validate:"gte=0,lte=5"`
	Address     string       `json:"address" validate:"required,max=300"`
	Description string       `json:"description" validate:"max=2000"`
	Version     int64        `json:"version" validate:"gte=0"`
}

type MenuItemInput struct {
	Name           string       `json:"name" validate:"required,min=1,max=100"`
	Description    string       `json:"description" validate:"max=1000"`
	Price          float64      `json:"price" validate:"gt=0"`
	Category       FoodCategory `json:"category" validate:"required,oneof=Italian Japanese Mexican Indian American Chinese"`
	SpicinessLevel *int         `json:"spiciness_level" validate:"omitempty,min=1,max=5"`
	IsVegetarian   bool         `json:"is_vegetarian"`
	Available      *bool        `json:"available"`
	ImageURL       *string      `json:"image_url" validate:"omitempty,url"`
}

func (in MenuItemInput) toMenuItem(id string) MenuItem {
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	return MenuItem{
		ID:             id,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Price:          in.Price,
		Category:       in.Category,
		SpicinessLevel: in.SpicinessLevel,
		IsVegetarian:   in.IsVegetarian,
		Available:      available,
		ImageURL:       in.ImageURL,
	}
}
