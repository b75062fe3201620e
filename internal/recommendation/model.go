package recommendation

// MenuEntry is the menu item shape the recommender understands.
type MenuEntry struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
}

type Request struct {
	RestaurantMenu     []MenuEntry `json:"restaurant_menu"`
	UserPreviousOrders []string    `json:"user_previous_orders"`
	UserPreference     *string     `json:"user_preference,omitempty"`
}

type Recommendation struct {
	RecommendedItems []string `json:"recommended_items"`
	Reasoning        string   `json:"reasoning"`
}

type Input struct {
	Preference *string `json:"user_preference" validate:"omitempty,max=500"`
}
