package model

import "time"

// Role is the authorization role stored in the access token.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Member is a registered user account. PasswordHash is a bcrypt digest and
// never leaves the auth layer.
type Member struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Franchise holds the reference figures for one franchise brand, compared
// against local market averages in the franchise-compare view.
type Franchise struct {
	ID              int64  `json:"id"`
	CategoryID      int64  `json:"category_id"`
	BrandName       string `json:"brand_name"`
	AverageLifespan int    `json:"average_lifespan_months"`
	InitialCost     int64  `json:"initial_cost"`
	FranchiseFee    int64  `json:"franchise_fee"`
}

// FranchiseComparison contrasts one franchise brand with the averages of a
// local market.
type FranchiseComparison struct {
	BrandName   string         `json:"brand_name"`
	Lifespan    ComparisonItem `json:"lifespan"`
	InitialCost ComparisonItem `json:"initial_cost"`
	Risk        ComparisonItem `json:"risk"`
}

// ComparisonItem pairs a franchise figure with the local average for the
// same metric.
type ComparisonItem struct {
	FranchiseValue float64 `json:"franchise_value"`
	LocalAverage   float64 `json:"local_average"`
	DiffMessage    string  `json:"diff_message"`
}
