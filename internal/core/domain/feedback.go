package domain

import "time"

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Comment is a user remark attached to a dish or meal.
type Comment struct {
	ID        string     `json:"id" bson:"_id"`
	EntityID  string     `json:"entityId" bson:"entityId"`
	Kind      EntityKind `json:"kind" bson:"kind"`
	UserID    string     `json:"userId" bson:"userId"`
	Login     string     `json:"login" bson:"login"`
	Content   string     `json:"content" bson:"content"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Rating is one user's score for an entity. There is at most one per (entity, user).
type Rating struct {
	ID        string     `json:"id" bson:"_id"`
	EntityID  string     `json:"entityId" bson:"entityId"`
	Kind      EntityKind `json:"kind" bson:"kind"`
	UserID    string     `json:"userId" bson:"userId"`
	Value     int        `json:"value" bson:"value"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// RatingSummary aggregates the ratings of an entity.
type RatingSummary struct {
	EntityID      string  `json:"entityId"`
	AverageRating float64 `json:"averageRating"`
	Count         int     `json:"count"`
}

// SummarizeRatings averages values to two decimals. No values yields a zero summary.
func SummarizeRatings(entityID string, values []int) RatingSummary {
	if len(values) == 0 {
		return RatingSummary{EntityID: entityID}
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return RatingSummary{
		EntityID:      entityID,
		AverageRating: round2(float64(sum) / float64(len(values))),
		Count:         len(values),
	}
}
