// model/forecast.go
package model

import (
	"time"

	"gorm.io/gorm"
)

// Forecast statuses.
const (
	ForecastStatusProjected = "projected"
	ForecastStatusConfirmed = "confirmed"
	ForecastStatusAdjusted  = "adjusted"
	ForecastStatusFulfilled = "fulfilled"
	ForecastStatusCanceled  = "canceled"
)

// ForecastFactors records the components that produced a projection.
type ForecastFactors struct {
	HistoricalUsage float64 `json:"historical_usage"`
	Seasonality     float64 `json:"seasonality"`
	ProjectGrowth   float64 `json:"project_growth"`
	EventImpact     float64 `json:"event_impact"`
}

// ResourceForecast is a per-resource, per-future-date projection. At most one
// row exists per (resource, forecast date); re-running forecasting updates it
// in place.
type ResourceForecast struct {
	ID                string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID          string          `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	ResourceID        string          `json:"resource_id" gorm:"type:varchar(36);index:idx_resource_date,unique;not null"`
	ForecastDate      time.Time       `json:"forecast_date" gorm:"index:idx_resource_date,unique;not null"`
	HorizonDays       int             `json:"horizon_days"`
	ProjectedQuantity float64         `json:"projected_quantity"`
	ConfidenceLevel   float64         `json:"confidence_level"`
	Factors           ForecastFactors `json:"factors" gorm:"serializer:json"`
	Status            string          `json:"status" gorm:"type:varchar(32);index;not null"`
	RequestID         *string         `json:"request_id,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// ForecastSearchCriteria filters forecast listings.
type ForecastSearchCriteria struct {
	ResourceID    string     `json:"resource_id,omitempty"`
	Status        string     `json:"status,omitempty"`
	MinConfidence float64    `json:"min_confidence,omitempty"`
	DateFrom      *time.Time `json:"date_from,omitempty"`
	DateTo        *time.Time `json:"date_to,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}
