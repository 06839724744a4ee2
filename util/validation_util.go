// util/validation_util.go

package util

import (
	"fmt"

	"github.com/stonefield/resourcing/model"
)

var validResourceTypes = map[string]bool{
	model.ResourceTypeEquipment:  true,
	model.ResourceTypeMaterial:   true,
	model.ResourceTypeTool:       true,
	model.ResourceTypeConsumable: true,
	model.ResourceTypeService:    true,
	model.ResourceTypeSoftware:   true,
	model.ResourceTypeLicense:    true,
	model.ResourceTypeOther:      true,
}

var validPriorities = map[string]bool{
	model.PriorityLow:    true,
	model.PriorityMedium: true,
	model.PriorityHigh:   true,
	model.PriorityUrgent: true,
}

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateResource(resource model.ResourceItem) error {
	if resource.Name == "" {
		return fmt.Errorf("resource name cannot be empty")
	}
	if !validResourceTypes[resource.Type] {
		return fmt.Errorf("unknown resource type: %s", resource.Type)
	}
	if resource.CurrentQuantity < 0 {
		return fmt.Errorf("resource quantity cannot be negative")
	}
	if resource.MinQuantity != nil && *resource.MinQuantity < 0 {
		return fmt.Errorf("minimum quantity cannot be negative")
	}
	if resource.MaxQuantity != nil && resource.MinQuantity != nil && *resource.MaxQuantity < *resource.MinQuantity {
		return fmt.Errorf("maximum quantity cannot be below minimum quantity")
	}
	if resource.UnitCost.IsNegative() {
		return fmt.Errorf("unit cost cannot be negative")
	}
	return nil
}

func (v *ValidationUtil) ValidateUsage(usage model.ResourceUsage) error {
	if usage.ResourceID == "" {
		return fmt.Errorf("usage resource ID cannot be empty")
	}
	if usage.Quantity <= 0 {
		return fmt.Errorf("usage quantity must be positive")
	}
	if usage.UsageDate.IsZero() {
		return fmt.Errorf("usage date cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateRequest(request model.ResourceRequest) error {
	if request.Title == "" {
		return fmt.Errorf("request title cannot be empty")
	}
	if request.Priority != "" && !validPriorities[request.Priority] {
		return fmt.Errorf("unknown request priority: %s", request.Priority)
	}
	if len(request.Items) == 0 {
		return fmt.Errorf("request must have at least one item")
	}
	for i, item := range request.Items {
		if item.ResourceID == "" {
			return fmt.Errorf("request item %d is missing a resource ID", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("request item %d quantity must be positive", i)
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateConfig(config model.AgentConfiguration) error {
	if config.TenantID == "" {
		return fmt.Errorf("config tenant ID cannot be empty")
	}
	if config.InventoryCheckFrequency < 1 {
		return fmt.Errorf("inventory check frequency must be at least one hour")
	}
	if config.ForecastFrequency < 1 {
		return fmt.Errorf("forecast frequency must be at least one hour")
	}
	if config.MinConfidence < 0 || config.MinConfidence > 1 {
		return fmt.Errorf("minimum confidence must be between 0 and 1")
	}
	if config.AdvanceOrderDays < 1 {
		return fmt.Errorf("advance order window must be at least one day")
	}
	for priority, days := range config.LeadTimes {
		if !validPriorities[priority] {
			return fmt.Errorf("unknown lead time priority: %s", priority)
		}
		if days < 0 {
			return fmt.Errorf("lead time for %s cannot be negative", priority)
		}
	}
	return nil
}
