package api

import (
	"github.com/mergington/activities-portal/internal/service/activity"
	"github.com/mergington/activities-portal/internal/service/customer"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	activities *activity.Service
	customers  *customer.Service
}

// NewHandlers creates a new Handlers instance
func NewHandlers(activities *activity.Service, customers *customer.Service) *Handlers {
	return &Handlers{activities: activities, customers: customers}
}
