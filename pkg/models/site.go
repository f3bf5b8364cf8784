package models

import "encoding/json"

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	Name          string `json:"name"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Company       string `json:"company"`
	Message       string `json:"message"`
	Plan          string `json:"plan"`
	BillingCycle  string `json:"billingCycle"`
	EmployeeCount int    `json:"employeeCount"`
	Source        string `json:"source"`
}

// WebVitalRequest is a single web-vitals beacon.
type WebVitalRequest struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Rating         string  `json:"rating"`
	ID             string  `json:"id"`
	Delta          float64 `json:"delta"`
	NavigationType string  `json:"navigationType"`
	Page           string  `json:"page"`
}

// OnboardingRequest is accepted as arbitrary JSON.
type OnboardingRequest map[string]json.RawMessage

// PlanResponse is a plan as listed on the pricing page.
type PlanResponse struct {
	Name                string   `json:"name"`
	MonthlyPricePerSeat string   `json:"monthlyPricePerSeat"`
	Description         string   `json:"description"`
	Features            []string `json:"features"`
}

// PlansResponse lists all plans.
type PlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}
