// Package docs registers the OpenAPI document served at /swagger/*.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "NorthPeak IT",
            "email": "hello@northpeakit.com"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/stripe/create-payment-intent": {
            "post": {
                "description": "Creates a Stripe payment intent for the given amount in minor units. When an address is supplied, tax is calculated and automatic tax is enabled on the intent.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Create a payment intent",
                "parameters": [
                    {
                        "description": "Amount in cents, optional currency, metadata and address",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.CreatePaymentIntentRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PaymentIntentResponse"}},
                    "400": {"description": "Missing, malformed or too large amount", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "429": {"description": "Too many payment attempts", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/stripe/config": {
            "get": {
                "description": "Returns the publishable key the browser uses to confirm payments.",
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Get Stripe publishable key",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.StripeConfigResponse"}},
                    "500": {"description": "Payments are not configured", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/plans": {
            "get": {
                "description": "Returns every plan with its monthly price per seat.",
                "produces": ["application/json"],
                "tags": ["Plans"],
                "summary": "List plans",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PlansResponse"}}
                }
            }
        },
        "/checkout/quote": {
            "get": {
                "description": "Computes the amount in minor units with the same calculator the checkout uses.",
                "produces": ["application/json"],
                "tags": ["Plans"],
                "summary": "Price a plan selection",
                "parameters": [
                    {"type": "string", "description": "Plan name (case-insensitive)", "name": "plan", "in": "query", "required": true},
                    {"type": "integer", "description": "Seat count (default 5)", "name": "employees", "in": "query"},
                    {"type": "string", "description": "monthly or annual (default monthly)", "name": "cycle", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pricing.Quote"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/contact": {
            "post": {
                "description": "Validates name, email and phone, stores the contact in the CRM and notifies sales. A contact that already exists is not an error.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Contact"],
                "summary": "Submit the contact form",
                "parameters": [
                    {
                        "description": "Contact details",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.ContactRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SuccessResponse"}},
                    "400": {"description": "Missing or invalid name, email or phone", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "CRM credential rejected", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/phone/validate": {
            "post": {
                "description": "Validates and normalizes a phone number. Numbers without a country code are read in the given region.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Contact"],
                "summary": "Validate a phone number",
                "parameters": [
                    {
                        "description": "Phone validation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.ValidatePhoneRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/phone.ValidationResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/onboarding": {
            "post": {
                "description": "Accepts any JSON value and acknowledges it. Objects are summarized field by field. Sales is notified in the background on a best-effort basis.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Onboarding"],
                "summary": "Submit onboarding details",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SuccessResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/analytics/web-vitals": {
            "post": {
                "description": "Logs a browser performance metric and records it in the web_vital_value histogram.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Report a web vital",
                "parameters": [
                    {
                        "description": "Metric",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.WebVitalRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SuccessResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.Address": {
            "type": "object",
            "required": ["country"],
            "properties": {
                "line1": {"type": "string"},
                "line2": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "postal_code": {"type": "string"},
                "country": {"type": "string"}
            }
        },
        "models.CreatePaymentIntentRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "currency": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": true},
                "address": {"$ref": "#/definitions/models.Address"}
            }
        },
        "models.TaxDetails": {
            "type": "object",
            "properties": {
                "calculationId": {"type": "string"},
                "taxAmount": {"type": "integer"},
                "totalAmount": {"type": "integer"},
                "currency": {"type": "string"}
            }
        },
        "models.PaymentIntentResponse": {
            "type": "object",
            "properties": {
                "clientSecret": {"type": "string"},
                "tax": {"$ref": "#/definitions/models.TaxDetails"}
            }
        },
        "models.StripeConfigResponse": {
            "type": "object",
            "properties": {
                "publishableKey": {"type": "string"}
            }
        },
        "models.PlanResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "monthlyPricePerSeat": {"type": "string"},
                "description": {"type": "string"},
                "features": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.PlansResponse": {
            "type": "object",
            "properties": {
                "plans": {"type": "array", "items": {"$ref": "#/definitions/models.PlanResponse"}}
            }
        },
        "pricing.Quote": {
            "type": "object",
            "properties": {
                "plan": {"type": "string"},
                "employeeCount": {"type": "integer"},
                "billingCycle": {"type": "string"},
                "amountCents": {"type": "integer"},
                "currency": {"type": "string"},
                "display": {"type": "string"},
                "chargeableOnline": {"type": "boolean"}
            }
        },
        "models.ContactRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "company": {"type": "string"},
                "message": {"type": "string"},
                "plan": {"type": "string"},
                "billingCycle": {"type": "string"},
                "employeeCount": {"type": "integer"},
                "source": {"type": "string"}
            }
        },
        "handlers.ValidatePhoneRequest": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"},
                "country_code": {"type": "string"}
            }
        },
        "phone.ValidationResult": {
            "type": "object",
            "properties": {
                "is_valid": {"type": "boolean"},
                "e164_format": {"type": "string"},
                "international_format": {"type": "string"},
                "national_format": {"type": "string"},
                "country_code": {"type": "string"},
                "phone_type": {"type": "string"}
            }
        },
        "models.WebVitalRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "value": {"type": "number"},
                "rating": {"type": "string"},
                "id": {"type": "string"},
                "delta": {"type": "number"},
                "navigationType": {"type": "string"},
                "page": {"type": "string"}
            }
        },
        "models.SuccessResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "existing": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "NorthPeak IT Site API",
	Description:      "Plans, checkout payment intents, contact and onboarding for the NorthPeak IT marketing site.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
