package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "College Appointment API",
        "description": "Office-hours scheduling for professors and students",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Account registration and login"},
        {"name": "Availability", "description": "Professor availability windows"},
        {"name": "Appointments", "description": "Booking and cancellation"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/availability": {
            "post": {
                "tags": ["Availability"],
                "summary": "Publish availability window",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid time range"},
                    "409": {"description": "Overlapping window"}
                }
            }
        },
        "/availability/professor/{professorId}": {
            "get": {
                "tags": ["Availability"],
                "summary": "List a professor's bookable windows",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/availability/my-availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List own availability windows",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/availability/{id}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete an unbooked window",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"},
                    "409": {"description": "Window is booked"}
                }
            }
        },
        "/appointments/book": {
            "post": {
                "tags": ["Appointments"],
                "summary": "Book an availability window",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Scheduled"},
                    "400": {"description": "Past window"},
                    "404": {"description": "Window not found"},
                    "409": {"description": "Already booked"}
                }
            }
        },
        "/appointments/{id}/cancel": {
            "put": {
                "tags": ["Appointments"],
                "summary": "Cancel an appointment",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Cancelled"},
                    "404": {"description": "Not found or already cancelled"}
                }
            }
        },
        "/appointments/my-appointments": {
            "get": {
                "tags": ["Appointments"],
                "summary": "List own appointments (student)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/appointments/professor-appointments": {
            "get": {
                "tags": ["Appointments"],
                "summary": "List own appointments (professor)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/appointments/export": {
            "get": {
                "tags": ["Appointments"],
                "summary": "Export own appointment schedule",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "CSV or PDF attachment"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
