// Package docs holds the committed OpenAPI specification served at
// /swagger/doc.json.
package docs

// SwaggerInfo holds the metadata substituted into the spec template
var SwaggerInfo = struct {
	Title       string
	Description string
	Version     string
	Host        string
	BasePath    string
}{
	Title:       "Crypto Price API",
	Description: "API to fetch cryptocurrency prices for top 100 assets",
	Version:     "1.0",
	Host:        "localhost:8080",
	BasePath:    "/",
}

// Spec is the OpenAPI document for the service.
const Spec = `{
  "swagger": "2.0",
  "info": {
    "title": "Crypto Price API",
    "description": "API to fetch cryptocurrency prices for top 100 assets",
    "version": "1.0"
  },
  "host": "localhost:8080",
  "basePath": "/",
  "schemes": ["http"],
  "paths": {
    "/price/{symbol}": {
      "get": {
        "tags": ["crypto"],
        "summary": "Get current price for a cryptocurrency by symbol",
        "produces": ["application/json"],
        "parameters": [
          {
            "name": "symbol",
            "in": "path",
            "description": "Cryptocurrency symbol (e.g., BTC)",
            "required": true,
            "type": "string",
            "pattern": "^[A-Za-z0-9-]+$"
          }
        ],
        "responses": {
          "200": {
            "description": "Returns current price data",
            "schema": {"$ref": "#/definitions/PriceRecord"}
          },
          "400": {"description": "Invalid symbol or not in top 100"},
          "404": {"description": "Cryptocurrency not found"},
          "429": {"description": "Too many requests"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/health": {
      "get": {
        "tags": ["monitoring"],
        "summary": "Service health check",
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "Service is healthy"},
          "503": {"description": "Service is unhealthy"}
        }
      }
    }
  },
  "definitions": {
    "PriceRecord": {
      "type": "object",
      "properties": {
        "symbol": {"type": "string", "example": "BTC"},
        "name": {"type": "string", "example": "Bitcoin"},
        "price": {"type": "number", "example": 65000.12},
        "change24h": {"type": "number", "example": 1.5},
        "marketCap": {"type": "number", "example": 1200000000000},
        "lastUpdated": {"type": "string", "format": "date-time"}
      }
    }
  }
}`
