package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Temperature Forecast API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	paginationParams := []map[string]interface{}{
		{
			"name":        "page",
			"in":          "query",
			"description": "Page number (default: 1)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 1},
		},
		{
			"name":        "limit",
			"in":          "query",
			"description": "Records per page (default: 100)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 100},
		},
	}
	locationParam := map[string]interface{}{
		"name":        "location",
		"in":          "query",
		"description": "Filter by city name",
		"required":    false,
		"schema":      map[string]string{"type": "string"},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Temperature Forecast API",
			"description": "Daily temperature acquisition from the NASA MERRA-2 archive with ARIMA model selection and forecasting",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Temperature Forecast Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/locations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List locations",
					"description": "Retrieve the registered forecast locations",
					"parameters":  paginationParams,
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"id":        map[string]string{"type": "integer"},
														"name":      map[string]string{"type": "string"},
														"latitude":  map[string]string{"type": "number"},
														"longitude": map[string]string{"type": "number"},
													},
												},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/temperatures": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get daily temperatures",
					"description": "Retrieve stored daily average temperatures with filtering and pagination",
					"parameters": append([]map[string]interface{}{
						locationParam,
						{
							"name":        "start_date",
							"in":          "query",
							"description": "Filter by start date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "end_date",
							"in":          "query",
							"description": "Filter by end date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
					}, paginationParams...),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"id":                  map[string]string{"type": "integer"},
														"location_id":         map[string]string{"type": "integer"},
														"day":                 map[string]string{"type": "string", "format": "date-time"},
														"temperature_celsius": map[string]string{"type": "number"},
														"sample_count":        map[string]string{"type": "integer"},
													},
												},
											},
											"total":       map[string]string{"type": "integer"},
											"page":        map[string]string{"type": "integer"},
											"limit":       map[string]string{"type": "integer"},
											"total_pages": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/forecasts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List forecast runs",
					"description": "Retrieve completed forecast runs with their selected model order and accuracy",
					"parameters":  append([]map[string]interface{}{locationParam}, paginationParams...),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"id":              map[string]string{"type": "string", "format": "uuid"},
														"location_id":     map[string]string{"type": "integer"},
														"order_p":         map[string]string{"type": "integer"},
														"order_d":         map[string]string{"type": "integer"},
														"order_q":         map[string]string{"type": "integer"},
														"aic":             map[string]string{"type": "number"},
														"mae":             map[string]interface{}{"type": "number", "nullable": true},
														"rmse":            map[string]interface{}{"type": "number", "nullable": true},
														"horizon_days":    map[string]string{"type": "integer"},
														"train_days":      map[string]string{"type": "integer"},
														"validation_days": map[string]string{"type": "integer"},
													},
												},
											},
											"total":       map[string]string{"type": "integer"},
											"page":        map[string]string{"type": "integer"},
											"limit":       map[string]string{"type": "integer"},
											"total_pages": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
				"post": map[string]interface{}{
					"summary":     "Create a forecast run",
					"description": "Select the best ARIMA order for a location's stored series and forecast the requested horizon",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"location":     map[string]string{"type": "string"},
										"horizon_days": map[string]interface{}{"type": "integer", "default": 7},
									},
									"required": []string{"location"},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{
							"description": "Forecast run created",
						},
						"404": map[string]interface{}{
							"description": "Unknown location or no stored data",
						},
						"422": map[string]interface{}{
							"description": "No candidate model could be fit",
						},
					},
				},
			},
			"/api/forecasts/{id}/points": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get forecast points",
					"description": "Retrieve the predicted daily temperatures of a run in day order",
					"parameters": []map[string]interface{}{
						{
							"name":        "id",
							"in":          "path",
							"description": "Forecast run ID",
							"required":    true,
							"schema":      map[string]string{"type": "string", "format": "uuid"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
						"404": map[string]interface{}{
							"description": "Forecast run not found",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
