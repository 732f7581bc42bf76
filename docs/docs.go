// Package docs is generated by swaggo/swag from the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/customers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Customers"],
                "summary": "List customers",
                "responses": {
                    "200": {"description": "List of customers", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.CustomerResponse"}}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Customers"],
                "summary": "Create a customer",
                "parameters": [{"description": "Customer row", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateCustomerRequest"}}],
                "responses": {
                    "201": {"description": "Customer successfully created", "schema": {"$ref": "#/definitions/dto.CustomerResponse"}},
                    "400": {"description": "Invalid request payload", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Customer already exists", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/customers/{customerID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Customers"],
                "summary": "Retrieve a customer",
                "parameters": [{"minimum": 0, "type": "integer", "description": "Customer ID", "name": "customerID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Matching customer", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.CustomerResponse"}}},
                    "404": {"description": "Customer not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Customers"],
                "summary": "Update a customer",
                "parameters": [
                    {"minimum": 0, "type": "integer", "description": "Customer ID", "name": "customerID", "in": "path", "required": true},
                    {"description": "New values", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateCustomerRequest"}}
                ],
                "responses": {
                    "200": {"description": "Customer updated", "schema": {"$ref": "#/definitions/dto.CustomerResponse"}},
                    "400": {"description": "Invalid request payload", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Customer not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Customers"],
                "summary": "Delete a customer",
                "parameters": [{"minimum": 0, "type": "integer", "description": "Customer ID", "name": "customerID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Customer deleted", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.CustomerResponse"}}},
                    "404": {"description": "Customer not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/loans": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Loans"],
                "summary": "List loans",
                "responses": {
                    "200": {"description": "List of loans", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.LoanResponse"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Loans"],
                "summary": "Create a loan",
                "parameters": [{"description": "Loan row", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateLoanRequest"}}],
                "responses": {
                    "201": {"description": "Loan successfully created", "schema": {"$ref": "#/definitions/dto.LoanResponse"}},
                    "400": {"description": "Invalid request payload or unknown customer", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/loans/{loanID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Loans"],
                "summary": "Retrieve a loan",
                "parameters": [{"minimum": 0, "type": "integer", "description": "Loan ID", "name": "loanID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Matching loan", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.LoanResponse"}}},
                    "404": {"description": "Loan not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Loans"],
                "summary": "Create or replace a loan",
                "parameters": [
                    {"minimum": 0, "type": "integer", "description": "Loan ID", "name": "loanID", "in": "path", "required": true},
                    {"description": "Loan row", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateLoanRequest"}}
                ],
                "responses": {
                    "200": {"description": "Loan stored", "schema": {"$ref": "#/definitions/dto.LoanResponse"}},
                    "400": {"description": "Invalid request payload or unknown customer", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Row conflicts with the table", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Loans"],
                "summary": "Delete a loan",
                "parameters": [{"minimum": 0, "type": "integer", "description": "Loan ID", "name": "loanID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Loan deleted", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.LoanResponse"}}},
                    "404": {"description": "Loan not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/features/{entity}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Features"],
                "summary": "Generate a feature table",
                "parameters": [{"enum": ["customers", "loans"], "type": "string", "description": "Entity", "name": "entity", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Feature records", "schema": {"type": "array", "items": {"type": "object"}}},
                    "400": {"description": "Unknown entity or malformed input data", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Features"],
                "summary": "Publish a stored feature table",
                "parameters": [{"enum": ["customers", "loans"], "type": "string", "description": "Entity", "name": "entity", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Rows written to the tab", "schema": {"$ref": "#/definitions/dto.PublishResponse"}},
                    "404": {"description": "Feature file or tab not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Spreadsheet API failure", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/reports/{report}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Publish a raw report",
                "parameters": [{"enum": ["customers", "loans", "overview"], "type": "string", "description": "Report", "name": "report", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Rows written to the tab", "schema": {"$ref": "#/definitions/dto.PublishResponse"}}
                }
            }
        },
        "/database": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Database"],
                "summary": "Reinitialise the dataset",
                "responses": {
                    "200": {"description": "Rows loaded per table", "schema": {"$ref": "#/definitions/dto.SeedResponse"}}
                }
            }
        },
        "/database/tables": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Database"],
                "summary": "List tables",
                "responses": {
                    "200": {"description": "Tables", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.TableInfo"}}}
                }
            }
        },
        "/database/{name}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Database"],
                "summary": "Recreate a table",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "name", "in": "path", "required": true},
                    {"type": "string", "default": "id", "description": "Primary key column", "name": "pk_name", "in": "query"},
                    {"enum": ["b_int", "int", "s_int", "float", "str", "txt", "bool", "date", "datetime"], "type": "string", "default": "str", "description": "Primary key type", "name": "pk_type", "in": "query"}
                ],
                "responses": {
                    "201": {"description": "Table created", "schema": {"$ref": "#/definitions/dto.CreateTableResponse"}}
                }
            }
        },
        "/database/{name}/columns/{column}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Database"],
                "summary": "Distinct values of a column",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "name", "in": "path", "required": true},
                    {"type": "string", "description": "Column name", "name": "column", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Unique values", "schema": {"$ref": "#/definitions/dto.DistinctValuesResponse"}},
                    "404": {"description": "Unknown table or column", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api_status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Status"],
                "summary": "Composite health check",
                "responses": {
                    "200": {"description": "UP or DOWN", "schema": {"$ref": "#/definitions/dto.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.CreateCustomerRequest": {
            "type": "object",
            "required": ["annual_income", "customer_id"],
            "properties": {
                "annual_income": {"type": "number", "example": 41333},
                "customer_id": {"type": "string", "example": "1090"}
            }
        },
        "dto.UpdateCustomerRequest": {
            "type": "object",
            "required": ["annual_income"],
            "properties": {
                "annual_income": {"type": "number", "example": 52000}
            }
        },
        "dto.DistinctValuesResponse": {
            "type": "object",
            "properties": {
                "column": {"type": "string", "example": "term"},
                "table": {"type": "string", "example": "loans"},
                "values": {"type": "array", "items": {}}
            }
        },
        "dto.CustomerResponse": {
            "type": "object",
            "properties": {
                "annual_income": {"type": "number", "example": 41333},
                "customer_id": {"type": "string", "example": "1090"}
            }
        },
        "dto.CreateLoanRequest": {
            "type": "object",
            "required": ["amount", "customer_id", "fee", "loan_date", "loan_id", "loan_status", "term"],
            "properties": {
                "amount": {"type": "number", "example": 1000},
                "customer_id": {"type": "string", "example": "1090"},
                "fee": {"type": "number", "example": 100},
                "loan_date": {"type": "string", "example": "11/15/2021"},
                "loan_id": {"type": "string", "example": "15"},
                "loan_status": {"type": "string", "example": "0"},
                "term": {"type": "string", "example": "long"}
            }
        },
        "dto.LoanResponse": {
            "type": "object",
            "properties": {
                "amount": {"type": "number", "example": 1000},
                "customer_id": {"type": "string", "example": "1090"},
                "fee": {"type": "number", "example": 100},
                "loan_date": {"type": "string", "example": "11/15/2021"},
                "loan_id": {"type": "string", "example": "15"},
                "loan_status": {"type": "string", "example": "0"},
                "term": {"type": "string", "example": "long"}
            }
        },
        "dto.PublishResponse": {
            "type": "object",
            "properties": {
                "rows": {"type": "integer", "example": 4},
                "tab": {"type": "string", "example": "loans_features"}
            }
        },
        "dto.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "UP"}
            }
        },
        "dto.SeedResponse": {
            "type": "object",
            "properties": {
                "customers": {"type": "integer", "example": 3},
                "loans": {"type": "integer", "example": 4}
            }
        },
        "dto.TableInfo": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}},
                "name": {"type": "string", "example": "loans"},
                "rows": {"type": "integer", "example": 4}
            }
        },
        "dto.CreateTableResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "customers"},
                "pk_name": {"type": "string", "example": "customer_id"},
                "pk_type": {"type": "string", "example": "str"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/dto.ErrorDetail"}
            }
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Loan Feature Engine API",
	Description:      "Customer and loan feature engineering over a relational row store, with spreadsheet publishing.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
