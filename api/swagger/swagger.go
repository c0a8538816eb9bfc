package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GyH API",
        "description": "Numbered Jake image store and the nail studio directory. Write routes answer 429 RATE_LIMITED with Retry-After when a client exceeds its budget.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Health", "description": "Liveness and readiness probes"},
        {"name": "Jake", "description": "Numbered image slots"},
        {"name": "NailStudios", "description": "Nail studio directory"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/random-jake": {
            "get": {
                "tags": ["Jake"],
                "summary": "Pick a random stored image",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JakeImage"}},
                    "404": {"description": "No images stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/upload-jake": {
            "post": {
                "tags": ["Jake"],
                "summary": "Store one image in the smallest free slot or an explicit one",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "number", "in": "formData", "type": "integer"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/JakeImage"}},
                    "400": {"description": "Invalid upload, slot taken or store full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/upload-multiple": {
            "post": {
                "tags": ["Jake"],
                "summary": "Store several images, each in the next free slot",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "files", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Per-file outcome", "schema": {"$ref": "#/definitions/BatchUploadResult"}},
                    "400": {"description": "No files", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/delete-jake/{number}": {
            "delete": {
                "tags": ["Jake"],
                "summary": "Free an image slot",
                "parameters": [
                    {"name": "number", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "400": {"description": "Invalid number", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Slot is free", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/jake-stats": {
            "get": {
                "tags": ["Jake"],
                "summary": "Occupancy of the image store",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JakeStats"}}
                }
            }
        },
        "/images/{filename}": {
            "get": {
                "tags": ["Jake"],
                "summary": "Serve a stored image",
                "produces": ["image/png", "image/jpeg", "image/gif"],
                "parameters": [
                    {"name": "filename", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Image bytes"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/nail-studios": {
            "get": {
                "tags": ["NailStudios"],
                "summary": "List nail studios",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer", "default": 1},
                    {"name": "per_page", "in": "query", "type": "integer", "default": 20},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "desa", "in": "query", "type": "string"},
                    {"name": "survey_status", "in": "query", "type": "string", "enum": ["true", "false"]},
                    {"name": "rating_min", "in": "query", "type": "number"},
                    {"name": "open_today", "in": "query", "type": "string", "enum": ["true", "false"]},
                    {"name": "sort_by", "in": "query", "type": "string", "enum": ["nama", "rating", "created_at"]},
                    {"name": "sort_order", "in": "query", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/NailStudioList"}}
                }
            },
            "post": {
                "tags": ["NailStudios"],
                "summary": "Create a nail studio",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NailStudioInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/nail-studios/stats": {
            "get": {
                "tags": ["NailStudios"],
                "summary": "Directory statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/NailStudioStats"}}
                }
            }
        },
        "/nail-studios/export": {
            "get": {
                "tags": ["NailStudios"],
                "summary": "Export the filtered directory as CSV, PDF or XLSX",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "desa", "in": "query", "type": "string"},
                    {"name": "survey_status", "in": "query", "type": "string", "enum": ["true", "false"]},
                    {"name": "rating_min", "in": "query", "type": "number"},
                    {"name": "open_today", "in": "query", "type": "string", "enum": ["true", "false"]},
                    {"name": "sort_by", "in": "query", "type": "string", "enum": ["nama", "rating", "created_at"]},
                    {"name": "sort_order", "in": "query", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {
                    "200": {"description": "Attachment; X-Export-Rows and X-Export-Truncated describe the content"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/nail-studios/{id}": {
            "get": {
                "tags": ["NailStudios"],
                "summary": "Get a nail studio with its week schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["NailStudios"],
                "summary": "Update the fields present in the body",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NailStudioInput"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["NailStudios"],
                "summary": "Delete a nail studio",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/nail-studios/{id}/survey-status": {
            "patch": {
                "tags": ["NailStudios"],
                "summary": "Set the survey flag",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {
                        "type": "object",
                        "required": ["surveyStatus"],
                        "properties": {"surveyStatus": {"type": "boolean"}}
                    }}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing flag", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "JakeImage": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "image_number": {"type": "integer"},
                "filename": {"type": "string"},
                "image_url": {"type": "string"}
            }
        },
        "BatchUploadResult": {
            "type": "object",
            "properties": {
                "uploaded_files": {"type": "array", "items": {"type": "object"}},
                "failed_files": {"type": "array", "items": {"type": "object"}},
                "total_uploaded": {"type": "integer"},
                "total_failed": {"type": "integer"}
            }
        },
        "JakeStats": {
            "type": "object",
            "properties": {
                "total_images": {"type": "integer"},
                "max_possible": {"type": "integer"},
                "available_numbers": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "DayHours": {
            "type": "object",
            "properties": {
                "isOpen": {"type": "boolean"},
                "openTime": {"type": "string", "example": "09:00"},
                "closeTime": {"type": "string", "example": "18:00"}
            }
        },
        "NailStudioInput": {
            "type": "object",
            "properties": {
                "nama": {"type": "string"},
                "alamat": {"type": "string"},
                "desa": {"type": "string"},
                "noTelp": {"type": "string"},
                "instagram": {"type": "string"},
                "whatsapp": {"type": "string"},
                "rating": {"type": "number"},
                "totalReviews": {"type": "integer"},
                "description": {"type": "string"},
                "photoUrl": {"type": "string"},
                "instagramEmbed": {"type": "string"},
                "mapsEmbed": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "operatingHours": {
                    "type": "object",
                    "additionalProperties": {"$ref": "#/definitions/DayHours"}
                },
                "surveyStatus": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "per_page": {"type": "integer"},
                "total": {"type": "integer"},
                "pages": {"type": "integer"},
                "has_next": {"type": "boolean"},
                "has_prev": {"type": "boolean"}
            }
        },
        "NailStudioList": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "array", "items": {"type": "object"}},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "filters": {"type": "object"}
            }
        },
        "NailStudioStats": {
            "type": "object",
            "properties": {
                "total_studios": {"type": "integer"},
                "surveyed_studios": {"type": "integer"},
                "unsurveyed_studios": {"type": "integer"},
                "open_today": {"type": "integer"},
                "average_rating": {"type": "number"},
                "desa_distribution": {"type": "array", "items": {"type": "object"}}
            }
        },
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
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"}
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
