package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Builder API",
        "description": "Local JSON API over the semester collection",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Semesters", "description": "Semester aggregate roots"},
        {"name": "Courses", "description": "Courses and their class sessions"},
        {"name": "Timetables", "description": "Named selections of class snapshots"},
        {"name": "Transfer", "description": "Whole-collection export and import"}
    ],
    "paths": {
        "/semesters": {
            "get": {
                "tags": ["Semesters"],
                "summary": "List semesters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Semesters"],
                "summary": "Create semester",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}": {
            "parameters": [
                {"name": "id", "in": "path", "required": true, "type": "string"},
                {"name": "If-Match", "in": "header", "type": "string", "description": "Expected collection revision"}
            ],
            "get": {
                "tags": ["Semesters"],
                "summary": "Get semester",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Semesters"],
                "summary": "Upsert semester",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Semester"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Collection changed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Semesters"],
                "summary": "Rename semester",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Semesters"],
                "summary": "Delete semester",
                "responses": {"204": {"description": "Deleted or already absent"}}
            }
        },
        "/semesters/{id}/courses": {
            "post": {
                "tags": ["Courses"],
                "summary": "Add course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/courses/{courseId}": {
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"204": {"description": "Deleted or already absent"}}
            }
        },
        "/semesters/{id}/courses/{courseId}/classes": {
            "post": {
                "tags": ["Courses"],
                "summary": "Add class session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/courses/{courseId}/classes/{classId}": {
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete class session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"204": {"description": "Deleted or already absent"}}
            }
        },
        "/semesters/{id}/timetables": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Create timetable from class ids",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimetableRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/timetables/{timetableId}": {
            "parameters": [
                {"name": "id", "in": "path", "required": true, "type": "string"},
                {"name": "timetableId", "in": "path", "required": true, "type": "string"}
            ],
            "put": {
                "tags": ["Timetables"],
                "summary": "Upsert timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Timetable"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Timetables"],
                "summary": "Rename timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete timetable",
                "responses": {"204": {"description": "Deleted or already absent"}}
            }
        },
        "/semesters/{id}/timetables/{timetableId}/duplicate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Duplicate timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "timetableId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/semesters/{id}/timetables/{timetableId}/sheet": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download timetable sheet",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "timetableId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "Sheet file", "schema": {"type": "file"}}}
            }
        },
        "/export": {
            "get": {
                "tags": ["Transfer"],
                "summary": "Download full backup",
                "responses": {"200": {"description": "Backup document", "schema": {"type": "array", "items": {"$ref": "#/definitions/Semester"}}}}
            }
        },
        "/export/files": {
            "post": {
                "tags": ["Transfer"],
                "summary": "Save backup and return a signed link",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/export/files/{token}": {
            "get": {
                "tags": ["Transfer"],
                "summary": "Download saved backup",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Backup document", "schema": {"type": "file"}},
                    "404": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Transfer"],
                "summary": "Delete saved backup",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Invalid link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/import": {
            "post": {
                "tags": ["Transfer"],
                "summary": "Replace the collection from a backup",
                "consumes": ["application/json", "multipart/form-data"],
                "parameters": [
                    {"name": "If-Match", "in": "header", "type": "string"},
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Imported", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "FORMAT_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "NameRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "ClassRequest": {
            "type": "object",
            "required": ["type", "instructor", "room", "startTime", "endTime", "days"],
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["lecture", "lab", "tutorial"]},
                "instructor": {"type": "string"},
                "room": {"type": "string"},
                "startTime": {"type": "string", "example": "09:00"},
                "endTime": {"type": "string", "example": "10:30"},
                "days": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CourseRequest": {
            "type": "object",
            "required": ["code", "name", "credits"],
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "credits": {"type": "integer"},
                "classes": {"type": "array", "items": {"$ref": "#/definitions/ClassRequest"}}
            }
        },
        "CreateTimetableRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "classIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Class": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "courseId": {"type": "string"},
                "type": {"type": "string"},
                "instructor": {"type": "string"},
                "room": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "days": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "credits": {"type": "integer"},
                "classes": {"type": "array", "items": {"$ref": "#/definitions/Class"}}
            }
        },
        "Timetable": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "semesterId": {"type": "string"},
                "name": {"type": "string"},
                "classes": {"type": "array", "items": {"$ref": "#/definitions/Class"}},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "Semester": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "courses": {"type": "array", "items": {"$ref": "#/definitions/Course"}},
                "timetables": {"type": "array", "items": {"$ref": "#/definitions/Timetable"}},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
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
