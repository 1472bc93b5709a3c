// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "catalog", "description": "Fee categories, fee structures and special fees"},
        {"name": "scholarships", "description": "Scholarship programs and assignments"},
        {"name": "students", "description": "Fee resolution and per-student views"},
        {"name": "invoices", "description": "Invoice lifecycle and payment posting"},
        {"name": "payments", "description": "Ledger entries, refunds and allocation"},
        {"name": "waivers", "description": "Waiver requests and decisions"},
        {"name": "analytics", "description": "Collection metrics and reports"},
        {"name": "jobs", "description": "On-demand late fee accrual and status refresh"}
    ],
    "paths": {
        "/fee-categories": {"get": {"tags": ["catalog"], "summary": "List fee categories", "responses": {"200": {"description": "OK"}}}, "post": {"tags": ["catalog"], "summary": "Create a fee category", "responses": {"201": {"description": "Created"}, "409": {"description": "Name already used"}}}},
        "/fee-structures": {"get": {"tags": ["catalog"], "summary": "List fee structures of a year", "responses": {"200": {"description": "OK"}}}, "post": {"tags": ["catalog"], "summary": "Create a fee structure", "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid input or duplicate active structure"}}}},
        "/fee-structures/{structureID}": {"get": {"tags": ["catalog"], "summary": "Get a fee structure", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}, "patch": {"tags": ["catalog"], "summary": "Update a fee structure for future invoices", "responses": {"200": {"description": "OK"}}}, "delete": {"tags": ["catalog"], "summary": "Deactivate a fee structure", "responses": {"204": {"description": "No Content"}}}},
        "/special-fees": {"post": {"tags": ["catalog"], "summary": "Create a special fee", "responses": {"201": {"description": "Created"}}}},
        "/special-fees/{specialFeeID}": {"get": {"tags": ["catalog"], "summary": "Get a special fee", "responses": {"200": {"description": "OK"}}}, "delete": {"tags": ["catalog"], "summary": "Deactivate a special fee", "responses": {"204": {"description": "No Content"}}}},
        "/scholarships": {"get": {"tags": ["scholarships"], "summary": "List scholarships of a year", "responses": {"200": {"description": "OK"}}}, "post": {"tags": ["scholarships"], "summary": "Create a scholarship", "responses": {"201": {"description": "Created"}}}},
        "/scholarships/{scholarshipID}": {"get": {"tags": ["scholarships"], "summary": "Get a scholarship", "responses": {"200": {"description": "OK"}}}},
        "/scholarships/{scholarshipID}/assignments": {"get": {"tags": ["scholarships"], "summary": "List assignments of a scholarship", "responses": {"200": {"description": "OK"}}}},
        "/scholarship-assignments": {"post": {"tags": ["scholarships"], "summary": "Assign a scholarship to a student", "responses": {"201": {"description": "Created"}}}},
        "/scholarship-assignments/{assignmentID}/approve": {"post": {"tags": ["scholarships"], "summary": "Approve an assignment", "responses": {"200": {"description": "OK"}, "409": {"description": "Scholarship full"}}}},
        "/scholarship-assignments/{assignmentID}/suspend": {"post": {"tags": ["scholarships"], "summary": "Suspend an assignment", "responses": {"200": {"description": "OK"}}}},
        "/scholarship-assignments/{assignmentID}/terminate": {"post": {"tags": ["scholarships"], "summary": "Terminate an assignment", "responses": {"200": {"description": "OK"}}}},
        "/students/{studentID}/fees": {"get": {"tags": ["students"], "summary": "Preview fees for a term", "responses": {"200": {"description": "OK"}}}},
        "/students/{studentID}/invoices": {"get": {"tags": ["students"], "summary": "List a student's invoices", "responses": {"200": {"description": "OK"}}}},
        "/students/{studentID}/scholarships": {"get": {"tags": ["students"], "summary": "List a student's scholarship assignments", "responses": {"200": {"description": "OK"}}}},
        "/students/{studentID}/scholarships/effective": {"get": {"tags": ["students"], "summary": "Scholarships in effect for a term", "responses": {"200": {"description": "OK"}}}},
        "/invoices": {"post": {"tags": ["invoices"], "summary": "Generate an invoice", "responses": {"201": {"description": "Created"}, "409": {"description": "Active invoice exists"}}}},
        "/invoices/bulk": {"post": {"tags": ["invoices"], "summary": "Generate invoices for many students", "responses": {"200": {"description": "OK"}}}},
        "/invoices/{invoiceID}": {"get": {"tags": ["invoices"], "summary": "Get an invoice with its ledger", "responses": {"200": {"description": "OK"}}}},
        "/invoices/{invoiceID}/cancel": {"post": {"tags": ["invoices"], "summary": "Cancel an invoice", "responses": {"200": {"description": "OK"}, "409": {"description": "Invoice has money against it"}}}},
        "/invoices/{invoiceID}/payments": {"post": {"tags": ["invoices"], "summary": "Record a payment", "responses": {"201": {"description": "Created"}}}},
        "/payments/allocate": {"post": {"tags": ["payments"], "summary": "Spread a payment over open invoices", "responses": {"200": {"description": "OK"}}}},
        "/payments/{paymentID}": {"get": {"tags": ["payments"], "summary": "Get a ledger entry", "responses": {"200": {"description": "OK"}}}},
        "/payments/{paymentID}/confirm": {"post": {"tags": ["payments"], "summary": "Confirm a pending payment", "responses": {"200": {"description": "OK"}}}},
        "/payments/{paymentID}/fail": {"post": {"tags": ["payments"], "summary": "Mark a pending payment failed", "responses": {"200": {"description": "OK"}}}},
        "/payments/{paymentID}/refunds": {"post": {"tags": ["payments"], "summary": "Refund a payment", "responses": {"201": {"description": "Created"}}}},
        "/waivers": {"post": {"tags": ["waivers"], "summary": "Request a waiver", "responses": {"201": {"description": "Created"}}}},
        "/waivers/{waiverID}": {"get": {"tags": ["waivers"], "summary": "Get a waiver", "responses": {"200": {"description": "OK"}}}},
        "/waivers/{waiverID}/approve": {"post": {"tags": ["waivers"], "summary": "Approve a waiver", "responses": {"200": {"description": "OK"}}}},
        "/waivers/{waiverID}/reject": {"post": {"tags": ["waivers"], "summary": "Reject a waiver", "responses": {"200": {"description": "OK"}}}},
        "/analytics/collection": {"get": {"tags": ["analytics"], "summary": "Collection metrics", "responses": {"200": {"description": "OK"}}}},
        "/analytics/trends": {"get": {"tags": ["analytics"], "summary": "Daily payment trends", "responses": {"200": {"description": "OK"}}}},
        "/analytics/defaulters": {"get": {"tags": ["analytics"], "summary": "Overdue invoices past a threshold", "responses": {"200": {"description": "OK"}}}},
        "/analytics/scholarship-impact": {"get": {"tags": ["analytics"], "summary": "Scholarship discount impact", "responses": {"200": {"description": "OK"}}}},
        "/analytics/dashboard": {"get": {"tags": ["analytics"], "summary": "Combined dashboard", "responses": {"200": {"description": "OK"}}}},
        "/jobs/late-fees": {"post": {"tags": ["jobs"], "summary": "Accrue late fees", "responses": {"200": {"description": "OK"}}}},
        "/jobs/refresh-statuses": {"post": {"tags": ["jobs"], "summary": "Refresh invoice statuses", "responses": {"200": {"description": "OK"}}}},
        "/audit/{entityType}/{entityID}": {"get": {"tags": ["jobs"], "summary": "Audit trail of an entity", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "School Finance Core API",
	Description:      "Fee catalog, invoicing, payments, scholarships, waivers and collection analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
