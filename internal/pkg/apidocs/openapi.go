package apidocs

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

// Access is the minimum role an operation requires.
type Access string

const (
	AccessPublic Access = "public"
	AccessAuth   Access = "authenticated"
	AccessMember Access = "member"
	AccessAdmin  Access = "admin"
)

const securityScheme = "sessionCookie"

// Operation describes one API route for the generated document.
type Operation struct {
	Method  string
	Path    string
	Summary string
	Tag     string
	Access  Access
	// Request is a zero value of the JSON body type, nil when the route has no body.
	Request interface{}
	// Status is the success status code, 200 when zero.
	Status int
}

var pathParam = regexp.MustCompile(`:([A-Za-z][A-Za-z0-9_]*)`)

// openAPIPath converts a fiber route like /api/news/:id into /api/news/{id}.
func openAPIPath(path string) (string, []string) {
	var params []string
	for _, m := range pathParam.FindAllStringSubmatch(path, -1) {
		params = append(params, m[1])
	}
	return pathParam.ReplaceAllString(path, "{$1}"), params
}

// Build generates an OpenAPI 3 document for the given operations and validates it.
func Build(title, version, cookieName string, ops []Operation) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				securityScheme: &openapi3.SecuritySchemeRef{
					Value: &openapi3.SecurityScheme{
						Type: "apiKey",
						In:   openapi3.ParameterInCookie,
						Name: cookieName,
					},
				},
			},
		},
	}

	tags := map[string]struct{}{}
	for _, op := range ops {
		operation, err := buildOperation(op)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", op.Method, op.Path, err)
		}
		path, _ := openAPIPath(op.Path)
		doc.AddOperation(path, strings.ToUpper(op.Method), operation)
		if op.Tag != "" {
			tags[op.Tag] = struct{}{}
		}
	}

	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: name})
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

func buildOperation(op Operation) (*openapi3.Operation, error) {
	operation := openapi3.NewOperation()
	operation.Summary = op.Summary
	operation.OperationID = operationID(op)
	if op.Tag != "" {
		operation.Tags = []string{op.Tag}
	}

	_, params := openAPIPath(op.Path)
	for _, name := range params {
		operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(name).WithSchema(openapi3.NewIntegerSchema()),
		})
	}

	if op.Request != nil {
		schema, err := openapi3gen.NewSchemaRefForValue(op.Request, nil)
		if err != nil {
			return nil, err
		}
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(schema),
		}
	}

	status := op.Status
	if status == 0 {
		status = http.StatusOK
	}
	operation.Responses = openapi3.NewResponsesWithCapacity(4)
	operation.Responses.Set(fmt.Sprint(status), response(http.StatusText(status)))
	if op.Request != nil || len(params) > 0 {
		operation.Responses.Set("400", response("Invalid request"))
	}

	if op.Access != AccessPublic && op.Access != "" {
		operation.Security = &openapi3.SecurityRequirements{
			openapi3.NewSecurityRequirement().Authenticate(securityScheme),
		}
		operation.Responses.Set("401", response("Login required"))
		if op.Access == AccessMember || op.Access == AccessAdmin {
			operation.Responses.Set("403", response("Requires role "+string(op.Access)))
		}
	}
	return operation, nil
}

func response(description string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description)}
}

// operationID derives a stable identifier, e.g. "PUT /api/users/:id/role" -> "put_users_id_role".
func operationID(op Operation) string {
	parts := []string{strings.ToLower(op.Method)}
	for _, seg := range strings.Split(strings.TrimPrefix(op.Path, "/api"), "/") {
		seg = strings.TrimPrefix(seg, ":")
		seg = strings.ReplaceAll(seg, "-", "_")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "_")
}
