package openapi

const jsonMediaType = "application/json"

// SchemaRef references components/schemas/name.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

// ResponseRef references components/responses/name.
func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

// RequestBodyJSON is a JSON request body of the named schema.
func RequestBodyJSON(schemaName string, required bool) *RequestBody {
	return &RequestBody{
		Required: required,
		Content:  map[string]*MediaType{jsonMediaType: {Schema: SchemaRef(schemaName)}},
	}
}

// ResponseJSON is a JSON response of the named schema.
func ResponseJSON(description, schemaName string) *Response {
	return &Response{
		Description: description,
		Content:     map[string]*MediaType{jsonMediaType: {Schema: SchemaRef(schemaName)}},
	}
}

// ResponseFile is a binary download of mediaType. The Content-Disposition
// header carries the file's display name.
func ResponseFile(description, mediaType string) *Response {
	return &Response{
		Description: description,
		Headers: map[string]*Header{
			"Content-Disposition": {
				Description: "Display filename, with an RFC 5987 filename* parameter for non-ASCII names",
				Schema:      &Schema{Type: "string"},
			},
		},
		Content: map[string]*MediaType{
			mediaType: {Schema: &Schema{Type: "string", Format: "binary"}},
		},
	}
}

// PathParam is a required UUID path parameter.
func PathParam(name, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "path",
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: "string", Format: "uuid"},
	}
}
