package documents

import "github.com/JaimeStill/pdf-ingest/pkg/openapi"

type spec struct {
	List      *openapi.Operation
	Upload    *openapi.Operation
	IngestURL *openapi.Operation
	Find      *openapi.Operation
	Metadata  *openapi.Operation
	File      *openapi.Operation
	Delete    *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List documents",
		Description: "List ingested documents, newest first",
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Documents",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Document")}},
				},
			},
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Upload document",
		Description: "Upload a PDF. The filename must end in .pdf and the content must begin with the PDF header.",
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {
					Schema: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"file": {Type: "string", Format: "binary", Description: "PDF file"},
						},
						Required: []string{"file"},
					},
				},
			},
		},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Document ingested", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			415: openapi.ResponseRef("UnsupportedMedia"),
		},
	},
	IngestURL: &openapi.Operation{
		Summary:     "Ingest document from URL",
		Description: "Download a PDF over http(s) with retries on transient network failures.",
		RequestBody: openapi.RequestBodyJSON("IngestURLCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Document ingested", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			415: openapi.ResponseRef("UnsupportedMedia"),
			502: openapi.ResponseRef("BadGateway"),
			504: openapi.ResponseRef("GatewayTimeout"),
		},
	},
	Find: &openapi.Operation{
		Summary: "Find document",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document details", "Document"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Metadata: &openapi.Operation{
		Summary: "Document metadata",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Extracted metadata", "Metadata"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	File: &openapi.Operation{
		Summary:     "Download document",
		Description: "Stream the stored PDF inline under its sanitized original filename",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseFile("PDF file", MediaTypePDF),
			404: openapi.ResponseRef("NotFound"),
			500: openapi.ResponseRef("InternalServerError"),
		},
	},
	Delete: &openapi.Operation{
		Summary:     "Delete document",
		Description: "Delete document and its stored file",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			204: {Description: "Document deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	optionalString := func(desc string) *openapi.Schema {
		return &openapi.Schema{Type: "string", Description: desc}
	}

	return map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                {Type: "string", Format: "uuid"},
				"original_filename": {Type: "string", Description: "Sanitized original filename"},
				"byte_size":         {Type: "integer", Format: "int64"},
				"media_type":        {Type: "string", Example: MediaTypePDF},
				"source":            {Type: "string", Enum: []string{string(SourceUpload), string(SourceURL)}},
				"source_url":        {Type: "string", Description: "Origin URL for remote ingestion"},
				"ingested_at":       {Type: "string", Format: "date-time"},
				"metadata":          openapi.SchemaRef("Metadata"),
			},
			Required: []string{"id", "original_filename", "byte_size", "media_type", "source", "ingested_at", "metadata"},
		},
		"Metadata": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page_count":        {Type: "integer", Description: "At least 1"},
				"file_size":         {Type: "integer", Format: "int64"},
				"encrypted":         {Type: "boolean"},
				"title":             optionalString("Document title"),
				"author":            optionalString("Document author"),
				"subject":           optionalString("Document subject"),
				"creator":           optionalString("Authoring application"),
				"producer":          optionalString("Producing application"),
				"creation_date":     {Type: "string", Format: "date-time"},
				"modification_date": {Type: "string", Format: "date-time"},
				"provenance":        {Type: "string", Enum: []string{string(ProvenanceFull), string(ProvenanceFallback)}},
			},
			Required: []string{"page_count", "file_size", "encrypted", "provenance"},
		},
		"IngestURLCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"url": {Type: "string", Format: "uri", Description: "http or https URL of a PDF"},
			},
			Required: []string{"url"},
		},
	}
}
