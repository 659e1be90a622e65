// Package routes groups HTTP handlers with their OpenAPI operations so that
// registration on a ServeMux and the API document are built from one source.
package routes

import (
	"net/http"

	"github.com/JaimeStill/pdf-ingest/pkg/openapi"
)

// Route represents an HTTP route with method, pattern, and handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
}

// AddToSpec records every documented route of the group, and its children,
// under basePath. Operations without tags inherit the group's tags, which are
// documented with the group's description.
func (g *Group) AddToSpec(basePath string, spec *openapi.Spec) {
	prefix := basePath + g.Prefix

	for _, tag := range g.Tags {
		spec.AddTag(tag, g.Description)
	}

	for _, route := range g.Routes {
		if route.OpenAPI == nil {
			continue
		}
		op := route.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = g.Tags
		}
		spec.SetOperation(prefix+route.Pattern, route.Method, op)
	}

	for _, child := range g.Children {
		child.AddToSpec(prefix, spec)
	}
}

func (g *Group) register(mux *http.ServeMux, parentPrefix string) {
	prefix := parentPrefix + g.Prefix
	for _, route := range g.Routes {
		mux.HandleFunc(route.Method+" "+prefix+route.Pattern, route.Handler)
	}
	for _, child := range g.Children {
		child.register(mux, prefix)
	}
}

// Register mounts each group on mux and documents it in spec under basePath.
// Handlers are mounted without basePath; the enclosing module strips it.
func Register(mux *http.ServeMux, basePath string, spec *openapi.Spec, groups ...Group) {
	for _, group := range groups {
		group.register(mux, "")
		group.AddToSpec(basePath, spec)
	}
}
