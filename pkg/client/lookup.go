package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ResourceType selects what a lookup searches for.
type ResourceType string

const (
	ResourcePlace   ResourceType = "place"
	ResourceProject ResourceType = "project"
	ResourceTaxon   ResourceType = "taxon"
	ResourceUser    ResourceType = "user"
)

// resourceEndpoint describes how a resource type is searched.
type resourceEndpoint struct {
	path    string
	nameKey string
}

var resourceEndpoints = map[ResourceType]resourceEndpoint{
	ResourcePlace:   {path: "places/autocomplete", nameKey: "display_name"},
	ResourceProject: {path: "projects", nameKey: "title"},
	ResourceTaxon:   {path: "taxa", nameKey: "name"},
	ResourceUser:    {path: "users/autocomplete", nameKey: "name"},
}

// ResourceTypes lists the supported types in display order.
func ResourceTypes() []ResourceType {
	return []ResourceType{ResourcePlace, ResourceProject, ResourceTaxon, ResourceUser}
}

// ParseResourceType accepts a type name ("place", "project", "taxon",
// "user") or the plural/alias forms "places", "location", "projects",
// "taxa", "users".
func ParseResourceType(s string) (ResourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "place", "places", "location":
		return ResourcePlace, nil
	case "project", "projects":
		return ResourceProject, nil
	case "taxon", "taxa":
		return ResourceTaxon, nil
	case "user", "users":
		return ResourceUser, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResourceType, s)
	}
}

// Endpoint returns the API path searched for this type.
func (t ResourceType) Endpoint() string {
	return resourceEndpoints[t].path
}

// NameKey returns the result field holding the display name for this type.
func (t ResourceType) NameKey() string {
	return resourceEndpoints[t].nameKey
}

// Lookup searches resources of type rt whose name starts with q and returns
// the first page of matches. Further pages are not fetched.
func (c *Client) Lookup(ctx context.Context, rt ResourceType, q string) ([]Resource, error) {
	ep, ok := resourceEndpoints[rt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResourceType, rt)
	}
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}

	rawQuery := "q=" + url.QueryEscape(q)
	c.logger.Debug().
		Str("url", c.endpointURL(ep.path).String()+"?"+rawQuery).
		Msg("Lookup")

	var page SearchPage
	if err := c.getJSON(ctx, ep.path, rawQuery, &page); err != nil {
		return nil, fmt.Errorf("lookup %s %q: %w", rt, q, err)
	}

	c.logger.Debug().
		Int("total_results", page.TotalResults).
		Int("per_page", page.PerPage).
		Str("type", string(rt)).
		Str("q", q).
		Msg("Lookup results")

	resources := make([]Resource, 0, len(page.Results))
	for i, raw := range page.Results {
		res, err := decodeResource(raw, ep.nameKey)
		if err != nil {
			return nil, fmt.Errorf("lookup %s %q: result %d: %w", rt, q, i, err)
		}
		resources = append(resources, res)
	}
	return resources, nil
}

func decodeResource(raw json.RawMessage, nameKey string) (Resource, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Resource{}, fmt.Errorf("decode result: %w", err)
	}

	var res Resource
	idRaw, ok := fields["id"]
	if !ok {
		return Resource{}, fmt.Errorf("result has no id")
	}
	if err := json.Unmarshal(idRaw, &res.ID); err != nil {
		return Resource{}, fmt.Errorf("decode id: %w", err)
	}

	if nameRaw, ok := fields[nameKey]; ok {
		var name FlexString
		if err := json.Unmarshal(nameRaw, &name); err != nil {
			return Resource{}, fmt.Errorf("decode %s: %w", nameKey, err)
		}
		res.Name = name.String()
	}
	return res, nil
}
