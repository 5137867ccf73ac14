package application

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// ResourceKind names an enterprise record collection served under /api/{kind}.
type ResourceKind string

const (
	KindEmployees  ResourceKind = "employees"
	KindVisitors   ResourceKind = "visitors"
	KindRooms      ResourceKind = "rooms"
	KindBookings   ResourceKind = "bookings"
	KindAssets     ResourceKind = "assets"
	KindAttendance ResourceKind = "attendance"
	KindLeaves     ResourceKind = "leaves"
)

// ResourceSpec describes the minimal validation applied to one kind.
type ResourceSpec struct {
	Kind ResourceKind
	// Singular is the resource name used in mutation events.
	Singular string
	Required []string
	Defaults map[string]any
	// Unique lists field groups whose combined values must not repeat.
	Unique [][]string
}

var resourceSpecs = []ResourceSpec{
	{
		Kind:     KindEmployees,
		Singular: "employee",
		Required: []string{"firstName", "lastName", "email"},
		Defaults: map[string]any{"status": "active"},
		Unique:   [][]string{{"email"}, {"employeeId"}},
	},
	{
		Kind:     KindVisitors,
		Singular: "visitor",
		Required: []string{"name", "purpose"},
		Defaults: map[string]any{"status": "expected"},
	},
	{
		Kind:     KindRooms,
		Singular: "room",
		Required: []string{"name"},
		Defaults: map[string]any{"status": "available"},
		Unique:   [][]string{{"name"}},
	},
	{
		Kind:     KindBookings,
		Singular: "booking",
		Required: []string{"roomId", "title", "date", "startTime", "endTime"},
		Defaults: map[string]any{"status": "confirmed"},
	},
	{
		Kind:     KindAssets,
		Singular: "asset",
		Required: []string{"name", "category"},
		Defaults: map[string]any{"status": "available"},
		Unique:   [][]string{{"serialNumber"}, {"assetTag"}},
	},
	{
		Kind:     KindAttendance,
		Singular: "attendance",
		Required: []string{"employeeId", "date"},
		Defaults: map[string]any{"status": "present"},
		Unique:   [][]string{{"employeeId", "date"}},
	},
	{
		Kind:     KindLeaves,
		Singular: "leave",
		Required: []string{"employeeId", "type", "startDate", "endDate"},
		Defaults: map[string]any{"status": "pending"},
	},
}

// ResourceSpecs returns the specification of every enterprise kind.
func ResourceSpecs() []ResourceSpec {
	return slices.Clone(resourceSpecs)
}

// LookupResourceSpec returns the spec for kind.
func LookupResourceSpec(kind ResourceKind) (ResourceSpec, bool) {
	for _, spec := range resourceSpecs {
		if spec.Kind == kind {
			return spec, true
		}
	}
	return ResourceSpec{}, false
}

// reservedFields are managed by the service and ignored in caller input.
var reservedFields = []string{"id", "createdAt", "updatedAt", "createdBy", "updatedBy"}

// Record is a schemaless enterprise record.
type Record struct {
	ID        string
	Kind      ResourceKind
	Fields    map[string]any
	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Text returns the named field rendered as a trimmed string, or "" when absent.
func (r Record) Text(field string) string {
	return fieldText(r.Fields[field])
}

func (r Record) clone() Record {
	r.Fields = maps.Clone(r.Fields)
	return r
}

// ResourceFilter narrows record listings. Match compares fields
// case-insensitively; Search matches any text field.
type ResourceFilter struct {
	Match  map[string]string
	Search string
}

func fieldText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
