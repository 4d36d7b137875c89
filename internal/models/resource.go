package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Resource is a point of service shown on the map.
type Resource struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text;not null" json:"description"`
	// Pointers because a resource may be stored before it is geocoded.
	Latitude    *float64                    `gorm:"type:double precision;index:idx_resources_location" json:"latitude"`
	Longitude   *float64                    `gorm:"type:double precision;index:idx_resources_location" json:"longitude"`
	Diagnoses   datatypes.JSONSlice[string] `json:"diagnoses"`
	Address     string                      `gorm:"type:text" json:"address"`
	ContactInfo datatypes.JSONMap           `json:"contact_info"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// HasLocation reports whether both coordinates are set.
func (r *Resource) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Normalize replaces nil collections so they serialize as [] and {}.
func (r *Resource) Normalize() {
	if r.Diagnoses == nil {
		r.Diagnoses = datatypes.JSONSlice[string]{}
	}
	if r.ContactInfo == nil {
		r.ContactInfo = datatypes.JSONMap{}
	}
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Normalize()
	return nil
}

func (r *Resource) AfterFind(tx *gorm.DB) error {
	r.Normalize()
	for k, v := range r.ContactInfo {
		r.ContactInfo[k] = plainNumbers(v)
	}
	return nil
}

// plainNumbers turns the json.Number values that JSONMap.Scan produces back
// into float64, matching what encoding/json gives a request body.
func plainNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		for k, e := range t {
			t[k] = plainNumbers(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = plainNumbers(e)
		}
		return t
	default:
		return v
	}
}

// NearbyResource is a resource annotated with its distance in meters from
// the search origin.
type NearbyResource struct {
	Resource
	Distance float64 `json:"distance"`
}

// ResourceInput is the body of create and full-update requests. Every field
// is written on update, so omitted fields are cleared.
type ResourceInput struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description" binding:"required"`
	Latitude    *float64               `json:"latitude"`
	Longitude   *float64               `json:"longitude"`
	Diagnoses   []string               `json:"diagnoses"`
	Address     string                 `json:"address"`
	ContactInfo map[string]interface{} `json:"contact_info"`
}

// ToResource converts the request body into a Resource without an id.
func (in ResourceInput) ToResource() *Resource {
	r := &Resource{
		Name:        in.Name,
		Description: in.Description,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Diagnoses:   datatypes.JSONSlice[string](in.Diagnoses),
		Address:     in.Address,
		ContactInfo: datatypes.JSONMap(in.ContactInfo),
	}
	r.Normalize()
	return r
}
