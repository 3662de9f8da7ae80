package core

import (
	"context"
	"time"
)

type (
	// PatternMetadata is the descriptive form that accompanies a drawn pattern.
	PatternMetadata struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		GarmentType string `json:"garmentType"`
		Style       string `json:"style"`
		SizeRange   string `json:"sizeRange"`
		FabricType  string `json:"fabricType"`
		Occasion    string `json:"occasion"`
	}

	// PatternRecord is a saved design as the pattern records API stores it.
	PatternRecord struct {
		ID            string    `json:"id,omitempty"`
		Name          string    `json:"name"`
		Description   string    `json:"description"`
		GarmentType   string    `json:"garmentType"`
		Style         string    `json:"style"`
		SizeRange     string    `json:"sizeRange"`
		FabricType    string    `json:"fabricType"`
		Occasion      string    `json:"occasion"`
		ImageData     string    `json:"imageData,omitempty"`
		IsAIGenerated bool      `json:"isAiGenerated"`
		Instructions  []string  `json:"instructions"`
		Materials     []string  `json:"materials"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// PatternUpdate is a partial record. Nil fields are left as they are.
	PatternUpdate struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		GarmentType *string `json:"garmentType,omitempty"`
		Style       *string `json:"style,omitempty"`
		SizeRange   *string `json:"sizeRange,omitempty"`
		FabricType  *string `json:"fabricType,omitempty"`
		Occasion    *string `json:"occasion,omitempty"`
		ImageData   *string `json:"imageData,omitempty"`
	}

	// PatternStore is the remote pattern records service.
	PatternStore interface {
		Create(ctx context.Context, record *PatternRecord) (*PatternRecord, error)
		Update(ctx context.Context, id string, update *PatternUpdate) (*PatternRecord, error)
		ListMine(ctx context.Context) ([]*PatternRecord, error)
		ListPublic(ctx context.Context) ([]*PatternRecord, error)
		Delete(ctx context.Context, id string) error
	}
)

// DefaultMetadata is the state of an empty pattern form.
func DefaultMetadata() PatternMetadata {
	return PatternMetadata{}
}

// NewPatternRecord merges form metadata with an encoded image.
func NewPatternRecord(meta PatternMetadata, imageData string) *PatternRecord {
	return &PatternRecord{
		Name:         meta.Name,
		Description:  meta.Description,
		GarmentType:  meta.GarmentType,
		Style:        meta.Style,
		SizeRange:    meta.SizeRange,
		FabricType:   meta.FabricType,
		Occasion:     meta.Occasion,
		ImageData:    imageData,
		Instructions: []string{},
		Materials:    []string{},
	}
}

// UpdateFromMetadata sets every metadata field of the update.
func UpdateFromMetadata(meta PatternMetadata) *PatternUpdate {
	return &PatternUpdate{
		Name:        &meta.Name,
		Description: &meta.Description,
		GarmentType: &meta.GarmentType,
		Style:       &meta.Style,
		SizeRange:   &meta.SizeRange,
		FabricType:  &meta.FabricType,
		Occasion:    &meta.Occasion,
	}
}
