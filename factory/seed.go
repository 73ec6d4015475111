/*
Package factory provides JSON to Go conversion of ledger seed data.

PURPOSE:
  Dimension rows, the master order and an optional opening balance are
  reference data set up once per installation. The factory parses them
  from a JSON document so a plant can be configured without code changes.

JSON SCHEMA:
  {
    "container_types": [
      {"id": 1, "name": "Full Container", "description": "Standard dry van"}
    ],
    "container_sizes": [
      {"id": 1, "size": "20ft", "length_ft": 20, "width_ft": 8, "height_ft": 8.5}
    ],
    "master_order": {"name": "Order 2026", "total_order_quantity": 1000},
    "opening_balance": {
      "opening_date": "2026-01-01",
      "manufacturing_start_date": "2025-06-01",
      "system_go_live_date": "2026-01-01",
      "manufactured_before_system": 500,
      "dispatched_before_system": 400
    }
  }

  is_active defaults to true when omitted.

APPLY:
  Dimensions are upserted by ID. The master order is seeded only if absent.
  An opening balance that already exists is left alone.

USAGE:
  f := factory.NewDimensionFactory()
  seed, err := f.ParseSeed(data)
  if err != nil { ... }
  err = f.Apply(ctx, l, seed)
*/
package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warp/production-ledger/ledger"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SeedJSON is the JSON representation of installation reference data.
type SeedJSON struct {
	ContainerTypes []ContainerTypeJSON `json:"container_types"`
	ContainerSizes []ContainerSizeJSON `json:"container_sizes"`
	MasterOrder    *MasterOrderJSON    `json:"master_order,omitempty"`
	OpeningBalance *OpeningBalanceJSON `json:"opening_balance,omitempty"`
}

type ContainerTypeJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type ContainerSizeJSON struct {
	ID         int64   `json:"id"`
	Size       string  `json:"size"`
	LengthFt   int64   `json:"length_ft"`
	WidthFt    int64   `json:"width_ft"`
	HeightFt   float64 `json:"height_ft"`
	IsHighCube bool    `json:"is_high_cube,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

type MasterOrderJSON struct {
	Name               string `json:"name"`
	TotalOrderQuantity int64  `json:"total_order_quantity"`
}

type OpeningBalanceJSON struct {
	OpeningDate              string `json:"opening_date"`
	ManufacturingStartDate   string `json:"manufacturing_start_date"`
	SystemGoLiveDate         string `json:"system_go_live_date"`
	ManufacturedBeforeSystem int64  `json:"manufactured_before_system"`
	DispatchedBeforeSystem   int64  `json:"dispatched_before_system"`
}

// Seed is parsed reference data ready to be applied to a ledger.
type Seed struct {
	Types          []ledger.ContainerType
	Sizes          []ledger.ContainerSize
	MasterOrder    *MasterOrderJSON
	OpeningBalance *ledger.OpeningBalanceInput
}

// =============================================================================
// DIMENSION FACTORY
// =============================================================================

// DimensionFactory converts seed JSON into ledger records.
type DimensionFactory struct{}

// NewDimensionFactory creates a new dimension factory.
func NewDimensionFactory() *DimensionFactory {
	return &DimensionFactory{}
}

// ParseSeed parses a seed document. Unknown fields are rejected.
func (f *DimensionFactory) ParseSeed(data []byte) (*Seed, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var sj SeedJSON
	if err := dec.Decode(&sj); err != nil {
		return nil, fmt.Errorf("failed to parse seed JSON: %w", err)
	}
	return f.FromJSON(sj)
}

// FromJSON converts SeedJSON into ledger records, checking IDs are unique.
func (f *DimensionFactory) FromJSON(sj SeedJSON) (*Seed, error) {
	seed := &Seed{MasterOrder: sj.MasterOrder}

	typeIDs := make(map[int64]bool)
	for _, tj := range sj.ContainerTypes {
		if typeIDs[tj.ID] {
			return nil, fmt.Errorf("duplicate container type id %d", tj.ID)
		}
		typeIDs[tj.ID] = true
		seed.Types = append(seed.Types, ledger.ContainerType{
			ID:          ledger.ContainerTypeID(tj.ID),
			Name:        tj.Name,
			Description: tj.Description,
			IsActive:    activeOrDefault(tj.IsActive),
		})
	}

	sizeIDs := make(map[int64]bool)
	for _, zj := range sj.ContainerSizes {
		if sizeIDs[zj.ID] {
			return nil, fmt.Errorf("duplicate container size id %d", zj.ID)
		}
		sizeIDs[zj.ID] = true
		seed.Sizes = append(seed.Sizes, ledger.ContainerSize{
			ID:         ledger.ContainerSizeID(zj.ID),
			Size:       zj.Size,
			LengthFt:   zj.LengthFt,
			WidthFt:    zj.WidthFt,
			HeightFt:   zj.HeightFt,
			IsHighCube: zj.IsHighCube,
			IsActive:   activeOrDefault(zj.IsActive),
		})
	}

	if ob := sj.OpeningBalance; ob != nil {
		seed.OpeningBalance = &ledger.OpeningBalanceInput{
			OpeningDate:              ob.OpeningDate,
			ManufacturingStartDate:   ob.ManufacturingStartDate,
			SystemGoLiveDate:         ob.SystemGoLiveDate,
			ManufacturedBeforeSystem: ob.ManufacturedBeforeSystem,
			DispatchedBeforeSystem:   ob.DispatchedBeforeSystem,
		}
	}

	return seed, nil
}

// Seeder is the part of the ledger that reference data is written through.
type Seeder interface {
	SeedDimensions(ctx context.Context, types []ledger.ContainerType, sizes []ledger.ContainerSize) error
	InitMasterOrder(ctx context.Context, name string, quantity int64) error
	CreateOpeningBalance(ctx context.Context, in ledger.OpeningBalanceInput) error
}

// Apply writes the seed through the ledger.
func (f *DimensionFactory) Apply(ctx context.Context, l Seeder, seed *Seed) error {
	if err := l.SeedDimensions(ctx, seed.Types, seed.Sizes); err != nil {
		return fmt.Errorf("seed dimensions: %w", err)
	}

	if mo := seed.MasterOrder; mo != nil {
		if err := l.InitMasterOrder(ctx, mo.Name, mo.TotalOrderQuantity); err != nil {
			return fmt.Errorf("seed master order: %w", err)
		}
	}

	if ob := seed.OpeningBalance; ob != nil {
		err := l.CreateOpeningBalance(ctx, *ob)
		if err != nil && !errors.Is(err, ledger.ErrAlreadyExists) {
			return fmt.Errorf("seed opening balance: %w", err)
		}
	}
	return nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultSeed is the reference data of a fresh installation: three
// container types and the common ISO sizes. It carries no master order.
func DefaultSeed() *Seed {
	return &Seed{
		Types: []ledger.ContainerType{
			{ID: 1, Name: "Full Container", Description: "Standard dry freight container", IsActive: true},
			{ID: 2, Name: "Flat Pack", Description: "Collapsible flat-packed container", IsActive: true},
			{ID: 3, Name: "Insulated", Description: "Insulated container for temperature-sensitive cargo", IsActive: true},
		},
		Sizes: []ledger.ContainerSize{
			{ID: 1, Size: "20ft Standard", LengthFt: 20, WidthFt: 8, HeightFt: 8.5, IsActive: true},
			{ID: 2, Size: "40ft Standard", LengthFt: 40, WidthFt: 8, HeightFt: 8.5, IsActive: true},
			{ID: 3, Size: "40ft High Cube", LengthFt: 40, WidthFt: 8, HeightFt: 9.5, IsHighCube: true, IsActive: true},
		},
	}
}

func activeOrDefault(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}
