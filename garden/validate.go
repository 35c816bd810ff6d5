package garden

import (
	"strings"

	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
)

// ValidateEjemplar checks the fields the API requires before a submit.
func ValidateEjemplar(e Ejemplar) error {
	if strings.TrimSpace(e.SpeciesID) == "" {
		return garderrors.NewValidationError("especie_id", "species is required")
	}
	if strings.TrimSpace(e.SectorID) == "" {
		return garderrors.NewValidationError("sector_id", "sector is required")
	}

	switch normalizeEntryType(e.EntryType) {
	case EntryPurchase:
		if strings.TrimSpace(e.PurchaseDate) == "" {
			return garderrors.NewValidationError("fecha_compra", "purchase date is required for a purchase entry")
		}
	case EntrySale:
		if strings.TrimSpace(e.SaleDate) == "" {
			return garderrors.NewValidationError("fecha_venta", "sale date is required for a sale entry")
		}
	}
	return nil
}

func ValidateSpecies(s Species) error {
	if strings.TrimSpace(s.ScientificName) == "" {
		return garderrors.NewValidationError("nombre_cientifico", "scientific name is required")
	}
	return nil
}

func ValidateSector(s Sector) error {
	if strings.TrimSpace(s.Name) == "" {
		return garderrors.NewValidationError("nombre", "name is required")
	}
	return nil
}
