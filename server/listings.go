package server

import (
	"cmp"

	"github.com/jrsteele09/cactus-garden/garden"
	"github.com/jrsteele09/cactus-garden/internal/utils"
	"github.com/jrsteele09/cactus-garden/listing"
)

var speciesListing = listing.Options[garden.Species]{
	SortKeys: map[string]func(a, b garden.Species) int{
		"id":                func(a, b garden.Species) int { return listing.CompareNumeric(a.ID, b.ID) },
		"nombre":            func(a, b garden.Species) int { return listing.CompareText(a.DisplayName(), b.DisplayName()) },
		"nombre_cientifico": func(a, b garden.Species) int { return listing.CompareText(a.ScientificName, b.ScientificName) },
		"familia":           func(a, b garden.Species) int { return listing.CompareText(a.Family, b.Family) },
	},
	DefaultSort: "nombre",
	SearchText: func(s garden.Species) []string {
		return []string{s.CommonName, s.ScientificName, s.Family, s.Origin}
	},
}

var sectorListing = listing.Options[garden.Sector]{
	SortKeys: map[string]func(a, b garden.Sector) int{
		"id":      func(a, b garden.Sector) int { return listing.CompareNumeric(a.ID, b.ID) },
		"nombre":  func(a, b garden.Sector) int { return listing.CompareText(a.Name, b.Name) },
		"qr_code": func(a, b garden.Sector) int { return listing.CompareText(a.QRCode, b.QRCode) },
	},
	DefaultSort: "nombre",
	SearchText: func(s garden.Sector) []string {
		return []string{s.Name, s.QRCode, s.Location, s.Description}
	},
}

var ejemplarListing = listing.Options[garden.Ejemplar]{
	SortKeys: map[string]func(a, b garden.Ejemplar) int{
		"id":            func(a, b garden.Ejemplar) int { return listing.CompareNumeric(a.ID, b.ID) },
		"especie":       func(a, b garden.Ejemplar) int { return listing.CompareText(ejemplarSpeciesName(a), ejemplarSpeciesName(b)) },
		"sector_id":     func(a, b garden.Ejemplar) int { return listing.CompareNumeric(a.SectorID, b.SectorID) },
		"fecha_compra":  func(a, b garden.Ejemplar) int { return cmp.Compare(a.PurchaseDate, b.PurchaseDate) },
		"tipo_ingreso":  func(a, b garden.Ejemplar) int { return cmp.Compare(a.EntryType, b.EntryType) },
		"precio_compra": func(a, b garden.Ejemplar) int { return cmp.Compare(utils.Value(a.PurchasePrice), utils.Value(b.PurchasePrice)) },
	},
	DefaultSort: "id",
	SearchText: func(e garden.Ejemplar) []string {
		return []string{e.ID, ejemplarSpeciesName(e), e.EntryType, e.Notes}
	},
}

var auditLogListing = listing.Options[garden.AuditLog]{
	SortKeys: map[string]func(a, b garden.AuditLog) int{
		"fecha":   func(a, b garden.AuditLog) int { return cmp.Compare(a.Timestamp, b.Timestamp) },
		"accion":  func(a, b garden.AuditLog) int { return cmp.Compare(a.Action, b.Action) },
		"entidad": func(a, b garden.AuditLog) int { return cmp.Compare(a.Entity, b.Entity) },
		"usuario": func(a, b garden.AuditLog) int { return listing.CompareText(a.UserEmail, b.UserEmail) },
	},
	DefaultSort: "fecha",
	SearchText: func(l garden.AuditLog) []string {
		return []string{l.Action, l.Entity, l.EntityID, l.UserEmail}
	},
}

func ejemplarSpeciesName(e garden.Ejemplar) string {
	if e.Species != nil {
		return e.Species.DisplayName()
	}
	return e.SpeciesID
}
