package garden

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jrsteele09/cactus-garden/internal/utils"
)

// Entry types recorded on an ejemplar.
const (
	EntryPurchase    = "compra"
	EntrySale        = "venta"
	EntryDonation    = "donacion"
	EntryPropagation = "propagacion"
)

// The garden schema has been renamed several times; each DTO reads every known
// spelling once, on ingestion, and writes only the canonical one.
var (
	idAliases             = []string{"id", "_id", "uuid"}
	commonNameAliases     = []string{"nombre_común", "nombre_comun", "nombre", "name", "common_name"}
	scientificNameAliases = []string{"nombre_científico", "nombre_cientifico", "scientific_name"}
	descriptionAliases    = []string{"descripción", "descripcion", "description"}
	imageAliases          = []string{"imagen_url", "imagen", "foto", "image_url", "image", "photo"}
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Species struct {
	ID             string `json:"id,omitempty"`
	ScientificName string `json:"nombre_cientifico"`
	CommonName     string `json:"nombre_comun,omitempty"`
	Family         string `json:"familia,omitempty"`
	Origin         string `json:"origen,omitempty"`
	Description    string `json:"descripcion,omitempty"`
	Care           string `json:"cuidados,omitempty"`
	ImageURL       string `json:"imagen_url,omitempty"`
	Endemic        bool   `json:"endemica"`
}

func (s *Species) UnmarshalJSON(data []byte) error {
	m, err := fields(data)
	if err != nil {
		return err
	}
	*s = Species{
		ID:             utils.FirstString(m, idAliases...),
		ScientificName: utils.FirstString(m, scientificNameAliases...),
		CommonName:     utils.FirstString(m, commonNameAliases...),
		Family:         utils.FirstString(m, "familia", "family"),
		Origin:         utils.FirstString(m, "origen", "origin"),
		Description:    utils.FirstString(m, descriptionAliases...),
		Care:           utils.FirstString(m, "cuidados", "care"),
		ImageURL:       utils.FirstString(m, imageAliases...),
		Endemic:        firstBool(m, "endemica", "endémica", "endemic"),
	}
	return nil
}

// DisplayName is the label screens show: the common name when there is one.
func (s Species) DisplayName() string {
	if s.CommonName != "" {
		return s.CommonName
	}
	return s.ScientificName
}

type Sector struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
	QRCode      string `json:"qr_code,omitempty"`
	Location    string `json:"ubicacion,omitempty"`
	ImageURL    string `json:"imagen_url,omitempty"`
}

func (s *Sector) UnmarshalJSON(data []byte) error {
	m, err := fields(data)
	if err != nil {
		return err
	}
	*s = sectorFrom(m)
	return nil
}

func sectorFrom(m map[string]json.RawMessage) Sector {
	return Sector{
		ID:          utils.FirstString(m, idAliases...),
		Name:        utils.FirstString(m, "nombre", "name", "titulo", "title"),
		Description: utils.FirstString(m, descriptionAliases...),
		QRCode:      utils.FirstString(m, "qr_code", "codigo_qr", "código_qr", "codigo", "code"),
		Location:    utils.FirstString(m, "ubicacion", "ubicación", "location"),
		ImageURL:    utils.FirstString(m, imageAliases...),
	}
}

// SectorDetail is a sector with the species planted in it, as returned by a QR lookup.
type SectorDetail struct {
	Sector  Sector    `json:"sector"`
	Species []Species `json:"especies"`
}

// UnmarshalJSON accepts the sector either nested under "sector" or flattened next
// to the species list.
func (d *SectorDetail) UnmarshalJSON(data []byte) error {
	m, err := fields(data)
	if err != nil {
		return err
	}

	*d = SectorDetail{}
	if raw := utils.FirstRaw(m, "sector"); raw != nil && isObject(raw) {
		if err := json.Unmarshal(raw, &d.Sector); err != nil {
			return err
		}
	} else {
		d.Sector = sectorFrom(m)
	}

	if raw := utils.FirstRaw(m, "especies", "species", "plantas"); raw != nil {
		if err := json.Unmarshal(raw, &d.Species); err != nil {
			return err
		}
	}
	if d.Species == nil {
		d.Species = []Species{}
	}
	return nil
}

type Ejemplar struct {
	ID            string   `json:"id,omitempty"`
	SpeciesID     string   `json:"especie_id"`
	SectorID      string   `json:"sector_id"`
	EntryType     string   `json:"tipo_ingreso,omitempty"`
	PurchaseDate  string   `json:"fecha_compra,omitempty"`
	PurchasePrice *float64 `json:"precio_compra,omitempty"`
	SaleDate      string   `json:"fecha_venta,omitempty"`
	SalePrice     *float64 `json:"precio_venta,omitempty"`
	Size          string   `json:"tamano,omitempty"`
	Notes         string   `json:"notas,omitempty"`
	// Species is set when the API embeds the related record instead of an id.
	Species *Species `json:"especie,omitempty"`
}

func (e *Ejemplar) UnmarshalJSON(data []byte) error {
	m, err := fields(data)
	if err != nil {
		return err
	}

	*e = Ejemplar{
		ID:            utils.FirstString(m, idAliases...),
		SpeciesID:     utils.FirstString(m, "especie_id", "species_id"),
		SectorID:      utils.FirstString(m, "sector_id"),
		EntryType:     normalizeEntryType(utils.FirstString(m, "tipo_ingreso", "tipo", "entry_type", "type")),
		PurchaseDate:  utils.FirstString(m, "fecha_compra", "purchase_date"),
		PurchasePrice: utils.FirstFloat(m, "precio_compra", "purchase_price"),
		SaleDate:      utils.FirstString(m, "fecha_venta", "sale_date"),
		SalePrice:     utils.FirstFloat(m, "precio_venta", "sale_price"),
		Size:          utils.FirstString(m, "tamaño", "tamano", "size"),
		Notes:         utils.FirstString(m, "notas", "observaciones", "notes"),
	}

	// "especie" and "sector" hold either an id or the embedded record.
	if raw := utils.FirstRaw(m, "especie", "species"); raw != nil {
		if isObject(raw) {
			var sp Species
			if err := json.Unmarshal(raw, &sp); err != nil {
				return err
			}
			e.Species = &sp
			if e.SpeciesID == "" {
				e.SpeciesID = sp.ID
			}
		} else if e.SpeciesID == "" {
			e.SpeciesID = utils.FirstString(m, "especie", "species")
		}
	}
	if raw := utils.FirstRaw(m, "sector"); raw != nil && e.SectorID == "" {
		if isObject(raw) {
			e.SectorID = utils.FirstString(mustFields(raw), idAliases...)
		} else {
			e.SectorID = utils.FirstString(m, "sector")
		}
	}
	return nil
}

type AuditLog struct {
	ID        string          `json:"id"`
	Action    string          `json:"accion"`
	Entity    string          `json:"entidad"`
	EntityID  string          `json:"entidad_id,omitempty"`
	UserEmail string          `json:"usuario,omitempty"`
	Timestamp string          `json:"fecha"`
	Details   json.RawMessage `json:"detalles,omitempty"`
}

func (a *AuditLog) UnmarshalJSON(data []byte) error {
	m, err := fields(data)
	if err != nil {
		return err
	}

	*a = AuditLog{
		ID:        utils.FirstString(m, idAliases...),
		Action:    utils.FirstString(m, "accion", "acción", "action"),
		Entity:    utils.FirstString(m, "entidad", "entity", "tabla", "table_name"),
		EntityID:  utils.FirstString(m, "entidad_id", "entity_id", "registro_id", "record_id"),
		UserEmail: utils.FirstString(m, "usuario", "user_email", "email", "user"),
		Timestamp: utils.FirstString(m, "fecha", "timestamp", "created_at"),
		Details:   utils.FirstRaw(m, "detalles", "details", "cambios", "changes"),
	}
	if a.UserEmail == "" {
		if raw := utils.FirstRaw(m, "usuario", "user"); raw != nil && isObject(raw) {
			a.UserEmail = utils.FirstString(mustFields(raw), "email")
		}
	}
	return nil
}

func normalizeEntryType(v string) string {
	switch strings.ToLower(v) {
	case "purchase", "compra":
		return EntryPurchase
	case "sale", "venta":
		return EntrySale
	case "donation", "donacion", "donación":
		return EntryDonation
	case "propagation", "propagacion", "propagación":
		return EntryPropagation
	default:
		return strings.ToLower(v)
	}
}

func fields(data []byte) (map[string]json.RawMessage, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func mustFields(data []byte) map[string]json.RawMessage {
	m, err := fields(data)
	if err != nil {
		return map[string]json.RawMessage{}
	}
	return m
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func firstBool(m map[string]json.RawMessage, aliases ...string) bool {
	raw := utils.FirstRaw(m, aliases...)
	if raw == nil {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	switch strings.ToLower(strings.Trim(string(raw), `" `)) {
	case "1", "true", "si", "sí", "yes":
		return true
	}
	return false
}
