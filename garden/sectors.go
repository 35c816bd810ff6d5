package garden

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const sectorsPath = "/sectors"

func (c *Client) ListSectors(ctx context.Context, query url.Values) ([]Sector, error) {
	sectors, err := list[Sector](ctx, c, sectorsPath, query, "sectores", "sectors")
	if err != nil {
		return nil, errors.Wrap(err, "[ListSectors]")
	}
	return sectors, nil
}

func (c *Client) GetSector(ctx context.Context, id string) (*Sector, error) {
	var s Sector
	if err := c.do(ctx, http.MethodGet, resourcePath(sectorsPath, id), nil, nil, &s); err != nil {
		return nil, errors.Wrapf(err, "[GetSector] %s", id)
	}
	return &s, nil
}

// SectorByQR resolves the code printed on a sector's QR sign to the sector and its species.
func (c *Client) SectorByQR(ctx context.Context, code string) (*SectorDetail, error) {
	var d SectorDetail
	if err := c.do(ctx, http.MethodGet, resourcePath(sectorsPath+"/qr", code), nil, nil, &d); err != nil {
		return nil, errors.Wrapf(err, "[SectorByQR] %s", code)
	}
	return &d, nil
}

func (c *Client) CreateSector(ctx context.Context, s Sector) (*Sector, error) {
	if err := c.requireStaff("CreateSector"); err != nil {
		return nil, err
	}
	if err := ValidateSector(s); err != nil {
		return nil, err
	}

	var created Sector
	if err := c.do(ctx, http.MethodPost, sectorsPath, nil, s, &created); err != nil {
		return nil, errors.Wrap(err, "[CreateSector]")
	}
	return &created, nil
}

func (c *Client) UpdateSector(ctx context.Context, id string, s Sector) (*Sector, error) {
	if err := c.requireStaff("UpdateSector"); err != nil {
		return nil, err
	}
	if err := ValidateSector(s); err != nil {
		return nil, err
	}

	var updated Sector
	if err := c.do(ctx, http.MethodPut, resourcePath(sectorsPath, id), nil, s, &updated); err != nil {
		return nil, errors.Wrapf(err, "[UpdateSector] %s", id)
	}
	return &updated, nil
}

func (c *Client) DeleteSector(ctx context.Context, id string) error {
	if err := c.requireStaff("DeleteSector"); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, resourcePath(sectorsPath, id), nil, nil, nil); err != nil {
		return errors.Wrapf(err, "[DeleteSector] %s", id)
	}
	return nil
}
