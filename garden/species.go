package garden

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const speciesPath = "/species"

// ListSpecies returns the full species catalogue. query is passed through unmodified.
func (c *Client) ListSpecies(ctx context.Context, query url.Values) ([]Species, error) {
	species, err := list[Species](ctx, c, speciesPath, query, "especies", "species")
	if err != nil {
		return nil, errors.Wrap(err, "[ListSpecies]")
	}
	return species, nil
}

func (c *Client) GetSpecies(ctx context.Context, id string) (*Species, error) {
	var s Species
	if err := c.do(ctx, http.MethodGet, resourcePath(speciesPath, id), nil, nil, &s); err != nil {
		return nil, errors.Wrapf(err, "[GetSpecies] %s", id)
	}
	return &s, nil
}

func (c *Client) CreateSpecies(ctx context.Context, s Species) (*Species, error) {
	if err := c.requireStaff("CreateSpecies"); err != nil {
		return nil, err
	}
	if err := ValidateSpecies(s); err != nil {
		return nil, err
	}

	var created Species
	if err := c.do(ctx, http.MethodPost, speciesPath, nil, s, &created); err != nil {
		return nil, errors.Wrap(err, "[CreateSpecies]")
	}
	return &created, nil
}

func (c *Client) UpdateSpecies(ctx context.Context, id string, s Species) (*Species, error) {
	if err := c.requireStaff("UpdateSpecies"); err != nil {
		return nil, err
	}
	if err := ValidateSpecies(s); err != nil {
		return nil, err
	}

	var updated Species
	if err := c.do(ctx, http.MethodPut, resourcePath(speciesPath, id), nil, s, &updated); err != nil {
		return nil, errors.Wrapf(err, "[UpdateSpecies] %s", id)
	}
	return &updated, nil
}

func (c *Client) DeleteSpecies(ctx context.Context, id string) error {
	if err := c.requireStaff("DeleteSpecies"); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, resourcePath(speciesPath, id), nil, nil, nil); err != nil {
		return errors.Wrapf(err, "[DeleteSpecies] %s", id)
	}
	return nil
}
