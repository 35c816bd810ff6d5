package garden

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const ejemplaresPath = "/ejemplares"

func (c *Client) ListEjemplares(ctx context.Context, query url.Values) ([]Ejemplar, error) {
	if err := c.requireStaff("ListEjemplares"); err != nil {
		return nil, err
	}
	items, err := list[Ejemplar](ctx, c, ejemplaresPath, query, "ejemplares")
	if err != nil {
		return nil, errors.Wrap(err, "[ListEjemplares]")
	}
	return items, nil
}

func (c *Client) GetEjemplar(ctx context.Context, id string) (*Ejemplar, error) {
	if err := c.requireStaff("GetEjemplar"); err != nil {
		return nil, err
	}
	var e Ejemplar
	if err := c.do(ctx, http.MethodGet, resourcePath(ejemplaresPath, id), nil, nil, &e); err != nil {
		return nil, errors.Wrapf(err, "[GetEjemplar] %s", id)
	}
	return &e, nil
}

func (c *Client) CreateEjemplar(ctx context.Context, e Ejemplar) (*Ejemplar, error) {
	if err := c.requireStaff("CreateEjemplar"); err != nil {
		return nil, err
	}
	if err := ValidateEjemplar(e); err != nil {
		return nil, err
	}

	var created Ejemplar
	if err := c.do(ctx, http.MethodPost, ejemplaresPath, nil, e, &created); err != nil {
		return nil, errors.Wrap(err, "[CreateEjemplar]")
	}
	return &created, nil
}

func (c *Client) UpdateEjemplar(ctx context.Context, id string, e Ejemplar) (*Ejemplar, error) {
	if err := c.requireStaff("UpdateEjemplar"); err != nil {
		return nil, err
	}
	if err := ValidateEjemplar(e); err != nil {
		return nil, err
	}

	var updated Ejemplar
	if err := c.do(ctx, http.MethodPut, resourcePath(ejemplaresPath, id), nil, e, &updated); err != nil {
		return nil, errors.Wrapf(err, "[UpdateEjemplar] %s", id)
	}
	return &updated, nil
}

func (c *Client) DeleteEjemplar(ctx context.Context, id string) error {
	if err := c.requireStaff("DeleteEjemplar"); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, resourcePath(ejemplaresPath, id), nil, nil, nil); err != nil {
		return errors.Wrapf(err, "[DeleteEjemplar] %s", id)
	}
	return nil
}
