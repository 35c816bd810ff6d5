package kiosk

import (
	"context"
	"io"
	"net/http"

	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const maxImageBytes = 10 << 20

// ErrImageTooLarge is returned for an image over the loader's size limit.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Image is a fetched image body.
type Image struct {
	ContentType string
	Data        []byte
	// Authenticated is set when only the token-bearing fetch succeeded.
	Authenticated bool
}

// ImageLoader fetches garden images, falling back to an authenticated fetch only
// when the plain one fails.
type ImageLoader struct {
	client     *http.Client
	authClient *http.Client
	maxBytes   int64
	log        zerolog.Logger
}

// NewImageLoader builds a loader. tokens may be nil, in which case there is no fallback.
func NewImageLoader(client *http.Client, tokens oauth2.TokenSource, opts ...Option) *ImageLoader {
	if client == nil {
		client = http.DefaultClient
	}
	o := buildOptions(opts)

	l := &ImageLoader{client: client, maxBytes: o.maxImageBytes, log: o.log}
	if tokens != nil {
		l.authClient = &http.Client{
			Timeout:   client.Timeout,
			Transport: &oauth2.Transport{Source: tokens, Base: client.Transport},
		}
	}
	return l
}

// Load tries the direct fetch and then, sequentially, the token-bearing one.
func (l *ImageLoader) Load(ctx context.Context, url string) (*Image, error) {
	img, err := fetchImage(ctx, l.client, url, l.maxBytes)
	if err == nil {
		return img, nil
	}
	if l.authClient == nil || errors.Is(err, ErrImageTooLarge) {
		return nil, err
	}

	l.log.Debug().Err(err).Str("url", url).Msg("direct image fetch failed, retrying with token")
	img, authErr := fetchImage(ctx, l.authClient, url, l.maxBytes)
	if authErr != nil {
		return nil, errors.Wrapf(authErr, "[ImageLoader] direct fetch: %v", err)
	}
	img.Authenticated = true
	return img, nil
}

func fetchImage(ctx context.Context, client *http.Client, url string, limit int64) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[fetchImage] build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(garderrors.ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, garderrors.FromResponse(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.Wrap(garderrors.ErrTransport, err.Error())
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrImageTooLarge, "[fetchImage] %s over %d bytes", url, limit)
	}
	return &Image{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}
