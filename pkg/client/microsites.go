package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
)

// Microsites is the resource client for landing pages.
type Microsites struct {
	c     *Client
	mu    sync.RWMutex
	items []Microsite
}

type micrositeEnvelope struct {
	Msg       string    `json:"msg"`
	Microsite Microsite `json:"microsite"`
}

// UploadFile is one file sent to UploadMedia.
type UploadFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Get returns all microsites, reusing the cached list unless force is set.
func (r *Microsites) Get(ctx context.Context, force bool) ([]Microsite, error) {
	if !force {
		if cached, ok := r.c.cache.Get(EntityMicrosites); ok {
			list := append([]Microsite(nil), cached.([]Microsite)...)
			r.setItems(list)
			return list, nil
		}
	}
	var resp struct {
		Microsites []Microsite `json:"microsites"`
	}
	if err := r.c.do(ctx, http.MethodGet, "/microsites", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Microsites == nil {
		resp.Microsites = []Microsite{}
	}
	r.c.cache.Set(EntityMicrosites, append([]Microsite(nil), resp.Microsites...))
	r.setItems(resp.Microsites)
	return append([]Microsite(nil), resp.Microsites...), nil
}

// GetByID fetches one microsite.
func (r *Microsites) GetByID(ctx context.Context, id int64) (Microsite, error) {
	var resp micrositeEnvelope
	err := r.c.do(ctx, http.MethodGet, fmt.Sprintf("/microsites/%d", id), nil, &resp)
	return resp.Microsite, err
}

// GetBySlug fetches the public page for slug. No session is required.
func (r *Microsites) GetBySlug(ctx context.Context, slug string) (Microsite, error) {
	var resp micrositeEnvelope
	err := r.c.do(ctx, http.MethodGet, "/microsites/slug/"+url.PathEscape(slug), nil, &resp)
	return resp.Microsite, err
}

// Create stores m and appends the result locally.
func (r *Microsites) Create(ctx context.Context, m Microsite) (Microsite, error) {
	var resp micrositeEnvelope
	if err := r.c.do(ctx, http.MethodPost, "/microsites", m, &resp); err != nil {
		return Microsite{}, err
	}
	r.c.cache.Invalidate(EntityMicrosites)
	r.mu.Lock()
	r.items = append(r.items, resp.Microsite)
	r.mu.Unlock()
	return resp.Microsite, nil
}

// Update applies patch and replaces the local copy.
func (r *Microsites) Update(ctx context.Context, id int64, patch MicrositePatch) (Microsite, error) {
	var resp micrositeEnvelope
	if err := r.c.do(ctx, http.MethodPut, fmt.Sprintf("/microsites/%d", id), patch, &resp); err != nil {
		return Microsite{}, err
	}
	r.replace(resp.Microsite)
	return resp.Microsite, nil
}

// Remove deletes a microsite and filters it out locally.
func (r *Microsites) Remove(ctx context.Context, id int64) error {
	if err := r.c.do(ctx, http.MethodDelete, fmt.Sprintf("/microsites/%d", id), nil, nil); err != nil {
		return err
	}
	r.c.cache.Invalidate(EntityMicrosites)
	r.mu.Lock()
	kept := r.items[:0]
	for _, m := range r.items {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	r.items = kept
	r.mu.Unlock()
	return nil
}

// UploadMedia sends files as multipart "files" parts for field (banner,
// logo, marketingImgs or marketingVids) and returns the updated microsite
// with the stored URLs.
func (r *Microsites) UploadMedia(ctx context.Context, id int64, field string, files ...UploadFile) (Microsite, []string, error) {
	if len(files) == 0 {
		return Microsite{}, nil, fmt.Errorf("no files to upload")
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		if err := mw.WriteField("field", field); err != nil {
			return Microsite{}, nil, err
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return Microsite{}, nil, err
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return Microsite{}, nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return Microsite{}, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.c.baseURL+fmt.Sprintf("/microsites/%d/uploadMedia", id), &buf)
	if err != nil {
		return Microsite{}, nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		URLs      []string  `json:"urls"`
		Microsite Microsite `json:"microsite"`
	}
	if err := r.c.send(req, &resp); err != nil {
		return Microsite{}, nil, err
	}
	r.replace(resp.Microsite)
	return resp.Microsite, resp.URLs, nil
}

// Items returns a copy of the local list.
func (r *Microsites) Items() []Microsite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Microsite(nil), r.items...)
}

func (r *Microsites) replace(m Microsite) {
	r.c.cache.Invalidate(EntityMicrosites)
	r.mu.Lock()
	for i := range r.items {
		if r.items[i].ID == m.ID {
			r.items[i] = m
		}
	}
	r.mu.Unlock()
}

func (r *Microsites) setItems(list []Microsite) {
	r.mu.Lock()
	r.items = append([]Microsite(nil), list...)
	r.mu.Unlock()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
