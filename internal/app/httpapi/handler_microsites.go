package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/microsite"
	"github.com/sbmwhylt/wlt-team-space/internal/app/media"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
	svcerrors "github.com/sbmwhylt/wlt-team-space/internal/errors"
	"github.com/sbmwhylt/wlt-team-space/internal/httputil"
)

const (
	msgMicrositeCreated = "Microsite created successfully"
	msgMicrositeUpdated = "Microsite updated successfully"
	msgMicrositeDeleted = "Microsite deleted successfully"
	msgMediaUploaded    = "Media uploaded successfully"

	// multipartMemory is the part of a multipart body kept in memory; the
	// rest spills to temporary files.
	multipartMemory = 32 << 20
)

type micrositeEnvelope struct {
	Msg       string              `json:"msg,omitempty"`
	Microsite microsite.Microsite `json:"microsite"`
}

func (h *handler) micrositeRoutes(r *mux.Router) {
	r.HandleFunc("/microsites", h.listMicrosites).Methods(http.MethodGet)
	r.HandleFunc("/microsites", h.createMicrosite).Methods(http.MethodPost)
	r.HandleFunc("/microsites/slug/{slug}", h.getMicrositeBySlug).Methods(http.MethodGet)
	r.HandleFunc("/microsites/{id}", h.getMicrosite).Methods(http.MethodGet)
	r.HandleFunc("/microsites/{id}", h.updateMicrosite).Methods(http.MethodPut)
	r.Handle("/microsites/{id}", h.adminOnly(h.deleteMicrosite)).Methods(http.MethodDelete)
	r.HandleFunc("/microsites/{id}/uploadMedia", h.uploadMedia).Methods(http.MethodPost)
}

func (h *handler) createMicrosite(w http.ResponseWriter, r *http.Request) {
	var m microsite.Microsite
	if !httputil.DecodeJSON(w, r, &m) {
		return
	}
	created, err := h.app.Microsites.Create(r.Context(), m)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, micrositeEnvelope{Msg: msgMicrositeCreated, Microsite: created})
}

func (h *handler) listMicrosites(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := storage.MicrositeFilter{
		Type:   strings.ToLower(strings.TrimSpace(q.Get("type"))),
		Search: strings.TrimSpace(q.Get("q")),
		Page:   page,
	}
	list, err := h.app.Microsites.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"microsites": list})
}

func (h *handler) getMicrosite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.app.Microsites.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, micrositeEnvelope{Microsite: m})
}

func (h *handler) getMicrositeBySlug(w http.ResponseWriter, r *http.Request) {
	m, err := h.app.Microsites.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, micrositeEnvelope{Microsite: m})
}

func (h *handler) updateMicrosite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch microsite.Patch
	if !httputil.DecodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.app.Microsites.Update(r.Context(), id, patch)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, micrositeEnvelope{Msg: msgMicrositeUpdated, Microsite: updated})
}

func (h *handler) deleteMicrosite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.app.Microsites.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"msg": msgMicrositeDeleted})
}

// uploadMedia accepts multipart "files" parts and attaches each to the
// microsite field named by the "field" form value.
func (h *handler) uploadMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, r, svcerrors.PayloadTooLarge(h.opts.MaxUploadBytes))
			return
		}
		httputil.BadRequest(w, "Invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	field, err := microsite.ParseMediaField(r.FormValue("field"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httputil.BadRequest(w, "No files uploaded")
		return
	}

	var (
		updated microsite.Microsite
		urls    = make([]string, 0, len(headers))
	)
	for _, fh := range headers {
		url, m, err := h.uploadPart(r, id, field, fh)
		if err != nil {
			httputil.WriteError(w, r, err)
			return
		}
		urls = append(urls, url)
		updated = m
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"msg":       msgMediaUploaded,
		"urls":      urls,
		"microsite": updated,
	})
}

func (h *handler) uploadPart(r *http.Request, id int64, field microsite.MediaField, fh *multipart.FileHeader) (string, microsite.Microsite, error) {
	f, err := fh.Open()
	if err != nil {
		return "", microsite.Microsite{}, svcerrors.BadRequest("Unreadable upload part")
	}
	defer f.Close()

	m, url, err := h.app.Microsites.UploadMedia(r.Context(), id, field, media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	return url, m, err
}
