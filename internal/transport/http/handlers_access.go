package httptransport

import (
	"errors"
	"io"
	"net/http"

	"collegeportal/internal/verification"
	dErrors "collegeportal/pkg/domain-errors"
	"collegeportal/pkg/platform/httputil"
	"collegeportal/pkg/requestcontext"
)

// artifactField is the multipart field carrying the ID card image.
const artifactField = "id_card"

var acceptedArtifactTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// handleProjectDetail opens the detail view of a project. Every visit starts
// from a locked gate.
func (h *Handler) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	p, ok := h.project(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	g := h.views.Enter(ctx, requestcontext.ClientID(ctx), p, identity.ID)
	httputil.WriteJSON(w, http.StatusOK, newAccessResponse(p, g))
}

func (h *Handler) handleAccessStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	p, ok := h.project(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	g := h.views.CurrentOrEnter(ctx, requestcontext.ClientID(ctx), p, identity.ID)
	httputil.WriteJSON(w, http.StatusOK, newAccessResponse(p, g))
}

// handleSubmitAccess runs one verification attempt with the uploaded ID
// card. The upload is discarded once the attempt resolves.
func (h *Handler) handleSubmitAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	p, ok := h.project(w, r)
	if !ok {
		return
	}

	artifact, err := h.readArtifact(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected ID card upload",
			"project_id", p.ID,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	g := h.views.CurrentOrEnter(ctx, requestcontext.ClientID(ctx), p, identity.ID)
	if _, err := g.Submit(ctx, artifact); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newAccessResponse(p, g))
}

// readArtifact extracts the ID card from the multipart body. A missing file
// yields an empty artifact, which the gate rejects.
func (h *Handler) readArtifact(w http.ResponseWriter, r *http.Request) (verification.Artifact, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxArtifactBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxArtifactBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return verification.Artifact{}, dErrors.New(dErrors.CodeValidation, "ID card image is too large")
		}
		return verification.Artifact{}, dErrors.New(dErrors.CodeBadRequest, "expected a multipart form upload")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(artifactField)
	if errors.Is(err, http.ErrMissingFile) {
		return verification.Artifact{}, nil
	}
	if err != nil {
		return verification.Artifact{}, dErrors.New(dErrors.CodeBadRequest, "could not read ID card upload")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !acceptedArtifactTypes[contentType] {
		return verification.Artifact{}, dErrors.New(dErrors.CodeValidation, "ID card must be a JPEG or PNG image")
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxArtifactBytes+1))
	if err != nil {
		return verification.Artifact{}, dErrors.New(dErrors.CodeBadRequest, "could not read ID card upload")
	}
	if int64(len(data)) > h.maxArtifactBytes {
		return verification.Artifact{}, dErrors.New(dErrors.CodeValidation, "ID card image is too large")
	}

	return verification.Artifact{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
