package web

import (
	"io"
	"net/http"

	"celltracker/internal/application/orchestrators"
	"celltracker/internal/application/projections"
	"celltracker/internal/domain/apperror"
)

// leaderRequest is the JSON body of create and update.
type leaderRequest struct {
	Name          string  `json:"name"`
	Zone          string  `json:"zone"`
	CellDay       *string `json:"cell_day"`
	ContactNumber string  `json:"contact_number"`
	Email         string  `json:"email"`
	Address       string  `json:"address"`
	IsActive      *bool   `json:"is_active"`
}

// handleSearchLeaders handles GET /api/search-leaders
func (s *server) handleSearchLeaders(w http.ResponseWriter, r *http.Request) {
	results, err := projections.QuerySearchLeaders(r.Context(), r.URL.Query().Get("q"), s.leaderDetailDeps())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleListLeaders handles GET /api/leaders
func (s *server) handleListLeaders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	activeOnly := true
	if v, ok := q["active_only"]; ok {
		activeOnly = len(v) > 0 && v[0] == "true"
	}
	items, err := projections.QueryLeaderList(r.Context(), projections.LeaderListQuery{
		Zone:       q.Get("zone"),
		ActiveOnly: activeOnly,
	}, projections.LeaderListDeps{
		LeaderStore:    s.stores.LeaderStore,
		ActivityReader: s.stores.RecordStore,
		Pictures:       s.opts.Assets,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleGetLeader handles GET /api/leader/{id}
func (s *server) handleGetLeader(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, "")
		return
	}
	view, err := projections.QueryLeaderDetail(r.Context(), id, s.leaderDetailDeps())
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleCreateLeader handles POST /api/leader
func (s *server) handleCreateLeader(w http.ResponseWriter, r *http.Request) {
	const prefix = "Error creating leader: "
	var req leaderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}

	cellDay := ""
	if req.CellDay != nil {
		cellDay = *req.CellDay
	}
	id, err := orchestrators.ExecuteCreateLeader(r.Context(), orchestrators.CreateLeaderInput{
		Name:          req.Name,
		Zone:          req.Zone,
		CellDay:       cellDay,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		Address:       req.Address,
	}, orchestrators.CreateLeaderDeps{LeaderStore: s.stores.LeaderStore, Now: s.opts.Now})
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}
	writeResult(w, http.StatusOK, true, "Leader created successfully!", map[string]any{"leader_id": id})
}

// handleUpdateLeader handles PUT /api/leader/{id}
func (s *server) handleUpdateLeader(w http.ResponseWriter, r *http.Request) {
	const prefix = "Error updating leader: "
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}
	var req leaderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}

	err = orchestrators.ExecuteUpdateLeader(r.Context(), orchestrators.UpdateLeaderInput{
		ID:            id,
		Name:          req.Name,
		Zone:          req.Zone,
		CellDay:       req.CellDay,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      req.IsActive,
	}, orchestrators.UpdateLeaderDeps{LeaderStore: s.stores.LeaderStore, Now: s.opts.Now})
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}
	writeResult(w, http.StatusOK, true, "Leader updated successfully!", nil)
}

// handleDeleteLeader handles DELETE /api/leader/{id}/delete
func (s *server) handleDeleteLeader(w http.ResponseWriter, r *http.Request) {
	const prefix = "Error deleting leader: "
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}
	err = orchestrators.ExecuteDeleteLeader(r.Context(), id, orchestrators.DeleteLeaderDeps{
		LeaderStore:   s.stores.LeaderStore,
		RecordCounter: s.stores.RecordStore,
		Assets:        s.opts.Assets,
	})
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, prefix)
		return
	}
	writeResult(w, http.StatusOK, true, "Leader deleted successfully!", nil)
}

// handleUploadPicture handles POST /api/leader/{id}/upload-picture
func (s *server) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	const prefix = "Error uploading picture: "
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}
	maxBytes := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeResult(w, http.StatusBadRequest, false, "File too large or malformed upload", nil)
		return
	}
	file, header, err := r.FormFile("profile_picture")
	if err != nil {
		writeResult(w, http.StatusBadRequest, false, "No file provided", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		writeError(w, r, apperror.Validation("could not read upload"), http.StatusBadRequest, prefix)
		return
	}

	res, err := orchestrators.ExecuteUploadPicture(r.Context(), orchestrators.UploadPictureInput{
		LeaderID: id,
		Filename: header.Filename,
		Data:     data,
	}, s.pictureDeps())
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, prefix)
		return
	}
	writeResult(w, http.StatusOK, true, "Profile picture uploaded successfully!", map[string]any{
		"profile_picture":     res.Filename,
		"profile_picture_url": res.URL,
	})
}

// handleRemovePicture handles POST /api/leader/{id}/remove-picture
func (s *server) handleRemovePicture(w http.ResponseWriter, r *http.Request) {
	const prefix = "Error removing picture: "
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}
	if err := orchestrators.ExecuteRemovePicture(r.Context(), id, s.pictureDeps()); err != nil {
		writeError(w, r, err, http.StatusInternalServerError, prefix)
		return
	}
	writeResult(w, http.StatusOK, true, "Profile picture removed successfully!", nil)
}

// handleZones handles GET /api/zones
func (s *server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Directory.SortedZones())
}

func (s *server) leaderDetailDeps() projections.LeaderDetailDeps {
	return projections.LeaderDetailDeps{LeaderStore: s.stores.LeaderStore, Pictures: s.opts.Assets}
}

func (s *server) pictureDeps() orchestrators.PictureDeps {
	return orchestrators.PictureDeps{
		LeaderStore: s.stores.LeaderStore,
		Assets:      s.opts.Assets,
		MaxBytes:    s.maxUploadBytes(),
		Now:         s.opts.Now,
	}
}

func (s *server) maxUploadBytes() int64 {
	if s.opts.MaxUploadBytes > 0 {
		return s.opts.MaxUploadBytes
	}
	return orchestrators.DefaultMaxPictureBytes
}
