package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"candidate-screening/internal/jobs"
	"candidate-screening/internal/models"
)

const multipartMemory = 32 << 20

type uploadResponse struct {
	CVID     string `json:"cv_id"`
	ReportID string `json:"report_id"`
}

type jobStatusResponse struct {
	ID     string           `json:"id"`
	Status models.JobStatus `json:"status"`
}

type jobResultResponse struct {
	ID     string                   `json:"id"`
	Status models.JobStatus         `json:"status"`
	Result *models.EvaluationResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "AI Candidate Screening Service is running."})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.kb != nil {
		resp["knowledge_chunks"] = s.kb.Count()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleUpload stores the CV and project report and returns their ids.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	ids := make(map[string]string, 2)
	for _, field := range []string{"cv", "project_report"} {
		file, header, err := r.FormFile(field)
		if err != nil {
			verr := &ErrValidation{Field: field, Message: "file is required"}
			s.errorResponse(w, HTTPStatus(verr), verr.Error())
			return
		}
		id, err := s.files.Save(header.Filename, file)
		file.Close()
		if err != nil {
			log.Error().Err(err).Str("field", field).Msg("File upload failed")
			s.errorResponse(w, http.StatusInternalServerError, "An error occurred during file upload.")
			return
		}
		ids[field] = id
	}

	s.jsonResponse(w, http.StatusCreated, uploadResponse{CVID: ids["cv"], ReportID: ids["project_report"]})
}

// handleEvaluate queues an evaluation and returns immediately.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req jobs.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.JobTitle = strings.TrimSpace(req.JobTitle)
	if err := s.validateRequest(req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	job, err := s.runner.Submit(r.Context(), req)
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusNotFound {
			s.errorResponse(w, status, "One or both document IDs not found.")
			return
		}
		log.Error().Err(err).Msg("Failed to queue evaluation")
		s.errorResponse(w, status, "failed to queue evaluation")
		return
	}

	s.jsonResponse(w, http.StatusAccepted, jobStatusResponse{ID: job.ID, Status: job.Status})
}

func (s *Server) validateRequest(req jobs.Request) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ErrValidation{Field: verrs[0].Field(), Message: "failed " + verrs[0].Tag()}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusNotFound {
			s.errorResponse(w, status, "Job not found.")
			return
		}
		log.Error().Err(err).Msg("Failed to load job")
		s.errorResponse(w, status, "failed to load job")
		return
	}
	s.jsonResponse(w, http.StatusOK, jobResultResponse{
		ID:     job.ID,
		Status: job.Status,
		Result: job.Result,
		Error:  job.Error,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status := models.JobStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.JobQueued, models.JobProcessing, models.JobCompleted, models.JobFailed:
	default:
		verr := &ErrValidation{Field: "status", Message: "unknown status " + string(status)}
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}

	list, err := s.jobs.List(r.Context(), status)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list jobs")
		s.errorResponse(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": list, "count": len(list)})
}
