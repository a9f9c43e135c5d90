package server

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-pipeline/internal/cache"
	"github.com/jonathan/resume-pipeline/internal/pipeline"
	"github.com/jonathan/resume-pipeline/internal/stages"
)

const maxUploadSize = 10 << 20 // 10 MB

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// GenerateRequest carries the form fields of a generation request.
type GenerateRequest struct {
	JobURL      string `validate:"required,url"`
	CompanyURL  string `validate:"omitempty,url"`
	CompanyName string `validate:"omitempty,max=200"`

	Force            bool
	UseAdvancedModel bool
	SemanticFilter   bool
	UseBrowser       bool
	FastCrawl        bool
}

// overridableArtifacts are artifact keys a caller may inject directly
// through form fields, bypassing the stage that would produce them.
var overridableArtifacts = []string{
	cache.KeyFullAccomplishments,
	cache.KeyPersonalDetails,
	cache.KeyCompanySiteText,
	cache.KeyCompanySummary,
	cache.KeyJobDescriptionText,
	cache.KeyJobIndustry,
}

// handleGenerate runs the full pipeline on an uploaded resume and responds
// with the tailored document as a .docx attachment.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	opts, workDir, ok := s.parseGenerateRequest(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(workDir)

	runner, err := s.newRunner(filepath.Join(workDir, "cache"))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts.OutputPath = filepath.Join(workDir, "resume.docx")
	if _, err := runner.Run(r.Context(), opts); err != nil {
		log.Printf("Pipeline run failed: %v", err)
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	rendered, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "reading rendered document: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="resume.docx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(rendered)))
	if _, err := w.Write(rendered); err != nil {
		log.Printf("Error writing document response: %v", err)
	}
}

// handleGenerateStream runs the pipeline and streams per-stage progress as
// Server-Sent Events, finishing with the tailored resume as markdown.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	opts, workDir, ok := s.parseGenerateRequest(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(workDir)

	runner, err := s.newRunner(filepath.Join(workDir, "cache"))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("stage", event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}

	doc, err := runner.Run(r.Context(), opts)
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		sse.WriteError(err.Error())
		return
	}

	sse.WriteComplete(doc.Markdown())
}

// parseGenerateRequest validates a multipart generation request and stages
// its uploads in a fresh working directory. On failure it writes the error
// response and returns ok=false; on success the caller owns workDir.
func (s *Server) parseGenerateRequest(w http.ResponseWriter, r *http.Request) (pipeline.RunOptions, string, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return pipeline.RunOptions{}, "", false
	}

	req := GenerateRequest{
		JobURL:           r.FormValue("job_url"),
		CompanyURL:       r.FormValue("company_url"),
		CompanyName:      r.FormValue("company_name"),
		Force:            formBool(r, "force"),
		UseAdvancedModel: formBool(r, "advanced_model"),
		SemanticFilter:   formBool(r, "semantic_filter"),
		UseBrowser:       formBool(r, "use_browser"),
		FastCrawl:        formBool(r, "fast_crawl"),
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return pipeline.RunOptions{}, "", false
	}

	workDir, err := os.MkdirTemp("", "resume-run-")
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "creating working directory: "+err.Error())
		return pipeline.RunOptions{}, "", false
	}

	resumePath, err := saveUpload(r, "resume", workDir)
	if err != nil {
		os.RemoveAll(workDir)
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return pipeline.RunOptions{}, "", false
	}

	opts := pipeline.RunOptions{
		ResumePath:       resumePath,
		JobURL:           req.JobURL,
		CompanyURL:       req.CompanyURL,
		CompanyName:      req.CompanyName,
		Force:            req.Force,
		UseAdvancedModel: req.UseAdvancedModel,
		SemanticFilter:   req.SemanticFilter,
		UseBrowser:       req.UseBrowser,
		FastCrawl:        req.FastCrawl,
	}

	// Accomplishments ride along as an optional second upload.
	if accomplishmentsPath, err := saveUpload(r, "accomplishments", workDir); err == nil {
		opts.AccomplishmentsPath = accomplishmentsPath
	} else if err != errNoUpload {
		os.RemoveAll(workDir)
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return pipeline.RunOptions{}, "", false
	}

	for _, key := range overridableArtifacts {
		if value := r.FormValue(key); value != "" {
			if opts.Overrides == nil {
				opts.Overrides = make(stages.Inputs)
			}
			opts.Overrides[key] = value
		}
	}

	return opts, workDir, true
}

var errNoUpload = fmt.Errorf("no file uploaded")

// allowedUploadExts are the source document formats the extractor handles.
var allowedUploadExts = map[string]bool{
	".txt":  true,
	".md":   true,
	".docx": true,
}

// saveUpload copies the named multipart file into dir, keeping its
// extension so the extractor can pick the right reader. Returns
// errNoUpload when the field is absent.
func saveUpload(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", errNoUpload
		}
		return "", fmt.Errorf("reading %s upload: %w", field, err)
	}
	defer file.Close()

	ext := uploadExt(header)
	if !allowedUploadExts[ext] {
		return "", fmt.Errorf("unsupported %s file type %q, expected .txt, .md, or .docx", field, ext)
	}

	path := filepath.Join(dir, field+ext)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("staging %s upload: %w", field, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("staging %s upload: %w", field, err)
	}
	return path, nil
}

func uploadExt(header *multipart.FileHeader) string {
	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".txt"
	}
	return ext
}

func formBool(r *http.Request, field string) bool {
	value, err := strconv.ParseBool(r.FormValue(field))
	return err == nil && value
}

// extractValidationErrors extracts validation error messages from validator
// errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
