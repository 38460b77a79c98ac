// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleetops/laneimport/internal/batch"
	"github.com/fleetops/laneimport/internal/fields"
	"github.com/fleetops/laneimport/internal/importapi"
	"github.com/fleetops/laneimport/internal/sheet"
)

func (s *Server) handlePreview(c *gin.Context) {
	file, ok := s.readUpload(c)
	if !ok {
		return
	}
	table, ok := s.readTable(c, file)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sheet.PreviewOf(table, s.opts.SampleSize))
}

func (s *Server) handleImport(c *gin.Context) {
	file, ok := s.readUpload(c)
	if !ok {
		return
	}

	var m fields.Mapping
	raw := c.PostForm(importapi.FormMapping)
	if strings.TrimSpace(raw) == "" {
		respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeInvalidMapping, "mapping is required", nil)
		return
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeInvalidMapping, "mapping is not a JSON object of field to column", gin.H{"reason": err.Error()})
		return
	}

	clientID := strings.TrimSpace(c.PostForm(importapi.FormClientID))
	if clientID == "" {
		respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeValidation, "clientId is required", nil)
		return
	}

	fallbacks := map[string]string{}
	for _, f := range s.registry.Fields() {
		if v, ok := c.GetPostForm(importapi.FallbackFormField(f.Key)); ok && strings.TrimSpace(v) != "" {
			fallbacks[f.Key] = v
		}
	}

	table, ok := s.readTable(c, file)
	if !ok {
		return
	}
	if table.Len() == 0 {
		respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeValidation, "file has no data rows", nil)
		return
	}

	result, err := s.processor.Process(c.Request.Context(), table, m, fallbacks, clientID)
	if err != nil {
		var incomplete *importapi.IncompleteMappingError
		var invalid *batch.InvalidMappingError
		switch {
		case errors.As(err, &incomplete):
			respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeMissingMapping, err.Error(), gin.H{"missing": incomplete.Missing})
		case errors.As(err, &invalid):
			respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeInvalidMapping, err.Error(),
				gin.H{"unknownFields": invalid.UnknownFields, "unknownColumns": invalid.UnknownColumns})
		default:
			s.logger.Error("import failed", zap.String("client_id", clientID), zap.Error(err))
			respondWithError(c, http.StatusInternalServerError, importapi.ErrorCodeInternal, "import failed", nil)
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) readUpload(c *gin.Context) (importapi.File, bool) {
	header, err := c.FormFile(importapi.FormFile)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeValidation, "multipart field \"file\" is required", gin.H{"reason": err.Error()})
		return importapi.File{}, false
	}
	if header.Size > s.opts.MaxUploadBytes {
		respondWithError(c, http.StatusRequestEntityTooLarge, importapi.ErrorCodeValidation, "file is too large", gin.H{"limit": s.opts.MaxUploadBytes})
		return importapi.File{}, false
	}

	f, err := header.Open()
	if err != nil {
		respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeUnreadableFile, "could not open uploaded file", nil)
		return importapi.File{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeUnreadableFile, "could not read uploaded file", nil)
		return importapi.File{}, false
	}
	return importapi.File{Name: header.Filename, Data: data}, true
}

func (s *Server) readTable(c *gin.Context, file importapi.File) (*sheet.Table, bool) {
	table, err := s.pipeline.Read(c.Request.Context(), file)
	if err != nil {
		s.logger.Info("unreadable upload", zap.String("file", file.Name), zap.Error(err))
		respondWithError(c, http.StatusBadRequest, importapi.ErrorCodeUnreadableFile, err.Error(), nil)
		return nil, false
	}
	for _, w := range table.Warnings {
		s.logger.Debug("spreadsheet warning", zap.String("file", file.Name), zap.Int("line", w.Line), zap.String("message", w.Message))
	}
	return table, true
}
