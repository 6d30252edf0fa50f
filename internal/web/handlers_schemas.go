package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/reconcile/internal/core"
)

// schemaResponse is the API shape of a schema listing entry.
type schemaResponse struct {
	Key         string `json:"key"`
	Group       string `json:"group,omitempty"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// fieldResponse is the API shape of one canonical field. FieldSpec itself
// carries a normalizer func, so it cannot be serialized directly.
type fieldResponse struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Required   bool     `json:"required"`
	AllowEmpty bool     `json:"allowEmpty,omitempty"`
	EnumValues []string `json:"enumValues,omitempty"`
}

// schemaDetailResponse is the API shape of a full schema definition.
type schemaDetailResponse struct {
	schemaResponse
	Fields      []fieldResponse   `json:"fields"`
	Aliases     map[string]string `json:"aliases,omitempty"`
	TablePrefix string            `json:"tablePrefix,omitempty"`
}

func toSchemaResponse(info core.SchemaInfo) schemaResponse {
	return schemaResponse{
		Key:         info.Key,
		Group:       info.Group,
		Label:       info.Label,
		Description: info.Description,
	}
}

func toSchemaDetailResponse(def core.SchemaDefinition) schemaDetailResponse {
	fields := make([]fieldResponse, len(def.Fields))
	for i, f := range def.Fields {
		fields[i] = fieldResponse{
			Name:       f.Name,
			Type:       f.Type.String(),
			Required:   f.Required,
			AllowEmpty: f.AllowEmpty,
			EnumValues: f.EnumValues,
		}
	}
	return schemaDetailResponse{
		schemaResponse: toSchemaResponse(def.Info),
		Fields:         fields,
		Aliases:        def.Aliases,
		TablePrefix:    def.TablePrefix,
	}
}

// handleListSchemas returns every registered schema, grouped for display.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	groups := s.service.ListSchemasByGroup()

	response := make(map[string][]schemaResponse, len(groups))
	for group, infos := range groups {
		entries := make([]schemaResponse, len(infos))
		for i, info := range infos {
			entries[i] = toSchemaResponse(info)
		}
		response[group] = entries
	}

	writeJSON(w, http.StatusOK, map[string]any{"schemas": response})
}

// handleGetSchema returns one schema's full definition.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schemaKey := chi.URLParam(r, "schemaKey")

	def, ok := s.service.GetSchema(schemaKey)
	if !ok {
		respondError(w, r, core.ErrSchemaNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toSchemaDetailResponse(def))
}

// handleListRules returns a schema's persisted mapping rules.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	schemaKey := chi.URLParam(r, "schemaKey")

	rules, err := s.service.ListRules(r.Context(), schemaKey)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if rules == nil {
		rules = []core.MappingRule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}
