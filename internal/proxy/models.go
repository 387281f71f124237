package proxy

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// model is a /v1/models entry in a merged format understood by both OpenAI and Anthropic
// clients; clients ignore the fields of the other API.
type model struct {
	ID          string `json:"id"`
	Object      string `json:"object"`
	Created     int64  `json:"created"`
	OwnedBy     string `json:"owned_by"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
}

type modelList struct {
	Object  string  `json:"object"`
	Data    []model `json:"data"`
	HasMore bool    `json:"has_more"`
	FirstID *string `json:"first_id"`
	LastID  *string `json:"last_id"`
}

// modelsHandler serves the configured model list. Upstream model listing is not
// forwarded because OAuth-authenticated upstreams do not support it.
func modelsHandler(provider types.Provider, ids []string) http.HandlerFunc {
	ids = lo.Compact(lo.Uniq(ids))
	list := modelList{
		Object: "list",
		Data: lo.Map(ids, func(id string, _ int) model {
			return model{
				ID:          id,
				Object:      "model",
				OwnedBy:     provider.String(),
				Type:        "model",
				DisplayName: id,
			}
		}),
	}
	if len(ids) > 0 {
		list.FirstID = lo.ToPtr(ids[0])
		list.LastID = lo.ToPtr(ids[len(ids)-1])
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, list, http.StatusOK)
	}
}
