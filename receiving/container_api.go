package main

import (
	"net/http"

	"github.com/harborworks/receiving-go/internal/repo"
)

// handleListUnplannedContainers lists registry containers with no active
// assignment, the candidate pool for new plans.
func (api *receivingAPI) handleListUnplannedContainers(w http.ResponseWriter, r *http.Request) {
	filter := repo.ContainerFilter{
		BookingCode: r.URL.Query().Get("booking_code"),
		Limit:       clampInt(parseIntQuery(r, "limit", 200), 1, 1000),
	}

	containers, err := api.service(api.db).ListUnplannedContainers(r.Context(), filter)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	docs := make([]containerDoc, 0, len(containers))
	for _, c := range containers {
		docs = append(docs, containerDocFromDomain(c))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"containers": docs})
}
