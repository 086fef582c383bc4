package app

import (
	"github.com/skyhookml/netviz/netviz"

	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/mem"
)

type StatusResponse struct {
	MemoryTotal     uint64  `json:"memory_total"`
	MemoryAvailable uint64  `json:"memory_available"`
	MemoryUsed      float64 `json:"memory_used_percent"`
	// Human-readable versions of the above.
	MemoryTotalText     string `json:"memory_total_text"`
	MemoryAvailableText string `json:"memory_available_text"`

	DeclarativeInput string `json:"declarative_input"`
	ImperativeInput  string `json:"imperative_input"`
	Assets           int    `json:"assets"`
}

func getStatus() (StatusResponse, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return StatusResponse{}, err
	}
	return StatusResponse{
		MemoryTotal:         vm.Total,
		MemoryAvailable:     vm.Available,
		MemoryUsed:          vm.UsedPercent,
		MemoryTotalText:     humanize.Bytes(vm.Total),
		MemoryAvailableText: humanize.Bytes(vm.Available),
		DeclarativeInput:    Config.Input.DeclarativeShape().String(),
		ImperativeInput:     Config.Input.ImperativeShape().String(),
		Assets:              len(ListAssets()),
	}, nil
}

func init() {
	Router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status, err := getStatus()
		if err != nil {
			errorResponse(w, http.StatusInternalServerError, err)
			return
		}
		netviz.JsonResponse(w, status)
	}).Methods("GET")
}
