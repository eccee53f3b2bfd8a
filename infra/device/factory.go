package device

import (
	"strings"

	coredevice "github.com/heatctl/heatctl/core/device"
	"github.com/heatctl/heatctl/infra/thermia"
)

// Config selects and parameterizes the heat pump brand client.
type Config struct {
	Type    string         `json:"type"`
	Thermia thermia.Config `json:"thermia"`
}

// New returns the controller variant named by cfg.Type: "thermia" for the
// vendor cloud client, "dummy" for the in-memory test double, anything else
// for the silent stub.
func New(cfg Config) (coredevice.Controller, error) {
	switch strings.ToLower(cfg.Type) {
	case "thermia":
		return thermia.NewClient(cfg.Thermia)
	case "dummy":
		return NewDummy(), nil
	default:
		return Silent{}, nil
	}
}
