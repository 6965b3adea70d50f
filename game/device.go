package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/backend/cpu"
	"github.com/pthm-cable/slime/backend/rlgl"
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/kernels"
)

// newDevice creates the compute device of the given kind. With trace set the
// device is wrapped in a recorder that debug-logs every command.
func newDevice(cfg *config.Config, kind string, trace bool) (backend.Device, *backend.Recorder, error) {
	var dev backend.Device
	switch kind {
	case config.BackendCPU:
		d := cpu.New(map[backend.Kernel]cpu.Kernel{
			backend.KernelSimulate: kernels.Simulate{WorkgroupSize: cfg.Agents.WorkgroupSize},
			backend.KernelDiffuse:  kernels.Diffuse{TileSize: cfg.Field.TileSize},
		}, cpu.Options{Workers: cfg.Backend.Workers})
		slog.Info("cpu device started", "workers", d.Workers())
		dev = d
	case config.BackendGL:
		d, err := rlgl.New(kernels.Sources(cfg.Agents.WorkgroupSize, cfg.Field.TileSize))
		if err != nil {
			return nil, nil, err
		}
		dev = d
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", backend.ErrInvalidConfig, kind)
	}

	if !trace {
		return dev, nil, nil
	}
	rec := backend.NewRecorder(dev, slog.Default())
	return rec, rec, nil
}
