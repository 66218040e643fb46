// Package nodes is the plugin surface a node-graph host imports. It declares
// five passthrough nodes that trigger a best-effort memory reclamation and
// forward their input unchanged. Graph execution, widget rendering, and
// scheduling stay with the host; this package only supplies node metadata and
// callback bodies.
package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jmswth/reclaim/internal/metrics"
	"github.com/jmswth/reclaim/internal/reclaim"
)

// PortType identifies a typed connector on a node.
type PortType string

const (
	PortImage  PortType = "IMAGE"
	PortLatent PortType = "LATENT"
	PortModel  PortType = "MODEL"
	PortCLIP   PortType = "CLIP"
	PortString PortType = "STRING"
)

// Port is a named, typed input connector.
type Port struct {
	Name string
	Type PortType

	// ForceInput renders the port as a connector instead of an inline text
	// widget. Used by the string-trigger node.
	ForceInput bool
}

// Spec describes one node to the host: its ports, the boolean aggressive
// widget, and the callback body. The output port always echoes the input
// port's type.
type Spec struct {
	ID          string
	DisplayName string
	Category    string

	Input  Port
	Output PortType

	// AggressiveDefault is the widget default for the aggressive flag.
	AggressiveDefault bool

	// Execute runs the reclamation and returns the payload unchanged. It
	// never returns an error to the host; failures become log lines.
	Execute func(ctx context.Context, payload any, aggressive bool) any
}

// Pack holds the node pack's shared reclaimer and logger.
type Pack struct {
	reclaimer *reclaim.Reclaimer
	logger    zerolog.Logger
}

// NewPack builds the node pack around a configured reclaimer.
func NewPack(reclaimer *reclaim.Reclaimer, logger zerolog.Logger) *Pack {
	return &Pack{reclaimer: reclaimer, logger: logger}
}

// NewDefaultPack wires the pack with default collaborators: detected
// accelerator, gopsutil system reader, and this platform's cache clearer.
// models is the host's registry and may be nil.
func NewDefaultPack(models reclaim.ModelManager, logger zerolog.Logger) *Pack {
	return NewPack(reclaim.NewDefault(models, logger), logger)
}

const category = "Memory Utils"

// Specs returns every node in the pack, keyed for host registration by ID.
func (p *Pack) Specs() []Spec {
	return []Spec{
		p.passthroughSpec("FreeMemoryImage", "Free Memory (Image)", Port{Name: "image", Type: PortImage}),
		p.passthroughSpec("FreeMemoryLatent", "Free Memory (Latent)", Port{Name: "latent", Type: PortLatent}),
		p.passthroughSpec("FreeMemoryModel", "Free Memory (Model)", Port{Name: "model", Type: PortModel}),
		p.passthroughSpec("FreeMemoryCLIP", "Free Memory (CLIP)", Port{Name: "clip", Type: PortCLIP}),
		p.stringTriggerSpec(),
	}
}

// Registry maps node IDs to specs for host discovery.
func (p *Pack) Registry() map[string]Spec {
	specs := p.Specs()
	registry := make(map[string]Spec, len(specs))
	for _, s := range specs {
		registry[s.ID] = s
	}
	return registry
}

// Announce logs the registered nodes at load time.
func (p *Pack) Announce() {
	for _, s := range p.Specs() {
		p.logger.Debug().Str("node", s.ID).Str("display_name", s.DisplayName).Msg("registered memory node")
	}
}

func (p *Pack) passthroughSpec(id, displayName string, input Port) Spec {
	return Spec{
		ID:          id,
		DisplayName: displayName,
		Category:    category,
		Input:       input,
		Output:      input.Type,
		Execute: func(ctx context.Context, payload any, aggressive bool) any {
			return p.run(ctx, id, payload, aggressive)
		},
	}
}

// stringTriggerSpec wires the string node: the payload is only a trigger, so
// a truncated prefix is logged for debugging before the reclamation runs.
func (p *Pack) stringTriggerSpec() Spec {
	const id = "FreeMemoryString"
	return Spec{
		ID:          id,
		DisplayName: "Free Memory (String Trigger)",
		Category:    category,
		Input:       Port{Name: "string", Type: PortString, ForceInput: true},
		Output:      PortString,
		Execute: func(ctx context.Context, payload any, aggressive bool) any {
			p.logger.Debug().Str("trigger", truncate(fmt.Sprintf("%v", payload), 50)).
				Msg("string trigger received")
			return p.run(ctx, id, payload, aggressive)
		},
	}
}

func (p *Pack) run(ctx context.Context, id string, payload any, aggressive bool) any {
	metrics.NodeExecutionsTotal.WithLabelValues(id).Inc()

	report := p.reclaimer.Reclaim(ctx, aggressive)
	if report.HasWarnings() {
		p.logger.Debug().Str("node", id).Int("warnings", len(report.Warnings)).
			Msg("reclamation completed with warnings")
	}

	return payload
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
