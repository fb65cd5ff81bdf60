package observation_test

import (
	"github.com/observekit/observation-go/observation"
)

// recordingHandler records the order of lifecycle callbacks it receives.
type recordingHandler struct {
	calls    []string
	supports func(c *observation.Context) bool
}

func (h *recordingHandler) OnStart(_ *observation.Context) {
	h.calls = append(h.calls, "onStart")
}

func (h *recordingHandler) OnError(_ *observation.Context) {
	h.calls = append(h.calls, "onError")
}

func (h *recordingHandler) OnEvent(_ *observation.Context, e observation.Event) {
	h.calls = append(h.calls, "onEvent("+e.Name()+")")
}

func (h *recordingHandler) OnStop(_ *observation.Context) {
	h.calls = append(h.calls, "onStop")
}

func (h *recordingHandler) SupportsContext(c *observation.Context) bool {
	if h.supports != nil {
		return h.supports(c)
	}

	return true
}

// staticProvider yields fixed key-values for every supported context.
type staticProvider struct {
	low      observation.KeyValues
	high     observation.KeyValues
	supports func(c *observation.Context) bool
}

func (p *staticProvider) SupportsContext(c *observation.Context) bool {
	if p.supports != nil {
		return p.supports(c)
	}

	return true
}

func (p *staticProvider) LowCardinalityKeyValues(_ *observation.Context) observation.KeyValues {
	return p.low
}

func (p *staticProvider) HighCardinalityKeyValues(_ *observation.Context) observation.KeyValues {
	return p.high
}
