package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/hooking"
	"github.com/sarchlab/avrtester/tester"
)

// CollectTrace lets the tracer collect traces from a tester and the
// components it schedules.
func CollectTrace(t *tester.Tester, tracer Tracer) {
	for _, hook := range t.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.tracer == tracer {
			panic(fmt.Sprintf("tester already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	h := &traceHook{t: t, tracer: tracer}
	t.AcceptHook(h)
	t.Components().AcceptHook(h)
}

// A traceHook turns tester and scheduler hooks into tracer calls.
type traceHook struct {
	t      *tester.Tester
	tracer Tracer
}

// Func calls the tracer interfaces when the hook is triggered
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case tester.HookPosAfterStep:
		h.tracer.Step(ctx.Item.(tester.StepEvent))
	case components.HookPosTaskAdded:
		handle := ctx.Item.(*components.Handle)
		h.tracer.StartTask(Task{
			ID:         handle.ID(),
			Name:       handle.Name(),
			StartCycle: h.t.Now().AsCycles(),
		})
	case components.HookPosTaskEvicted:
		handle := ctx.Item.(*components.Handle)
		h.tracer.EndTask(Task{
			ID:       handle.ID(),
			Name:     handle.Name(),
			EndCycle: h.t.Now().AsCycles(),
			Reason:   ctx.Detail.(components.EvictionReason),
		})
	}
}
