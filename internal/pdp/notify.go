package pdp

// Kind is the visual style of a toast.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
)

// ToastStage is the animation stage of a toast.
type ToastStage string

const (
	ToastEntering ToastStage = "entering"
	ToastShown    ToastStage = "shown"
	ToastLeaving  ToastStage = "leaving"
)

// toast holds only the timer for its next stage; each stage schedules the one after it.
type toast struct {
	id      int
	message string
	kind    Kind
	stage   ToastStage
	pending Timer
}

func (t *toast) cancel() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// Notify shows a transient toast and announces message through the live region.
// Each toast runs its own timers; removing a toast never clears the live region.
func (p *Page) Notify(message string, kind Kind) {
	if kind != KindSuccess {
		kind = KindInfo
	}
	p.nextToast++
	t := &toast{id: p.nextToast, message: message, kind: kind, stage: ToastEntering}
	p.toasts = append(p.toasts, t)

	t.pending = p.sched.AfterFunc(toastEnterDelay, func() {
		t.stage = ToastShown
		t.pending = p.sched.AfterFunc(toastVisibleFor-toastEnterDelay, func() {
			t.stage = ToastLeaving
			t.pending = p.sched.AfterFunc(toastExitDuration, func() {
				t.pending = nil
				p.removeToast(t.id)
			})
		})
	})

	p.live = message
}

func (p *Page) removeToast(id int) {
	for i, t := range p.toasts {
		if t.id == id {
			p.toasts = append(p.toasts[:i], p.toasts[i+1:]...)
			return
		}
	}
}

// LiveRegion returns the last announcement.
func (p *Page) LiveRegion() string {
	return p.live
}
