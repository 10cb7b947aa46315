package pdp

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/hanko-field/pdp/internal/domain"
	"github.com/hanko-field/pdp/internal/storage"
)

var errStorageUnavailable = errors.New("pdp: storage unavailable")

// Save writes the session state under domain.PreferencesKey. Failures are logged and otherwise ignored.
func (p *Page) Save(ctx context.Context) {
	start := p.now()
	err := p.save(ctx)
	p.metrics.save(ctx, p.now().Sub(start), err)
	if err != nil {
		p.logger.Warn("could not save preferences", zap.Error(err))
	}
}

func (p *Page) save(ctx context.Context) error {
	if p.store == nil {
		return errStorageUnavailable
	}
	raw, err := json.Marshal(domain.PreferencesFromState(p.state))
	if err != nil {
		return err
	}
	return p.store.SetItem(ctx, domain.PreferencesKey, string(raw))
}

// Restore reads saved preferences and applies the fields present, in the order colour, size,
// quantity, cart count. Absent or unreadable records leave the state as it is.
func (p *Page) Restore(ctx context.Context) {
	if p.store == nil {
		p.logger.Warn("could not load preferences", zap.Error(errStorageUnavailable))
		return
	}
	raw, err := p.store.GetItem(ctx, domain.PreferencesKey)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		p.logger.Warn("could not load preferences", zap.Error(err))
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		p.logger.Warn("could not load preferences", zap.Error(err))
		return
	}

	if color, ok := decodeField[string](fields, "selectedColor"); ok && color != "" {
		p.setColor(ctx, color, originRestore)
	}
	if name, ok := decodeField[string](fields, "selectedSize"); ok && name != "" {
		if code, known := domain.SizeCode(name); known {
			p.setSize(ctx, code, originRestore)
		}
	}
	if qty, ok := decodeField[int](fields, "quantity"); ok && qty != 0 {
		p.state.Quantity = domain.ClampQuantity(qty)
	}
	if count, ok := decodeField[int](fields, "cartCount"); ok && count > 0 {
		p.state.CartCount = count
	}
}

// decodeField decodes one field of the record. Fields of the wrong type are treated as absent.
func decodeField[T any](fields map[string]json.RawMessage, name string) (T, bool) {
	var v T
	raw, ok := fields[name]
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// Unload saves the state when the page is being left.
func (p *Page) Unload(ctx context.Context) {
	p.Save(ctx)
}

// VisibilityChanged saves the state when the page becomes hidden.
func (p *Page) VisibilityChanged(ctx context.Context, state string) {
	if state == "hidden" {
		p.Save(ctx)
	}
}
