package pdp

import (
	"context"

	"go.uber.org/zap"

	"github.com/hanko-field/pdp/internal/domain"
)

type origin int

const (
	originUser origin = iota
	originRestore
)

// SelectColor makes value the active swatch, persists the state, and announces the change.
// Unknown colours are ignored.
func (p *Page) SelectColor(ctx context.Context, value string) bool {
	return p.setColor(ctx, value, originUser)
}

// SelectSize makes the option with the given code active. The state keeps the full size name.
func (p *Page) SelectSize(ctx context.Context, code string) bool {
	return p.setSize(ctx, code, originUser)
}

// setColor is the selection path shared by clicks and restoration. Both announce the change;
// restoration does not write back the record it was read from.
func (p *Page) setColor(ctx context.Context, value string, from origin) bool {
	i := p.colors.Index(value)
	if i < 0 {
		return false
	}
	p.colors.Select(i)
	p.state.SelectedColor = value

	if from == originUser {
		p.Save(ctx)
	}
	p.logger.Info("color changed", zap.String("color", value), zap.Bool("restored", from == originRestore))
	p.Notify("Selected color: "+value, KindInfo)
	return true
}

func (p *Page) setSize(ctx context.Context, code string, from origin) bool {
	i := p.sizes.Index(code)
	if i < 0 {
		return false
	}
	p.sizes.Select(i)
	name := domain.SizeName(code)
	p.state.SelectedSize = name

	if from == originUser {
		p.Save(ctx)
	}
	p.logger.Info("size changed", zap.String("size", code), zap.Bool("restored", from == originRestore))
	p.Notify("Selected size: "+name, KindInfo)
	return true
}
