package resolution

import (
	"fmt"

	"github.com/vyrodovalexey/avadispatch/internal/constraint"
	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

// DefaultProviderOrder is the order of DefaultProvider.
const DefaultProviderOrder = -1000

// Provider populates constraint slots for an endpoint.
type Provider interface {
	// Order determines when the provider runs; lower runs first.
	Order() int

	// Provide inspects ctx.Items and populates empty slots with Item.Set.
	Provide(ctx *ProviderContext) error
}

// ProviderContext is passed to each provider in the chain.
type ProviderContext struct {
	// Endpoint is the endpoint being resolved.
	Endpoint *endpoint.Descriptor

	// Items holds one slot per declared constraint metadata, in order.
	Items []*Item

	current   string
	violation error
}

// Item is one constraint slot.
type Item struct {
	metadata   constraint.Metadata
	constraint constraint.Constraint
	reusable   bool
	owner      string
	slot       int
	ctx        *ProviderContext
}

// Metadata returns the declaration the slot was created for.
func (i *Item) Metadata() constraint.Metadata {
	return i.metadata
}

// Constraint returns the constraint in the slot, or nil.
func (i *Item) Constraint() constraint.Constraint {
	return i.constraint
}

// Populated reports whether a provider has filled the slot.
func (i *Item) Populated() bool {
	return i.constraint != nil
}

// Reusable reports whether the slot's constraint may be cached.
func (i *Item) Reusable() bool {
	return i.reusable
}

// Owner returns the name of the provider that filled the slot.
func (i *Item) Owner() string {
	return i.owner
}

// Set populates the slot. A nil constraint leaves the slot empty. Setting
// an already populated slot returns a *util.ProviderContractError, and the
// resolution fails with it even if the provider drops the error.
func (i *Item) Set(c constraint.Constraint, reusable bool) error {
	if c == nil {
		return nil
	}
	if i.constraint != nil {
		err := util.NewProviderContractError(i.ctx.current, i.ctx.Endpoint.ID, i.slot,
			fmt.Sprintf("slot already populated by %s", i.owner))
		if i.ctx.violation == nil {
			i.ctx.violation = err
		}
		return err
	}
	i.constraint = c
	i.reusable = reusable
	i.owner = i.ctx.current
	return nil
}

// DefaultProvider realizes direct constraints and factories.
type DefaultProvider struct{}

// Order implements Provider.
func (DefaultProvider) Order() int {
	return DefaultProviderOrder
}

// Name identifies the provider in contract errors.
func (DefaultProvider) Name() string {
	return "default"
}

// Provide implements Provider.
func (DefaultProvider) Provide(ctx *ProviderContext) error {
	for _, item := range ctx.Items {
		if item.Populated() {
			continue
		}

		md := item.Metadata()
		switch md.Kind() {
		case constraint.KindDirect:
			if err := item.Set(md.Constraint(), true); err != nil {
				return err
			}
		case constraint.KindFactory:
			c, err := md.Factory().Create()
			if err != nil {
				return err
			}
			if err := item.Set(c, constraint.IsReusable(md.Factory())); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc struct {
	ProviderName  string
	ProviderOrder int
	Fn            func(ctx *ProviderContext) error
}

// Order implements Provider.
func (p ProviderFunc) Order() int {
	return p.ProviderOrder
}

// Name identifies the provider in contract errors.
func (p ProviderFunc) Name() string {
	return p.ProviderName
}

// Provide implements Provider.
func (p ProviderFunc) Provide(ctx *ProviderContext) error {
	return p.Fn(ctx)
}

func providerName(p Provider) string {
	if named, ok := p.(interface{ Name() string }); ok && named.Name() != "" {
		return named.Name()
	}
	return fmt.Sprintf("%T", p)
}
